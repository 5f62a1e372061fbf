package wire

// Flags is the one-byte flags field carried by CONNECT and PUBLISH.
//
// Bit layout, MSB to LSB: dup(1) qos(2) retain(1) will(1) clean_session(1)
// topic_type(2).
type Flags struct {
	Dup          bool
	QoS          uint8 // 0-3; only 0 and 1 are accepted on PUBLISH
	Retain       bool
	Will         bool
	CleanSession bool
	TopicType    uint8 // TopicTypeNormal, TopicTypePredefined, or TopicTypeShort
}

// DecodeFlags unpacks a flags byte.
func DecodeFlags(b byte) Flags {
	return Flags{
		Dup:          b&0x80 != 0,
		QoS:          (b >> 5) & 0x03,
		Retain:       b&0x10 != 0,
		Will:         b&0x08 != 0,
		CleanSession: b&0x04 != 0,
		TopicType:    b & 0x03,
	}
}

// Encode packs Flags back into a single byte, at the same bit positions
// DecodeFlags reads them from.
func (f Flags) Encode() byte {
	var b byte
	if f.Dup {
		b |= 0x80
	}
	b |= (f.QoS & 0x03) << 5
	if f.Retain {
		b |= 0x10
	}
	if f.Will {
		b |= 0x08
	}
	if f.CleanSession {
		b |= 0x04
	}
	b |= f.TopicType & 0x03
	return b
}
