package wire

// Publish is the PUBLISH message (section 5.3.13). Data runs to the end
// of the message and is carried verbatim — the gateway never inspects it,
// only forwards it.
type Publish struct {
	Flags   Flags
	TopicID uint16
	MsgID   uint16
	Data    []byte
}

func (m *Publish) Type() uint8 { return PUBLISH }

func (m *Publish) payload() []byte {
	buf := make([]byte, 0, 5+len(m.Data))
	buf = append(buf, m.Flags.Encode())
	buf = appendUint16(buf, m.TopicID)
	buf = appendUint16(buf, m.MsgID)
	buf = append(buf, m.Data...)
	return buf
}

func decodePublish(payload []byte) (*Publish, error) {
	if len(payload) < 5 {
		return nil, parseErrorf("PUBLISH too short: %d bytes", len(payload))
	}
	topicID, err := decodeUint16(payload[1:3])
	if err != nil {
		return nil, err
	}
	msgID, err := decodeUint16(payload[3:5])
	if err != nil {
		return nil, err
	}
	return &Publish{
		Flags:   DecodeFlags(payload[0]),
		TopicID: topicID,
		MsgID:   msgID,
		Data:    append([]byte(nil), payload[5:]...),
	}, nil
}
