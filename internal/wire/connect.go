package wire

// Connect is the CONNECT message (section 5.3.4): flags, protocol_id,
// duration, client_id. protocol_id is validated on decode and not
// exposed — it is always 0x01 on the wire.
type Connect struct {
	Flags    Flags
	Duration uint16
	ClientID string
}

func (m *Connect) Type() uint8 { return CONNECT }

func (m *Connect) payload() []byte {
	buf := make([]byte, 0, 4+len(m.ClientID))
	buf = append(buf, m.Flags.Encode())
	buf = append(buf, protocolID)
	buf = appendUint16(buf, m.Duration)
	buf = append(buf, m.ClientID...)
	return buf
}

func decodeConnect(payload []byte) (*Connect, error) {
	if len(payload) < 4 {
		return nil, parseErrorf("CONNECT too short: %d bytes", len(payload))
	}
	if payload[1] != protocolID {
		return nil, parseErrorf("CONNECT: unsupported protocol_id 0x%02x", payload[1])
	}
	duration, err := decodeUint16(payload[2:4])
	if err != nil {
		return nil, err
	}
	clientID, err := decodeUTF8(payload[4:])
	if err != nil {
		return nil, err
	}
	if clientID == "" {
		return nil, parseErrorf("CONNECT: empty client_id")
	}
	return &Connect{
		Flags:    DecodeFlags(payload[0]),
		Duration: duration,
		ClientID: clientID,
	}, nil
}
