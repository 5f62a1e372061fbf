package wire

// Regack is the REGACK message (section 5.3.12): the gateway's response
// to Register, carrying the assigned topic_id and a return code.
type Regack struct {
	TopicID    uint16
	MsgID      uint16
	ReturnCode uint8
}

func (m *Regack) Type() uint8 { return REGACK }

func (m *Regack) payload() []byte {
	buf := make([]byte, 0, 5)
	buf = appendUint16(buf, m.TopicID)
	buf = appendUint16(buf, m.MsgID)
	buf = append(buf, m.ReturnCode)
	return buf
}

func decodeRegack(payload []byte) (*Regack, error) {
	if len(payload) != 5 {
		return nil, parseErrorf("REGACK: expected 5 bytes, got %d", len(payload))
	}
	topicID, err := decodeUint16(payload[0:2])
	if err != nil {
		return nil, err
	}
	msgID, err := decodeUint16(payload[2:4])
	if err != nil {
		return nil, err
	}
	return &Regack{TopicID: topicID, MsgID: msgID, ReturnCode: payload[4]}, nil
}
