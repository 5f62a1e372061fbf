package wire

// Register is the REGISTER message (section 5.3.11), sent by a client to
// obtain a topic_id for a topic name, or by the gateway itself when it
// registers a predefined topic with a client. TopicID is 0x0000 on a
// client's request and is filled in only on the matching Regack.
type Register struct {
	TopicID   uint16
	MsgID     uint16
	TopicName string
}

func (m *Register) Type() uint8 { return REGISTER }

func (m *Register) payload() []byte {
	buf := make([]byte, 0, 4+len(m.TopicName))
	buf = appendUint16(buf, m.TopicID)
	buf = appendUint16(buf, m.MsgID)
	buf = append(buf, m.TopicName...)
	return buf
}

func decodeRegister(payload []byte) (*Register, error) {
	if len(payload) < 4 {
		return nil, parseErrorf("REGISTER too short: %d bytes", len(payload))
	}
	topicID, err := decodeUint16(payload[0:2])
	if err != nil {
		return nil, err
	}
	msgID, err := decodeUint16(payload[2:4])
	if err != nil {
		return nil, err
	}
	topicName, err := decodeUTF8(payload[4:])
	if err != nil {
		return nil, err
	}
	if topicName == "" {
		return nil, parseErrorf("REGISTER: empty topic_name")
	}
	return &Register{TopicID: topicID, MsgID: msgID, TopicName: topicName}, nil
}
