package wire

// Connack is the CONNACK message (section 5.3.5): a single return code.
type Connack struct {
	ReturnCode uint8
}

func (m *Connack) Type() uint8     { return CONNACK }
func (m *Connack) payload() []byte { return []byte{m.ReturnCode} }

func decodeConnack(payload []byte) (*Connack, error) {
	if len(payload) != 1 {
		return nil, parseErrorf("CONNACK: expected 1 byte, got %d", len(payload))
	}
	return &Connack{ReturnCode: payload[0]}, nil
}
