package wire

// Disconnect is the DISCONNECT message (section 5.3.18). Duration is
// present only when a client is requesting to enter the "asleep" state
// for that many seconds; nil means an outright disconnect.
type Disconnect struct {
	Duration *uint16
}

func (m *Disconnect) Type() uint8 { return DISCONNECT }

func (m *Disconnect) payload() []byte {
	if m.Duration == nil {
		return nil
	}
	return appendUint16(nil, *m.Duration)
}

func decodeDisconnect(payload []byte) (*Disconnect, error) {
	switch len(payload) {
	case 0:
		return &Disconnect{}, nil
	case 2:
		d, err := decodeUint16(payload)
		if err != nil {
			return nil, err
		}
		return &Disconnect{Duration: &d}, nil
	default:
		return nil, parseErrorf("DISCONNECT: expected 0 or 2 bytes, got %d", len(payload))
	}
}
