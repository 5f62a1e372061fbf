package wire

// Pingreq is the PINGREQ message (section 5.3.16). ClientID is only
// present when a sleeping client uses PINGREQ to announce it is awake;
// a connected client's keepalive ping carries no client_id.
type Pingreq struct {
	ClientID string
}

func (m *Pingreq) Type() uint8 { return PINGREQ }

func (m *Pingreq) payload() []byte {
	return []byte(m.ClientID)
}

func decodePingreq(payload []byte) (*Pingreq, error) {
	clientID, err := decodeUTF8(payload)
	if err != nil {
		return nil, err
	}
	return &Pingreq{ClientID: clientID}, nil
}
