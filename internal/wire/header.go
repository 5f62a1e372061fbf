package wire

import "encoding/binary"

// frame prepends the MQTT-SN length header to a message type byte and its
// payload, and returns the complete datagram bytes.
//
// The length field includes itself: a 1-byte length (2..255) when the
// whole message fits, or a 0x01 marker followed by a big-endian 2-byte
// length (256..65535) when it doesn't.
func frame(msgType uint8, payload []byte) ([]byte, error) {
	contentLen := 1 + len(payload) // type byte + payload
	total := 1 + contentLen        // + 1-byte length field

	if total <= 255 {
		buf := make([]byte, 0, total)
		buf = append(buf, byte(total))
		buf = append(buf, msgType)
		buf = append(buf, payload...)
		return buf, nil
	}

	total = 3 + contentLen // 0x01 marker + 2-byte length field
	if total > 65535 {
		return nil, parseErrorf("encoded message length %d exceeds 65535", total)
	}
	buf := make([]byte, 0, total)
	buf = append(buf, 0x01)
	buf = binary.BigEndian.AppendUint16(buf, uint16(total))
	buf = append(buf, msgType)
	buf = append(buf, payload...)
	return buf, nil
}

// splitHeader validates the length header against the datagram size and
// returns the message type byte and the remaining payload bytes.
func splitHeader(data []byte) (msgType uint8, payload []byte, err error) {
	if len(data) < 2 {
		return 0, nil, parseErrorf("datagram too short: %d bytes", len(data))
	}

	var total, headerLen int
	switch first := data[0]; {
	case first == 0x01:
		if len(data) < 3 {
			return 0, nil, parseErrorf("truncated 3-byte length header")
		}
		total = int(binary.BigEndian.Uint16(data[1:3]))
		headerLen = 3
	case first >= 2:
		total = int(first)
		headerLen = 1
	default:
		return 0, nil, parseErrorf("invalid length byte 0x%02x", first)
	}

	if total != len(data) {
		return 0, nil, parseErrorf("length field %d does not match datagram size %d", total, len(data))
	}
	if len(data) < headerLen+1 {
		return 0, nil, parseErrorf("truncated message: no type byte")
	}

	msgType = data[headerLen]
	payload = data[headerLen+1:]
	return msgType, payload, nil
}
