package wire

import (
	"encoding/binary"
	"unicode/utf8"
)

// appendUint16 appends a big-endian 16-bit value to dst.
func appendUint16(dst []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(dst, v)
}

// decodeUint16 reads a big-endian 16-bit value from the start of buf.
func decodeUint16(buf []byte) (uint16, error) {
	if len(buf) < 2 {
		return 0, parseErrorf("buffer too short for 16-bit field")
	}
	return binary.BigEndian.Uint16(buf), nil
}

// decodeUTF8 validates that buf is well-formed UTF-8 and returns it as a
// string. MQTT-SN topic names and client identifiers are not
// length-prefixed; they simply run to the end of the message.
func decodeUTF8(buf []byte) (string, error) {
	if !utf8.Valid(buf) {
		return "", parseErrorf("field is not valid UTF-8")
	}
	return string(buf), nil
}
