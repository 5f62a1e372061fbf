// Package wire implements the MQTT-SN 1.2 binary encoding used between
// constrained UDP clients and the gateway.
//
// It covers the subset of message types the gateway understands: CONNECT,
// CONNACK, REGISTER, REGACK, PUBLISH, PUBACK, PINGREQ, PINGRESP, and
// DISCONNECT. All other MQTT-SN message types are recognized (their type
// byte is a known constant) but decode into an Unknown value rather than a
// typed variant, matching the source gateway's "unhandled but not an
// error" treatment of message types outside its scope (ADVERTISE,
// SEARCHGW, GWINFO, WILLTOPIC*, SUBSCRIBE/SUBACK, and the QoS 2 packet
// types).
//
// The package is pure: no I/O, no package-level state. Decode takes the
// full contents of one UDP datagram and returns a Message or a
// *ParseError. Encode takes a Message and returns the exact bytes to put
// on the wire.
package wire
