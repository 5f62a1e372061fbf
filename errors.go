package gateway

import (
	"errors"
	"fmt"
)

// Standard errors returned by the stores and forwarder. Dispatcher logic
// translates these into MQTT-SN return codes or responses; see dispatch.go.
var (
	// ErrNotFound is returned when a client session or topic registration
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is returned by a store when the backing key-value
	// service could not be reached within its call deadline.
	ErrUnavailable = errors.New("backing service unavailable")

	// ErrForwarding is returned by a Forwarder when the downstream publish
	// failed for any reason, including a broken broker connection or no
	// pooled channel being available.
	ErrForwarding = errors.New("forward failed")
)

// StoreError wraps a store operation failure with the key it was acting on,
// while still unwrapping to one of ErrNotFound or ErrUnavailable so callers
// can use errors.Is without caring about the concrete store implementation.
type StoreError struct {
	Op     string // "get", "add", "delete", "extend_ttl", "add_topic", "get_topic", "delete_all"
	Key    string
	Parent error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("gateway: %s %s: %s", e.Op, e.Key, e.Parent.Error())
}

func (e *StoreError) Unwrap() error {
	return e.Parent
}

// ForwardError wraps a Forwarder failure with the topic it was publishing to.
type ForwardError struct {
	Topic  string
	Parent error
}

func (e *ForwardError) Error() string {
	return fmt.Sprintf("gateway: forward to %q: %s", e.Topic, e.Parent.Error())
}

func (e *ForwardError) Unwrap() error {
	return errors.Join(ErrForwarding, e.Parent)
}
