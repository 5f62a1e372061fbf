package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/mqttsn/gateway/internal/wire"
)

// DefaultDispatchTimeout bounds how long a single datagram's store and
// forwarder calls are allowed to take before the dispatcher treats the
// operation as if the backing service were unavailable. Section 9 of the
// original design left this unenforced; this gateway enforces it.
const DefaultDispatchTimeout = 3 * time.Second

// Options configures a Dispatcher's optional behavior.
type Options struct {
	// ExtendTTLOnPublish enables the best-effort client/topic TTL refresh
	// after a successful PUBLISH. The zero Options value leaves it off;
	// LoadConfig defaults MQTTSN_EXTEND_STORE_TTL_ON_PUBLISH to true.
	ExtendTTLOnPublish bool

	// UsePortNumberInClientStore includes the UDP source port in the
	// client-store key (MQTTSN_USE_PORT_NUMBER_IN_CLIENT_STORE). Defaults
	// to false: behind NAT, many devices can share one public ip with an
	// unstable port, so the key must be the ip alone.
	UsePortNumberInClientStore bool

	// DispatchTimeout bounds store and forwarder calls made while handling
	// one datagram. Zero means DefaultDispatchTimeout.
	DispatchTimeout time.Duration

	// Logger receives one structured line per dropped, rejected or failed
	// datagram; successfully handled datagrams are not logged. A nil Logger
	// discards all output.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (o Options) timeout() time.Duration {
	if o.DispatchTimeout > 0 {
		return o.DispatchTimeout
	}
	return DefaultDispatchTimeout
}

// Dispatcher is the per-datagram orchestrator: parse, classify, enforce
// session/topic preconditions, forward, synthesize an acknowledgement.
// It holds no cross-datagram in-memory state beyond what the stores
// provide — a Dispatcher is safe to share across every worker goroutine
// in the server's pool.
type Dispatcher struct {
	clients ClientStore
	topics  TopicStore
	fwd     Forwarder
	opts    Options
}

// NewDispatcher builds a Dispatcher over the given stores and forwarder.
func NewDispatcher(clients ClientStore, topics TopicStore, fwd Forwarder, opts Options) *Dispatcher {
	return &Dispatcher{clients: clients, topics: topics, fwd: fwd, opts: opts}
}

// Dispatch handles one received datagram from remoteAddr and returns the
// bytes to send back, or nil if no response is warranted (parse failure,
// or a message kind the gateway doesn't answer).
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte, remoteAddr net.Addr) []byte {
	log := d.opts.logger()
	addrKey := clientKeyFromAddr(remoteAddr, d.opts.UsePortNumberInClientStore)

	msg, err := wire.Decode(data)
	if err != nil {
		log.Warn("dropping malformed datagram", "addr", addrKey, "err", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.timeout())
	defer cancel()

	var resp wire.Message
	switch m := msg.(type) {
	case *wire.Connect:
		resp = d.handleConnect(ctx, addrKey, m)
	case *wire.Register:
		resp = d.handleRegister(ctx, addrKey, m)
	case *wire.Publish:
		resp = d.handlePublish(ctx, addrKey, m)
	case *wire.Pingreq:
		resp = &wire.Pingresp{}
	default:
		log.Debug("dropping unhandled message type", "addr", addrKey, "type", wire.TypeName(msg.Type()))
		return nil
	}

	if resp == nil {
		return nil
	}
	out, err := wire.Encode(resp)
	if err != nil {
		log.Error("failed to encode response", "addr", addrKey, "err", err)
		return nil
	}
	return out
}

// clientKeyFromAddr derives the client-store key for remoteAddr, stripping
// the port when usePort is false so NAT'd clients that share a public ip
// still resolve to the same key across reconnects on a different port.
func clientKeyFromAddr(remoteAddr net.Addr, usePort bool) string {
	addr := remoteAddr.String()
	if usePort {
		return addr
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func (d *Dispatcher) handleConnect(ctx context.Context, addrKey string, m *wire.Connect) wire.Message {
	log := d.opts.logger()

	if m.Flags.CleanSession {
		if err := d.topics.DeleteAll(ctx, m.ClientID); err != nil && !errors.Is(err, ErrNotFound) {
			log.Warn("clean-session topic wipe failed", "client_id", m.ClientID, "err", err)
		}
	}

	if err := d.clients.Add(ctx, addrKey, m.ClientID); err != nil {
		reportError(log, err, map[string]string{"component": "client_store"}, "CONNECT store write failed", "addr", addrKey, "client_id", m.ClientID)
		return &wire.Connack{ReturnCode: wire.Congestion}
	}
	return &wire.Connack{ReturnCode: wire.Accepted}
}

func (d *Dispatcher) handleRegister(ctx context.Context, addrKey string, m *wire.Register) wire.Message {
	log := d.opts.logger()

	clientID, err := d.clients.Get(ctx, addrKey)
	switch {
	case errors.Is(err, ErrNotFound):
		log.Info("REGISTER from unknown client", "addr", addrKey)
		return &wire.Disconnect{}
	case err != nil:
		reportError(log, err, map[string]string{"component": "client_store"}, "client store unavailable on REGISTER", "addr", addrKey)
		return &wire.Regack{TopicID: 0, MsgID: m.MsgID, ReturnCode: wire.Congestion}
	}

	topicID, err := d.topics.AddTopic(ctx, clientID, m.TopicName)
	if err != nil {
		reportError(log, err, map[string]string{"component": "topic_store"}, "topic store unavailable on REGISTER", "client_id", clientID)
		return &wire.Regack{TopicID: 0, MsgID: m.MsgID, ReturnCode: wire.Congestion}
	}
	return &wire.Regack{TopicID: topicID, MsgID: m.MsgID, ReturnCode: wire.Accepted}
}

func (d *Dispatcher) handlePublish(ctx context.Context, addrKey string, m *wire.Publish) wire.Message {
	log := d.opts.logger()
	puback := func(code uint8) *wire.Puback {
		return &wire.Puback{TopicID: m.TopicID, MsgID: m.MsgID, ReturnCode: code}
	}

	clientID, err := d.clients.Get(ctx, addrKey)
	switch {
	case errors.Is(err, ErrNotFound):
		log.Info("PUBLISH from unknown client", "addr", addrKey)
		return &wire.Disconnect{}
	case err != nil:
		reportError(log, err, map[string]string{"component": "client_store"}, "client store unavailable on PUBLISH", "addr", addrKey)
		return puback(wire.Congestion)
	}

	if m.Flags.QoS > 1 {
		log.Info("PUBLISH with unsupported QoS", "client_id", clientID, "qos", m.Flags.QoS)
		return puback(wire.NotSupported)
	}

	topicName, err := d.topics.GetTopic(ctx, clientID, m.TopicID)
	switch {
	case errors.Is(err, ErrNotFound):
		log.Info("PUBLISH to unregistered topic_id", "client_id", clientID, "topic_id", m.TopicID)
		return puback(wire.InvalidTopic)
	case err != nil:
		reportError(log, err, map[string]string{"component": "topic_store"}, "topic store unavailable on PUBLISH", "client_id", clientID)
		return puback(wire.Congestion)
	}

	if err := d.fwd.Forward(ctx, topicName, m.Data, m.Flags.QoS); err != nil {
		reportError(log, err, map[string]string{"component": "forwarder"}, "forward failed", "client_id", clientID, "topic", topicName)
		return puback(wire.Congestion)
	}

	if d.opts.ExtendTTLOnPublish {
		if err := d.clients.ExtendTTL(ctx, addrKey); err != nil && !errors.Is(err, ErrUnavailable) {
			log.Warn("client TTL extension failed", "addr", addrKey, "err", err)
		}
		if err := d.topics.ExtendTTL(ctx, clientID); err != nil && !errors.Is(err, ErrUnavailable) {
			log.Warn("topic TTL extension failed", "client_id", clientID, "err", err)
		}
	}

	return puback(wire.Accepted)
}
