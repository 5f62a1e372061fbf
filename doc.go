// Package gateway terminates MQTT-SN sessions arriving over UDP from
// constrained devices and forwards their published payloads onto an AMQP
// topic exchange.
//
// It implements the minimal session bookkeeping MQTT-SN requires — client
// registration, topic-name-to-topic-id mapping, and keepalive — while
// acting as a fan-in/fan-out router between many low-bandwidth UDP clients
// and a bounded pool of broker connections.
//
// # Architecture
//
// Per datagram, control flows:
//
//	UDP server -> Dispatcher -> (wire codec, ClientStore, TopicStore, Forwarder) -> wire codec -> UDP server
//
// The wire codec (package wire) is pure: it has no I/O and no state.
// ClientStore and TopicStore are contracts over an external key-value
// service (production: Redis/Valkey; tests: in-memory doubles). Forwarder
// is a contract over a durable messaging fabric (production: AMQP topic
// exchange; tests: in-memory double). The Dispatcher holds no state of its
// own beyond a per-call scratch context; all session-durable state lives
// in the stores.
//
// # Quick start
//
//	clients := gateway.NewRedisClientStore(redisClient, gateway.DefaultSessionTTL)
//	topics := gateway.NewRedisTopicStore(redisClient, gateway.DefaultSessionTTL)
//	fwd, err := gateway.NewAMQPForwarder(amqpConn, "mqtt-sn", gateway.DefaultAMQPChannelPoolSize)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d := gateway.NewDispatcher(clients, topics, fwd, gateway.Options{})
//	srv := gateway.NewServer(d, gateway.ServerConfig{Addr: ":1884"})
//	srv.ListenAndServe(ctx)
//
// # Error handling
//
// Store and forwarder implementations report failures as ErrNotFound or
// ErrUnavailable (stores) and ErrForwarding (forwarder); the dispatcher
// translates these into the MQTT-SN response required by the protocol
// state machine rather than propagating Go errors to the wire.
package gateway
