package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPForwarder is the production Forwarder. It publishes onto a
// pre-declared topic exchange, translating the MQTT-SN topic to an AMQP
// routing key via translateRoutingKey.
//
// Publishing is spread across a fixed-size pool of channels opened on a
// single connection, picked round-robin: each Forward call takes the
// least-recently-used channel and rotates it to the tail. If the pool is
// empty (every channel is in use, or Close has been called) Forward fails
// with a ForwardError instead of waiting or opening a new channel.
type AMQPForwarder struct {
	exchange string

	mu   sync.Mutex
	pool []*amqp.Channel
	conn *amqp.Connection
}

// NewAMQPForwarder declares exchange as a durable topic exchange on conn
// and returns a Forwarder backed by a pool of poolSize channels. A
// poolSize of 0 uses DefaultAMQPChannelPoolSize.
func NewAMQPForwarder(conn *amqp.Connection, exchange string, poolSize int) (*AMQPForwarder, error) {
	if poolSize <= 0 {
		poolSize = DefaultAMQPChannelPoolSize
	}

	declare, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("gateway: open declare channel: %w", err)
	}
	defer declare.Close()

	if err := declare.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("gateway: declare exchange %q: %w", exchange, err)
	}

	f := &AMQPForwarder{exchange: exchange, conn: conn}
	for i := 0; i < poolSize; i++ {
		ch, err := conn.Channel()
		if err != nil {
			return nil, fmt.Errorf("gateway: open publish channel %d/%d: %w", i+1, poolSize, err)
		}
		f.pool = append(f.pool, ch)
	}
	return f, nil
}

// DefaultAMQPChannelPoolSize is the default channel-pool size when
// NewAMQPForwarder is called with poolSize 0.
const DefaultAMQPChannelPoolSize = 10

func (f *AMQPForwarder) Forward(ctx context.Context, topic string, payload []byte, qos uint8) error {
	ch, release := f.take()
	if ch == nil {
		return &ForwardError{Topic: topic, Parent: errors.New("no channel available")}
	}
	defer release(ch)

	routingKey := translateRoutingKey(topic)
	err := ch.PublishWithContext(ctx, f.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/octet-stream",
		DeliveryMode: deliveryModeFor(qos),
		Body:         payload,
	})
	if err != nil {
		return &ForwardError{Topic: routingKey, Parent: err}
	}
	return nil
}

// deliveryModeFor maps MQTT-SN QoS onto an AMQP delivery mode: QoS 1
// (acknowledged) publishes persistent, QoS 0 (fire-and-forget) transient.
func deliveryModeFor(qos uint8) uint8 {
	if qos >= 1 {
		return amqp.Persistent
	}
	return amqp.Transient
}

// take pops the head of the round-robin pool. The caller must invoke the
// returned release func to push the channel back to the tail.
func (f *AMQPForwarder) take() (*amqp.Channel, func(*amqp.Channel)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pool) == 0 {
		return nil, nil
	}
	ch := f.pool[0]
	f.pool = f.pool[1:]
	return ch, func(used *amqp.Channel) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.pool = append(f.pool, used)
	}
}

// Close closes every pooled channel.
func (f *AMQPForwarder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var firstErr error
	for _, ch := range f.pool {
		if err := ch.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.pool = nil
	return firstErr
}
