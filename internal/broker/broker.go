// Package broker manages AMQP connections for backtest job submission and
// consumption. The pool side publishes with delivery confirmation; the
// consumer side feeds the worker's dispatch loops with manually acknowledged
// deliveries.
package broker

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Confirmation resolves when the broker acknowledges or rejects a publish.
type Confirmation interface {
	Done() <-chan struct{}
	Acked() bool
}

// Delivery is one received job message.
type Delivery interface {
	Body() []byte
	// Ack confirms the message is fully handled and may be dropped.
	Ack() error
	// Requeue returns the message to the queue for another worker.
	Requeue() error
}

// Channel is the slice of AMQP channel behavior the pool and consumer use.
type Channel interface {
	DeclareQueue(name string) error
	Publish(ctx context.Context, queue string, msg amqp.Publishing) (Confirmation, error)
	Consume(ctx context.Context, queue string, prefetch int) (<-chan Delivery, error)
	Close() error
}

// Connection is an established broker connection able to open channels.
type Connection interface {
	Channel() (Channel, error)
	IsClosed() bool
	Close() error
}

// Dialer establishes a broker connection. Swappable in tests.
type Dialer func(url string) (Connection, error)

// AMQPDial is the production Dialer.
func AMQPDial(url string) (Connection, error) {
	if !strings.HasPrefix(url, "amqp://") && !strings.HasPrefix(url, "amqps://") {
		return nil, fmt.Errorf("broker url must use amqp or amqps scheme")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	return &amqpConnection{conn: conn}, nil
}

type amqpConnection struct {
	conn *amqp.Connection
}

// Channel opens a channel in confirm mode.
func (c *amqpConnection) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	return &amqpChannel{ch: ch}, nil
}

func (c *amqpConnection) IsClosed() bool {
	return c.conn.IsClosed()
}

func (c *amqpConnection) Close() error {
	return c.conn.Close()
}

type amqpChannel struct {
	ch *amqp.Channel
}

func (c *amqpChannel) DeclareQueue(name string) error {
	_, err := c.ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

func (c *amqpChannel) Publish(ctx context.Context, queue string, msg amqp.Publishing) (Confirmation, error) {
	conf, err := c.ch.PublishWithDeferredConfirmWithContext(ctx, "", queue, false, false, msg)
	if err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *amqpChannel) Consume(ctx context.Context, queue string, prefetch int) (<-chan Delivery, error) {
	if prefetch > 0 {
		if err := c.ch.Qos(prefetch, 0, false); err != nil {
			return nil, fmt.Errorf("set qos: %w", err)
		}
	}
	raw, err := c.ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume queue %s: %w", queue, err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for d := range raw {
			select {
			case out <- &amqpDelivery{d: d}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (c *amqpChannel) Close() error {
	return c.ch.Close()
}

type amqpDelivery struct {
	d amqp.Delivery
}

func (d *amqpDelivery) Body() []byte { return d.d.Body }

func (d *amqpDelivery) Ack() error { return d.d.Ack(false) }

func (d *amqpDelivery) Requeue() error { return d.d.Nack(false, true) }
