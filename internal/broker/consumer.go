package broker

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
)

// ConsumerOptions configures the worker-side consumer.
type ConsumerOptions struct {
	URL      string
	Queue    string
	Prefetch int

	Logger *slog.Logger
	// Dialer overrides the AMQP dialer (tests).
	Dialer Dialer
}

// Consumer holds one broker connection delivering backtest jobs to the
// worker's dispatch loops. Deliveries are manually acknowledged by the
// worker once the job pipeline reaches a terminal state.
type Consumer struct {
	url      string
	queue    string
	prefetch int
	dialer   Dialer
	logger   *slog.Logger

	mu   sync.Mutex
	conn Connection
	ch   Channel
}

// NewConsumer validates options and constructs a consumer. The connection is
// dialed lazily by Deliveries.
func NewConsumer(opts ConsumerOptions) (*Consumer, error) {
	if opts.URL == "" {
		return nil, stderrors.New("broker url is required")
	}
	if opts.Queue == "" {
		return nil, stderrors.New("queue name is required")
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = AMQPDial
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		url:      opts.URL,
		queue:    opts.Queue,
		prefetch: opts.Prefetch,
		dialer:   dialer,
		logger:   logger.With("component", "broker_consumer"),
	}, nil
}

// Deliveries dials the broker, declares the queue, and returns the delivery
// stream. The stream closes when the connection drops or ctx is canceled.
func (c *Consumer) Deliveries(ctx context.Context) (<-chan Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, err := c.dialer(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.DeclareQueue(c.queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	deliveries, err := ch.Consume(ctx, c.queue, c.prefetch)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	c.conn = conn
	c.ch = ch
	c.logger.InfoContext(ctx, "consuming backtest jobs", "queue", c.queue, "prefetch", c.prefetch)
	return deliveries, nil
}

// Close tears down the consumer connection.
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.ch != nil {
		errs = append(errs, c.ch.Close())
		c.ch = nil
	}
	if c.conn != nil {
		errs = append(errs, c.conn.Close())
		c.conn = nil
	}
	return stderrors.Join(errs...)
}
