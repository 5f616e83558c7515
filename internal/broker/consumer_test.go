package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type consumeChannel struct {
	fakeChannel
	deliveries chan Delivery
	prefetch   int
}

func (c *consumeChannel) Consume(_ context.Context, _ string, prefetch int) (<-chan Delivery, error) {
	c.prefetch = prefetch
	return c.deliveries, nil
}

func TestConsumerDeliveries(t *testing.T) {
	ch := &consumeChannel{deliveries: make(chan Delivery, 1)}
	dials := 0

	consumer, err := NewConsumer(ConsumerOptions{
		URL:      "amqp://localhost",
		Queue:    "gentrade.backtests",
		Prefetch: 3,
		Dialer: func(string) (Connection, error) {
			dials++
			return &consumeConnection{ch: ch}, nil
		},
	})
	require.NoError(t, err)

	deliveries, err := consumer.Deliveries(context.Background())
	require.NoError(t, err)
	require.NotNil(t, deliveries)

	assert.Equal(t, 1, dials)
	assert.Equal(t, 3, ch.prefetch)
	assert.Contains(t, ch.declared, "gentrade.backtests")

	require.NoError(t, consumer.Close())
	assert.True(t, ch.closed)
}

type consumeConnection struct {
	ch     *consumeChannel
	closed bool
}

func (c *consumeConnection) Channel() (Channel, error) { return c.ch, nil }
func (c *consumeConnection) IsClosed() bool            { return c.closed }
func (c *consumeConnection) Close() error              { c.closed = true; return nil }

func TestConsumerRequiresConfig(t *testing.T) {
	_, err := NewConsumer(ConsumerOptions{Queue: "q"})
	require.Error(t, err)

	_, err = NewConsumer(ConsumerOptions{URL: "amqp://localhost"})
	require.Error(t, err)
}

func TestConsumerDialFailure(t *testing.T) {
	consumer, err := NewConsumer(ConsumerOptions{
		URL:   "amqp://localhost",
		Queue: "gentrade.backtests",
		Dialer: func(string) (Connection, error) {
			return nil, errors.New("refused")
		},
	})
	require.NoError(t, err)

	_, err = consumer.Deliveries(context.Background())
	require.Error(t, err)
}
