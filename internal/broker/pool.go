package broker

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gentrade/gentrade-api/internal/core"
	"github.com/gentrade/gentrade-api/internal/domain/model"
	"github.com/gentrade/gentrade-api/internal/errors"
)

// PoolOptions configures the submission pool.
type PoolOptions struct {
	URL   string
	Queue string

	// MaxIdle caps connections kept warm between submissions; defaults to 1.
	MaxIdle int
	// MaxOpen is the hard ceiling on concurrently borrowed connections;
	// defaults to MaxIdle.
	MaxOpen int
	// ConfirmTimeout bounds the wait for broker confirmation; defaults to 10s.
	ConfirmTimeout time.Duration

	Logger *slog.Logger
	// Dialer overrides the AMQP dialer (tests).
	Dialer Dialer
}

// Pool maintains reusable broker connections used only for job submission.
// Broken connections are discarded and replaced rather than retried; the
// publish itself is retried at most once on a fresh connection before the
// failure surfaces as BrokerUnavailable.
type Pool struct {
	url            string
	queue          string
	maxIdle        int
	confirmTimeout time.Duration
	dialer         Dialer
	logger         *slog.Logger

	slots chan struct{}

	mu     sync.Mutex
	idle   []*poolEntry
	closed bool
}

type poolEntry struct {
	conn Connection
	ch   Channel
}

var _ core.JobSubmitter = (*Pool)(nil)

// NewPool validates options and constructs a pool. No connection is dialed
// until the first Submit.
func NewPool(opts PoolOptions) (*Pool, error) {
	if opts.URL == "" {
		return nil, stderrors.New("broker url is required")
	}
	if opts.Queue == "" {
		return nil, stderrors.New("queue name is required")
	}

	maxIdle := opts.MaxIdle
	if maxIdle < 1 {
		maxIdle = 1
	}
	maxOpen := opts.MaxOpen
	if maxOpen < maxIdle {
		maxOpen = maxIdle
	}
	confirmTimeout := opts.ConfirmTimeout
	if confirmTimeout <= 0 {
		confirmTimeout = 10 * time.Second
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = AMQPDial
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pool{
		url:            opts.URL,
		queue:          opts.Queue,
		maxIdle:        maxIdle,
		confirmTimeout: confirmTimeout,
		dialer:         dialer,
		logger:         logger.With("component", "broker_pool"),
		slots:          make(chan struct{}, maxOpen),
	}, nil
}

// Submit publishes a backtest task and waits for broker confirmation. The
// referenced backtest row must already be committed; a failure here leaves
// an orphaned created row for out-of-band reconciliation, never a lost
// message the broker had accepted.
func (p *Pool) Submit(ctx context.Context, task model.BacktestTask) error {
	if err := task.Validate(); err != nil {
		return errors.Validation(err.Error())
	}
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return errors.BrokerUnavailable("no broker connection available", ctx.Err())
	}
	defer func() { <-p.slots }()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		entry, berr := p.borrow()
		if berr != nil {
			lastErr = berr
			continue
		}
		if perr := p.publish(ctx, entry, body); perr != nil {
			lastErr = perr
			p.discard(entry)
			p.logger.WarnContext(ctx, "publish failed, discarding connection",
				"backtest_id", task.BacktestID, "attempt", attempt, "error", perr)
			continue
		}
		p.release(entry)
		return nil
	}
	return errors.BrokerUnavailable("backtest submission failed", lastErr)
}

// borrow pops a healthy idle connection or dials a new one.
func (p *Pool) borrow() (*poolEntry, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, stderrors.New("pool is closed")
		}
		if n := len(p.idle); n > 0 {
			entry := p.idle[n-1]
			p.idle = p.idle[:n-1]
			p.mu.Unlock()
			if entry.conn.IsClosed() {
				p.discard(entry)
				continue
			}
			return entry, nil
		}
		p.mu.Unlock()
		return p.dial()
	}
}

func (p *Pool) dial() (*poolEntry, error) {
	conn, err := p.dialer(p.url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.DeclareQueue(p.queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &poolEntry{conn: conn, ch: ch}, nil
}

func (p *Pool) publish(ctx context.Context, entry *poolEntry, body []byte) error {
	conf, err := entry.ch.Publish(ctx, p.queue, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	confirmCtx, cancel := context.WithTimeout(ctx, p.confirmTimeout)
	defer cancel()
	select {
	case <-confirmCtx.Done():
		return fmt.Errorf("await confirm: %w", confirmCtx.Err())
	case <-conf.Done():
		if !conf.Acked() {
			return stderrors.New("broker rejected publish")
		}
	}
	return nil
}

func (p *Pool) release(entry *poolEntry) {
	p.mu.Lock()
	if !p.closed && len(p.idle) < p.maxIdle {
		p.idle = append(p.idle, entry)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	p.discard(entry)
}

func (p *Pool) discard(entry *poolEntry) {
	_ = entry.ch.Close()
	_ = entry.conn.Close()
}

// Close drops all idle connections. In-flight submissions finish on their
// borrowed connections, which are then discarded on release.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, entry := range idle {
		p.discard(entry)
	}
	return nil
}
