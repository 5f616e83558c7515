// Package worker consumes dispatched backtest tasks from the broker and
// drives them through the execution pipeline.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gentrade/gentrade-api/internal/broker"
	"github.com/gentrade/gentrade-api/internal/domain/model"
	apperrors "github.com/gentrade/gentrade-api/internal/errors"
	"github.com/gentrade/gentrade-api/internal/observability/notify"
	"github.com/gentrade/gentrade-api/internal/service/failurenotifier"
)

// ErrDeliveryStreamClosed reports that the broker closed the delivery
// stream while the worker was still meant to be consuming. Surfacing it
// lets the process exit non-zero instead of idling with no queue attached.
var ErrDeliveryStreamClosed = errors.New("broker delivery stream closed")

// DeliverySource yields broker deliveries until the context ends.
type DeliverySource interface {
	Deliveries(ctx context.Context) (<-chan broker.Delivery, error)
}

// TaskRunner executes one dispatched task to a settled outcome.
type TaskRunner interface {
	Run(ctx context.Context, task model.BacktestTask) error
}

// RunnerOptions groups dependencies for Runner.
type RunnerOptions struct {
	Source   DeliverySource
	Pipeline TaskRunner
	// Concurrency is the number of tasks processed in parallel.
	Concurrency int
	// JobTimeout bounds one task end to end.
	JobTimeout time.Duration

	Notifier *failurenotifier.Service
	Logger   *slog.Logger
}

// Runner is the worker loop. Deliveries are acknowledged after the pipeline
// settles the job, whether it finished or failed; the database row is the
// source of truth and a redelivered message for a settled job is a no-op.
// Only messages the pipeline never started are returned to the queue.
type Runner struct {
	source      DeliverySource
	pipeline    TaskRunner
	concurrency int
	jobTimeout  time.Duration
	notifier    *failurenotifier.Service
	logger      *slog.Logger
}

// NewRunner constructs a worker Runner.
func NewRunner(opts RunnerOptions) *Runner {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "worker")
	}
	return &Runner{
		source:      opts.Source,
		pipeline:    opts.Pipeline,
		concurrency: concurrency,
		jobTimeout:  opts.JobTimeout,
		notifier:    opts.Notifier,
		logger:      logger,
	}
}

// Run consumes deliveries until the context is canceled or the delivery
// channel closes. It blocks until all in-flight tasks settle.
func (r *Runner) Run(ctx context.Context) error {
	deliveries, err := r.source.Deliveries(ctx)
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "worker started", "concurrency", r.concurrency)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.concurrency; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case delivery, ok := <-deliveries:
					if !ok {
						if gctx.Err() != nil {
							return nil
						}
						return ErrDeliveryStreamClosed
					}
					r.handle(gctx, delivery)
				}
			}
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	r.logger.Info("worker stopped")
	return err
}

// handle processes one delivery. Work started is always acknowledged; a
// shutdown observed before the task was decoded requeues instead.
func (r *Runner) handle(ctx context.Context, delivery broker.Delivery) {
	if ctx.Err() != nil {
		if err := delivery.Requeue(); err != nil {
			r.logger.Error("requeue on shutdown failed", "error", err)
		}
		return
	}

	var task model.BacktestTask
	if err := json.Unmarshal(delivery.Body(), &task); err != nil {
		r.logger.Error("dropping malformed task payload", "error", err)
		r.ack(delivery)
		return
	}
	if err := task.Validate(); err != nil {
		r.logger.Error("dropping invalid task payload",
			"backtest_id", task.BacktestID, "error", err)
		r.ack(delivery)
		return
	}

	// The job gets a fresh deadline independent of the consume context so
	// shutdown lets in-flight work settle.
	jobCtx := context.WithoutCancel(ctx)
	if r.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(jobCtx, r.jobTimeout)
		defer cancel()
	}

	if err := r.pipeline.Run(jobCtx, task); err != nil {
		r.notifyFailure(jobCtx, task, err)
	}
	r.ack(delivery)
}

func (r *Runner) ack(delivery broker.Delivery) {
	if err := delivery.Ack(); err != nil {
		r.logger.Error("delivery ack failed", "error", err)
	}
}

func (r *Runner) notifyFailure(ctx context.Context, task model.BacktestTask, cause error) {
	if r.notifier == nil || !r.notifier.Enabled() {
		return
	}
	r.notifier.NotifyBacktestFailure(context.WithoutCancel(ctx), notify.BacktestFailurePayload{
		BacktestID:  task.BacktestID,
		StrategyID:  task.StrategyID,
		PrincipalID: task.PrincipalID,
		Error:       cause.Error(),
		ErrorClass:  string(apperrors.GetCode(cause)),
		Severity:    notify.SeverityCritical,
		OccurredAt:  time.Now().UTC(),
	})
}
