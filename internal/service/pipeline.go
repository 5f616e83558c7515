package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gentrade/gentrade-api/internal/core"
	"github.com/gentrade/gentrade-api/internal/domain/model"
	apperrors "github.com/gentrade/gentrade-api/internal/errors"
	"github.com/gentrade/gentrade-api/internal/observability/metrics"
	"github.com/gentrade/gentrade-api/internal/observability/statsd"
)

// BacktestPipelineOptions groups dependencies for BacktestPipeline.
type BacktestPipelineOptions struct {
	Store      core.ScopedStore
	Executor   core.Executor
	MarketData *MarketDataService
	Parser     *ResultParser
	Results    core.ResultStore
	ResultTTL  time.Duration

	// DownloadTimeout bounds the market data phase; ExecTimeout bounds the
	// engine run. Zero disables the per-phase bound.
	DownloadTimeout time.Duration
	ExecTimeout     time.Duration

	Metrics statsd.Sink
	Logger  *slog.Logger
}

// BacktestPipeline drives one dispatched backtest from created to a terminal
// status. Every status transition runs in its own transaction and is guarded
// on the expected prior status, so a redelivered message for an already
// terminal job is a no-op.
type BacktestPipeline struct {
	store      core.ScopedStore
	executor   core.Executor
	marketData *MarketDataService
	parser     *ResultParser
	results    core.ResultStore
	resultTTL  time.Duration

	downloadTimeout time.Duration
	execTimeout     time.Duration

	metrics statsd.Sink
	logger  *slog.Logger
}

// NewBacktestPipeline constructs a BacktestPipeline.
func NewBacktestPipeline(opts BacktestPipelineOptions) *BacktestPipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "backtest_pipeline")
	}
	ttl := opts.ResultTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &BacktestPipeline{
		store:           opts.Store,
		executor:        opts.Executor,
		marketData:      opts.MarketData,
		parser:          opts.Parser,
		results:         opts.Results,
		resultTTL:       ttl,
		downloadTimeout: opts.DownloadTimeout,
		execTimeout:     opts.ExecTimeout,
		metrics:         opts.Metrics,
		logger:          logger,
	}
}

// Run executes the dispatched task to completion. A nil return means the
// job reached finished status or the message was a duplicate for an already
// settled job. A non-nil return means the job was marked failed; the error
// carries the failure class for notification and metrics.
func (p *BacktestPipeline) Run(ctx context.Context, task model.BacktestTask) (runErr error) {
	start := time.Now()
	logger := p.logger.With("backtest_id", task.BacktestID, "strategy_id", task.StrategyID)

	defer func() {
		if r := recover(); r != nil {
			err := apperrors.Internalf("pipeline panic: %v", r)
			p.fail(ctx, logger, task.BacktestID, err)
			runErr = err
		}
	}()

	var backtest *model.Backtest
	var strategy *model.Strategy
	err := p.store.WithScope(ctx, func(scope core.Scope) error {
		var err error
		backtest, err = scope.Backtests().GetByID(ctx, task.BacktestID)
		if err != nil {
			return err
		}
		strategy, err = scope.Strategies().GetByID(ctx, task.StrategyID)
		return err
	})
	if err != nil {
		if apperrors.IsNotFound(err) {
			// Backtest or strategy row deleted after dispatch; nothing left
			// to settle.
			logger.WarnContext(ctx, "backtest or strategy row gone, dropping message")
			return nil
		}
		return p.fail(ctx, logger, task.BacktestID,
			apperrors.Wrap(err, apperrors.ErrCodeInternal, "load backtest"))
	}

	switch {
	case backtest.Status.Terminal():
		// Duplicate delivery for a settled job.
		logger.InfoContext(ctx, "backtest already settled, dropping message",
			"status", backtest.Status)
		p.emit(metrics.BacktestMetric{Transition: "redelivery", Result: metrics.ResultNoop})
		return nil

	case backtest.Status == model.BacktestStatusRunning:
		// A running row with a fresh delivery means a worker died mid-run.
		// The engine run is not resumable, so settle the job as failed.
		return p.fail(ctx, logger, task.BacktestID,
			apperrors.Execution(apperrors.CauseNonZeroExit,
				"run interrupted before completion", nil))

	case backtest.Status == model.BacktestStatusCreated:
		if ok := p.transition(ctx, logger, task.BacktestID,
			model.BacktestStatusCreated, model.BacktestStatusDownloadingData); !ok {
			// Lost the race to another worker holding the same message.
			return nil
		}

	case backtest.Status == model.BacktestStatusDownloadingData:
		// Redelivery during data prep; resume the phase.
		logger.InfoContext(ctx, "resuming data preparation")

	default:
		return p.fail(ctx, logger, task.BacktestID,
			apperrors.Internalf("unexpected backtest status %q", backtest.Status))
	}

	if err := p.prepareData(ctx, task, strategy); err != nil {
		return p.fail(ctx, logger, task.BacktestID, err)
	}

	if ok := p.transition(ctx, logger, task.BacktestID,
		model.BacktestStatusDownloadingData, model.BacktestStatusRunning); !ok {
		return nil
	}

	artifactPath, err := p.runEngine(ctx, task, strategy)
	if err != nil {
		return p.fail(ctx, logger, task.BacktestID, err)
	}

	if err := p.finish(ctx, logger, task.BacktestID, artifactPath); err != nil {
		return p.fail(ctx, logger, task.BacktestID, err)
	}

	logger.InfoContext(ctx, "backtest finished",
		"artifact", artifactPath, "duration", time.Since(start))
	p.emit(metrics.BacktestMetric{
		Transition: "finished",
		Result:     metrics.ResultSuccess,
		Duration:   time.Since(start),
	})
	return nil
}

func (p *BacktestPipeline) prepareData(ctx context.Context, task model.BacktestTask, strategy *model.Strategy) error {
	if p.downloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.downloadTimeout)
		defer cancel()
	}
	return p.marketData.Ensure(ctx, task.PrincipalID, strategy, task.DateRange)
}

func (p *BacktestPipeline) runEngine(ctx context.Context, task model.BacktestTask, strategy *model.Strategy) (string, error) {
	if p.execTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.execTimeout)
		defer cancel()
	}
	return p.executor.Backtest(ctx, core.BacktestSpec{
		UserRef:     task.PrincipalID,
		StrategyRef: strings.TrimSuffix(strategy.File, ".py"),
		DateRange:   task.DateRange,
	})
}

// finish stamps the terminal finished status and caches the result summary.
// Summary extraction is best-effort; a finished run with an unparseable
// artifact stays finished.
func (p *BacktestPipeline) finish(ctx context.Context, logger *slog.Logger, id int64, artifactPath string) error {
	var updated bool
	err := p.store.WithScope(ctx, func(scope core.Scope) error {
		var err error
		updated, err = scope.Backtests().MarkFinished(ctx, id, artifactPath)
		return err
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "mark backtest finished")
	}
	if !updated {
		return apperrors.Internalf("backtest %d left running status before completion", id)
	}

	p.setCachedStatus(ctx, logger, id, model.BacktestStatusFinished)

	if p.parser != nil && p.results != nil {
		summary, err := p.parser.ParseFile(artifactPath)
		if err != nil {
			logger.WarnContext(ctx, "result summary extraction failed", "error", err)
			return nil
		}
		if err := p.results.SetSummary(ctx, id, summary, p.resultTTL); err != nil {
			logger.WarnContext(ctx, "result summary cache write failed", "error", err)
		}
	}
	return nil
}

// transition advances the row one pipeline step. A false return means the
// row was not in the expected status and this delivery should back off.
func (p *BacktestPipeline) transition(ctx context.Context, logger *slog.Logger, id int64, from, to model.BacktestStatus) bool {
	var updated bool
	err := p.store.WithScope(ctx, func(scope core.Scope) error {
		var err error
		updated, err = scope.Backtests().UpdateStatus(ctx, id, from, to)
		return err
	})
	if err != nil {
		logger.ErrorContext(ctx, "status transition failed",
			"from", from, "to", to, "error", err)
		p.emit(metrics.BacktestMetric{Transition: string(to), Result: metrics.ResultError, Err: err})
		return false
	}
	if !updated {
		logger.WarnContext(ctx, "status transition skipped, row not in expected status",
			"from", from, "to", to)
		p.emit(metrics.BacktestMetric{Transition: string(to), Result: metrics.ResultNoop})
		return false
	}

	p.setCachedStatus(ctx, logger, id, to)
	p.emit(metrics.BacktestMetric{Transition: string(to), Result: metrics.ResultSuccess})
	return true
}

// fail settles the job as failed with a human-readable cause and returns
// the original error for the caller to report.
func (p *BacktestPipeline) fail(ctx context.Context, logger *slog.Logger, id int64, cause error) error {
	// Settlement must land even when the job context is already expired.
	ctx = context.WithoutCancel(ctx)

	msg := cause.Error()
	err := p.store.WithScope(ctx, func(scope core.Scope) error {
		_, err := scope.Backtests().MarkFailed(ctx, id, msg)
		return err
	})
	if err != nil {
		logger.ErrorContext(ctx, "marking backtest failed did not stick", "error", err)
	}

	p.setCachedStatus(ctx, logger, id, model.BacktestStatusFailed)

	logger.ErrorContext(ctx, "backtest failed",
		"error", cause,
		"error_class", apperrors.GetCode(cause),
	)
	p.emit(metrics.BacktestMetric{Transition: "failed", Result: metrics.ResultError, Err: cause})
	return cause
}

func (p *BacktestPipeline) setCachedStatus(ctx context.Context, logger *slog.Logger, id int64, status model.BacktestStatus) {
	if p.results == nil {
		return
	}
	if err := p.results.SetStatus(ctx, id, status, p.resultTTL); err != nil {
		logger.WarnContext(ctx, "result store status write failed",
			"status", status, "error", fmt.Sprintf("%v", err))
	}
}

func (p *BacktestPipeline) emit(in metrics.BacktestMetric) {
	metrics.EmitBacktestLifecycle(p.metrics, in)
}
