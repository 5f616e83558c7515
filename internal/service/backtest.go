package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/gentrade/gentrade-api/internal/core"
	"github.com/gentrade/gentrade-api/internal/domain/model"
	apperrors "github.com/gentrade/gentrade-api/internal/errors"
)

// BacktestServiceOptions groups dependencies for BacktestService.
type BacktestServiceOptions struct {
	Store     core.ScopedStore
	Auth      *AuthService
	Submitter core.JobSubmitter
	Results   core.ResultStore
	ResultTTL time.Duration
	Logger    *slog.Logger
}

// BacktestService handles backtest submission and retrieval. Submission is a
// two-phase operation: the job row commits first, then the broker message is
// published. A broker failure after commit leaves the row in created status
// so the caller can resubmit.
type BacktestService struct {
	store     core.ScopedStore
	auth      *AuthService
	submitter core.JobSubmitter
	results   core.ResultStore
	resultTTL time.Duration
	logger    *slog.Logger
}

// NewBacktestService constructs a BacktestService.
func NewBacktestService(opts BacktestServiceOptions) *BacktestService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "backtest_service")
	}
	ttl := opts.ResultTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &BacktestService{
		store:     opts.Store,
		auth:      opts.Auth,
		submitter: opts.Submitter,
		results:   opts.Results,
		resultTTL: ttl,
		logger:    logger,
	}
}

// Create validates the request, verifies strategy ownership, persists the
// job row, and publishes the dispatch message. The row is committed before
// the publish so a confirmed message always references durable state.
func (s *BacktestService) Create(ctx context.Context, principalID string, req *model.CreateBacktestRequest) (*model.Backtest, error) {
	if req == nil {
		return nil, apperrors.Validation("request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var created *model.Backtest
	err := s.store.WithScope(ctx, func(scope core.Scope) error {
		user, err := s.auth.ResolvePrincipal(ctx, scope.Users(), principalID)
		if err != nil {
			return err
		}
		if _, err := s.auth.RequireStrategyOwner(ctx, scope.Strategies(), req.StrategyID, user); err != nil {
			return err
		}
		created, err = scope.Backtests().Insert(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	task := model.BacktestTask{
		BacktestID:  created.ID,
		StrategyID:  created.StrategyID,
		PrincipalID: principalID,
		DateRange:   created.DateRange,
	}
	if err := s.submitter.Submit(ctx, task); err != nil {
		// The row stays in created status; a resubmission produces a new
		// publish against the same committed state.
		s.logger.Error("backtest dispatch failed after commit",
			"backtest_id", created.ID,
			"error", err,
		)
		return nil, err
	}

	if s.results != nil {
		if err := s.results.SetStatus(ctx, created.ID, created.Status, s.resultTTL); err != nil {
			s.logger.Warn("result store status write failed",
				"backtest_id", created.ID,
				"error", err,
			)
		}
	}

	s.logger.Info("backtest submitted",
		"backtest_id", created.ID,
		"strategy_id", created.StrategyID,
		"date_range", created.DateRange,
	)
	return created, nil
}

// Get loads a backtest for the calling principal. Ownership is resolved via
// the referenced strategy. For rows still in flight the cached status is
// overlaid when it is ahead of the committed row, so pollers see pipeline
// progress without waiting on the next commit. Finished backtests carry the
// cached result summary when one is available; the summary is best-effort
// and may be nil.
func (s *BacktestService) Get(ctx context.Context, principalID string, id int64) (*model.BacktestResult, error) {
	var backtest *model.Backtest
	err := s.store.WithScope(ctx, func(scope core.Scope) error {
		user, err := s.auth.ResolvePrincipal(ctx, scope.Users(), principalID)
		if err != nil {
			return err
		}
		backtest, err = scope.Backtests().GetByID(ctx, id)
		if err != nil {
			return err
		}
		_, err = s.auth.RequireStrategyOwner(ctx, scope.Strategies(), backtest.StrategyID, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &model.BacktestResult{Backtest: *backtest}
	if s.results != nil && !backtest.Status.Terminal() {
		cached, err := s.results.GetStatus(ctx, backtest.ID)
		switch {
		case err != nil:
			s.logger.Warn("result store status read failed",
				"backtest_id", backtest.ID,
				"error", err,
			)
		case cached.Valid() && cached.Rank() > backtest.Status.Rank():
			result.Status = cached
		}
	}
	if s.results != nil && result.Status == model.BacktestStatusFinished {
		summary, err := s.results.GetSummary(ctx, backtest.ID)
		if err != nil {
			s.logger.Warn("result store summary read failed",
				"backtest_id", backtest.ID,
				"error", err,
			)
		} else {
			result.Summary = summary
		}
	}
	return result, nil
}
