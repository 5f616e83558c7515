// Package core defines the port interfaces that connect services to the
// data layer, the broker, and the execution adapters. Services depend on
// these interfaces, never on concrete implementations.
package core

import (
	"context"
	"time"

	"github.com/gentrade/gentrade-api/internal/domain/model"
)

// Scope exposes repository handles bound to one open database transaction.
// A Scope is only valid inside the WithScope callback that produced it and
// must never be retained or shared across goroutines.
type Scope interface {
	Backtests() BacktestRepository
	Strategies() StrategyRepository
	Users() UserRepository
}

// ScopedStore runs a function inside a database transaction: commit on nil
// return, rollback otherwise. Every call opens an independent transaction on
// its own pooled connection; scopes never nest.
type ScopedStore interface {
	WithScope(ctx context.Context, fn func(Scope) error) error
}

// BacktestRepository provides persistence operations for backtest job rows.
type BacktestRepository interface {
	// Insert creates a new backtest row with status created.
	Insert(ctx context.Context, req *model.CreateBacktestRequest) (*model.Backtest, error)
	// GetByID returns a backtest by id, or a NotFound error.
	GetByID(ctx context.Context, id int64) (*model.Backtest, error)
	// UpdateStatus advances the status from one specific value to the next.
	// It returns false when the row was not in the expected status, in which
	// case nothing was changed.
	UpdateStatus(ctx context.Context, id int64, from, to model.BacktestStatus) (bool, error)
	// MarkFinished stamps the result artifact path and the finished status.
	// It only applies to rows still in running status.
	MarkFinished(ctx context.Context, id int64, artifactPath string) (bool, error)
	// MarkFailed records the failure cause and the failed status on any row
	// not already in a terminal status.
	MarkFailed(ctx context.Context, id int64, cause string) (bool, error)
}

// StrategyRepository provides read access to strategy rows.
type StrategyRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Strategy, error)
}

// UserRepository provides read access to user rows.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByClerkID(ctx context.Context, clerkID string) (*model.User, error)
}

// JobSubmitter publishes a backtest task to the message broker with delivery
// confirmation. Implementations must only be called after the referenced
// backtest row has been committed.
type JobSubmitter interface {
	Submit(ctx context.Context, task model.BacktestTask) error
}

// BacktestSpec describes one containerized engine run.
type BacktestSpec struct {
	// UserRef names the per-user sandbox directory holding the compose file.
	UserRef string
	// StrategyRef is the strategy file reference passed to the engine.
	StrategyRef string
	// DateRange is the engine timerange string, e.g. "20240101-20240131".
	DateRange string
}

// DownloadSpec describes one market data download run.
type DownloadSpec struct {
	UserRef     string
	Exchange    string
	TradingMode string
	Pairs       []string
	Timeframes  []string
	DateRange   string
}

// Executor invokes the external trading engine inside a disposable
// container. Implementations perform no retries; retry policy belongs to the
// caller.
type Executor interface {
	// Backtest runs the engine and returns the result artifact path.
	Backtest(ctx context.Context, spec BacktestSpec) (string, error)
	// DownloadData fetches market data into the shared data directory.
	DownloadData(ctx context.Context, spec DownloadSpec) error
}

// ResultStore caches backtest status transitions and result summaries for
// cheap polling. The database row remains the source of truth; the store is
// best-effort and may be empty.
type ResultStore interface {
	SetStatus(ctx context.Context, backtestID int64, status model.BacktestStatus, ttl time.Duration) error
	GetStatus(ctx context.Context, backtestID int64) (model.BacktestStatus, error)
	SetSummary(ctx context.Context, backtestID int64, summary *model.BacktestSummary, ttl time.Duration) error
	GetSummary(ctx context.Context, backtestID int64) (*model.BacktestSummary, error)
}
