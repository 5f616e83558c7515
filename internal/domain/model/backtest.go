// Package model defines the core data types and structures used throughout
// the gentrade backtest system.
package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// BacktestStatus represents the current lifecycle status of a backtest job.
type BacktestStatus string

const (
	// BacktestStatusCreated indicates the job row exists and the broker
	// message has been (or is about to be) submitted.
	BacktestStatusCreated BacktestStatus = "created"
	// BacktestStatusDownloadingData indicates market data preparation is in progress.
	BacktestStatusDownloadingData BacktestStatus = "downloading_data"
	// BacktestStatusRunning indicates the containerized engine run is in progress.
	BacktestStatusRunning BacktestStatus = "running"
	// BacktestStatusFinished indicates the run completed and a result artifact exists.
	BacktestStatusFinished BacktestStatus = "finished"
	// BacktestStatusFailed indicates the job terminated without a result.
	BacktestStatusFailed BacktestStatus = "failed"
)

// statusRank orders statuses along the pipeline. Both terminals share the
// same rank; transitions never leave a terminal status.
var statusRank = map[BacktestStatus]int{
	BacktestStatusCreated:         0,
	BacktestStatusDownloadingData: 1,
	BacktestStatusRunning:         2,
	BacktestStatusFinished:        3,
	BacktestStatusFailed:          3,
}

// Valid returns true if the BacktestStatus is a known status.
func (s BacktestStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Terminal returns true if no further transitions may leave this status.
func (s BacktestStatus) Terminal() bool {
	return s == BacktestStatusFinished || s == BacktestStatusFailed
}

// Rank returns the position of the status along the pipeline order.
// Unknown statuses rank below created.
func (s BacktestStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// CanTransitionTo reports whether moving from s to next is a legal forward
// step. Failure is reachable from every non-terminal status; every other
// transition must advance exactly one step.
func (s BacktestStatus) CanTransitionTo(next BacktestStatus) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	if next == BacktestStatusFailed {
		return true
	}
	return next.Rank() == s.Rank()+1
}

// Backtest represents one backtest execution request and its tracked lifecycle.
type Backtest struct {
	ID         int64          `json:"id"                   db:"id"`
	StrategyID int64          `json:"strategy_id"          db:"strategy_id"`
	DateRange  string         `json:"date_range"           db:"date_range"`
	Status     BacktestStatus `json:"status"               db:"status"`
	File       *string        `json:"file,omitempty"       db:"file"`
	Error      *string        `json:"error,omitempty"      db:"error"`
	CreatedAt  time.Time      `json:"created_at"           db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"           db:"updated_at"`
}

// reDateRange matches the engine's timerange format, e.g. "20240101-20240131"
// or the open-ended "20240101-".
var reDateRange = regexp.MustCompile(`^\d{8}-(\d{8})?$`)

// CreateBacktestRequest represents a request to create a new backtest job.
type CreateBacktestRequest struct {
	StrategyID int64  `json:"strategy_id"`
	DateRange  string `json:"date_range"`
}

// Validate validates the CreateBacktestRequest fields.
func (r *CreateBacktestRequest) Validate() error {
	if r.StrategyID <= 0 {
		return errors.New("strategy_id is required")
	}
	if strings.TrimSpace(r.DateRange) == "" {
		return errors.New("date_range is required")
	}
	if !reDateRange.MatchString(r.DateRange) {
		return errors.New("date_range must look like 20240101-20240131")
	}
	return nil
}

// BacktestTask is the broker wire payload referencing a committed backtest row.
type BacktestTask struct {
	BacktestID  int64  `json:"backtest_id"`
	StrategyID  int64  `json:"strategy_id"`
	PrincipalID string `json:"principal_id"`
	DateRange   string `json:"date_range"`
}

// Validate validates the BacktestTask fields.
func (t *BacktestTask) Validate() error {
	if t.BacktestID <= 0 {
		return errors.New("backtest_id is required")
	}
	if t.StrategyID <= 0 {
		return errors.New("strategy_id is required")
	}
	if strings.TrimSpace(t.PrincipalID) == "" {
		return errors.New("principal_id is required")
	}
	if strings.TrimSpace(t.DateRange) == "" {
		return errors.New("date_range is required")
	}
	return nil
}

// BacktestSummary is a compact digest extracted from a finished run's
// result artifact.
type BacktestSummary struct {
	TotalTrades int     `json:"total_trades"`
	ProfitTotal float64 `json:"profit_total"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
}

// BacktestResult pairs a backtest record with its cached summary, when one
// is available.
type BacktestResult struct {
	Backtest
	Summary *BacktestSummary `json:"summary,omitempty"`
}
