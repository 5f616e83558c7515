// Package notify defines the payload and sink contract for backtest failure
// notifications.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// BacktestFailurePayload captures the canonical data emitted when a worker
// resolves a backtest as failed.
type BacktestFailurePayload struct {
	BacktestID  int64
	StrategyID  int64
	PrincipalID string
	Error       string
	ErrorClass  string
	Severity    string
	OccurredAt  time.Time
}

// Sink describes a destination capable of consuming failure notifications.
type Sink interface {
	SendBacktestFailure(ctx context.Context, payload BacktestFailurePayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload BacktestFailurePayload) error

// SendBacktestFailure implements the Sink interface.
func (f SinkFunc) SendBacktestFailure(ctx context.Context, payload BacktestFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
