// Package metrics centralizes the metric names and tags emitted for backtest
// lifecycle events.
package metrics

import (
	"time"

	"github.com/gentrade/gentrade-api/internal/errors"
	"github.com/gentrade/gentrade-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// BacktestMetric captures details about a backtest lifecycle event.
type BacktestMetric struct {
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitBacktestLifecycle emits standardised backtest lifecycle metrics.
func EmitBacktestLifecycle(sink statsd.Sink, in BacktestMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if code := errors.GetCode(in.Err); code != "" {
			tags["error_class"] = string(code)
		}
		if cause := errors.GetExecutionCause(in.Err); cause != "" {
			tags["execution_cause"] = string(cause)
		}
	}

	sink.Count("backtest.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("backtest.duration", in.Duration, tags)
	}
}
