package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gentrade/gentrade-api/internal/observability/notify"
)

type recordingSink struct {
	mu       sync.Mutex
	payloads []notify.BacktestFailurePayload
	err      error
}

func (s *recordingSink) SendBacktestFailure(_ context.Context, payload notify.BacktestFailurePayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	return s.err
}

func (s *recordingSink) delivered() []notify.BacktestFailurePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.BacktestFailurePayload(nil), s.payloads...)
}

func TestNotifyBacktestFailureFansOut(t *testing.T) {
	first := &recordingSink{}
	second := &recordingSink{}
	svc := NewService(Options{Sinks: []SinkRegistration{
		{Name: "slack", Sink: first},
		{Name: "pager", Sink: second},
	}})

	svc.NotifyBacktestFailure(context.Background(), notify.BacktestFailurePayload{
		BacktestID: 42,
		Severity:   notify.SeverityWarning,
	})

	for _, sink := range []*recordingSink{first, second} {
		got := sink.delivered()
		assert.Len(t, got, 1)
		assert.Equal(t, int64(42), got[0].BacktestID)
		assert.Equal(t, notify.SeverityWarning, got[0].Severity)
	}
}

func TestNotifyBacktestFailureDefaultsSeverity(t *testing.T) {
	sink := &recordingSink{}
	svc := NewService(Options{Sinks: []SinkRegistration{{Name: "slack", Sink: sink}}})

	svc.NotifyBacktestFailure(context.Background(), notify.BacktestFailurePayload{BacktestID: 7})

	got := sink.delivered()
	assert.Len(t, got, 1)
	assert.Equal(t, notify.SeverityCritical, got[0].Severity)
}

func TestNotifyBacktestFailureSinkErrorDoesNotBlockOthers(t *testing.T) {
	broken := &recordingSink{err: errors.New("webhook down")}
	healthy := &recordingSink{}
	svc := NewService(Options{Sinks: []SinkRegistration{
		{Name: "slack", Sink: broken},
		{Name: "pager", Sink: healthy},
	}})

	svc.NotifyBacktestFailure(context.Background(), notify.BacktestFailurePayload{BacktestID: 7})

	assert.Len(t, healthy.delivered(), 1)
}

func TestServiceEnabled(t *testing.T) {
	assert.False(t, NewService(Options{}).Enabled())
	assert.False(t, NewService(Options{Sinks: []SinkRegistration{{Name: "nil"}}}).Enabled())
	assert.True(t, NewService(Options{
		Sinks: []SinkRegistration{{Name: "slack", Sink: &recordingSink{}}},
	}).Enabled())
}
