package effects

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/observability"
	"github.com/voicebridge/voicebridge/internal/store"
)

// Alerts watches session errors and logs a warning once a session
// crosses the threshold. Reset and delete clear the per-session count,
// matching the reducer's recoverable-error semantics.
type Alerts struct {
	logger    *zap.Logger
	metrics   *observability.Metrics
	threshold int

	mu     sync.Mutex
	counts map[string]int
}

func NewAlerts(logger *zap.Logger, metrics *observability.Metrics, threshold int) *Alerts {
	if logger == nil {
		logger = zap.NewNop()
	}
	if threshold <= 0 {
		threshold = 3
	}
	return &Alerts{
		logger:    logger,
		metrics:   metrics,
		threshold: threshold,
		counts:    make(map[string]int),
	}
}

func (a *Alerts) Name() string { return "alerts" }

func (a *Alerts) Matches(tp action.Type) bool {
	switch tp {
	case action.ErrorRaised, action.SessionReset, action.SessionDelete:
		return true
	}
	return false
}

func (a *Alerts) Handle(_ context.Context, act action.Action, _ store.State) {
	id := act.Payload.SessionID()
	if id == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch act.Type {
	case action.SessionReset, action.SessionDelete:
		delete(a.counts, id)
	case action.ErrorRaised:
		a.counts[id]++
		source := act.Payload.String("source")
		if source == "" {
			source = "session"
		}
		if a.metrics != nil {
			a.metrics.SessionErrors.WithLabelValues(source).Inc()
		}
		if a.counts[id] >= a.threshold {
			a.logger.Warn("session error threshold crossed",
				zap.String("session_id", id),
				zap.String("source", source),
				zap.String("error", act.Payload.String("error")),
				zap.Int("errors", a.counts[id]),
				zap.Int("threshold", a.threshold),
			)
		} else {
			a.logger.Info("session error",
				zap.String("session_id", id),
				zap.String("source", source),
				zap.String("error", act.Payload.String("error")),
			)
		}
	}
}
