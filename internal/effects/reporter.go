package effects

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/store"
)

// Reporter runs on its own interval, injecting an initialize action at
// startup and a report action every tick. It is a plain goroutine, not a
// bus subscriber: report cadence is time-driven, not action-driven.
type Reporter struct {
	d        store.Dispatcher
	logger   *zap.Logger
	interval time.Duration
}

func NewReporter(d store.Dispatcher, logger *zap.Logger, interval time.Duration) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reporter{d: d, logger: logger, interval: interval}
}

// Run blocks until ctx is cancelled.
func (r *Reporter) Run(ctx context.Context) {
	r.d.Dispatch(action.Action{Type: action.StatsInitialize})

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := r.d.Dispatch(action.Action{Type: action.StatsReport})
			stats := st.Stats
			r.logger.Info("pipeline report",
				zap.Duration("uptime", stats.Uptime(time.Now().UTC())),
				zap.Int("sessions", len(st.Sessions)),
				zap.Int("active_sessions", len(st.Active)),
				zap.Int("sessions_created", st.TotalCreated),
				zap.Int("sessions_deleted", st.TotalDeleted),
				zap.Int("audio_chunks", stats.AudioChunks),
				zap.Float64("recording_success_rate", stats.RecordingSuccessRate()),
				zap.Float64("transcription_success_rate", stats.TranscriptionSuccessRate()),
				zap.Float64("wake_accuracy", stats.WakeAccuracy()),
				zap.Int("errors", stats.ErrorsRaised),
			)
		}
	}
}
