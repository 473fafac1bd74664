package effects

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/observability"
	"github.com/voicebridge/voicebridge/internal/store"
)

// WakeWindow buffers wake detect / false-positive events over a fixed
// trailing window and emits a derived accuracy gauge on a scheduler
// tick. The buffer is an explicit accumulator flushed by Run, not an
// operator pipeline.
type WakeWindow struct {
	rec    observability.Recorder
	logger *zap.Logger
	window time.Duration

	mu      sync.Mutex
	detects []time.Time
	rejects []time.Time
}

func NewWakeWindow(rec observability.Recorder, logger *zap.Logger, window time.Duration) *WakeWindow {
	if rec == nil {
		rec = observability.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = time.Minute
	}
	return &WakeWindow{rec: rec, logger: logger, window: window}
}

func (w *WakeWindow) Name() string { return "wake-window" }

func (w *WakeWindow) Matches(tp action.Type) bool {
	return tp == action.WakeDetected || tp == action.WakeActivated || tp == action.WakeRejected
}

func (w *WakeWindow) Handle(_ context.Context, act action.Action, _ store.State) {
	now := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()
	if act.Type == action.WakeRejected {
		w.rejects = append(w.rejects, now)
	} else {
		w.detects = append(w.detects, now)
	}
}

// Run flushes the window on every tick until ctx is cancelled.
func (w *WakeWindow) Run(ctx context.Context, flushEvery time.Duration) {
	if flushEvery <= 0 {
		flushEvery = 5 * time.Second
	}
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Flush(time.Now())
		}
	}
}

// Flush prunes events older than the window and publishes the accuracy
// gauge. Exposed for tests and for the final flush on shutdown.
func (w *WakeWindow) Flush(now time.Time) {
	cutoff := now.Add(-w.window)

	w.mu.Lock()
	w.detects = pruneBefore(w.detects, cutoff)
	w.rejects = pruneBefore(w.rejects, cutoff)
	detects, rejects := len(w.detects), len(w.rejects)
	w.mu.Unlock()

	total := detects + rejects
	if total == 0 {
		return
	}
	accuracy := float64(detects) / float64(total)
	w.rec.Gauge("wake_accuracy_1m", accuracy)
	w.logger.Debug("wake accuracy window flushed",
		zap.Int("detections", detects),
		zap.Int("false_positives", rejects),
		zap.Float64("accuracy", accuracy),
	)
}

func pruneBefore(events []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(events) && events[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return events
	}
	return append([]time.Time(nil), events[i:]...)
}
