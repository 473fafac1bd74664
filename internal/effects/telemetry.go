// Package effects contains the asynchronous subscribers attached to the
// action bus: telemetry, session timers, alert thresholds, periodic
// reporting, and time-windowed aggregation. Handlers are side-effect
// only; any state change they want goes back through the dispatcher as a
// new action.
package effects

import (
	"context"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/observability"
	"github.com/voicebridge/voicebridge/internal/store"
)

// Telemetry publishes per-action counters and session gauges. A nil
// recorder degrades to a no-op, so metrics are never load-bearing.
type Telemetry struct {
	rec observability.Recorder
}

func NewTelemetry(rec observability.Recorder) *Telemetry {
	if rec == nil {
		rec = observability.NopRecorder{}
	}
	return &Telemetry{rec: rec}
}

func (t *Telemetry) Name() string { return "telemetry" }

func (t *Telemetry) Matches(action.Type) bool { return true }

func (t *Telemetry) Handle(_ context.Context, act action.Action, st store.State) {
	t.rec.Increment(string(act.Type))
	t.rec.Gauge("active_sessions", float64(len(st.Active)))

	if act.Type == action.RecordStopped {
		if ms := act.Payload.Float("duration_ms", -1); ms >= 0 {
			t.rec.Histogram("recording_duration_ms", ms)
		} else if sess, ok := st.Session(act.Payload.SessionID()); ok {
			if !sess.RecordingStart.IsZero() && !sess.RecordingEnd.IsZero() {
				d := sess.RecordingEnd.Sub(sess.RecordingStart)
				t.rec.Histogram("recording_duration_ms", float64(d.Milliseconds()))
			}
		}
	}
}
