package observability

// Recorder is the minimal metrics surface the effects pipeline depends
// on. The Prometheus-backed implementation lives in PromRecorder; a nil
// or absent client degrades to NopRecorder so telemetry is never a hard
// dependency.
type Recorder interface {
	Gauge(name string, value float64)
	Increment(name string)
	Histogram(name string, value float64)
}

// NopRecorder discards every observation.
type NopRecorder struct{}

func (NopRecorder) Gauge(string, float64)     {}
func (NopRecorder) Increment(string)          {}
func (NopRecorder) Histogram(string, float64) {}

// PromRecorder maps the generic Recorder names onto the registered
// Prometheus instruments. Unknown names are dropped silently.
type PromRecorder struct {
	m *Metrics
}

func NewPromRecorder(m *Metrics) *PromRecorder {
	return &PromRecorder{m: m}
}

func (r *PromRecorder) Gauge(name string, value float64) {
	switch name {
	case "active_sessions":
		r.m.ActiveSessions.Set(value)
	case "wake_accuracy_1m":
		r.m.WakeAccuracy.Set(value)
	}
}

func (r *PromRecorder) Increment(name string) {
	r.m.ActionsDispatched.WithLabelValues(name).Inc()
}

func (r *PromRecorder) Histogram(name string, value float64) {
	if name == "recording_duration_ms" {
		r.m.RecordingDuration.Observe(value)
	}
}
