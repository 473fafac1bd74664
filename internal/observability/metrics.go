package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions    prometheus.Gauge
	ActionsDispatched *prometheus.CounterVec
	SessionErrors     *prometheus.CounterVec
	AdapterRejections *prometheus.CounterVec
	WakeAccuracy      prometheus.Gauge
	RecordingDuration prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of sessions currently outside IDLE.",
		}),
		ActionsDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_dispatched_total",
			Help:      "Committed actions by canonical type.",
		}, []string{"action"}),
		SessionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_errors_total",
			Help:      "Session-domain errors by source.",
		}, []string{"source"}),
		AdapterRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_rejections_total",
			Help:      "Inbound frames rejected by protocol and code.",
		}, []string{"protocol", "code"}),
		WakeAccuracy: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wake_accuracy_1m",
			Help:      "Wake-word accuracy over the trailing one-minute window.",
		}),
		RecordingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recording_duration_ms",
			Help:      "Recording length in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
		}),
	}
}

func (m *Metrics) ObserveRecordingDuration(d time.Duration) {
	m.RecordingDuration.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
