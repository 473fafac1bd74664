package store

import (
	"time"

	"github.com/voicebridge/voicebridge/internal/action"
)

// Stats is the aggregate-metrics branch. It is computed purely from
// action payloads and never reads the sessions branch, so the two stay
// decoupled. Create/delete totals live on the session branch
// (TotalCreated, TotalDeleted): whether a delete actually removed
// anything is knowable only there, and counting blind would break
// delete idempotence.
type Stats struct {
	StartedAt    time.Time `json:"started_at,omitempty"`
	LastReportAt time.Time `json:"last_report_at,omitempty"`
	ReportCount  int       `json:"report_count"`

	AudioChunks int `json:"audio_chunks"`

	RecordingsStarted   int `json:"recordings_started"`
	RecordingsCompleted int `json:"recordings_completed"`
	RecordingsFailed    int `json:"recordings_failed"`

	TranscriptionsStarted   int `json:"transcriptions_started"`
	TranscriptionsCompleted int `json:"transcriptions_completed"`
	TranscriptionsFailed    int `json:"transcriptions_failed"`

	WakeDetections     int `json:"wake_detections"`
	WakeFalsePositives int `json:"wake_false_positives"`

	ErrorsRaised int `json:"errors_raised"`
}

// RecordingSuccessRate is completed/(completed+failed), 0 when no data.
func (s Stats) RecordingSuccessRate() float64 {
	return ratio(s.RecordingsCompleted, s.RecordingsFailed)
}

// RecordingFailureRate is failed/(completed+failed), 0 when no data.
func (s Stats) RecordingFailureRate() float64 {
	return ratio(s.RecordingsFailed, s.RecordingsCompleted)
}

// TranscriptionSuccessRate is completed/(completed+failed).
func (s Stats) TranscriptionSuccessRate() float64 {
	return ratio(s.TranscriptionsCompleted, s.TranscriptionsFailed)
}

// TranscriptionFailureRate is failed/(completed+failed).
func (s Stats) TranscriptionFailureRate() float64 {
	return ratio(s.TranscriptionsFailed, s.TranscriptionsCompleted)
}

// WakeAccuracy is detections/(detections+false positives).
func (s Stats) WakeAccuracy() float64 {
	return ratio(s.WakeDetections, s.WakeFalsePositives)
}

// Uptime is the time elapsed since initialization, zero before it.
func (s Stats) Uptime(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	d := now.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

func ratio(num, other int) float64 {
	total := num + other
	if total == 0 {
		return 0
	}
	return float64(num) / float64(total)
}

// reduceStats accumulates the stats branch from the same action stream
// the session reducer sees. Unknown types reduce to identity.
func reduceStats(s Stats, act action.Action) Stats {
	switch act.Type {
	case action.StatsInitialize:
		s.StartedAt = time.Now().UTC()
	case action.StatsReport:
		s.ReportCount++
		s.LastReportAt = time.Now().UTC()
	case action.AudioChunkReceived:
		s.AudioChunks++
	case action.RecordStarted:
		s.RecordingsStarted++
	case action.RecordStopped:
		s.RecordingsCompleted++
	case action.RecordFailed:
		s.RecordingsFailed++
	case action.TranscribeStarted:
		s.TranscriptionsStarted++
	case action.TranscribeDone:
		s.TranscriptionsCompleted++
	case action.TranscribeFailed:
		s.TranscriptionsFailed++
	case action.WakeDetected, action.WakeActivated:
		s.WakeDetections++
	case action.WakeRejected:
		s.WakeFalsePositives++
	case action.ErrorRaised:
		s.ErrorsRaised++
	}
	return s
}
