package store

import (
	"testing"
	"time"

	"github.com/voicebridge/voicebridge/internal/action"
)

func TestStatsAccumulateFromActionStream(t *testing.T) {
	s := New(nil)
	id := createTestSession(t, s, "streaming")

	s.Dispatch(action.Action{Type: action.StatsInitialize})
	s.Dispatch(action.ForSession(action.RecordStarted, id))
	s.Dispatch(action.ForSession(action.RecordStopped, id))
	s.Dispatch(action.ForSession(action.RecordStarted, id))
	s.Dispatch(action.ForSession(action.RecordFailed, id))
	s.Dispatch(action.ForSession(action.TranscribeStarted, id))
	s.Dispatch(action.ForSession(action.TranscribeDone, id))
	s.Dispatch(action.ForSession(action.AudioChunkReceived, id))
	st := s.Dispatch(action.New(action.ErrorRaised, action.Payload{"session_id": id, "error": "x"}))

	stats := st.Stats
	if st.TotalCreated != 1 {
		t.Fatalf("TotalCreated = %d", st.TotalCreated)
	}
	if stats.RecordingsStarted != 2 || stats.RecordingsCompleted != 1 || stats.RecordingsFailed != 1 {
		t.Fatalf("recording counters: %+v", stats)
	}
	if got := stats.RecordingSuccessRate(); got != 0.5 {
		t.Fatalf("RecordingSuccessRate() = %v, want 0.5", got)
	}
	if got := stats.RecordingFailureRate(); got != 0.5 {
		t.Fatalf("RecordingFailureRate() = %v, want 0.5", got)
	}
	if got := stats.TranscriptionSuccessRate(); got != 1.0 {
		t.Fatalf("TranscriptionSuccessRate() = %v, want 1", got)
	}
	if stats.AudioChunks != 1 || stats.ErrorsRaised != 1 {
		t.Fatalf("chunk/error counters: %+v", stats)
	}
	if stats.StartedAt.IsZero() {
		t.Fatalf("StartedAt should be set by initialize")
	}
}

func TestStatsWakeAccuracy(t *testing.T) {
	s := New(nil)
	for i := 0; i < 3; i++ {
		s.Dispatch(action.Action{Type: action.WakeDetected})
	}
	st := s.Dispatch(action.Action{Type: action.WakeRejected})

	if got := st.Stats.WakeAccuracy(); got != 0.75 {
		t.Fatalf("WakeAccuracy() = %v, want 0.75", got)
	}
}

func TestStatsRatesZeroWithoutData(t *testing.T) {
	var stats Stats
	if stats.RecordingSuccessRate() != 0 || stats.WakeAccuracy() != 0 {
		t.Fatalf("rates must be 0 with no samples")
	}
	if stats.Uptime(time.Now()) != 0 {
		t.Fatalf("uptime must be 0 before initialize")
	}
}

func TestStatsUptime(t *testing.T) {
	s := New(nil)
	st := s.Dispatch(action.Action{Type: action.StatsInitialize})
	up := st.Stats.Uptime(time.Now().UTC().Add(3 * time.Second))
	if up < 2*time.Second || up > 4*time.Second {
		t.Fatalf("Uptime() = %v, want about 3s", up)
	}
}

func TestStatsReportCounts(t *testing.T) {
	s := New(nil)
	s.Dispatch(action.Action{Type: action.StatsReport})
	st := s.Dispatch(action.Action{Type: action.StatsReport})
	if st.Stats.ReportCount != 2 || st.Stats.LastReportAt.IsZero() {
		t.Fatalf("report counters: %+v", st.Stats)
	}
}

func TestStatsIndependentOfSessionsBranch(t *testing.T) {
	// Recording events for a session that was never created still
	// accumulate: the stats branch reads only payloads.
	s := New(nil)
	st := s.Dispatch(action.ForSession(action.RecordStopped, "ghost"))
	if st.Stats.RecordingsCompleted != 1 {
		t.Fatalf("stats must not depend on session existence: %+v", st.Stats)
	}
	if len(st.Sessions) != 0 {
		t.Fatalf("sessions branch must stay empty")
	}
}
