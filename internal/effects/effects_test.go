package effects

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/store"
)

type fakeRecorder struct {
	mu         sync.Mutex
	gauges     map[string]float64
	counts     map[string]int
	histograms map[string][]float64
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		gauges:     map[string]float64{},
		counts:     map[string]int{},
		histograms: map[string][]float64{},
	}
}

func (f *fakeRecorder) Gauge(name string, v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gauges[name] = v
}

func (f *fakeRecorder) Increment(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[name]++
}

func (f *fakeRecorder) Histogram(name string, v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms[name] = append(f.histograms[name], v)
}

func (f *fakeRecorder) gauge(name string) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.gauges[name]
	return v, ok
}

func createSession(t *testing.T, s *store.Store) string {
	t.Helper()
	st := s.Dispatch(action.New(action.SessionCreate, nil))
	for id := range st.Sessions {
		return id
	}
	t.Fatalf("no session created")
	return ""
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestTelemetryCountsActionsAndGaugesActive(t *testing.T) {
	s := store.New(nil)
	defer s.Close()

	rec := newFakeRecorder()
	s.Subscribe(context.Background(), NewTelemetry(rec))

	id := createSession(t, s)
	s.Dispatch(action.ForSession(action.StartListening, id))

	waitFor(t, "telemetry gauges", func() bool {
		v, ok := rec.gauge("active_sessions")
		return ok && v == 1
	})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.counts[string(action.SessionCreate)] != 1 {
		t.Fatalf("create count = %d, want 1", rec.counts[string(action.SessionCreate)])
	}
	if rec.counts[string(action.StartListening)] != 1 {
		t.Fatalf("listen count = %d, want 1", rec.counts[string(action.StartListening)])
	}
}

func TestTelemetryRecordsDurationFromPayload(t *testing.T) {
	s := store.New(nil)
	defer s.Close()

	rec := newFakeRecorder()
	s.Subscribe(context.Background(), NewTelemetry(rec))

	id := createSession(t, s)
	s.Dispatch(action.ForSession(action.RecordStarted, id))
	s.Dispatch(action.New(action.RecordStopped, action.Payload{"session_id": id, "duration_ms": 1500}))

	waitFor(t, "recording histogram", func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		h := rec.histograms["recording_duration_ms"]
		return len(h) == 1 && h[0] == 1500
	})
}

func TestWakeTimeoutFiresAndClearsWake(t *testing.T) {
	s := store.New(nil)
	defer s.Close()

	timers := NewSessionTimers(s, nil, 30*time.Millisecond, time.Minute)
	defer timers.Close()
	s.Subscribe(context.Background(), timers)

	id := createSession(t, s)
	s.Dispatch(action.New(action.WakeActivated, action.Payload{"session_id": id, "source": "wakeword"}))

	waitFor(t, "wake timeout", func() bool {
		sess, ok := s.State().Session(id)
		return ok && !sess.WakeActive
	})
}

func TestNewWakeSupersedesPendingTimeout(t *testing.T) {
	s := store.New(nil)
	defer s.Close()

	timers := NewSessionTimers(s, nil, 80*time.Millisecond, time.Minute)
	defer timers.Close()
	s.Subscribe(context.Background(), timers)

	id := createSession(t, s)
	s.Dispatch(action.ForSession(action.WakeActivated, id))
	time.Sleep(50 * time.Millisecond)
	// Re-activation restarts the clock; the first timer must not fire.
	s.Dispatch(action.ForSession(action.WakeActivated, id))
	time.Sleep(50 * time.Millisecond)

	if sess, _ := s.State().Session(id); !sess.WakeActive {
		t.Fatalf("superseded timer cleared a fresh wake")
	}

	waitFor(t, "second wake timeout", func() bool {
		sess, ok := s.State().Session(id)
		return ok && !sess.WakeActive
	})
}

func TestTimerAfterDeleteIsHarmless(t *testing.T) {
	s := store.New(nil)
	defer s.Close()

	timers := NewSessionTimers(s, nil, 20*time.Millisecond, time.Minute)
	defer timers.Close()
	s.Subscribe(context.Background(), timers)

	id := createSession(t, s)
	s.Dispatch(action.ForSession(action.WakeActivated, id))
	s.Dispatch(action.ForSession(action.SessionDelete, id))

	time.Sleep(60 * time.Millisecond)
	st := s.State()
	if _, ok := st.Sessions[id]; ok {
		t.Fatalf("session should stay deleted")
	}
	// The late WakeTimedOut, if any, reduced to a no-op.
	if len(st.Sessions) != 0 {
		t.Fatalf("late timer resurrected state: %+v", st.Sessions)
	}
}

func TestSilenceTimeoutStopsListening(t *testing.T) {
	s := store.New(nil)
	defer s.Close()

	timers := NewSessionTimers(s, nil, time.Minute, 30*time.Millisecond)
	defer timers.Close()
	s.Subscribe(context.Background(), timers)

	id := createSession(t, s)
	s.Dispatch(action.ForSession(action.StartListening, id))
	s.Dispatch(action.ForSession(action.VADSilenceStarted, id))

	waitFor(t, "silence timeout", func() bool {
		sess, ok := s.State().Session(id)
		return ok && sess.Status == store.StatusIdle
	})
}

func TestSpeechCancelsSilenceTimer(t *testing.T) {
	s := store.New(nil)
	defer s.Close()

	timers := NewSessionTimers(s, nil, time.Minute, 40*time.Millisecond)
	defer timers.Close()
	s.Subscribe(context.Background(), timers)

	id := createSession(t, s)
	s.Dispatch(action.ForSession(action.StartListening, id))
	s.Dispatch(action.ForSession(action.VADSilenceStarted, id))
	s.Dispatch(action.ForSession(action.VADSpeechStarted, id))

	time.Sleep(80 * time.Millisecond)
	if sess, _ := s.State().Session(id); sess.Status != store.StatusListening {
		t.Fatalf("cancelled silence timer stopped the session, status = %q", sess.Status)
	}
}

func TestWakeWindowAccuracy(t *testing.T) {
	rec := newFakeRecorder()
	w := NewWakeWindow(rec, nil, time.Minute)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		w.Handle(ctx, action.Action{Type: action.WakeDetected}, store.State{})
	}
	w.Handle(ctx, action.Action{Type: action.WakeRejected}, store.State{})

	w.Flush(time.Now())
	v, ok := rec.gauge("wake_accuracy_1m")
	if !ok || v != 0.75 {
		t.Fatalf("wake accuracy gauge = %v (%v), want 0.75", v, ok)
	}
}

func TestWakeWindowPrunesOldEvents(t *testing.T) {
	rec := newFakeRecorder()
	w := NewWakeWindow(rec, nil, 50*time.Millisecond)

	ctx := context.Background()
	w.Handle(ctx, action.Action{Type: action.WakeRejected}, store.State{})
	time.Sleep(70 * time.Millisecond)
	w.Handle(ctx, action.Action{Type: action.WakeDetected}, store.State{})

	w.Flush(time.Now())
	if v, _ := rec.gauge("wake_accuracy_1m"); v != 1.0 {
		t.Fatalf("stale false positive should age out, accuracy = %v", v)
	}
}

func TestReporterInjectsInitializeAndReports(t *testing.T) {
	s := store.New(nil)
	defer s.Close()

	r := NewReporter(s, nil, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	waitFor(t, "stats initialize", func() bool {
		return !s.State().Stats.StartedAt.IsZero()
	})
	waitFor(t, "stats report", func() bool {
		return s.State().Stats.ReportCount >= 2
	})
}

func TestAlertsResetClearsCount(t *testing.T) {
	s := store.New(nil)
	defer s.Close()

	a := NewAlerts(nil, nil, 2)
	s.Subscribe(context.Background(), a)

	id := createSession(t, s)
	s.Dispatch(action.New(action.ErrorRaised, action.Payload{"session_id": id, "error": "one"}))
	s.Dispatch(action.ForSession(action.SessionReset, id))
	s.Dispatch(action.New(action.ErrorRaised, action.Payload{"session_id": id, "error": "two"}))

	waitFor(t, "alert counts", func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.counts[id] == 1
	})
}
