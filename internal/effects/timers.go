package effects

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/store"
)

// SessionTimers guards wake and silence timeouts per session. A new
// WakeActivated supersedes any pending wake timer; deletion cancels
// both. A timer that still fires after supersession or deletion
// dispatches an action the reducer resolves as a no-op, per the
// absent-session rule.
type SessionTimers struct {
	d      store.Dispatcher
	logger *zap.Logger

	wakeTimeout    time.Duration
	silenceTimeout time.Duration

	mu      sync.Mutex
	wake    map[string]*time.Timer
	silence map[string]*time.Timer
}

func NewSessionTimers(d store.Dispatcher, logger *zap.Logger, wakeTimeout, silenceTimeout time.Duration) *SessionTimers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if wakeTimeout <= 0 {
		wakeTimeout = 10 * time.Second
	}
	if silenceTimeout <= 0 {
		silenceTimeout = 5 * time.Second
	}
	return &SessionTimers{
		d:              d,
		logger:         logger,
		wakeTimeout:    wakeTimeout,
		silenceTimeout: silenceTimeout,
		wake:           make(map[string]*time.Timer),
		silence:        make(map[string]*time.Timer),
	}
}

func (t *SessionTimers) Name() string { return "session-timers" }

func (t *SessionTimers) Matches(tp action.Type) bool {
	switch tp {
	case action.WakeActivated, action.WakeDeactivated, action.WakeTimedOut,
		action.VADSpeechStarted, action.VADSilenceStarted,
		action.StopListening, action.SessionDelete, action.SessionReset:
		return true
	}
	return false
}

func (t *SessionTimers) Handle(_ context.Context, act action.Action, _ store.State) {
	id := act.Payload.SessionID()
	if id == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch act.Type {
	case action.WakeActivated:
		// Supersede any pending wake timeout for this session.
		t.cancelLocked(t.wake, id)
		t.wake[id] = time.AfterFunc(t.wakeTimeout, func() {
			t.logger.Debug("wake timeout elapsed", zap.String("session_id", id))
			t.d.Dispatch(action.ForSession(action.WakeTimedOut, id))
		})
	case action.WakeDeactivated, action.WakeTimedOut:
		t.cancelLocked(t.wake, id)
	case action.VADSilenceStarted:
		t.cancelLocked(t.silence, id)
		t.silence[id] = time.AfterFunc(t.silenceTimeout, func() {
			t.logger.Debug("silence timeout elapsed", zap.String("session_id", id))
			t.d.Dispatch(action.ForSession(action.StopListening, id))
		})
	case action.VADSpeechStarted, action.StopListening:
		t.cancelLocked(t.silence, id)
	case action.SessionDelete, action.SessionReset:
		t.cancelLocked(t.wake, id)
		t.cancelLocked(t.silence, id)
	}
}

// Close cancels every pending timer.
func (t *SessionTimers) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.wake {
		t.cancelLocked(t.wake, id)
	}
	for id := range t.silence {
		t.cancelLocked(t.silence, id)
	}
}

func (t *SessionTimers) cancelLocked(m map[string]*time.Timer, id string) {
	if timer, ok := m[id]; ok {
		timer.Stop()
		delete(m, id)
	}
}
