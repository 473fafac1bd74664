package httpapi

import (
	"context"
	"sync"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/routes"
	"github.com/voicebridge/voicebridge/internal/store"
)

// Frame is one outbound push, still protocol-agnostic: the transport
// that delivers it picks the framing through its adapter.
type Frame struct {
	Route     string
	SessionID string
	Seq       uint64
	Payload   any
}

// Broadcaster is the effect subscriber feeding connected clients. Each
// connection registers a sink, optionally filtered to one session; a
// slow sink drops frames rather than stalling delivery to others.
type Broadcaster struct {
	mu    sync.RWMutex
	sinks map[*sink]struct{}
}

type sink struct {
	sessionID string // "" receives every session
	ch        chan Frame
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{sinks: make(map[*sink]struct{})}
}

// Register adds a sink and returns its channel plus a cancel func. The
// channel closes on cancel.
func (b *Broadcaster) Register(sessionID string) (<-chan Frame, func()) {
	s := &sink{sessionID: sessionID, ch: make(chan Frame, 64)}
	b.mu.Lock()
	b.sinks[s] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.sinks, s)
			b.mu.Unlock()
			close(s.ch)
		})
	}
	return s.ch, cancel
}

func (b *Broadcaster) Name() string { return "broadcaster" }

func (b *Broadcaster) Matches(action.Type) bool { return true }

// Handle derives outbound frames from the committed pair: a fresh
// session-state snapshot for every session-scoped action, plus an error
// frame when the action raised one.
func (b *Broadcaster) Handle(_ context.Context, act action.Action, st store.State) {
	id := act.Payload.SessionID()
	if id == "" {
		return
	}

	if sess, ok := st.Session(id); ok {
		b.publish(Frame{Route: routes.SessionState, SessionID: id, Seq: act.Seq, Payload: sess})
	} else if act.Type == action.SessionDelete {
		b.publish(Frame{
			Route:     routes.SessionState,
			SessionID: id,
			Seq:       act.Seq,
			Payload:   map[string]any{"session_id": id, "deleted": true},
		})
	}

	switch act.Type {
	case action.ErrorRaised:
		b.publish(Frame{
			Route:     routes.ErrorEvent,
			SessionID: id,
			Seq:       act.Seq,
			Payload: map[string]any{
				"session_id": id,
				"error":      act.Payload.String("error"),
				"source":     act.Payload.String("source"),
			},
		})
	case action.TranscribeDone:
		b.publish(Frame{
			Route:     routes.TranscriptFinal,
			SessionID: id,
			Seq:       act.Seq,
			Payload: map[string]any{
				"session_id": id,
				"text":       act.Payload.String("text"),
			},
		})
	}
}

func (b *Broadcaster) publish(f Frame) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.sinks {
		if s.sessionID != "" && s.sessionID != f.SessionID {
			continue
		}
		select {
		case s.ch <- f:
		default:
			// Slow consumer: drop rather than block delivery.
		}
	}
}
