package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/voicebridge/voicebridge/internal/action"
)

// sessionUpdate rewrites one session in response to an action. The input
// is a copy; handlers overwrite fields and return it.
type sessionUpdate func(s Session, p action.Payload, now time.Time) Session

// sessionUpdates is the table for all per-session lifecycle actions.
// Create and Delete are handled separately because they change the map
// itself. Any type absent here and there reduces to identity.
var sessionUpdates = map[action.Type]sessionUpdate{
	action.StartListening: func(s Session, p action.Payload, now time.Time) Session {
		s.AudioConfig = ensureAudioConfig(s.AudioConfig, p)
		s.Status = StatusListening
		s.IsStreaming = true
		return s
	},
	action.StopListening: func(s Session, p action.Payload, now time.Time) Session {
		s.Status = StatusIdle
		s.IsStreaming = false
		s.VADSpeech = false
		return s
	},
	action.UploadStarted: func(s Session, p action.Payload, now time.Time) Session {
		s.AudioConfig = ensureAudioConfig(s.AudioConfig, p)
		s.Status = StatusProcessing
		return s
	},
	action.UploadCompleted: func(s Session, p action.Payload, now time.Time) Session {
		s.Status = StatusIdle
		return s
	},
	action.AudioChunkReceived: func(s Session, p action.Payload, now time.Time) Session {
		s.AudioChunksReceived++
		return s
	},
	action.WakeActivated: func(s Session, p action.Payload, now time.Time) Session {
		s.WakeActive = true
		s.WakeSource = p.String("source")
		s.WakeTimestamp = now
		// Wake always resumes listening, whatever the prior status.
		s.Status = StatusListening
		return s
	},
	action.WakeDeactivated: clearWake,
	action.WakeTimedOut:    clearWake,
	action.VADSpeechStarted: func(s Session, p action.Payload, now time.Time) Session {
		s.VADSpeech = true
		s.SilenceStartTimestamp = time.Time{}
		return s
	},
	action.VADSilenceStarted: func(s Session, p action.Payload, now time.Time) Session {
		s.VADSpeech = false
		s.SilenceStartTimestamp = now
		return s
	},
	action.RecordStarted: func(s Session, p action.Payload, now time.Time) Session {
		s.IsRecording = true
		s.RecordingStart = now
		s.Status = StatusProcessing
		return s
	},
	action.RecordStopped: func(s Session, p action.Payload, now time.Time) Session {
		s.IsRecording = false
		s.RecordingEnd = now
		return s
	},
	action.RecordFailed: func(s Session, p action.Payload, now time.Time) Session {
		s.IsRecording = false
		return s
	},
	action.TranscribeStarted: func(s Session, p action.Payload, now time.Time) Session {
		s.IsTranscribing = true
		s.Status = StatusTranscribing
		return s
	},
	action.TranscribeDone: func(s Session, p action.Payload, now time.Time) Session {
		s.IsTranscribing = false
		s.TranscriptionsCount++
		s.Status = StatusIdle
		return s
	},
	action.TranscribeFailed: func(s Session, p action.Payload, now time.Time) Session {
		s.IsTranscribing = false
		s.Status = StatusIdle
		return s
	},
	action.ReplyStarted: func(s Session, p action.Payload, now time.Time) Session {
		s.Status = StatusReplying
		return s
	},
	action.ReplyDone: func(s Session, p action.Payload, now time.Time) Session {
		s.Status = StatusIdle
		return s
	},
	action.ErrorRaised: func(s Session, p action.Payload, now time.Time) Session {
		s.ErrorCount++
		s.LastError = p.String("error")
		// Not terminal: Reset returns the session to IDLE.
		s.Status = StatusError
		return s
	},
	action.SessionReset: func(s Session, p action.Payload, now time.Time) Session {
		return Session{
			ID:                  s.ID,
			Status:              StatusIdle,
			Strategy:            s.Strategy,
			AudioConfig:         s.AudioConfig,
			AudioChunksReceived: s.AudioChunksReceived,
			TranscriptionsCount: s.TranscriptionsCount,
			CreatedAt:           s.CreatedAt,
		}
	},
}

func clearWake(s Session, p action.Payload, now time.Time) Session {
	s.WakeActive = false
	s.WakeSource = ""
	return s
}

// reduceSessions computes the sessions branch. It is total: unknown
// action types and actions addressing absent sessions reduce to the
// input state unchanged.
func reduceSessions(st State, act action.Action) State {
	switch act.Type {
	case action.SessionCreate:
		return createSession(st, act.Payload)
	case action.SessionDelete:
		return deleteSession(st, act.Payload.SessionID())
	}

	update, ok := sessionUpdates[act.Type]
	if !ok {
		return st
	}
	id := act.Payload.SessionID()
	sess, ok := st.Sessions[id]
	if !ok {
		return st
	}

	now := time.Now().UTC()
	next := update(sess, act.Payload, now)
	next.UpdatedAt = laterOf(now, sess.UpdatedAt)

	st.Sessions = cloneSessions(st.Sessions)
	st.Sessions[id] = next
	st.Active = syncActive(st.Active, id, next.Status)
	return st
}

func createSession(st State, p action.Payload) State {
	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		Status:    StatusIdle,
		Strategy:  strategyFrom(p),
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.Sessions = cloneSessions(st.Sessions)
	st.Sessions[sess.ID] = sess
	st.TotalCreated++
	st.LastCreatedID = sess.ID
	return st
}

func deleteSession(st State, id string) State {
	if _, ok := st.Sessions[id]; !ok {
		return st
	}
	st.Sessions = cloneSessions(st.Sessions)
	delete(st.Sessions, id)
	st.Active = cloneActive(st.Active)
	delete(st.Active, id)
	st.TotalDeleted++
	return st
}

// syncActive keeps the active set equal to the set of non-IDLE sessions.
func syncActive(active map[string]struct{}, id string, status Status) map[string]struct{} {
	_, inSet := active[id]
	shouldBe := status != StatusIdle
	if inSet == shouldBe {
		return active
	}
	next := cloneActive(active)
	if shouldBe {
		next[id] = struct{}{}
	} else {
		delete(next, id)
	}
	return next
}

func strategyFrom(p action.Payload) Strategy {
	switch p.String("strategy") {
	case string(StrategyNonStreaming), "non_streaming":
		return StrategyNonStreaming
	default:
		return StrategyStreaming
	}
}

func ensureAudioConfig(existing *AudioConfig, p action.Payload) *AudioConfig {
	if existing != nil {
		return existing
	}
	cfg := DefaultAudioConfig()
	cfg.SampleRate = p.Int("sample_rate", cfg.SampleRate)
	cfg.Channels = p.Int("channels", cfg.Channels)
	if f := p.String("sample_format"); f != "" {
		cfg.SampleFormat = f
	}
	return &cfg
}

func laterOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return b
	}
	return a
}
