// Package action defines the canonical event model shared by every wire
// protocol and by the store. An Action is a namespaced type tag plus an
// opaque structured payload; adapters normalize all inbound shapes into
// this form before anything reaches a reducer.
package action

import "encoding/json"

// Type is the namespaced action tag, e.g. "[Session] Create".
type Type string

const (
	SessionCreate Type = "[Session] Create"
	SessionDelete Type = "[Session] Delete"
	SessionReset  Type = "[Session] Reset"
	ErrorRaised   Type = "[Session] Error"

	StartListening Type = "[Listen] Start"
	StopListening  Type = "[Listen] Stop"

	AudioChunkReceived Type = "[Audio] Chunk Received"
	UploadStarted      Type = "[Audio] Upload Started"
	UploadCompleted    Type = "[Audio] Upload Completed"

	WakeActivated   Type = "[Wake] Activated"
	WakeDeactivated Type = "[Wake] Deactivated"
	WakeTimedOut    Type = "[Wake] Timed Out"
	WakeDetected    Type = "[Wake] Detected"
	WakeRejected    Type = "[Wake] False Positive"

	VADSpeechStarted  Type = "[VAD] Speech Started"
	VADSilenceStarted Type = "[VAD] Silence Started"

	RecordStarted Type = "[Recording] Started"
	RecordStopped Type = "[Recording] Stopped"
	RecordFailed  Type = "[Recording] Failed"

	TranscribeStarted Type = "[Transcription] Started"
	TranscribeDone    Type = "[Transcription] Done"
	TranscribeFailed  Type = "[Transcription] Failed"

	ReplyStarted Type = "[Reply] Started"
	ReplyDone    Type = "[Reply] Done"

	StatsInitialize Type = "[Stats] Initialize"
	StatsReport     Type = "[Stats] Report"
)

// Action is one canonical event. Seq is assigned by the store at dispatch
// time and reflects the total dispatch order.
type Action struct {
	Type    Type    `json:"type"`
	Payload Payload `json:"payload,omitempty"`
	Seq     uint64  `json:"seq,omitempty"`
}

// New builds an action with a structured payload.
func New(t Type, payload Payload) Action {
	return Action{Type: t, Payload: payload}
}

// ForSession builds an action whose payload carries only a session id.
func ForSession(t Type, sessionID string) Action {
	return Action{Type: t, Payload: Payload{"session_id": sessionID}}
}

// Payload is the opaque structured body of an action. Keys are wire-level
// snake_case names; values are whatever JSON decoding produced.
type Payload map[string]any

// Normalize converts the two legal inbound payload shapes into one
// canonical structured payload: a bare session-id value becomes
// {"session_id": id}, a structured object passes through unchanged.
func Normalize(raw any) Payload {
	switch v := raw.(type) {
	case nil:
		return Payload{}
	case string:
		return Payload{"session_id": v}
	case Payload:
		return v
	case map[string]any:
		return Payload(v)
	case json.RawMessage:
		return normalizeJSON(v)
	case []byte:
		return normalizeJSON(v)
	default:
		return Payload{}
	}
}

func normalizeJSON(raw []byte) Payload {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return Payload(obj)
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil && id != "" {
		return Payload{"session_id": id}
	}
	return Payload{}
}

// SessionID returns the session id carried by the payload, or "".
func (p Payload) SessionID() string {
	return p.String("session_id")
}

// String returns the named field as a string, or "" when absent or not a
// string.
func (p Payload) String(key string) string {
	if p == nil {
		return ""
	}
	s, _ := p[key].(string)
	return s
}

// Int returns the named field as an int, falling back to def when the
// field is absent or not numeric. JSON decoding yields float64 for all
// numbers, so both forms are accepted.
func (p Payload) Int(key string, def int) int {
	if p == nil {
		return def
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Float returns the named field as a float64, or def.
func (p Payload) Float(key string, def float64) float64 {
	if p == nil {
		return def
	}
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// Bool returns the named field as a bool, or def.
func (p Payload) Bool(key string, def bool) bool {
	if p == nil {
		return def
	}
	b, ok := p[key].(bool)
	if !ok {
		return def
	}
	return b
}

// With returns a copy of the payload with one field added or replaced.
// The receiver is never mutated.
func (p Payload) With(key string, value any) Payload {
	next := make(Payload, len(p)+1)
	for k, v := range p {
		next[k] = v
	}
	next[key] = value
	return next
}
