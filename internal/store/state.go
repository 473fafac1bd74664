// Package store holds the canonical session state, the pure reducers
// that compute it, and the action bus that serializes every mutation.
// State values are immutable once published: reducers build new values
// with copied maps and never edit one a reader may already hold.
package store

import "time"

// Status is a session's lifecycle phase.
type Status string

const (
	StatusIdle         Status = "IDLE"
	StatusListening    Status = "LISTENING"
	StatusProcessing   Status = "PROCESSING"
	StatusTranscribing Status = "TRANSCRIBING"
	StatusReplying     Status = "REPLYING"
	StatusError        Status = "ERROR"
)

// Strategy is the session's transcription mode.
type Strategy string

const (
	StrategyStreaming    Strategy = "streaming"
	StrategyNonStreaming Strategy = "non-streaming"
)

// AudioConfig is fixed on the first listen or upload start and kept for
// the life of the session.
type AudioConfig struct {
	SampleRate   int    `json:"sample_rate"`
	Channels     int    `json:"channels"`
	SampleFormat string `json:"sample_format"`
}

// DefaultAudioConfig is applied field-by-field when a listen/upload
// payload omits values.
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{SampleRate: 16000, Channels: 1, SampleFormat: "pcm16"}
}

// Session is one tracked speech interaction. Instances inside a State
// are values; mutation happens only by replacing the whole Session in a
// fresh map.
type Session struct {
	ID       string   `json:"session_id"`
	Status   Status   `json:"status"`
	Strategy Strategy `json:"strategy"`

	AudioConfig *AudioConfig `json:"audio_config,omitempty"`

	WakeActive     bool `json:"wake_active"`
	VADSpeech      bool `json:"vad_speech"`
	IsRecording    bool `json:"is_recording"`
	IsTranscribing bool `json:"is_transcribing"`
	IsStreaming    bool `json:"is_streaming"`

	AudioChunksReceived int `json:"audio_chunks_received"`
	TranscriptionsCount int `json:"transcriptions_count"`
	ErrorCount          int `json:"error_count"`

	WakeTimestamp         time.Time `json:"wake_timestamp,omitempty"`
	SilenceStartTimestamp time.Time `json:"silence_start_timestamp,omitempty"`
	RecordingStart        time.Time `json:"recording_start_timestamp,omitempty"`
	RecordingEnd          time.Time `json:"recording_end_timestamp,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`

	LastError  string `json:"last_error,omitempty"`
	WakeSource string `json:"wake_source,omitempty"`
}

// State is the whole store value. Sessions and Active are never shared
// mutably between two State values that differ in them.
type State struct {
	Sessions map[string]Session `json:"sessions"`
	// Active is the set of session ids whose status is not IDLE.
	Active map[string]struct{} `json:"active_session_ids"`

	TotalCreated int `json:"total_created"`
	TotalDeleted int `json:"total_deleted"`

	// LastCreatedID is the id allocated by the most recent create. The
	// reducer generates ids, so this is the only exact way for a caller
	// to learn which session its create produced.
	LastCreatedID string `json:"last_created_session_id,omitempty"`

	Stats Stats `json:"stats"`
}

// NewState returns the initial empty state.
func NewState() State {
	return State{
		Sessions: map[string]Session{},
		Active:   map[string]struct{}{},
	}
}

// Session looks up a session by id.
func (s State) Session(id string) (Session, bool) {
	sess, ok := s.Sessions[id]
	return sess, ok
}

// IsActive reports membership in the active set.
func (s State) IsActive(id string) bool {
	_, ok := s.Active[id]
	return ok
}

// ActiveIDs returns the active set as a slice (order unspecified).
func (s State) ActiveIDs() []string {
	out := make([]string, 0, len(s.Active))
	for id := range s.Active {
		out = append(out, id)
	}
	return out
}

func cloneSessions(m map[string]Session) map[string]Session {
	next := make(map[string]Session, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	return next
}

func cloneActive(m map[string]struct{}) map[string]struct{} {
	next := make(map[string]struct{}, len(m)+1)
	for k := range m {
		next[k] = struct{}{}
	}
	return next
}
