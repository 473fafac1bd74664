package routes

import "github.com/voicebridge/voicebridge/internal/action"

// Route names. These are the abstract identifiers used everywhere above
// the wire; adapters never hard-code per-protocol addresses.
const (
	SessionCreate = "SESSION_CREATE"
	SessionDelete = "SESSION_DELETE"
	SessionReset  = "SESSION_RESET"
	SessionStatus = "SESSION_STATUS"
	SessionList   = "SESSION_LIST"

	ControlStart  = "CONTROL_START"
	ControlStop   = "CONTROL_STOP"
	ControlStatus = "CONTROL_STATUS"

	ListenStart = "LISTEN_START"
	ListenStop  = "LISTEN_STOP"

	AudioUpload = "AUDIO_UPLOAD"
	AudioChunk  = "AUDIO_CHUNK"

	WakeEvent         = "WAKE_EVENT"
	WakeCleared       = "WAKE_CLEARED"
	WakeFalsePositive = "WAKE_FALSE_POSITIVE"
	VADEvent          = "VAD_EVENT"
	RecordStart       = "RECORD_START"
	RecordStop        = "RECORD_STOP"
	ErrorEvent        = "ERROR_EVENT"
	SessionState      = "SESSION_STATE"

	TranscriptPartial = "TRANSCRIPT_PARTIAL"
	TranscriptFinal   = "TRANSCRIPT_FINAL"
	ReplyText         = "REPLY_TEXT"
	ReplyAudio        = "REPLY_AUDIO"

	StatsReport = "STATS_REPORT"
	Health      = "HEALTH"
)

// Catalog is the fixed route table, in definition order. Reverse lookup
// resolves shared addresses to the first entry here, so order matters:
// the three control routes intentionally share one address per protocol
// and are disambiguated only by the in-payload "command" field, never by
// the registry.
func Catalog() []Route {
	return []Route{
		{
			Name:        SessionCreate,
			Category:    CategorySession,
			Description: "Create a new speech session.",
			Path:        "/session",
			MessageType: "session.create",
			EventName:   "session:create",
			Action:      action.SessionCreate,
		},
		{
			Name:            SessionDelete,
			Category:        CategorySession,
			Description:     "Delete a session and release its resources.",
			Params:          []string{"session_id"},
			Path:            "/session/{session_id}",
			MessageType:     "session.delete",
			EventName:       "session:delete",
			Action:          action.SessionDelete,
			RequiresSession: true,
		},
		{
			Name:            SessionReset,
			Category:        CategorySession,
			Description:     "Return a session to IDLE, clearing transient state.",
			Params:          []string{"session_id"},
			Path:            "/session/{session_id}/reset",
			MessageType:     "session.reset",
			EventName:       "session:reset",
			Action:          action.SessionReset,
			RequiresSession: true,
		},
		{
			Name:            SessionStatus,
			Category:        CategoryMetadata,
			Description:     "Read the current state of one session.",
			Params:          []string{"session_id"},
			Path:            "/session/{session_id}/status",
			MessageType:     "session.status",
			EventName:       "session:status",
			RequiresSession: true,
			Bidirectional:   true,
		},
		{
			Name:        SessionList,
			Category:    CategoryMetadata,
			Description: "List known sessions and the active set.",
			Path:        "/sessions",
			MessageType: "session.list",
			EventName:   "session:list",
		},
		// The control trio shares one address per protocol. The registry
		// cannot recover the originating route from the address alone;
		// callers disambiguate via the payload "command" field.
		{
			Name:        ControlStart,
			Category:    CategoryControl,
			Description: "Start the pipeline (command=start).",
			Path:        "/control",
			MessageType: "control",
			EventName:   "control",
		},
		{
			Name:        ControlStop,
			Category:    CategoryControl,
			Description: "Stop the pipeline (command=stop). Shares the control address.",
			Path:        "/control",
			MessageType: "control",
			EventName:   "control",
		},
		{
			Name:        ControlStatus,
			Category:    CategoryControl,
			Description: "Query pipeline status (command=status). Shares the control address.",
			Path:        "/control",
			MessageType: "control",
			EventName:   "control",
		},
		{
			Name:            ListenStart,
			Category:        CategoryAudio,
			Description:     "Begin streaming capture for a session.",
			Params:          []string{"session_id"},
			Path:            "/listen/{session_id}",
			MessageType:     "listen.start",
			EventName:       "listen:start",
			Action:          action.StartListening,
			RequiresSession: true,
		},
		{
			Name:            ListenStop,
			Category:        CategoryAudio,
			Description:     "Stop streaming capture for a session.",
			Params:          []string{"session_id"},
			Path:            "/listen/{session_id}/stop",
			MessageType:     "listen.stop",
			EventName:       "listen:stop",
			Action:          action.StopListening,
			RequiresSession: true,
		},
		{
			Name:            AudioUpload,
			Category:        CategoryAudio,
			Description:     "Upload a complete audio segment for non-streaming transcription.",
			Params:          []string{"session_id"},
			Path:            "/audio/{session_id}",
			MessageType:     "audio.upload",
			EventName:       "audio:upload",
			Action:          action.UploadStarted,
			RequiresSession: true,
		},
		{
			Name:            AudioChunk,
			Category:        CategoryAudio,
			Description:     "One audio chunk within a streaming session.",
			Params:          []string{"session_id"},
			Path:            "/audio/{session_id}/chunk",
			MessageType:     "audio.chunk",
			EventName:       "audio:chunk",
			Action:          action.AudioChunkReceived,
			RequiresSession: true,
		},
		{
			Name:            WakeEvent,
			Category:        CategoryEvents,
			Description:     "Wake-word detection for a session.",
			Params:          []string{"session_id"},
			Path:            "/events/{session_id}/wake",
			MessageType:     "wake.event",
			EventName:       "wake:detected",
			Action:          action.WakeActivated,
			RequiresSession: true,
			Bidirectional:   true,
		},
		{
			Name:            WakeCleared,
			Category:        CategoryEvents,
			Description:     "Wake state cleared for a session.",
			Params:          []string{"session_id"},
			Path:            "/events/{session_id}/wake/clear",
			MessageType:     "wake.clear",
			EventName:       "wake:cleared",
			Action:          action.WakeDeactivated,
			RequiresSession: true,
			Bidirectional:   true,
		},
		{
			Name:            WakeFalsePositive,
			Category:        CategoryEvents,
			Description:     "Wake-word detection judged a false positive.",
			Params:          []string{"session_id"},
			Path:            "/events/{session_id}/wake/reject",
			MessageType:     "wake.reject",
			EventName:       "wake:rejected",
			Action:          action.WakeRejected,
			RequiresSession: true,
		},
		{
			Name:            VADEvent,
			Category:        CategoryEvents,
			Description:     "Voice-activity transition for a session.",
			Params:          []string{"session_id"},
			Path:            "/events/{session_id}/vad",
			MessageType:     "vad.event",
			EventName:       "vad:activity",
			RequiresSession: true,
			Bidirectional:   true,
		},
		{
			Name:            RecordStart,
			Category:        CategoryAudio,
			Description:     "Begin recording a session's audio.",
			Params:          []string{"session_id"},
			Path:            "/record/{session_id}/start",
			MessageType:     "record.start",
			EventName:       "record:start",
			Action:          action.RecordStarted,
			RequiresSession: true,
		},
		{
			Name:            RecordStop,
			Category:        CategoryAudio,
			Description:     "Stop recording a session's audio.",
			Params:          []string{"session_id"},
			Path:            "/record/{session_id}/stop",
			MessageType:     "record.stop",
			EventName:       "record:stop",
			Action:          action.RecordStopped,
			RequiresSession: true,
		},
		{
			Name:            TranscriptPartial,
			Category:        CategoryTranscription,
			Description:     "Interim transcription hypothesis pushed to the client.",
			Params:          []string{"session_id"},
			Path:            "/transcript/{session_id}/partial",
			MessageType:     "transcript.partial",
			EventName:       "transcript:partial",
			RequiresSession: true,
			Bidirectional:   true,
		},
		{
			Name:            TranscriptFinal,
			Category:        CategoryTranscription,
			Description:     "Committed transcription pushed to the client.",
			Params:          []string{"session_id"},
			Path:            "/transcript/{session_id}/final",
			MessageType:     "transcript.final",
			EventName:       "transcript:final",
			Action:          action.TranscribeDone,
			RequiresSession: true,
			Bidirectional:   true,
		},
		{
			Name:            ReplyText,
			Category:        CategoryTranscription,
			Description:     "Synthesized reply text pushed to the client.",
			Params:          []string{"session_id"},
			Path:            "/reply/{session_id}/text",
			MessageType:     "reply.text",
			EventName:       "reply:text",
			RequiresSession: true,
			Bidirectional:   true,
		},
		{
			Name:            ReplyAudio,
			Category:        CategoryTranscription,
			Description:     "Synthesized reply audio pushed to the client.",
			Params:          []string{"session_id"},
			Path:            "/reply/{session_id}/audio",
			MessageType:     "reply.audio",
			EventName:       "reply:audio",
			RequiresSession: true,
			Bidirectional:   true,
		},
		{
			Name:            ErrorEvent,
			Category:        CategorySystem,
			Description:     "Session-scoped error surfaced to subscribers.",
			Params:          []string{"session_id"},
			Path:            "/events/{session_id}/error",
			MessageType:     "error",
			EventName:       "error",
			Action:          action.ErrorRaised,
			RequiresSession: true,
			Bidirectional:   true,
		},
		{
			Name:            SessionState,
			Category:        CategoryEvents,
			Description:     "Full session state snapshot pushed after a transition.",
			Params:          []string{"session_id"},
			Path:            "/events/{session_id}/state",
			MessageType:     "session.state",
			EventName:       "session:state",
			RequiresSession: true,
			Bidirectional:   true,
		},
		{
			Name:        StatsReport,
			Category:    CategoryMetadata,
			Description: "Aggregate pipeline statistics.",
			Path:        "/stats",
			MessageType: "stats.report",
			EventName:   "stats:report",
			Action:      action.StatsReport,
		},
		{
			Name:        Health,
			Category:    CategorySystem,
			Description: "Liveness probe.",
			Path:        "/health",
			MessageType: "health",
			EventName:   "health",
		},
	}
}
