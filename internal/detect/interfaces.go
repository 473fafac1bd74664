// Package detect declares the external speech collaborators the core
// consumes: wake-word/VAD detectors, transcription and reply providers,
// and the bounded audio queue feeding chunk actions. Only discrete
// results cross into the core, always as actions, never raw inference.
package detect

import (
	"context"

	"github.com/voicebridge/voicebridge/internal/store"
)

// Detection is one discrete detector result.
type Detection struct {
	Label string
	Score float64
}

// Detector is a wake-word or voice-activity model invoked per chunk.
type Detector interface {
	Detect(ctx context.Context, frame []byte) (Detection, error)
}

// Transcriber converts a complete audio segment to text.
type Transcriber interface {
	Transcribe(ctx context.Context, segment []byte, cfg store.AudioConfig) (string, error)
}

// StreamTranscriber consumes chunks incrementally and emits partial and
// final hypotheses on the returned channel until the stream closes.
type StreamTranscriber interface {
	Start(ctx context.Context, cfg store.AudioConfig) (StreamSession, error)
}

// TranscriptEvent is one hypothesis from a streaming transcriber.
type TranscriptEvent struct {
	Text  string
	Final bool
}

type StreamSession interface {
	SendChunk(ctx context.Context, chunk []byte) error
	Events() <-chan TranscriptEvent
	Close() error
}

// ReplySynthesizer produces a reply for a committed transcript. Retries
// are the caller's business; the core only sees reply actions.
type ReplySynthesizer interface {
	Reply(ctx context.Context, transcript string) (string, error)
}
