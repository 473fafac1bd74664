package detect

import (
	"context"
	"strings"
	"sync"

	"github.com/voicebridge/voicebridge/internal/store"
)

// MockDetector returns a fixed detection for every frame. Useful in
// tests and for wiring the pipeline without a model runtime.
type MockDetector struct {
	Label string
	Score float64
}

func (m *MockDetector) Detect(_ context.Context, _ []byte) (Detection, error) {
	return Detection{Label: m.Label, Score: m.Score}, nil
}

// MockTranscriber records segments and answers with a canned transcript.
type MockTranscriber struct {
	Text string

	mu       sync.Mutex
	segments int
}

func (m *MockTranscriber) Transcribe(_ context.Context, _ []byte, _ store.AudioConfig) (string, error) {
	m.mu.Lock()
	m.segments++
	m.mu.Unlock()
	return m.Text, nil
}

func (m *MockTranscriber) Segments() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.segments
}

// MockReplySynthesizer echoes the transcript back.
type MockReplySynthesizer struct{}

func (MockReplySynthesizer) Reply(_ context.Context, transcript string) (string, error) {
	return "you said: " + strings.TrimSpace(transcript), nil
}
