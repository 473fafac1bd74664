package action

import (
	"encoding/json"
	"testing"
)

func TestNormalizeBareSessionID(t *testing.T) {
	p := Normalize("sess-1")
	if p.SessionID() != "sess-1" {
		t.Fatalf("SessionID() = %q, want %q", p.SessionID(), "sess-1")
	}
}

func TestNormalizeStructuredObject(t *testing.T) {
	p := Normalize(map[string]any{"session_id": "sess-2", "threshold": 0.5})
	if p.SessionID() != "sess-2" {
		t.Fatalf("SessionID() = %q, want %q", p.SessionID(), "sess-2")
	}
	if p.Float("threshold", 0) != 0.5 {
		t.Fatalf("threshold = %v, want 0.5", p.Float("threshold", 0))
	}
}

func TestNormalizeRawJSONBothShapes(t *testing.T) {
	p := Normalize(json.RawMessage(`"sess-3"`))
	if p.SessionID() != "sess-3" {
		t.Fatalf("bare JSON string: SessionID() = %q", p.SessionID())
	}
	p = Normalize(json.RawMessage(`{"session_id":"sess-4","sample_rate":48000}`))
	if p.SessionID() != "sess-4" {
		t.Fatalf("object JSON: SessionID() = %q", p.SessionID())
	}
	if p.Int("sample_rate", 0) != 48000 {
		t.Fatalf("sample_rate = %d, want 48000", p.Int("sample_rate", 0))
	}
}

func TestNormalizeNilAndGarbage(t *testing.T) {
	if p := Normalize(nil); len(p) != 0 {
		t.Fatalf("nil payload should normalize empty, got %v", p)
	}
	if p := Normalize(json.RawMessage(`not json`)); len(p) != 0 {
		t.Fatalf("garbage payload should normalize empty, got %v", p)
	}
}

func TestPayloadWithDoesNotMutate(t *testing.T) {
	orig := Payload{"session_id": "s"}
	next := orig.With("source", "wakeword")
	if _, ok := orig["source"]; ok {
		t.Fatalf("With() mutated the receiver: %v", orig)
	}
	if next.String("source") != "wakeword" {
		t.Fatalf("source = %q, want %q", next.String("source"), "wakeword")
	}
}

func TestPayloadAccessorsDefaults(t *testing.T) {
	p := Payload{"rate": float64(16000), "on": true}
	if p.Int("rate", 0) != 16000 {
		t.Fatalf("Int(rate) = %d", p.Int("rate", 0))
	}
	if !p.Bool("on", false) {
		t.Fatalf("Bool(on) = false, want true")
	}
	if p.Int("missing", 7) != 7 {
		t.Fatalf("Int(missing) default = %d, want 7", p.Int("missing", 7))
	}
	if p.String("rate") != "" {
		t.Fatalf("String on non-string = %q, want empty", p.String("rate"))
	}
}
