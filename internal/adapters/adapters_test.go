package adapters

import (
	"errors"
	"strings"
	"testing"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/routes"
)

func newRegistry(t *testing.T) *routes.Registry {
	t.Helper()
	reg, err := routes.NewFromCatalog()
	if err != nil {
		t.Fatalf("NewFromCatalog() error = %v", err)
	}
	return reg
}

func TestPathDecodeUploadRequest(t *testing.T) {
	a := NewPathAdapter(newRegistry(t))

	in, err := a.DecodeRequest("/audio/abc123", []byte(`{"sample_rate":48000}`))
	if err != nil {
		t.Fatalf("DecodeRequest() error = %v", err)
	}
	if in.Route.Name != routes.AudioUpload {
		t.Fatalf("route = %q, want %q", in.Route.Name, routes.AudioUpload)
	}
	if !in.HasAction || in.Action.Type != action.UploadStarted {
		t.Fatalf("action = %+v, want UploadStarted", in.Action)
	}
	if in.Action.Payload.SessionID() != "abc123" {
		t.Fatalf("session_id = %q, want abc123", in.Action.Payload.SessionID())
	}
	if in.Action.Payload.Int("sample_rate", 0) != 48000 {
		t.Fatalf("sample_rate not carried: %v", in.Action.Payload)
	}
}

func TestPathDecodeBareStringBody(t *testing.T) {
	a := NewPathAdapter(newRegistry(t))
	in, err := a.DecodeRequest("/session/s1/status", []byte(`"s1"`))
	if err != nil {
		t.Fatalf("DecodeRequest() error = %v", err)
	}
	if in.HasAction {
		t.Fatalf("status route carries no canonical action, got %+v", in.Action)
	}
	if in.Payload.SessionID() != "s1" {
		t.Fatalf("bare string body not normalized: %v", in.Payload)
	}

	ctrl, err := a.DecodeRequest("/control", []byte(`{"command":"start"}`))
	if err != nil {
		t.Fatalf("DecodeRequest(/control) error = %v", err)
	}
	if ctrl.Route.Name != routes.ControlStart {
		t.Fatalf("shared /control resolved to %q", ctrl.Route.Name)
	}
	if ctrl.Payload.String("command") != "start" {
		t.Fatalf("command field lost: %v", ctrl.Payload)
	}
}

func TestPathDecodeRejections(t *testing.T) {
	a := NewPathAdapter(newRegistry(t))

	_, err := a.DecodeRequest("/nope", nil)
	var rej *Rejection
	if !errors.As(err, &rej) || rej.Code != CodeNotFound {
		t.Fatalf("unknown path: got %v, want not_found rejection", err)
	}

	_, err = a.DecodeRequest("/audio/abc123", []byte(`{broken`))
	if !errors.As(err, &rej) || rej.Code != CodeParseError {
		t.Fatalf("broken JSON: got %v, want parse_error rejection", err)
	}
}

func TestPathAddressParamsAuthoritativeOverBody(t *testing.T) {
	a := NewPathAdapter(newRegistry(t))
	in, err := a.DecodeRequest("/audio/from-path", []byte(`{"session_id":"from-body"}`))
	if err != nil {
		t.Fatalf("DecodeRequest() error = %v", err)
	}
	if got := in.Action.Payload.SessionID(); got != "from-path" {
		t.Fatalf("session_id = %q, the address must win", got)
	}
}

func TestPathEncodeFrame(t *testing.T) {
	a := NewPathAdapter(newRegistry(t))
	frame, err := a.EncodeFrame(routes.TranscriptFinal, "42", map[string]any{"text": "hello"})
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	want := "event: TRANSCRIPT_FINAL\nid: 42\ndata: {\"text\":\"hello\"}\n\n"
	if string(frame) != want {
		t.Fatalf("frame = %q, want %q", frame, want)
	}
}

func TestPathEncodeFrameSplitsMultilinePayload(t *testing.T) {
	a := NewPathAdapter(newRegistry(t))
	frame, err := a.EncodeFrame(routes.TranscriptFinal, "", "line1\nline2")
	if err != nil {
		t.Fatalf("EncodeFrame() error = %v", err)
	}
	// JSON escapes the newline, so a string payload stays one line; a
	// frame must still terminate with a blank line.
	if !strings.HasSuffix(string(frame), "\n\n") {
		t.Fatalf("frame not terminated: %q", frame)
	}
	if strings.Contains(string(frame), "id:") {
		t.Fatalf("empty id must be omitted: %q", frame)
	}
}

func TestMessageDecodeWithExtras(t *testing.T) {
	a := NewMessageAdapter(newRegistry(t))
	in, err := a.Decode([]byte(`{"type":"audio.chunk","data":{"session_id":"s1","seq":3},"trace_id":"t-9"}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if in.Route.Name != routes.AudioChunk || in.Action.Type != action.AudioChunkReceived {
		t.Fatalf("decoded %q / %q", in.Route.Name, in.Action.Type)
	}
	p := in.Action.Payload
	if p.SessionID() != "s1" || p.Int("seq", 0) != 3 {
		t.Fatalf("data payload lost: %v", p)
	}
	if p.String("trace_id") != "t-9" {
		t.Fatalf("extra top-level field lost: %v", p)
	}
}

func TestMessageDecodeBareIDData(t *testing.T) {
	a := NewMessageAdapter(newRegistry(t))
	in, err := a.Decode([]byte(`{"type":"vad.event","data":"s1"}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if in.Payload.SessionID() != "s1" {
		t.Fatalf("bare-id data not normalized: %v", in.Payload)
	}
}

func TestMessageDecodeRejections(t *testing.T) {
	a := NewMessageAdapter(newRegistry(t))

	var rej *Rejection
	_, err := a.Decode([]byte(`{"data":{}}`))
	if !errors.As(err, &rej) || rej.Code != CodeParseError {
		t.Fatalf("missing type: got %v", err)
	}
	_, err = a.Decode([]byte(`{"type":"no.such.tag"}`))
	if !errors.As(err, &rej) || rej.Code != CodeNotFound {
		t.Fatalf("unknown tag: got %v", err)
	}
	_, err = a.Decode([]byte(`{"type":"audio.chunk","data":{}}`))
	if !errors.As(err, &rej) || rej.Code != CodeInvalidParams {
		t.Fatalf("missing session_id: got %v", err)
	}
}

func TestMessageEncode(t *testing.T) {
	a := NewMessageAdapter(newRegistry(t))
	out, err := a.Encode(routes.ReplyText, map[string]any{"text": "hi"}, map[string]any{"seq": 1, "type": "spoofed"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `"type":"reply.text"`) {
		t.Fatalf("type tag missing or overridden: %s", s)
	}
	if !strings.Contains(s, `"seq":1`) || strings.Contains(s, "spoofed") {
		t.Fatalf("extras handling wrong: %s", s)
	}
}

func TestEventDecodeAndRoom(t *testing.T) {
	a := NewEventAdapter(newRegistry(t))
	in, err := a.Decode("wake:detected", []byte(`{"session_id":"s1","source":"wakeword"}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if in.Action.Type != action.WakeActivated || in.Action.Payload.String("source") != "wakeword" {
		t.Fatalf("decoded %+v", in.Action)
	}
	if got := RoomForSession("s1"); got != "session_s1" {
		t.Fatalf("RoomForSession = %q", got)
	}
}

func TestEventDecodeBarePayloadAndRejections(t *testing.T) {
	a := NewEventAdapter(newRegistry(t))

	in, err := a.Decode("vad:activity", []byte(`"s1"`))
	if err != nil {
		t.Fatalf("bare-id event payload: %v", err)
	}
	// VAD_EVENT declares no canonical action.
	if in.HasAction {
		t.Fatalf("vad route should carry no action, got %v", in.Action.Type)
	}
	if in.Payload.SessionID() != "s1" {
		t.Fatalf("bare-id payload not normalized: %v", in.Payload)
	}

	var rej *Rejection
	if _, err := a.Decode("no:such", nil); !errors.As(err, &rej) || rej.Code != CodeNotFound {
		t.Fatalf("unknown event: %v", err)
	}
	if _, err := a.Decode("", nil); !errors.As(err, &rej) || rej.Code != CodeParseError {
		t.Fatalf("empty event name: %v", err)
	}
}

func TestEventEncode(t *testing.T) {
	a := NewEventAdapter(newRegistry(t))
	name, data, err := a.Encode(routes.TranscriptPartial, map[string]any{"text": "par"})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if name != "transcript:partial" {
		t.Fatalf("event name = %q", name)
	}
	if !strings.Contains(string(data), "par") {
		t.Fatalf("payload = %s", data)
	}
}

func TestCrossProtocolEquivalence(t *testing.T) {
	reg := newRegistry(t)
	path := NewPathAdapter(reg)
	msg := NewMessageAdapter(reg)
	evt := NewEventAdapter(reg)

	fromPath, err := path.DecodeRequest("/events/s1/wake", []byte(`{"source":"wakeword"}`))
	if err != nil {
		t.Fatalf("path decode: %v", err)
	}
	fromMsg, err := msg.Decode([]byte(`{"type":"wake.event","data":{"session_id":"s1","source":"wakeword"}}`))
	if err != nil {
		t.Fatalf("message decode: %v", err)
	}
	fromEvt, err := evt.Decode("wake:detected", []byte(`{"session_id":"s1","source":"wakeword"}`))
	if err != nil {
		t.Fatalf("event decode: %v", err)
	}

	for _, in := range []Inbound{fromPath, fromMsg, fromEvt} {
		if in.Action.Type != action.WakeActivated {
			t.Fatalf("action type diverged: %q", in.Action.Type)
		}
		if in.Action.Payload.SessionID() != "s1" || in.Action.Payload.String("source") != "wakeword" {
			t.Fatalf("payload diverged: %v", in.Action.Payload)
		}
	}
}
