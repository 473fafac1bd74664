// Package routes holds the protocol-agnostic route catalog and the
// registry that resolves abstract routes to per-protocol addresses and
// back. The catalog is data: immutable records built once at startup,
// shared freely across goroutines afterwards.
package routes

import (
	"errors"
	"fmt"

	"github.com/voicebridge/voicebridge/internal/action"
)

// Protocol identifies one of the supported wire representations.
type Protocol string

const (
	// ProtocolPath is the path-based request/event-stream protocol.
	ProtocolPath Protocol = "path"
	// ProtocolMessage is the message-typed socket framing.
	ProtocolMessage Protocol = "message"
	// ProtocolEvent is the named-event socket framing.
	ProtocolEvent Protocol = "event"
)

// Category groups routes by concern.
type Category string

const (
	CategoryControl       Category = "CONTROL"
	CategorySession       Category = "SESSION"
	CategoryAudio         Category = "AUDIO"
	CategoryTranscription Category = "TRANSCRIPTION"
	CategoryMetadata      Category = "METADATA"
	CategorySystem        Category = "SYSTEM"
	CategoryEvents        Category = "EVENTS"
)

// Route is one protocol-agnostic interaction. Every route carries an
// address for all three protocols; addresses may be shared between
// routes (see the control routes), in which case reverse lookup returns
// the first route in catalog order.
type Route struct {
	Name        string
	Category    Category
	Description string

	// Params are the required parameter names, in order. For the path
	// protocol they must exactly match the template placeholders.
	Params []string

	// Path is a template like "/audio/{session_id}". Verb/method is
	// out-of-band metadata and not part of the address.
	Path string
	// MessageType is the message-typed framing tag.
	MessageType string
	// EventName is the named-event framing tag.
	EventName string

	// Action is the canonical action this route corresponds to, if any.
	Action action.Type

	RequiresSession bool
	Bidirectional   bool
}

// ErrNotFound reports an unknown route name or an unmatched address.
// The registry never guesses: a miss is always explicit.
var ErrNotFound = errors.New("route not found")

// NotFoundError carries the lookup that missed.
type NotFoundError struct {
	Route    string
	Protocol Protocol
	Address  string
}

func (e *NotFoundError) Error() string {
	if e.Address != "" {
		return fmt.Sprintf("route not found for %s address %q", e.Protocol, e.Address)
	}
	return fmt.Sprintf("route %q not found", e.Route)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError reports missing required route parameters.
type ValidationError struct {
	Route   string
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("route %q missing required parameters %v", e.Route, e.Missing)
}
