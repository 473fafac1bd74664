// Package adapters translates between the three wire protocols and the
// canonical action model. Each adapter resolves addresses through the
// route registry in both directions and rejects malformed input with a
// structured Rejection instead of guessing.
package adapters

import (
	"fmt"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/routes"
)

// Rejection codes surfaced to callers.
const (
	CodeNotFound       = "not_found"
	CodeParseError     = "parse_error"
	CodeInvalidParams  = "invalid_params"
	CodeUnknownSession = "unknown_session"
)

// Rejection is the structured error an adapter returns for input it
// cannot translate. It is wire-safe: adapters serialize it back to the
// caller on their own framing.
type Rejection struct {
	Protocol routes.Protocol `json:"protocol"`
	Code     string          `json:"code"`
	Detail   string          `json:"detail"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s adapter rejected input (%s): %s", r.Protocol, r.Code, r.Detail)
}

func reject(p routes.Protocol, code, format string, args ...any) *Rejection {
	return &Rejection{Protocol: p, Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Inbound is one successfully translated wire message. Payload is the
// merged canonical payload; Action is only meaningful when HasAction is
// true; some routes (status reads, health) have no canonical action
// and are answered at the transport layer.
type Inbound struct {
	Route     routes.Route
	Params    map[string]string
	Payload   action.Payload
	Action    action.Action
	HasAction bool
}

// buildInbound merges address parameters into a normalized payload and
// attaches the route's canonical action. Address-derived parameters win
// over payload fields of the same name: the address is authoritative.
func buildInbound(rt routes.Route, params map[string]string, payload action.Payload) Inbound {
	merged := make(action.Payload, len(payload)+len(params))
	for k, v := range payload {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	in := Inbound{Route: rt, Params: params, Payload: merged, HasAction: rt.Action != ""}
	if in.HasAction {
		in.Action = action.New(rt.Action, merged)
	}
	return in
}

// requireParams checks the route's required parameters against the
// merged view of address params and payload fields.
func requireParams(p routes.Protocol, rt routes.Route, params map[string]string, payload action.Payload) *Rejection {
	for _, name := range rt.Params {
		if params[name] != "" {
			continue
		}
		if payload.String(name) != "" {
			continue
		}
		return reject(p, CodeInvalidParams, "route %s requires parameter %q", rt.Name, name)
	}
	return nil
}
