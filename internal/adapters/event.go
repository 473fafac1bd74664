package adapters

import (
	"encoding/json"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/routes"
)

// EventAdapter handles the named-event socket framing: an event-name
// string plus an opaque JSON payload. Sessions map to broadcast rooms
// named session_<id>.
type EventAdapter struct {
	reg *routes.Registry
}

func NewEventAdapter(reg *routes.Registry) *EventAdapter {
	return &EventAdapter{reg: reg}
}

// RoomForSession is the broadcast-room naming convention.
func RoomForSession(sessionID string) string {
	return "session_" + sessionID
}

// Decode translates one inbound named event. The payload may be a JSON
// object or a bare session-id string.
func (a *EventAdapter) Decode(eventName string, payload []byte) (Inbound, error) {
	if eventName == "" {
		return Inbound{}, reject(routes.ProtocolEvent, CodeParseError, "event frame has no name")
	}
	rt, _, err := a.reg.RouteFor(routes.ProtocolEvent, eventName)
	if err != nil {
		return Inbound{}, reject(routes.ProtocolEvent, CodeNotFound, "no route for event %q", eventName)
	}

	p := action.Payload{}
	if len(payload) > 0 {
		var raw any
		if err := json.Unmarshal(payload, &raw); err != nil {
			return Inbound{}, reject(routes.ProtocolEvent, CodeParseError, "invalid payload for event %q: %v", eventName, err)
		}
		p = action.Normalize(raw)
	}

	if rej := requireParams(routes.ProtocolEvent, rt, nil, p); rej != nil {
		return Inbound{}, rej
	}
	return buildInbound(rt, nil, p), nil
}

// Encode resolves a route to its event name and marshals the payload.
func (a *EventAdapter) Encode(route string, payload any) (string, []byte, error) {
	rt, err := a.reg.Route(route)
	if err != nil {
		return "", nil, reject(routes.ProtocolEvent, CodeNotFound, "unknown route %q", route)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", nil, reject(routes.ProtocolEvent, CodeParseError, "marshal payload for %s: %v", route, err)
	}
	return rt.EventName, data, nil
}

// EncodeRejection frames a rejection as an error event.
func (a *EventAdapter) EncodeRejection(rej *Rejection) (string, []byte) {
	data, _ := json.Marshal(rej)
	return "error", data
}
