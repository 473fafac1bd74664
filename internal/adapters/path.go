package adapters

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/routes"
)

// PathAdapter handles the path-based request/event-stream protocol.
// Inbound requests are matched against the registry's path templates;
// outbound events are framed for an event stream, one frame per
// committed action.
type PathAdapter struct {
	reg *routes.Registry
}

func NewPathAdapter(reg *routes.Registry) *PathAdapter {
	return &PathAdapter{reg: reg}
}

// DecodeRequest translates a request path plus JSON body into an
// Inbound. The body may be a JSON object, a bare JSON string (shorthand
// for a session id), or empty. The HTTP verb is out-of-band metadata and
// plays no part in route resolution.
func (a *PathAdapter) DecodeRequest(path string, body []byte) (Inbound, error) {
	rt, params, err := a.reg.RouteFor(routes.ProtocolPath, path)
	if err != nil {
		return Inbound{}, reject(routes.ProtocolPath, CodeNotFound, "no route for path %q", path)
	}

	payload := action.Payload{}
	if len(bytes.TrimSpace(body)) > 0 {
		var raw any
		if err := json.Unmarshal(body, &raw); err != nil {
			return Inbound{}, reject(routes.ProtocolPath, CodeParseError, "invalid JSON body for %s: %v", rt.Name, err)
		}
		payload = action.Normalize(raw)
	}

	if rej := requireParams(routes.ProtocolPath, rt, params, payload); rej != nil {
		return Inbound{}, rej
	}
	return buildInbound(rt, params, payload), nil
}

// AddressFor renders an outbound path for a route.
func (a *PathAdapter) AddressFor(route string, params map[string]string) (string, error) {
	return a.reg.AddressFor(route, routes.ProtocolPath, params)
}

// EncodeFrame renders one event-stream frame:
//
//	event: <route-name>
//	id: <optional-id>
//	data: <json>
//
// followed by a blank line. A multi-line JSON payload is split into
// repeated data: lines so the frame stays well-formed.
func (a *PathAdapter) EncodeFrame(route string, id string, payload any) ([]byte, error) {
	if _, err := a.reg.Route(route); err != nil {
		return nil, reject(routes.ProtocolPath, CodeNotFound, "unknown route %q", route)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, reject(routes.ProtocolPath, CodeParseError, "marshal payload for %s: %v", route, err)
	}

	var sb strings.Builder
	sb.WriteString("event: ")
	sb.WriteString(route)
	sb.WriteString("\n")
	if id != "" {
		sb.WriteString("id: ")
		sb.WriteString(id)
		sb.WriteString("\n")
	}
	for _, line := range strings.Split(string(data), "\n") {
		sb.WriteString("data: ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return []byte(sb.String()), nil
}

// EncodeRejection frames a rejection as an error event.
func (a *PathAdapter) EncodeRejection(rej *Rejection) []byte {
	data, _ := json.Marshal(rej)
	return []byte("event: error\ndata: " + string(data) + "\n\n")
}
