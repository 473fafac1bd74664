package adapters

import (
	"encoding/json"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/routes"
)

// MessageAdapter handles the message-typed socket framing: a JSON object
// with a mandatory "type" (the route's message-type tag), an optional
// "data" payload, and arbitrary extra top-level fields.
type MessageAdapter struct {
	reg *routes.Registry
}

func NewMessageAdapter(reg *routes.Registry) *MessageAdapter {
	return &MessageAdapter{reg: reg}
}

// Decode translates one inbound frame. The "data" field may be a JSON
// object or a bare session-id string; extra top-level fields are merged
// into the payload underneath data fields of the same name.
func (a *MessageAdapter) Decode(raw []byte) (Inbound, error) {
	var frame map[string]json.RawMessage
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Inbound{}, reject(routes.ProtocolMessage, CodeParseError, "invalid message frame: %v", err)
	}

	var msgType string
	if rawType, ok := frame["type"]; ok {
		if err := json.Unmarshal(rawType, &msgType); err != nil {
			return Inbound{}, reject(routes.ProtocolMessage, CodeParseError, "message type must be a string: %v", err)
		}
	}
	if msgType == "" {
		return Inbound{}, reject(routes.ProtocolMessage, CodeParseError, "message frame has no type")
	}

	rt, _, err := a.reg.RouteFor(routes.ProtocolMessage, msgType)
	if err != nil {
		return Inbound{}, reject(routes.ProtocolMessage, CodeNotFound, "no route for message type %q", msgType)
	}

	payload := action.Payload{}
	if rawData, ok := frame["data"]; ok {
		payload = action.Normalize(rawData)
	}
	for key, rawValue := range frame {
		if key == "type" || key == "data" {
			continue
		}
		if _, exists := payload[key]; exists {
			continue
		}
		var v any
		if err := json.Unmarshal(rawValue, &v); err == nil {
			payload[key] = v
		}
	}

	if rej := requireParams(routes.ProtocolMessage, rt, nil, payload); rej != nil {
		return Inbound{}, rej
	}
	return buildInbound(rt, nil, payload), nil
}

// Encode renders an outbound frame for a route: the route's message-type
// tag, the data payload, and caller extras as additional top-level
// fields. Extras never override type or data.
func (a *MessageAdapter) Encode(route string, data any, extras map[string]any) ([]byte, error) {
	rt, err := a.reg.Route(route)
	if err != nil {
		return nil, reject(routes.ProtocolMessage, CodeNotFound, "unknown route %q", route)
	}

	frame := make(map[string]any, len(extras)+2)
	for k, v := range extras {
		if k == "type" || k == "data" {
			continue
		}
		frame[k] = v
	}
	frame["type"] = rt.MessageType
	if data != nil {
		frame["data"] = data
	}

	out, err := json.Marshal(frame)
	if err != nil {
		return nil, reject(routes.ProtocolMessage, CodeParseError, "marshal frame for %s: %v", route, err)
	}
	return out, nil
}

// EncodeRejection frames a rejection as an error message.
func (a *MessageAdapter) EncodeRejection(rej *Rejection) []byte {
	out, _ := json.Marshal(map[string]any{"type": "error", "data": rej})
	return out
}
