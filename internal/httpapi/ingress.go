package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/voicebridge/voicebridge/internal/action"
	"github.com/voicebridge/voicebridge/internal/adapters"
	"github.com/voicebridge/voicebridge/internal/detect"
	"github.com/voicebridge/voicebridge/internal/routes"
)

// handleIngress is the single entry point for the path protocol. The
// adapter owns route resolution; applyInbound owns the semantics, so
// the handler only maps the outcome onto HTTP.
func (s *Server) handleIngress(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/ingress")
	if path == "" {
		path = "/"
	}

	var body []byte
	if r.Body != nil {
		b, err := readBody(r)
		if err != nil && !errors.Is(err, errEmptyBody) {
			respondError(w, http.StatusBadRequest, "read_error", err.Error())
			return
		}
		body = b
	}

	in, err := s.path.DecodeRequest(path, body)
	if err != nil {
		s.rejectHTTP(w, err)
		return
	}

	_, payload, rej := s.applyInbound(routes.ProtocolPath, in)
	if rej != nil {
		s.rejectHTTP(w, rej)
		return
	}
	respondJSON(w, http.StatusOK, payload)
}

// applyInbound executes one decoded message and produces the reply
// route plus payload, independent of which transport carried it. Every
// protocol funnels through here so the three wire surfaces stay
// behaviorally identical.
func (s *Server) applyInbound(p routes.Protocol, in adapters.Inbound) (string, any, *adapters.Rejection) {
	switch in.Route.Name {
	case routes.Health:
		return routes.Health, map[string]any{"status": "ok"}, nil

	case routes.SessionStatus:
		sess, ok := s.store.State().Session(in.Payload.SessionID())
		if !ok {
			return "", nil, rejectFor(p, adapters.CodeUnknownSession, "no session "+in.Payload.SessionID())
		}
		return routes.SessionStatus, sess, nil

	case routes.SessionList:
		st := s.store.State()
		return routes.SessionList, map[string]any{
			"sessions":           st.Sessions,
			"active_session_ids": st.ActiveIDs(),
		}, nil

	case routes.ControlStart, routes.ControlStop, routes.ControlStatus:
		return s.applyControl(p, in)

	case routes.VADEvent:
		return s.applyVAD(p, in)

	case routes.AudioChunk:
		// Chunks go through the bounded queue; the pump dispatches the
		// chunk-received action so a burst sheds stale audio instead of
		// backing up into the transport.
		if s.chunks != nil {
			s.chunks.Enqueue(detect.Chunk{
				SessionID: in.Payload.SessionID(),
				Seq:       in.Payload.Int("seq", 0),
				Data:      []byte(in.Payload.String("audio")),
			})
			return routes.AudioChunk, map[string]any{
				"queued":     true,
				"session_id": in.Payload.SessionID(),
				"dropped":    s.chunks.Dropped(),
			}, nil
		}
	}

	if !in.HasAction {
		return "", nil, rejectFor(p, adapters.CodeInvalidParams, "route "+in.Route.Name+" is outbound-only")
	}

	st := s.store.Dispatch(in.Action)
	s.logger.Debug("action dispatched",
		zap.String("route", in.Route.Name),
		zap.String("action", string(in.Action.Type)))

	resp := map[string]any{"route": in.Route.Name, "action": in.Action.Type}
	if id := in.Payload.SessionID(); id != "" {
		if sess, ok := st.Session(id); ok {
			resp["session"] = sess
		}
	} else if in.Action.Type == action.SessionCreate {
		// Creation generates the id inside the reducer; the committed
		// state carries it back.
		if sess, ok := st.Session(st.LastCreatedID); ok {
			resp["session"] = sess
		}
	}
	if in.Route.Name == routes.StatsReport {
		resp["stats"] = st.Stats
	}
	return in.Route.Name, resp, nil
}

// applyControl interprets the shared control address. The registry
// resolves it to the first catalog entry; the payload command field
// decides the actual behavior.
func (s *Server) applyControl(p routes.Protocol, in adapters.Inbound) (string, any, *adapters.Rejection) {
	cmd := in.Payload.String("command")
	id := in.Payload.SessionID()

	switch cmd {
	case "start", "stop":
		if id == "" {
			return "", nil, rejectFor(p, adapters.CodeInvalidParams, "control "+cmd+" requires session_id")
		}
		t := action.StartListening
		route := routes.ControlStart
		if cmd == "stop" {
			t = action.StopListening
			route = routes.ControlStop
		}
		st := s.store.Dispatch(action.ForSession(t, id))
		sess, ok := st.Session(id)
		if !ok {
			return "", nil, rejectFor(p, adapters.CodeUnknownSession, "no session "+id)
		}
		return route, map[string]any{"command": cmd, "session": sess}, nil

	case "status":
		if id != "" {
			sess, ok := s.store.State().Session(id)
			if !ok {
				return "", nil, rejectFor(p, adapters.CodeUnknownSession, "no session "+id)
			}
			return routes.ControlStatus, map[string]any{"command": "status", "session": sess}, nil
		}
		st := s.store.State()
		return routes.ControlStatus, map[string]any{
			"command":            "status",
			"sessions":           len(st.Sessions),
			"active_session_ids": st.ActiveIDs(),
			"stats":              st.Stats,
		}, nil

	default:
		return "", nil, rejectFor(p, adapters.CodeInvalidParams, "unknown control command "+cmd)
	}
}

// applyVAD maps a voice-activity transition onto the speech or silence
// action depending on the reported activity.
func (s *Server) applyVAD(p routes.Protocol, in adapters.Inbound) (string, any, *adapters.Rejection) {
	var t action.Type
	switch in.Payload.String("activity") {
	case "speech":
		t = action.VADSpeechStarted
	case "silence":
		t = action.VADSilenceStarted
	default:
		return "", nil, rejectFor(p, adapters.CodeInvalidParams, `vad event requires activity "speech" or "silence"`)
	}
	st := s.store.Dispatch(action.New(t, in.Payload))
	sess, _ := st.Session(in.Payload.SessionID())
	return routes.VADEvent, map[string]any{
		"activity": in.Payload.String("activity"),
		"session":  sess,
	}, nil
}

func rejectFor(p routes.Protocol, code, detail string) *adapters.Rejection {
	return &adapters.Rejection{Protocol: p, Code: code, Detail: detail}
}

// rejectHTTP maps an adapter rejection onto an HTTP status and counts
// it.
func (s *Server) rejectHTTP(w http.ResponseWriter, err error) {
	var rej *adapters.Rejection
	if !errors.As(err, &rej) {
		respondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.AdapterRejections.WithLabelValues(string(rej.Protocol), rej.Code).Inc()
	}
	status := http.StatusBadRequest
	switch rej.Code {
	case adapters.CodeNotFound:
		status = http.StatusNotFound
	case adapters.CodeUnknownSession:
		status = http.StatusNotFound
	case adapters.CodeInvalidParams:
		status = http.StatusUnprocessableEntity
	}
	respondError(w, status, rej.Code, rej.Detail)
}
