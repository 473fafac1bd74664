package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/voicebridge/voicebridge/internal/adapters"
	"github.com/voicebridge/voicebridge/internal/routes"
)

// eventFrame is the wire envelope of the named-event protocol: an event
// name plus an opaque payload.
type eventFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func encodeEventFrame(name string, payload []byte) []byte {
	out, _ := json.Marshal(eventFrame{Event: name, Payload: payload})
	return out
}

// Hub fans broadcast frames out to named-event clients by room. A
// client only receives frames for rooms it has joined; the room naming
// convention is session_<id>.
type Hub struct {
	server *Server
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*eventClient]struct{}
}

type eventClient struct {
	conn     *websocket.Conn
	outbound chan []byte
	done     chan struct{}

	mu    sync.Mutex
	rooms map[string]struct{}
}

func newHub(server *Server, logger *zap.Logger) *Hub {
	return &Hub{
		server:  server,
		logger:  logger,
		clients: make(map[*eventClient]struct{}),
	}
}

// Run pumps broadcast frames into joined rooms until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	frames, cancel := h.server.broadcaster.Register("")
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			name, data, err := h.server.evt.Encode(f.Route, f.Payload)
			if err != nil {
				h.logger.Warn("event broadcast frame dropped",
					zap.String("route", f.Route), zap.Error(err))
				continue
			}
			h.broadcast(adapters.RoomForSession(f.SessionID), encodeEventFrame(name, data))
		}
	}
}

func (h *Hub) broadcast(room string, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.inRoom(room) {
			continue
		}
		select {
		case c.outbound <- msg:
		default:
			// Slow client; drop rather than stall the hub.
		}
	}
}

func (h *Hub) add(c *eventClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *eventClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (c *eventClient) inRoom(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[room]
	return ok
}

func (c *eventClient) join(room string) {
	c.mu.Lock()
	c.rooms[room] = struct{}{}
	c.mu.Unlock()
}

func (c *eventClient) leave(room string) {
	c.mu.Lock()
	delete(c.rooms, room)
	c.mu.Unlock()
}

// handleEventSocket serves the named-event socket protocol. The client
// joins and leaves session rooms with the reserved join/leave events;
// every other event resolves through the event adapter.
func (s *Server) handleEventSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("event socket upgrade failed", zap.Error(err))
		return
	}

	c := &eventClient{
		conn:     conn,
		outbound: make(chan []byte, 64),
		done:     make(chan struct{}),
		rooms:    make(map[string]struct{}),
	}
	s.hub.add(c)
	defer s.hub.remove(c)

	go func() {
		defer conn.Close()
		ticker := time.NewTicker(socketPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-c.done:
				return
			case msg := <-c.outbound:
				conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	defer close(c.done)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame eventFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.enqueueRejection(c.outbound, c.done, routes.ProtocolEvent,
				&adapters.Rejection{Protocol: routes.ProtocolEvent, Code: adapters.CodeParseError, Detail: "invalid event frame: " + err.Error()})
			continue
		}

		switch frame.Event {
		case "join", "leave":
			room := roomFromPayload(frame.Payload)
			if room == "" {
				s.enqueueRejection(c.outbound, c.done, routes.ProtocolEvent,
					&adapters.Rejection{Protocol: routes.ProtocolEvent, Code: adapters.CodeInvalidParams, Detail: frame.Event + " requires session_id"})
				continue
			}
			if frame.Event == "join" {
				c.join(room)
			} else {
				c.leave(room)
			}
			ack, _ := json.Marshal(map[string]string{"room": room})
			s.enqueueEvent(c, frame.Event+"ed", ack)
			continue
		}

		in, err := s.evt.Decode(frame.Event, frame.Payload)
		if err != nil {
			s.enqueueRejection(c.outbound, c.done, routes.ProtocolEvent, err)
			continue
		}
		route, payload, rej := s.applyInbound(routes.ProtocolEvent, in)
		if rej != nil {
			s.enqueueRejection(c.outbound, c.done, routes.ProtocolEvent, rej)
			continue
		}
		name, data, encErr := s.evt.Encode(route, payload)
		if encErr != nil {
			s.logger.Warn("event reply dropped", zap.String("route", route), zap.Error(encErr))
			continue
		}
		s.enqueueEvent(c, name, data)
	}
}

func (s *Server) enqueueEvent(c *eventClient, name string, payload []byte) {
	select {
	case c.outbound <- encodeEventFrame(name, payload):
	case <-c.done:
	}
}

func roomFromPayload(payload []byte) string {
	var body struct {
		SessionID string `json:"session_id"`
		Room      string `json:"room"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if body.Room != "" {
		return body.Room
	}
	if body.SessionID != "" {
		return adapters.RoomForSession(body.SessionID)
	}
	return ""
}
