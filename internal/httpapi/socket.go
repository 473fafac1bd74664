package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/voicebridge/voicebridge/internal/adapters"
	"github.com/voicebridge/voicebridge/internal/routes"
)

const (
	socketWriteTimeout = 10 * time.Second
	socketPingPeriod   = 30 * time.Second
)

// handleMessageSocket serves the message-typed socket protocol. Inbound
// frames are decoded by the message adapter and applied; the reply plus
// every broadcast frame for the connection's scope are written back on
// the same socket. An optional session_id query parameter narrows the
// broadcast scope to one session.
func (s *Server) handleMessageSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("socket upgrade failed", zap.Error(err))
		return
	}

	scope := r.URL.Query().Get("session_id")
	frames, cancel := s.broadcaster.Register(scope)
	defer cancel()

	outbound := make(chan []byte, 64)
	done := make(chan struct{})

	// Single writer. The read loop and the broadcast pump both feed
	// outbound; nothing else touches the connection for writes.
	go func() {
		defer conn.Close()
		ticker := time.NewTicker(socketPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
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

	// Broadcast pump: encode frames on the message framing and queue
	// them behind direct replies.
	go func() {
		for f := range frames {
			msg, err := s.msg.Encode(f.Route, f.Payload, map[string]any{"seq": f.Seq})
			if err != nil {
				s.logger.Warn("socket broadcast frame dropped",
					zap.String("route", f.Route), zap.Error(err))
				continue
			}
			select {
			case outbound <- msg:
			case <-done:
				return
			}
		}
	}()

	defer close(done)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("socket closed unexpectedly", zap.Error(err))
			}
			return
		}

		in, err := s.msg.Decode(raw)
		if err != nil {
			s.enqueueRejection(outbound, done, routes.ProtocolMessage, err)
			continue
		}

		route, payload, rej := s.applyInbound(routes.ProtocolMessage, in)
		if rej != nil {
			s.enqueueRejection(outbound, done, routes.ProtocolMessage, rej)
			continue
		}
		msg, err := s.msg.Encode(route, payload, nil)
		if err != nil {
			s.logger.Warn("socket reply dropped", zap.String("route", route), zap.Error(err))
			continue
		}
		select {
		case outbound <- msg:
		case <-done:
			return
		}
	}
}

// enqueueRejection counts a rejection and queues its wire form without
// blocking past connection teardown.
func (s *Server) enqueueRejection(outbound chan<- []byte, done <-chan struct{}, p routes.Protocol, err error) {
	var rej *adapters.Rejection
	if !errors.As(err, &rej) {
		rej = &adapters.Rejection{Protocol: p, Code: adapters.CodeParseError, Detail: err.Error()}
	}
	if s.metrics != nil {
		s.metrics.AdapterRejections.WithLabelValues(string(rej.Protocol), rej.Code).Inc()
	}
	var msg []byte
	switch p {
	case routes.ProtocolEvent:
		name, data := s.evt.EncodeRejection(rej)
		msg = encodeEventFrame(name, data)
	default:
		msg = s.msg.EncodeRejection(rej)
	}
	select {
	case outbound <- msg:
	case <-done:
	}
}
