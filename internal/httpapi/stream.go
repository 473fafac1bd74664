package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// handleStream serves the outbound half of the path protocol: a
// long-lived event stream of frames for one session, framed by the path
// adapter.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session_id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer cannot stream")
		return
	}

	frames, cancel := s.broadcaster.Register(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.logger.Debug("event stream opened", zap.String("session_id", id))

	for {
		select {
		case <-r.Context().Done():
			return
		case f, open := <-frames:
			if !open {
				return
			}
			frame, err := s.path.EncodeFrame(f.Route, fmt.Sprintf("%d", f.Seq), f.Payload)
			if err != nil {
				s.logger.Warn("event stream frame dropped",
					zap.String("route", f.Route), zap.Error(err))
				continue
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
