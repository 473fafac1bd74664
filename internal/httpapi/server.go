// Package httpapi hosts the three protocol adapters on one HTTP
// surface: path-based ingress with an event stream, a message-typed
// websocket, and a named-event websocket with session rooms.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/voicebridge/voicebridge/internal/adapters"
	"github.com/voicebridge/voicebridge/internal/archive"
	"github.com/voicebridge/voicebridge/internal/config"
	"github.com/voicebridge/voicebridge/internal/detect"
	"github.com/voicebridge/voicebridge/internal/observability"
	"github.com/voicebridge/voicebridge/internal/routes"
	"github.com/voicebridge/voicebridge/internal/store"
)

type Server struct {
	cfg         config.Config
	store       *store.Store
	registry    *routes.Registry
	broadcaster *Broadcaster
	history     archive.Store
	metrics     *observability.Metrics
	logger      *zap.Logger

	path *adapters.PathAdapter
	msg  *adapters.MessageAdapter
	evt  *adapters.EventAdapter
	hub  *Hub

	// chunks decouples chunk ingestion from dispatch so a slow store
	// consumer sheds stale audio instead of stalling the socket.
	chunks *detect.ChunkQueue

	upgrader websocket.Upgrader
}

func New(cfg config.Config, st *store.Store, reg *routes.Registry, bc *Broadcaster, hist archive.Store, metrics *observability.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:         cfg,
		store:       st,
		registry:    reg,
		broadcaster: bc,
		history:     hist,
		metrics:     metrics,
		logger:      logger,
		chunks:      detect.NewChunkQueue(cfg.ChunkQueueCapacity),
		path:        adapters.NewPathAdapter(reg),
		msg:         adapters.NewMessageAdapter(reg),
		evt:         adapters.NewEventAdapter(reg),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections unless explicitly
				// opened up; non-browser clients omit Origin and pass.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
	s.hub = newHub(s, logger)
	return s
}

// Run drives the named-event hub's broadcast pump and the audio chunk
// pump until ctx is done.
func (s *Server) Run(ctx context.Context) {
	defer s.chunks.Close()
	go detect.Pump(ctx, s.chunks, s.store)
	s.hub.Run(ctx)
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.HandleFunc("/v1/ingress/*", s.handleIngress)
	r.Get("/v1/stream/{session_id}", s.handleStream)
	r.Get("/v1/socket", s.handleMessageSocket)
	r.Get("/v1/events", s.handleEventSocket)
	r.Get("/v1/sessions/{session_id}/history", s.handleHistory)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	st := s.store.State()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"sessions":        len(st.Sessions),
		"active_sessions": len(st.Active),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session_id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}
	recs, err := s.history.RecentBySession(r.Context(), id, 100)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"session_id": id, "actions": recs})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

var errEmptyBody = errors.New("empty body")

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, errEmptyBody
	}
	return body, nil
}
