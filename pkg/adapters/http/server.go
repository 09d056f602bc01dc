// Package http serves parsetrail sessions over HTTP: a JSON API, SVG and
// Mermaid drawings, server-sent events and a browser page.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/parsetrail/internal/logging"
	"github.com/aretw0/parsetrail/internal/presentation/graph"
	"github.com/aretw0/parsetrail/internal/presentation/layout"
	"github.com/aretw0/parsetrail/internal/presentation/svg"
	rebuild "github.com/aretw0/parsetrail/internal/replay"
	"github.com/aretw0/parsetrail/pkg/coordinator"
	"github.com/aretw0/parsetrail/pkg/domain"
	"github.com/aretw0/parsetrail/pkg/replay"
	"github.com/aretw0/parsetrail/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
)

// maxBody bounds request bodies; grammars are small text files.
const maxBody = 1 << 20

// Server holds the collaborators behind the HTTP routes.
type Server struct {
	Sessions    *session.Manager
	Engine      *replay.Engine
	Coordinator *coordinator.Coordinator
	Streams     *StreamManager

	metrics http.Handler
	layout  layout.Options
	version string
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLayout sets the SVG canvas size.
func WithLayout(opts layout.Options) Option {
	return func(s *Server) {
		s.layout = opts
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer wires the collaborators.
func NewServer(sessions *session.Manager, engine *replay.Engine, coord *coordinator.Coordinator, opts ...Option) *Server {
	s := &Server{
		Sessions:    sessions,
		Engine:      engine,
		Coordinator: coord,
		layout:      layout.DefaultOptions(),
		version:     "dev",
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.GetIndex)
	r.Get("/openapi.yaml", s.GetSpec)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Get("/sessions", s.ListSessions)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Use(s.bindSessionID)
		r.Get("/", s.GetSession)
		r.Delete("/", s.DeleteSession)
		r.Post("/parse", s.ParseSentence)
		r.Post("/next", s.NextStep)
		r.Post("/prev", s.PrevStep)
		r.Post("/seek", s.SeekStep)
		r.Get("/tree.svg", s.GetTreeSVG)
		r.Get("/tree.mmd", s.GetTreeMermaid)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type sessionKey struct{}

// bindSessionID decodes and validates the {id} path parameter once for the subtree.
func (s *Server) bindSessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
		if err == nil {
			err = validateSessionID(id)
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid session id: %v", err))
			return
		}
		next.ServeHTTP(w, r.WithContext(withSessionID(r.Context(), id)))
	})
}

// GetIndex serves the browser page.
func (s *Server) GetIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

// GetSpec serves the OpenAPI document.
func (s *Server) GetSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	_, _ = w.Write(rawSpec)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "parsetrail-http",
		"version":     strings.TrimSpace(s.version),
		"api_version": apiVersion,
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r.Context())
	sess, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	v, err := s.Engine.View(r.Context(), sess)
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), sessionID(r.Context())); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ParseSentence handles POST /sessions/{id}/parse.
func (s *Server) ParseSentence(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validateBody("/sessions/{id}/parse", http.MethodPost, body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		s.logger.Warn("ParseSentence: Invalid request body", "error", err)
		return
	}

	var in coordinator.Input
	if err := json.Unmarshal(body, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	before, _ := s.Sessions.Load(r.Context(), id)

	v, err := s.Coordinator.Run(r.Context(), id, in)
	if err != nil {
		s.fail(w, "ParseSentence", err)
		return
	}

	if after, err := s.Sessions.Load(r.Context(), id); err == nil {
		s.broadcast(domain.Diff(before, after))
	}
	writeJSON(w, http.StatusOK, v)
}

type moveResponse struct {
	Moved bool         `json:"moved"`
	View  *replay.View `json:"view"`
}

// NextStep handles POST /sessions/{id}/next.
func (s *Server) NextStep(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r.Context())
	v, moved, err := s.Engine.Next(r.Context(), id)
	s.respondMove(w, "NextStep", id, v, moved, err)
}

// PrevStep handles POST /sessions/{id}/prev.
func (s *Server) PrevStep(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r.Context())
	v, moved, err := s.Engine.Prev(r.Context(), id)
	s.respondMove(w, "PrevStep", id, v, moved, err)
}

// SeekStep handles POST /sessions/{id}/seek?cursor=N.
func (s *Server) SeekStep(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r.Context())

	var cursor int
	if err := runtime.BindQueryParameter("form", true, true, "cursor", r.URL.Query(), &cursor); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter cursor: %v", err))
		return
	}

	v, moved, err := s.Engine.Seek(r.Context(), id, cursor)
	s.respondMove(w, "SeekStep", id, v, moved, err)
}

func (s *Server) respondMove(w http.ResponseWriter, op, id string, v *replay.View, moved bool, err error) {
	if err != nil {
		s.fail(w, op, err)
		return
	}
	if moved {
		cursor := v.Cursor
		s.broadcast(&domain.SessionDiff{SessionID: id, Cursor: &cursor})
	}
	writeJSON(w, http.StatusOK, moveResponse{Moved: moved, View: v})
}

// GetTreeSVG handles GET /sessions/{id}/tree.svg.
func (s *Server) GetTreeSVG(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r, "GetTreeSVG")
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := svg.Render(w, snap, s.layout); err != nil {
		s.logger.Error("GetTreeSVG: write failed", "error", err)
	}
}

// GetTreeMermaid handles GET /sessions/{id}/tree.mmd.
func (s *Server) GetTreeMermaid(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r, "GetTreeMermaid")
	if !ok {
		return
	}
	overlay := &graph.GraphOverlay{Truncated: snap.Truncated}
	if snap.Tree != nil {
		overlay.Pending = rebuild.LeftmostUnexpanded(snap.Tree)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(snap, overlay))
}

// snapshot loads the session and returns its snapshot; sessions without a trace draw empty.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request, op string) (*domain.Snapshot, bool) {
	sess, err := s.Sessions.Load(r.Context(), sessionID(r.Context()))
	if err != nil {
		s.fail(w, op, err)
		return nil, false
	}
	v, err := s.Engine.View(r.Context(), sess)
	if err != nil {
		s.fail(w, op, err)
		return nil, false
	}
	if v.Snapshot == nil {
		return &domain.Snapshot{Through: domain.BeforeFirstStep}, true
	}
	return v.Snapshot, true
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var id string
	if err := runtime.BindQueryParameter("form", true, true, "session_id", r.URL.Query(), &id); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter session_id: %v", err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", id)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", id)
			return
		case frame, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: cursor\ndata: %s\n\n", frame)
			flusher.Flush()
		}
	}
}

func (s *Server) broadcast(diff *domain.SessionDiff) {
	if err := s.Streams.Publish(diff); err != nil {
		s.logger.Error("broadcast failed", "error", err)
	}
}

// fail maps domain and coordinator errors to HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error(op+" failed", "error", err)
	} else {
		s.logger.Debug(op+" rejected", "error", err, "status", status)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, coordinator.ErrInvalidInput), errors.Is(err, domain.ErrUnknownAlgorithm):
		return http.StatusBadRequest
	case errors.Is(err, coordinator.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, coordinator.ErrService):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// -- Helpers --

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
