// Package httpapi exposes the engine over HTTP for debugging and
// lightweight integrations. It is deliberately small: one endpoint per
// engine operation, JSON in and out, no streaming.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arborflow/arbor"
	"github.com/arborflow/arbor/pkg/domain"
	"github.com/arborflow/arbor/pkg/session"
)

// Server wires the engine and session manager into HTTP handlers.
type Server struct {
	engine   *arbor.Engine
	sessions *session.Manager
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsGatherer exposes the given Prometheus registry at /metrics.
func WithMetricsGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a Server over the given engine and session manager.
func NewServer(engine *arbor.Engine, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		engine:   engine,
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/events", s.handleGetEvents)
			r.Post("/execute", s.handleExecute)
		})
	})

	r.Get("/graph/validate", s.handleValidate)

	return r
}

// executeRequest is the body of POST /sessions/{id}/execute.
type executeRequest struct {
	NodeID  string         `json:"node_id"`
	Intent  string         `json:"intent"`
	Context map[string]any `json:"context,omitempty"`
}

// executeResponse pairs the dispatch result with the resulting branch view.
type executeResponse struct {
	Result         *domain.ExecutionResult `json:"result"`
	ActiveBranches []string                `json:"active_branches"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body executeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		s.logger.Warn("execute: invalid request body", "err", err)
		return
	}
	if body.NodeID == "" {
		http.Error(w, "node_id is required", http.StatusBadRequest)
		return
	}

	var resp executeResponse
	err := s.sessions.Update(r.Context(), sessionID, func(ctx context.Context, sess *session.Session) error {
		res, err := s.engine.Execute(ctx, body.NodeID, body.Intent, body.Context, sess.Context)
		if err != nil {
			return err
		}
		resp.Result = res
		resp.ActiveBranches = sess.Context.ActiveBranchIDs()
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("execute failed: %v", err), http.StatusUnprocessableEntity)
		s.logger.Error("execute failed", "session_id", sessionID, "node_id", body.NodeID, "err", err)
		return
	}

	writeJSON(w, s.logger, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := s.sessions.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("load failed: %v", err), http.StatusInternalServerError)
		s.logger.Error("session load failed", "session_id", sessionID, "err", err)
		return
	}

	writeJSON(w, s.logger, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.sessions.Delete(r.Context(), sessionID); err != nil {
		http.Error(w, fmt.Sprintf("delete failed: %v", err), http.StatusInternalServerError)
		s.logger.Error("session delete failed", "session_id", sessionID, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := s.sessions.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("load failed: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, s.logger, sess.Context.Events())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("list failed: %v", err), http.StatusInternalServerError)
		s.logger.Error("session list failed", "err", err)
		return
	}
	writeJSON(w, s.logger, map[string]any{"sessions": ids})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	findings, err := s.engine.ValidateGraph()
	if err != nil {
		http.Error(w, fmt.Sprintf("validate failed: %v", err), http.StatusInternalServerError)
		s.logger.Error("graph validation failed", "err", err)
		return
	}
	writeJSON(w, s.logger, map[string]any{"findings": findings})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
