// Package http exposes the Arbor engine as a JSON API over HTTP. The
// wire surface is deliberately thin: it transports resolved inputs in
// and data-only acts out, nothing more.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
)

// Engine is the interface the HTTP adapter needs from the Arbor core.
type Engine interface {
	Turn(ctx context.Context, conversationID string, in *domain.Input) (*domain.TurnResult, error)
	Conversations(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, conversationID string) error
}

// Server handles the conversation API.
type Server struct {
	engine  Engine
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics enables per-turn Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{engine: engine, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Post("/conversations", s.createConversation)
	r.Get("/conversations", s.listConversations)
	r.Post("/conversations/{conversationID}/turns", s.turn)
	r.Delete("/conversations/{conversationID}", s.deleteConversation)
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createConversation mints a fresh conversation ID. State is created
// lazily on the first turn.
func (s *Server) createConversation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"conversation_id": uuid.NewString()})
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.engine.Conversations(r.Context())
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	if conversations == nil {
		conversations = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": conversations})
}

func (s *Server) turn(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	var in domain.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.fail(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	start := time.Now()
	result, err := s.engine.Turn(r.Context(), conversationID, &in)
	if s.metrics != nil {
		s.metrics.ObserveTurn(time.Since(start), result, err)
	}
	if err != nil {
		// Config and protocol violations are developer errors, not
		// user errors; surface them loudly.
		s.logger.Error("turn failed", "conversation_id", conversationID, "err", err)
		s.fail(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if err := s.engine.Delete(r.Context(), conversationID); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
