// Package api provides the HTTP JSON API for negotiations.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/rendezvous/pkg/observability"
)

// Header names carrying request-scoped identifiers.
const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderRequestID     = "X-Request-ID"
)

// Server is the HTTP API server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler *NegotiationHandler
	health  *observability.HealthRegistry
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new API server. health may be nil.
func NewServer(cfg ServerConfig, handler *NegotiationHandler, health *observability.HealthRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		logger:  logger,
		handler: handler,
		health:  health,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/v1/negotiations", s.handler.Negotiate)
	s.mux.HandleFunc("POST /api/v1/negotiations/finalize", s.handler.Finalize)
	s.mux.HandleFunc("GET /api/v1/negotiations/{negotiationID}/deliveries", s.handler.Deliveries)
}

// Handler returns the routed handler wrapped with request-scoped identifiers.
func (s *Server) Handler() http.Handler {
	return s.withRequestContext(s.mux)
}

func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.NewRequestContext(r.Context(), r.Header.Get(HeaderCorrelationID))
		if requestID := r.Header.Get(HeaderRequestID); requestID != "" {
			ctx = observability.WithRequestID(ctx, requestID)
		}

		w.Header().Set(HeaderCorrelationID, observability.CorrelationIDFromContext(ctx))
		w.Header().Set(HeaderRequestID, observability.RequestIDFromContext(ctx))

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		s.logger.DebugContext(ctx, "request served",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	health := s.health.GetOverallHealth(r.Context())
	status := http.StatusOK
	if health.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting negotiation API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down negotiation API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// APIError is the body of every error response.
type APIError struct {
	Status        int    `json:"-"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	ParticipantID string `json:"participant,omitempty"`
	Field         string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func writeError(w http.ResponseWriter, apiErr *APIError) {
	writeJSON(w, apiErr.Status, apiErr)
}
