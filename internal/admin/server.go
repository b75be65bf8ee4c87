// Package admin provides the loopback HTTP surface for monitoring and
// maintenance: health, status, cache pruning, and Prometheus metrics.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentlow/agentlow/internal/cache"
	"github.com/agentlow/agentlow/internal/security"
	"github.com/agentlow/agentlow/internal/session"
	"github.com/agentlow/agentlow/internal/tool"
)

// DefaultBind keeps the admin surface on loopback unless configured
// otherwise.
const DefaultBind = "127.0.0.1:8642"

// Config configures the admin server.
type Config struct {
	// Bind is the listen address. Empty means DefaultBind.
	Bind string

	// ShutdownTimeout bounds graceful shutdown. Zero means 5s.
	ShutdownTimeout time.Duration
}

func (c *Config) defaults() {
	if c.Bind == "" {
		c.Bind = DefaultBind
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Server is the admin HTTP server. Collaborators are optional: a nil cache or
// session registry degrades the corresponding endpoints rather than failing
// startup.
type Server struct {
	config    Config
	logger    *slog.Logger
	cache     *cache.Cache
	sessions  *session.Registry
	audit     *security.AuditLogger
	registry  *prometheus.Registry
	server    *http.Server
	startedAt time.Time
}

// NewServer creates an admin server. The Prometheus registry backs the
// /metrics endpoint; pass the one the tool metrics are registered on.
func NewServer(cfg Config, logger *slog.Logger, c *cache.Cache, sessions *session.Registry, audit *security.AuditLogger, reg *prometheus.Registry) *Server {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:   cfg,
		logger:   logger,
		cache:    c,
		sessions: sessions,
		audit:    audit,
		registry: reg,
	}
}

// buildRouter constructs the chi mux with all routes wired.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth())
	r.Get("/status", s.handleStatus())
	r.Post("/cache/prune", s.handleCachePrune())
	r.Post("/sessions", s.handleCreateSession())
	r.Delete("/sessions/{name}", s.handleDeleteSession())

	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	return r
}

// Start begins serving. The listener is opened synchronously so a bad bind
// address fails here, not in the serve goroutine.
func (s *Server) Start() error {
	s.startedAt = time.Now()

	s.server = &http.Server{
		Addr:         s.config.Bind,
		Handler:      s.buildRouter(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", s.config.Bind)
	if err != nil {
		return fmt.Errorf("admin: listen on %s: %w", s.config.Bind, err)
	}

	go func() {
		s.logger.Info("admin: listening", "addr", s.config.Bind)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin: serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("admin: shutting down")
	return s.server.Shutdown(shutdownCtx)
}

// healthResponse is the JSON response for GET /health.
type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status: "ok",
			Uptime: time.Since(s.startedAt).Round(time.Second).String(),
		})
	}
}

// statusResponse is the JSON response for GET /status.
type statusResponse struct {
	Tools    []tool.Name  `json:"tools"`
	Sessions []string     `json:"sessions"`
	Cache    *cache.Stats `json:"cache,omitempty"`
}

func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statusResponse{
			Tools:    tool.Names(),
			Sessions: []string{},
		}

		if s.sessions != nil {
			resp.Sessions = s.sessions.Names()
		}
		if s.cache != nil {
			stats, err := s.cache.Stats(r.Context())
			if err != nil {
				s.logger.Error("admin: cache stats failed", "error", err)
				http.Error(w, "cache stats unavailable", http.StatusInternalServerError)
				return
			}
			resp.Cache = &stats
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleCachePrune() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cache == nil {
			http.Error(w, "cache not configured", http.StatusServiceUnavailable)
			return
		}

		removed, err := s.cache.PruneExpired(r.Context())
		if err != nil {
			s.logger.Error("admin: cache prune failed", "error", err)
			http.Error(w, "prune failed", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
	}
}

// createSessionRequest is the JSON body of POST /sessions.
type createSessionRequest struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

func (s *Server) handleCreateSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.sessions == nil {
			http.Error(w, "sessions not configured", http.StatusServiceUnavailable)
			return
		}

		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		created, err := s.sessions.Create(req.Name, req.Model)
		switch {
		case errors.Is(err, session.ErrDuplicateSession):
			http.Error(w, err.Error(), http.StatusConflict)
			return
		case errors.Is(err, session.ErrEmptyName):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		s.audit.Log(security.AuditEvent{
			Type:    security.EventSessionCreate,
			Session: created.Name,
		})
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) handleDeleteSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.sessions == nil {
			http.Error(w, "sessions not configured", http.StatusServiceUnavailable)
			return
		}

		name := chi.URLParam(r, "name")
		if err := s.sessions.Remove(name); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		s.audit.Log(security.AuditEvent{
			Type:    security.EventSessionDelete,
			Session: name,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
