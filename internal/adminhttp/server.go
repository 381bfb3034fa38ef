// Package adminhttp exposes the daemon's ambient observability surface —
// liveness and Prometheus scraping — and nothing else. Grounded on the
// teacher's internal/api/routes.go middleware stack (RequestID, RealIP,
// Recoverer, Heartbeat) and promhttp.Handler() wiring, narrowed to the two
// routes SPEC_FULL.md keeps: the admin task/queue JSON API the teacher
// exposes on top of this stack is out of scope (§1 treats the admin UI as
// an external collaborator).
package adminhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kovanka/streamvault/internal/config"
	"github.com/kovanka/streamvault/internal/logger"
)

// StatusReporter is satisfied by both the queue-mode Daemon and the
// record-mode Daemon variant, so the admin HTTP surface reports liveness for
// whichever one the CLI started (SPEC_FULL.md §4.5.1).
type StatusReporter interface {
	Status() (running bool, pid int)
}

// Server serves /healthz and the configured Prometheus scrape path.
type Server struct {
	router *chi.Mux
	http   *http.Server
	cfg    config.MetricsConfig
}

// New builds a Server bound to d for liveness reporting.
func New(cfg config.MetricsConfig, d StatusReporter) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Get("/healthz", healthHandler(d))

	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	if cfg.Enabled {
		r.Handle(path, promhttp.Handler())
	}

	return &Server{
		router: r,
		cfg:    cfg,
		http:   &http.Server{Addr: cfg.Addr, Handler: r, ReadHeaderTimeout: 5 * time.Second},
	}
}

// healthHandler reports the daemon's running/pid state as JSON, mirroring
// the teacher's AdminHandler.HealthCheck shape narrowed to this daemon's
// own lock-file status instead of a Redis ping.
func healthHandler(d StatusReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		running, pid := d.Status()
		status := http.StatusOK
		if !running {
			status = http.StatusServiceUnavailable
		}
		respondJSON(w, status, map[string]interface{}{
			"running": running,
			"pid":     pid,
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Router exposes the chi router for tests.
func (s *Server) Router() *chi.Mux { return s.router }

// ListenAndServe starts the HTTP listener; it blocks until the server
// shuts down or fails.
func (s *Server) ListenAndServe() error {
	logger.Info().Str("addr", s.http.Addr).Msg("admin http listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
