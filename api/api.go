// Package api serves the read-only status HTTP API over the audit ledger.
//
// The API never mutates anything: checks, alerts and runs are written only by
// the monitoring loop. It exists so a dashboard or curl can answer "what has
// the portal told us so far" without opening the database.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kypria/zeus/metrics"
	"github.com/kypria/zeus/store"
)

// Server exposes the ledger over HTTP.
type Server struct {
	store   *store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics mounts /metrics for the given registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer builds the router.
func NewServer(st *store.Store, opts ...Option) *Server {
	s := &Server{store: st, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/history/{protocol}", s.handleHistory)
		r.Get("/alerts", s.handleAlerts)
		r.Get("/runs", s.handleRuns)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
			s.metrics.Registry, promhttp.HandlerOpts{}))
	}
	s.router = r
	return s
}

// Handler returns the http.Handler for mounting or testing.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	runs, err := s.store.ListRuns(r.Context(), 1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := map[string]any{"stats": stats}
	if len(runs) > 0 {
		resp["last_run"] = runs[0]
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	protocol := chi.URLParam(r, "protocol")
	checks, err := s.store.History(r.Context(), protocol, limitParam(r, 100))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if checks == nil {
		checks = []*store.ProtocolCheck{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"protocol_number": protocol,
		"checks":          checks,
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.store.ListAlerts(r.Context(), r.URL.Query().Get("protocol"), limitParam(r, 0))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if alerts == nil {
		alerts = []*store.Alert{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context(), limitParam(r, 0))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// limitParam parses ?limit=, falling back to def for absent or bad values.
func limitParam(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal error",
	})
}
