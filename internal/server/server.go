// Package server exposes the pipeline over HTTP for external schedulers
// (cron, Cloud Scheduler) that trigger runs with a POST instead of invoking
// the binary.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vinted-ledger/internal/pipeline"
)

// Runner executes one pipeline pass.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// HealthChecker verifies upstream connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server serves the run trigger and the health check. At most one run is in
// flight at a time; concurrent triggers get 409 rather than queueing, since
// the scheduler retries anyway.
type Server struct {
	runner  Runner
	health  HealthChecker
	logger  *slog.Logger
	running atomic.Bool
}

func New(runner Runner, health HealthChecker, logger *slog.Logger) *Server {
	return &Server{runner: runner, health: health, logger: logger}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/v1/health", s.handleHealth)
	r.Post("/api/v1/runs", s.handleRun)
	return r
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type runResponse struct {
	Status string           `json:"status"`
	Error  string           `json:"error,omitempty"`
	Report *pipeline.Report `json:"report,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.health.HealthCheck(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.running.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, runResponse{Status: "busy", Error: "a run is already in progress"})
		return
	}
	defer s.running.Store(false)

	report, err := s.runner.Run(r.Context())
	if err != nil {
		s.logger.Error("triggered run failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, runResponse{Status: "failed", Error: err.Error(), Report: report})
		return
	}
	writeJSON(w, http.StatusOK, runResponse{Status: "completed", Report: report})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
