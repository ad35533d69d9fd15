// Package ops - server.go serves the operations HTTP endpoint.
//
// DESIGN: Small read-mostly surface for probes and dashboards:
//
//	GET  /healthz      liveness, 200 once the process is up
//	GET  /status       watcher snapshot as JSON
//	GET  /metrics      Prometheus exposition
//	POST /maintenance  toggle alert suppression at runtime
//
// The endpoint is optional; an empty listen address disables it
// entirely and the watcher runs headless.
package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/bluegreenops/logwatcher/internal/watcher"
)

// Server exposes the ops endpoint for one watcher.
type Server struct {
	watcher *watcher.Watcher
	router  *mux.Router
	srv     *http.Server
}

// New creates an ops server bound to addr.
func New(addr string, w *watcher.Watcher) *Server {
	s := &Server{watcher: w}

	r := mux.NewRouter()
	r.Use(panicRecovery, requestLog)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/maintenance", s.handleMaintenance).Methods(http.MethodPost)
	s.router = r

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route handler. Used by tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens and blocks until Shutdown or a listener failure.
func (s *Server) Start() error {
	log.Info().Str("addr", s.srv.Addr).Msg("ops endpoint listening")
	return s.srv.ListenAndServe()
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.watcher.Status())
}

// handleMaintenance toggles maintenance mode. Body: {"enabled": bool}.
func (s *Server) handleMaintenance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		s.writeError(w, `body must be {"enabled": true|false}`, http.StatusBadRequest)
		return
	}

	s.watcher.SetMaintenance(*req.Enabled)
	s.writeJSON(w, http.StatusOK, map[string]bool{"maintenance": *req.Enabled})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("ops response encoding failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, msg string, status int) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
