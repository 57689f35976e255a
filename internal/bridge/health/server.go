// Package health serves the relayer's operational HTTP surface
// (/healthz, /readyz, /metrics), grounded on universalClient/api's
// gorilla/mux server and not on the core relayer pipeline itself
// (spec.md §1: HTTP health endpoints are an external ambient concern).
package health

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// StatusProvider reports whether the relayer's directions are keeping up;
// implemented by cmd/relayer's runnerSet, which aggregates each
// internal/bridge/direction.Runner's Ready.
type StatusProvider interface {
	// Ready returns per-direction readiness: false for a direction whose
	// watcher or submitter has not ticked within three poll intervals.
	Ready() map[string]bool
}

// Server serves health and metrics endpoints on one HTTP listener.
type Server struct {
	router *mux.Router
	status StatusProvider
	logger zerolog.Logger
}

// New builds a Server wired to status for readiness reporting. reg is the
// same registry the caller passed to metrics.New, so /metrics serves the
// bridge's own counters/gauges rather than prometheus.DefaultGatherer.
func New(status StatusProvider, reg *prometheus.Registry, logger zerolog.Logger) *Server {
	s := &Server{
		router: mux.NewRouter(),
		status: status,
		logger: logger.With().Str("component", "health_server").Logger(),
	}
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ready := s.status.Ready()
	allReady := true
	for _, ok := range ready {
		if !ok {
			allReady = false
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !allReady {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(ready)
}

// Handler returns the server's http.Handler; the http.Server that serves
// it, and its shutdown, are owned by the caller in cmd/relayer.
func (s *Server) Handler() http.Handler { return s.router }
