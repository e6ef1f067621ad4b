// Package diagnostics hosts a local HTTP endpoint exposing visit counters,
// Prometheus metrics, and a live websocket feed of lifecycle events.
package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/odvcencio/detour/pkg/logging"
	"github.com/odvcencio/detour/pkg/telemetry"
	"github.com/odvcencio/detour/pkg/visit"
)

// Config controls the diagnostics server behavior.
type Config struct {
	Bind string

	// EventRateLimit caps events per second delivered to each websocket
	// client. Zero means 50.
	EventRateLimit float64
}

// Server hosts the diagnostics HTTP API.
type Server struct {
	cfg      Config
	hub      *telemetry.Hub
	visits   *visit.Metrics
	logger   *logging.Logger
	registry *prometheus.Registry

	httpServer *http.Server
	listener   net.Listener
}

// NewServer constructs a diagnostics server over the given hub and counters.
func NewServer(cfg Config, hub *telemetry.Hub, visits *visit.Metrics, logger *logging.Logger) *Server {
	if cfg.Bind == "" {
		cfg.Bind = "127.0.0.1:4499"
	}
	if cfg.EventRateLimit <= 0 {
		cfg.EventRateLimit = 50
	}

	s := &Server{
		cfg:      cfg,
		hub:      hub,
		visits:   visits,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	s.registerCollectors()

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/healthz", s.handleHealth)
	router.Get("/stats", s.handleStats)
	router.Get("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP)
	router.Get("/events", s.handleEvents)

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins listening. The returned error reflects only listener setup;
// serve errors after that are logged.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Bind)
	if err != nil {
		return fmt.Errorf("diagnostics listen on %s: %w", s.cfg.Bind, err)
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(logging.CategoryEvents, "diagnostics_serve_failed", err.Error(), nil)
		}
	}()
	return nil
}

// Addr returns the bound address, useful when Bind used port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Bind
	}
	return s.listener.Addr().String()
}

// Shutdown drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// statsSnapshot is the JSON shape served by /stats.
type statsSnapshot struct {
	VisitsStarted    int64 `json:"visits_started"`
	VisitsCompleted  int64 `json:"visits_completed"`
	VisitsFailed     int64 `json:"visits_failed"`
	VisitsCanceled   int64 `json:"visits_canceled"`
	ActiveVisits     int64 `json:"active_visits"`
	RequestsStarted  int64 `json:"requests_started"`
	RequestsFailed   int64 `json:"requests_failed"`
	RequestsFinished int64 `json:"requests_finished"`
	Redirects        int64 `json:"redirects"`
	Renders          int64 `json:"renders"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snapshot := statsSnapshot{}
	if s.visits != nil {
		snapshot = statsSnapshot{
			VisitsStarted:    s.visits.VisitsStarted.Load(),
			VisitsCompleted:  s.visits.VisitsCompleted.Load(),
			VisitsFailed:     s.visits.VisitsFailed.Load(),
			VisitsCanceled:   s.visits.VisitsCanceled.Load(),
			ActiveVisits:     s.visits.ActiveVisits.Load(),
			RequestsStarted:  s.visits.RequestsStarted.Load(),
			RequestsFailed:   s.visits.RequestsFailed.Load(),
			RequestsFinished: s.visits.RequestsFinished.Load(),
			Redirects:        s.visits.Redirects.Load(),
			Renders:          s.visits.Renders.Load(),
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snapshot)
}
