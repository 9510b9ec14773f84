// Package api exposes the running simulation over HTTP: status snapshots,
// request intake, the obstacle map, metrics and a live WebSocket stream.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fleetsim/internal/config"
	"fleetsim/internal/deliverymap"
	"fleetsim/internal/metrics"
	"fleetsim/internal/model"
)

// StatusSource returns the status published by the latest tick.
type StatusSource interface {
	Snapshot() model.StatusEvent
}

// RequestQueue is the dispatch queue requests are submitted to.
type RequestQueue interface {
	Append(req model.Request) error
	Snapshot() []model.Request
}

type Server struct {
	Status StatusSource
	Queue  RequestQueue
	Map    *deliverymap.Map
	Broker EventBroker
	Config *config.Config
}

// NewServer wires the handlers to the simulation. A nil broker falls back to
// the in-memory one.
func NewServer(status StatusSource, queue RequestQueue, m *deliverymap.Map, broker EventBroker, cfg *config.Config) *Server {
	if broker == nil {
		broker = NewBroker()
	}
	if cfg == nil {
		cfg = config.Defaults()
	}
	return &Server{Status: status, Queue: queue, Map: m, Broker: broker, Config: cfg}
}

// Observe forwards every published tick to stream subscribers.
func (s *Server) Observe(evt model.StatusEvent) {
	s.Broker.Publish(TopicStatus, Event{Type: EventStatus, Status: &evt})
}

// Routes returns the full handler tree wrapped in request logging.
func (s *Server) Routes() http.Handler {
	metrics.RegisterDefault()
	mux := http.NewServeMux()
	known := map[string]bool{}
	handle := func(pattern string, h http.HandlerFunc) {
		known[pattern] = true
		mux.Handle(pattern, h)
	}

	// Simulation state
	handle("/v1/status", s.StatusHandler)
	handle("/v1/robots", s.RobotsHandler)
	handle("/v1/requests", s.RequestsHandler)
	handle("/v1/map", s.MapHandler)
	handle("/v1/obstacles", s.ObstaclesHandler)
	handle("/v1/status/ws", s.StatusWSHandler)

	// Health
	handle("/healthz", s.HealthHandler)
	handle("/readyz", s.ReadyHandler)

	// Ops
	handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}).ServeHTTP)
	handle("/debug", s.DebugJSON)

	// Docs
	handle("/openapi.yaml", s.OpenAPIHandler)
	handle("/docs", s.DocsHandler)

	return logMiddleware(mux, known)
}
