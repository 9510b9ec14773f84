package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the simulator
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts observer API requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// PlannerSearches counts trajectory searches by outcome (found, unreachable)
	PlannerSearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "planner_searches_total", Help: "Trajectory searches by outcome."},
		[]string{"outcome"},
	)
	// PlannerGenerations records how many generations each search ran
	PlannerGenerations = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "planner_generations", Help: "Generations evolved per search.", Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 150}},
	)

	// TrajectoryCache counts robot trajectory cache lookups (hit, miss, evict)
	TrajectoryCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "robot_trajectory_cache_total", Help: "Robot trajectory cache events."},
		[]string{"result"},
	)
	// RobotTransitions counts power-state transitions by target state
	RobotTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "robot_transitions_total", Help: "Robot power-state transitions by target state."},
		[]string{"state"},
	)
	// RobotEnergy is the latest energy level of each robot
	RobotEnergy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "robot_energy", Help: "Robot energy level (0-100)."},
		[]string{"robot"},
	)

	// DispatchDecisions counts dispatch outcomes (assigned, requeued)
	DispatchDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dispatch_decisions_total", Help: "Dispatch outcomes per update."},
		[]string{"outcome"},
	)
	// QueueLength is the number of pending delivery requests
	QueueLength = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "request_queue_length", Help: "Pending delivery requests."},
	)
	// Ticks counts simulation steps
	Ticks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "simulation_ticks_total", Help: "Simulation steps executed."},
	)
)

// RegisterDefault registers collectors to the simulator registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(PlannerSearches)
		Registry.MustRegister(PlannerGenerations)
		Registry.MustRegister(TrajectoryCache)
		Registry.MustRegister(RobotTransitions)
		Registry.MustRegister(RobotEnergy)
		Registry.MustRegister(DispatchDecisions)
		Registry.MustRegister(QueueLength)
		Registry.MustRegister(Ticks)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
