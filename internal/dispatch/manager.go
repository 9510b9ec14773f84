// Package dispatch matches queued delivery requests to available robots.
package dispatch

import (
	"errors"
	"fmt"
	"log"
	"math"

	"fleetsim/internal/metrics"
	"fleetsim/internal/model"
	"fleetsim/internal/robot"
)

var (
	ErrNilRobot       = errors.New("nil robot")
	ErrNilQueue       = errors.New("nil queue")
	ErrUnknownRobot   = errors.New("robot not subscribed")
	ErrInvalidRequest = errors.New("invalid request")
)

// Outcome is the result of one dispatch update.
type Outcome int

const (
	Idle Outcome = iota
	Assigned
	Requeued
)

func (o Outcome) String() string {
	switch o {
	case Assigned:
		return "assigned"
	case Requeued:
		return "requeued"
	default:
		return "idle"
	}
}

type notification struct {
	r *robot.Robot
	s robot.PowerState
}

// Manager tracks which subscribed robots are in standby and which request each
// busy robot is serving. It runs on the simulation loop only.
type Manager struct {
	queue     *Queue
	robots    []*robot.Robot
	known     map[*robot.Robot]bool
	available map[*robot.Robot]bool
	assigned  map[*robot.Robot]model.Request

	// notifications arriving during Update are applied when it returns
	updating bool
	staged   []notification
}

func NewManager(q *Queue) (*Manager, error) {
	if q == nil {
		return nil, ErrNilQueue
	}
	return &Manager{
		queue:     q,
		known:     map[*robot.Robot]bool{},
		available: map[*robot.Robot]bool{},
		assigned:  map[*robot.Robot]model.Request{},
	}, nil
}

// Subscribe puts r under this manager's control.
func (m *Manager) Subscribe(r *robot.Robot) error {
	if r == nil {
		return ErrNilRobot
	}
	if m.known[r] {
		return nil
	}
	if err := r.SetManager(m); err != nil {
		return fmt.Errorf("subscribe %s: %w", model.ShortID(r.ID()), err)
	}
	m.known[r] = true
	m.robots = append(m.robots, r)
	if r.State() == robot.Standby {
		m.available[r] = true
	}
	return nil
}

// Notify records a power-state transition of r.
func (m *Manager) Notify(r *robot.Robot, s robot.PowerState) error {
	if r == nil {
		return ErrNilRobot
	}
	if !m.known[r] {
		return ErrUnknownRobot
	}
	if m.updating {
		m.staged = append(m.staged, notification{r, s})
		return nil
	}
	m.apply(r, s)
	return nil
}

func (m *Manager) apply(r *robot.Robot, s robot.PowerState) {
	if s == robot.Standby {
		m.available[r] = true
		delete(m.assigned, r)
		return
	}
	delete(m.available, r)
}

// AssignedRequest returns the request r is serving.
func (m *Manager) AssignedRequest(r *robot.Robot) (model.Request, bool) {
	req, ok := m.assigned[r]
	return req, ok
}

// Robots returns every subscribed robot in subscription order.
func (m *Manager) Robots() []*robot.Robot {
	return append([]*robot.Robot(nil), m.robots...)
}

// Available returns the robots in standby, in subscription order.
func (m *Manager) Available() []*robot.Robot {
	var out []*robot.Robot
	for _, r := range m.robots {
		if m.available[r] {
			out = append(out, r)
		}
	}
	return out
}

// Update tries to hand the oldest request to the available robot with the
// shortest route to serve it. A request nobody can serve goes to the back of
// the queue.
func (m *Manager) Update() Outcome {
	req, ok := m.queue.Peek()
	if !ok {
		return Idle
	}
	m.updating = true
	defer m.flush()

	var best *robot.Robot
	bestLen := math.Inf(1)
	for _, r := range m.robots {
		if !m.available[r] || !r.CanPerformRequest(req) {
			continue
		}
		route := r.RouteFor(req)
		if route == nil {
			continue
		}
		if l := route.Length(); l < bestLen {
			best, bestLen = r, l
		}
	}

	if best != nil {
		m.assigned[best] = req
		err := best.AssignRequest(req)
		if err == nil {
			m.queue.Pop()
			delete(m.available, best)
			log.Printf("dispatch: %s -> robot %s (route %.1f)", req, model.ShortID(best.ID()), bestLen)
			metrics.DispatchDecisions.WithLabelValues(Assigned.String()).Inc()
			return Assigned
		}
		delete(m.assigned, best)
		log.Printf("dispatch: assign %s: %v", req, err)
	}
	m.queue.Rotate()
	metrics.DispatchDecisions.WithLabelValues(Requeued.String()).Inc()
	return Requeued
}

func (m *Manager) flush() {
	m.updating = false
	for _, n := range m.staged {
		m.apply(n.r, n.s)
	}
	m.staged = m.staged[:0]
}
