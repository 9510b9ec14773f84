// Package sim drives the tick loop: dispatch, then every robot, then status
// publication.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"fleetsim/internal/dispatch"
	"fleetsim/internal/metrics"
	"fleetsim/internal/model"
)

// Dispatcher assigns queued requests once per tick.
type Dispatcher interface {
	Update() dispatch.Outcome
}

// Agent is a simulated robot.
type Agent interface {
	Update() error
	Status() model.RobotStatus
}

// Backlog reports how many requests wait for dispatch.
type Backlog interface {
	Len() int
}

// Observer receives the status published after every tick.
type Observer interface {
	Observe(model.StatusEvent)
}

type ObserverFunc func(model.StatusEvent)

func (f ObserverFunc) Observe(e model.StatusEvent) { f(e) }

type Options struct {
	// Speed is in ticks per second; 0 or less runs unpaced.
	Speed float64
	// MaxSteps stops Run after that many ticks; 0 runs until cancelled.
	MaxSteps int
	// StatusEvery publishes every n-th tick; values below 1 mean every tick.
	StatusEvery int
}

// Scheduler owns the simulation loop. Tick and Run must be called from one
// goroutine; Snapshot, SetSpeed and AddObserver may be called from any.
type Scheduler struct {
	dispatcher Dispatcher
	backlog    Backlog
	agents     []Agent
	opts       Options
	limiter    *rate.Limiter

	mu        sync.Mutex
	step      int
	last      model.StatusEvent
	observers []Observer
}

func New(d Dispatcher, backlog Backlog, agents []Agent, opts Options) *Scheduler {
	if opts.StatusEvery < 1 {
		opts.StatusEvery = 1
	}
	return &Scheduler{
		dispatcher: d,
		backlog:    backlog,
		agents:     agents,
		opts:       opts,
		limiter:    rate.NewLimiter(limitFor(opts.Speed), 1),
	}
}

func limitFor(speed float64) rate.Limit {
	if speed <= 0 {
		return rate.Inf
	}
	return rate.Limit(speed)
}

func (s *Scheduler) AddObserver(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// SetSpeed changes the tick rate of a running loop.
func (s *Scheduler) SetSpeed(speed float64) {
	s.limiter.SetLimit(limitFor(speed))
}

// Tick advances the simulation by one step. An error from any robot is an
// internal consistency failure and ends the run.
func (s *Scheduler) Tick() error {
	s.dispatcher.Update()
	for _, a := range s.agents {
		if err := a.Update(); err != nil {
			return fmt.Errorf("step %d: %w", s.Step()+1, err)
		}
	}
	metrics.Ticks.Inc()

	evt := model.StatusEvent{
		TS:     time.Now().UTC().Format(time.RFC3339Nano),
		Robots: make([]model.RobotStatus, 0, len(s.agents)),
	}
	if s.backlog != nil {
		evt.Queued = s.backlog.Len()
	}
	for _, a := range s.agents {
		evt.Robots = append(evt.Robots, a.Status())
	}

	s.mu.Lock()
	s.step++
	evt.Step = s.step
	s.last = evt
	var observers []Observer
	if s.step%s.opts.StatusEvery == 0 {
		observers = append(observers, s.observers...)
	}
	s.mu.Unlock()

	for _, o := range observers {
		o.Observe(evt)
	}
	return nil
}

// Run ticks until ctx is cancelled, MaxSteps is reached or a robot fails.
// Cancellation is not an error.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if s.opts.MaxSteps > 0 && s.Step() >= s.opts.MaxSteps {
			return nil
		}
		if err := s.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := s.Tick(); err != nil {
			return err
		}
	}
}

func (s *Scheduler) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Snapshot returns the status published by the latest tick.
func (s *Scheduler) Snapshot() model.StatusEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
