// Package robot implements the battery-constrained delivery robot: its power
// state machine, energy bookkeeping and per-robot trajectory cache.
package robot

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"fleetsim/internal/geom"
	"fleetsim/internal/lru"
	"fleetsim/internal/metrics"
	"fleetsim/internal/model"
	"fleetsim/internal/trajectory"
)

var (
	ErrEnergyNegative = errors.New("energy below zero")
	ErrIllegalStep    = errors.New("moved more than one grid step")
	ErrNilTrajectory  = errors.New("nil trajectory")
	ErrNilPlanner     = errors.New("nil planner")
	ErrNilManager     = errors.New("nil manager")
	ErrManagerSet     = errors.New("manager already set")
	ErrBusy           = errors.New("robot is not in standby")
	ErrUnreachable    = errors.New("request currently unreachable")
	ErrInvalidRequest = errors.New("invalid request")
)

// energyEpsilon absorbs float drift from repeated subtraction of the move cost.
const energyEpsilon = 1e-9

// Planner finds trajectories. A nil result means the destination is currently
// unreachable.
type Planner interface {
	FindTrajectory(start, end geom.Point) *trajectory.Trajectory
}

// Manager is told about every power-state transition and holds the request
// assigned to each robot.
type Manager interface {
	Notify(r *Robot, s PowerState) error
	AssignedRequest(r *Robot) (model.Request, bool)
}

// Versioner exposes the obstacle map version; cached trajectories are dropped
// whenever it changes.
type Versioner interface {
	Version() uint64
}

// Params are the energy and cache settings shared by a fleet.
type Params struct {
	MoveCost   float64
	IdleCost   float64
	ChargeRate float64
	MaxEnergy  float64
	CacheSize  int
}

func DefaultParams() Params {
	return Params{MoveCost: 0.1, IdleCost: 0.01, ChargeRate: 0.5, MaxEnergy: 100, CacheSize: 32}
}

type leg struct{ from, to geom.Point }

// Robot is owned by the simulation loop; only Update and AssignRequest mutate
// it and it is not safe for concurrent use.
type Robot struct {
	id      string
	station geom.Point
	pos     geom.Point
	energy  float64
	state   PowerState
	params  Params

	planner Planner
	manager Manager
	cache   *lru.Cache[leg, *trajectory.Trajectory]

	maps       Versioner
	mapVersion uint64

	// active walk and the index of the current position on it
	walk   []geom.Point
	cursor int

	request        model.Request
	toStart, toEnd *trajectory.Trajectory
	home           *trajectory.Trajectory
	steps          int
}

// New places a fully charged robot in standby at its charging station.
func New(station geom.Point, planner Planner, params Params) (*Robot, error) {
	if !station.InBounds() {
		return nil, fmt.Errorf("robot: station %v off grid", station)
	}
	if planner == nil {
		return nil, fmt.Errorf("robot: %w", ErrNilPlanner)
	}
	if params.MaxEnergy <= 0 || params.MoveCost <= 0 {
		return nil, fmt.Errorf("robot: max energy and move cost must be positive")
	}
	r := &Robot{
		id:      uuid.New().String(),
		station: station,
		pos:     station,
		energy:  params.MaxEnergy,
		state:   Standby,
		params:  params,
		planner: planner,
	}
	r.cache = lru.New[leg, *trajectory.Trajectory](params.CacheSize, func(leg, *trajectory.Trajectory) {
		metrics.TrajectoryCache.WithLabelValues("evict").Inc()
	})
	return r, nil
}

func (r *Robot) ID() string             { return r.id }
func (r *Robot) Position() geom.Point   { return r.pos }
func (r *Robot) Station() geom.Point    { return r.station }
func (r *Robot) Energy() float64        { return r.energy }
func (r *Robot) State() PowerState      { return r.state }
func (r *Robot) Steps() int             { return r.steps }
func (r *Robot) Request() model.Request { return r.request }

func (r *Robot) String() string {
	return fmt.Sprintf("robot %s @%v %s %.2f", model.ShortID(r.id), r.pos, r.state, r.energy)
}

// SetManager wires the robot to its manager. It may be called once.
func (r *Robot) SetManager(m Manager) error {
	if m == nil {
		return ErrNilManager
	}
	if r.manager != nil {
		return ErrManagerSet
	}
	r.manager = m
	return nil
}

// WatchMap makes the robot drop its cache whenever v reports a new version.
func (r *Robot) WatchMap(v Versioner) {
	r.maps = v
	if v != nil {
		r.mapVersion = v.Version()
	}
}

// InvalidateCache drops every cached trajectory.
func (r *Robot) InvalidateCache() { r.cache.Purge() }

// SetPath makes t the trajectory walked from the next tick on. The walk must
// start at the current position.
func (r *Robot) SetPath(t *trajectory.Trajectory) error {
	if t == nil {
		return ErrNilTrajectory
	}
	if t.First() != r.pos {
		return fmt.Errorf("robot %s: path starts at %v, robot at %v", model.ShortID(r.id), t.First(), r.pos)
	}
	r.walk = t.Walk()
	r.cursor = 0
	return nil
}

// GetTrajectory returns a trajectory from one point to another, consulting the
// cache before the planner. Unreachable results are cached too.
func (r *Robot) GetTrajectory(from, to geom.Point) *trajectory.Trajectory {
	k := leg{from, to}
	if t, ok := r.cache.Get(k); ok {
		metrics.TrajectoryCache.WithLabelValues("hit").Inc()
		return t
	}
	metrics.TrajectoryCache.WithLabelValues("miss").Inc()
	t := r.planner.FindTrajectory(from, to)
	r.cache.Put(k, t)
	return t
}

// lookup is GetTrajectory for callers that retry on a later tick. A miss is
// dropped from the cache so the next call searches again.
func (r *Robot) lookup(from, to geom.Point) *trajectory.Trajectory {
	t := r.GetTrajectory(from, to)
	if t == nil {
		r.cache.Remove(leg{from, to})
	}
	return t
}

// Remaining is the number of moves left on the active walk.
func (r *Robot) Remaining() int {
	if len(r.walk) == 0 {
		return 0
	}
	return len(r.walk) - 1 - r.cursor
}

// Status returns a snapshot for observers.
func (r *Robot) Status() model.RobotStatus {
	st := model.RobotStatus{
		ID:        r.id,
		Position:  r.pos,
		Station:   r.station,
		Energy:    r.energy,
		State:     r.state.String(),
		Remaining: r.Remaining(),
		Steps:     r.steps,
	}
	if r.state == Enroute || r.state == Delivering {
		st.RequestID = r.request.ID
	}
	return st
}

// Update advances the robot by one tick. Returned errors are internal
// consistency failures and must stop the simulation.
func (r *Robot) Update() error {
	if r.energy < 0 {
		return fmt.Errorf("robot %s: %w (%.6f)", model.ShortID(r.id), ErrEnergyNegative, r.energy)
	}
	if r.maps != nil {
		if v := r.maps.Version(); v != r.mapVersion {
			r.mapVersion = v
			r.cache.Purge()
			// legs pinned at assignment may cross the new obstacle
			r.home = nil
			if r.state == Enroute {
				r.toEnd = nil
			}
		}
	}

	var err error
	switch r.state {
	case Standby:
		err = r.idle()
	case Enroute, Delivering, Returning:
		err = r.move()
	case Charging:
		err = r.charge()
	}
	metrics.RobotEnergy.WithLabelValues(model.ShortID(r.id)).Set(r.energy)
	return err
}

func (r *Robot) idle() error {
	if r.pos == r.station {
		if r.energy < r.params.MaxEnergy {
			return r.transition(Charging)
		}
		return nil
	}
	home := r.pathHome()
	if home == nil {
		r.energy = math.Max(r.energy-r.params.IdleCost, 0)
		return nil
	}
	need := float64(home.Steps()) * r.params.MoveCost
	if r.energy-r.params.IdleCost <= need {
		if err := r.SetPath(home); err != nil {
			return err
		}
		return r.transition(Returning)
	}
	r.energy -= r.params.IdleCost
	return nil
}

// pathHome prefers the return leg planned at assignment.
func (r *Robot) pathHome() *trajectory.Trajectory {
	if r.home != nil && r.home.First() == r.pos && r.home.Last() == r.station {
		return r.home
	}
	return r.lookup(r.pos, r.station)
}

func (r *Robot) move() error {
	if r.cursor+1 >= len(r.walk) {
		return r.arrive()
	}
	next := r.walk[r.cursor+1]
	if geom.StepDist(r.pos, next) > 1 {
		return fmt.Errorf("robot %s: %w: %v -> %v", model.ShortID(r.id), ErrIllegalStep, r.pos, next)
	}
	e := r.energy - r.params.MoveCost
	if e < 0 {
		if e < -energyEpsilon {
			return fmt.Errorf("robot %s: %w: cannot pay move from %.6f", model.ShortID(r.id), ErrEnergyNegative, r.energy)
		}
		e = 0
	}
	r.energy = e
	r.pos = next
	r.cursor++
	r.steps++
	if r.cursor+1 >= len(r.walk) {
		return r.arrive()
	}
	return nil
}

func (r *Robot) arrive() error {
	switch r.state {
	case Returning:
		r.walk, r.cursor = nil, 0
		r.home = nil
		return r.transition(Charging)
	case Delivering:
		r.walk, r.cursor = nil, 0
		r.toStart, r.toEnd = nil, nil
		return r.transition(Standby)
	case Enroute:
		req, ok := r.request, true
		if r.manager != nil {
			req, ok = r.manager.AssignedRequest(r)
		}
		if !ok {
			return fmt.Errorf("robot %s: enroute without an assigned request", model.ShortID(r.id))
		}
		r.request = req
		t := r.toEnd
		if t == nil || t.First() != r.pos || t.Last() != req.End {
			t = r.lookup(r.pos, req.End)
		}
		if t == nil {
			// stay enroute at the pickup and replan next tick
			r.walk, r.cursor = nil, 0
			return nil
		}
		if err := r.SetPath(t); err != nil {
			return err
		}
		return r.transition(Delivering)
	}
	return nil
}

func (r *Robot) charge() error {
	r.energy = math.Min(r.energy+r.params.ChargeRate, r.params.MaxEnergy)
	if r.energy >= r.params.MaxEnergy {
		return r.transition(Standby)
	}
	return nil
}

func (r *Robot) transition(s PowerState) error {
	r.state = s
	metrics.RobotTransitions.WithLabelValues(s.String()).Inc()
	if r.manager == nil {
		return nil
	}
	if err := r.manager.Notify(r, s); err != nil {
		return fmt.Errorf("robot %s: notify %s: %w", model.ShortID(r.id), s, err)
	}
	return nil
}
