package robot

import (
	"fmt"

	"fleetsim/internal/geom"
	"fleetsim/internal/model"
	"fleetsim/internal/trajectory"
)

// legs plans the three legs of a delivery: to the pickup, to the drop-off and
// back to the station. Any nil leg makes the request unreachable for this
// tick; misses are not kept, so a later tick plans again.
func (r *Robot) legs(req model.Request) (toStart, toEnd, home *trajectory.Trajectory, ok bool) {
	toStart = r.lookup(r.pos, req.Start)
	if toStart == nil {
		return nil, nil, nil, false
	}
	toEnd = r.lookup(req.Start, req.End)
	if toEnd == nil {
		return nil, nil, nil, false
	}
	home = r.lookup(req.End, r.station)
	if home == nil {
		return nil, nil, nil, false
	}
	return toStart, toEnd, home, true
}

// CanPerformRequest reports whether the robot has the energy to serve req and
// get back to its station. A straight-line estimate is checked first; only
// when it passes are the planned legs consulted.
func (r *Robot) CanPerformRequest(req model.Request) bool {
	if !req.Valid() {
		return false
	}
	straight := geom.Dist(r.pos, req.Start) + geom.Dist(req.Start, req.End) + geom.Dist(req.End, r.station)
	if straight*r.params.MoveCost > r.energy {
		return false
	}
	a, b, c, ok := r.legs(req)
	if !ok {
		return false
	}
	steps := a.Steps() + b.Steps() + c.Steps()
	return float64(steps)*r.params.MoveCost <= r.energy
}

// RouteFor returns the joined route from the current position through the
// pickup to the drop-off, or nil when either leg is unreachable.
func (r *Robot) RouteFor(req model.Request) *trajectory.Trajectory {
	a := r.lookup(r.pos, req.Start)
	if a == nil {
		return nil
	}
	b := r.lookup(req.Start, req.End)
	if b == nil {
		return nil
	}
	route, err := a.Concatenate(b)
	if err != nil {
		return nil
	}
	return route
}

// AssignRequest starts serving req. A robot already at the pickup goes
// straight to DELIVERING.
func (r *Robot) AssignRequest(req model.Request) error {
	if !req.Valid() {
		return fmt.Errorf("robot %s: %w", model.ShortID(r.id), ErrInvalidRequest)
	}
	if r.state != Standby {
		return fmt.Errorf("robot %s: %w (%s)", model.ShortID(r.id), ErrBusy, r.state)
	}
	toStart, toEnd, home, ok := r.legs(req)
	if !ok {
		return fmt.Errorf("robot %s: %v: %w", model.ShortID(r.id), req, ErrUnreachable)
	}
	r.request = req
	r.toStart, r.toEnd, r.home = toStart, toEnd, home
	if r.pos == req.Start {
		if err := r.SetPath(toEnd); err != nil {
			return err
		}
		return r.transition(Delivering)
	}
	if err := r.SetPath(toStart); err != nil {
		return err
	}
	return r.transition(Enroute)
}
