// Package trajectory implements the candidate paths evolved by the planner and
// the genetic operators acting on them.
package trajectory

import (
	"fmt"
	"math"
	"math/rand/v2"

	"fleetsim/internal/geom"
)

const (
	// DefaultSigma is the standard deviation of waypoint draws around the
	// midpoint of start and end.
	DefaultSigma = 150.0
	// DefaultFitnessK scales the zero-collision fitness exp(k/length).
	DefaultFitnessK = 100.0

	maxDraws = 64
)

// Env is shared by every trajectory of a search: the obstacles collisions are
// counted against and the random source driving the operators.
type Env struct {
	Obstacles []geom.Shape
	Rng       *rand.Rand
	Sigma     float64
	FitnessK  float64
}

func (e *Env) sigma() float64 {
	if e.Sigma > 0 {
		return e.Sigma
	}
	return DefaultSigma
}

func (e *Env) fitnessK() float64 {
	if e.FitnessK > 0 {
		return e.FitnessK
	}
	return DefaultFitnessK
}

// Trajectory is a polyline of distinct points from a fixed start to a fixed
// end. Length and collision count always match the current points.
type Trajectory struct {
	points     []geom.Point
	length     float64
	collisions int
	env        *Env
}

// New builds a trajectory through points, dropping repeated points. It panics
// on an empty slice.
func New(points []geom.Point, env *Env) *Trajectory {
	if len(points) == 0 {
		panic("trajectory: no points")
	}
	t := &Trajectory{points: dedupe(points), env: env}
	t.recompute()
	return t
}

// dedupe keeps the first occurrence of each point, except that the final
// point always stays last. A closed loop keeps both of its ends.
func dedupe(points []geom.Point) []geom.Point {
	n := len(points)
	if n == 1 {
		return []geom.Point{points[0]}
	}
	last := points[n-1]
	seen := make(map[geom.Point]struct{}, n)
	out := make([]geom.Point, 0, n)
	for _, p := range points[:n-1] {
		if _, dup := seen[p]; dup {
			continue
		}
		if p == last && len(out) > 0 {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	if len(out) == 1 && out[0] == last {
		return out
	}
	return append(out, last)
}

func (t *Trajectory) recompute() {
	t.length = 0
	for i := 1; i < len(t.points); i++ {
		t.length += geom.Dist(t.points[i-1], t.points[i])
	}
	t.collisions = t.countCollisions()
}

// countCollisions counts obstacles hit by at least one segment.
func (t *Trajectory) countCollisions() int {
	if t.env == nil || len(t.points) < 2 {
		return 0
	}
	n := 0
	for _, ob := range t.env.Obstacles {
		for i := 1; i < len(t.points); i++ {
			if ob.Intercepts(geom.Segment{A: t.points[i-1], B: t.points[i]}) {
				n++
				break
			}
		}
	}
	return n
}

// Points returns a copy of the trajectory's points.
func (t *Trajectory) Points() []geom.Point { return append([]geom.Point(nil), t.points...) }

// Len is the number of points.
func (t *Trajectory) Len() int { return len(t.points) }

func (t *Trajectory) First() geom.Point { return t.points[0] }
func (t *Trajectory) Last() geom.Point  { return t.points[len(t.points)-1] }

// Length is the sum of Euclidean distances between consecutive points.
func (t *Trajectory) Length() float64 { return t.length }

// Collisions is the number of obstacles the trajectory runs into.
func (t *Trajectory) Collisions() int { return t.collisions }

// Fitness ranks trajectories for selection. Any collision-free trajectory
// scores at least 1 and shorter ones score higher; colliding trajectories
// score below 1, fewer collisions and shorter length being better.
func (t *Trajectory) Fitness() float64 {
	if t.collisions == 0 {
		k := DefaultFitnessK
		if t.env != nil {
			k = t.env.fitnessK()
		}
		return math.Exp(k / t.length)
	}
	return 1 / (float64(1+t.collisions) * (1 + t.length/geom.GridSize))
}

// Walk returns the rasterized grid points a robot visits following t,
// starting at First and ending at Last.
func (t *Trajectory) Walk() []geom.Point {
	walk := []geom.Point{t.points[0]}
	for i := 1; i < len(t.points); i++ {
		walk = append(walk, geom.Line(t.points[i-1], t.points[i])[1:]...)
	}
	return walk
}

// Steps is the number of single-cell moves needed to walk t.
func (t *Trajectory) Steps() int {
	n := 0
	for i := 1; i < len(t.points); i++ {
		n += geom.StepDist(t.points[i-1], t.points[i])
	}
	return n
}

// Clone returns an independent copy sharing the same Env.
func (t *Trajectory) Clone() *Trajectory {
	c := *t
	c.points = t.Points()
	return &c
}

func (t *Trajectory) String() string {
	return fmt.Sprintf("trajectory{%d pts, len=%.1f, hits=%d}", len(t.points), t.length, t.collisions)
}

// CrossoverAt splices t and other at k1 and k2: the first child is
// t[:k1]+other[k2:], the second other[:k2]+t[k1:].
func (t *Trajectory) CrossoverAt(other *Trajectory, k1, k2 int) (*Trajectory, *Trajectory) {
	a := make([]geom.Point, 0, k1+len(other.points)-k2)
	a = append(a, t.points[:k1]...)
	a = append(a, other.points[k2:]...)
	b := make([]geom.Point, 0, k2+len(t.points)-k1)
	b = append(b, other.points[:k2]...)
	b = append(b, t.points[k1:]...)
	return New(a, t.env), New(b, t.env)
}

// OnePointCrossover splices t and other at independently drawn split points
// k1 in [1,len(t)-1] and k2 in [1,len(other)-1].
func (t *Trajectory) OnePointCrossover(other *Trajectory) (*Trajectory, *Trajectory) {
	if len(t.points) < 2 || len(other.points) < 2 {
		return t.Clone(), other.Clone()
	}
	k1 := 1 + t.env.Rng.IntN(len(t.points)-1)
	k2 := 1 + t.env.Rng.IntN(len(other.points)-1)
	return t.CrossoverAt(other, k1, k2)
}

// Mutate replaces one interior point with a fresh waypoint with probability pm.
func (t *Trajectory) Mutate(pm float64) bool {
	if len(t.points) < 3 || t.env.Rng.Float64() >= pm {
		return false
	}
	p, ok := t.drawWaypoint()
	if !ok {
		return false
	}
	i := 1 + t.env.Rng.IntN(len(t.points)-2)
	prev, old, next := t.points[i-1], t.points[i], t.points[i+1]
	t.length += geom.Dist(prev, p) + geom.Dist(p, next) - geom.Dist(prev, old) - geom.Dist(old, next)
	t.points[i] = p
	t.reconcile()
	return true
}

// AddPoint inserts a fresh waypoint between two neighbours with probability pa.
func (t *Trajectory) AddPoint(pa float64) bool {
	if len(t.points) < 2 || t.env.Rng.Float64() >= pa {
		return false
	}
	p, ok := t.drawWaypoint()
	if !ok {
		return false
	}
	i := 1 + t.env.Rng.IntN(len(t.points)-1)
	prev, next := t.points[i-1], t.points[i]
	t.length += geom.Dist(prev, p) + geom.Dist(p, next) - geom.Dist(prev, next)
	t.points = append(t.points, geom.Point{})
	copy(t.points[i+1:], t.points[i:])
	t.points[i] = p
	t.reconcile()
	return true
}

// RemovePoint drops one interior point with probability pr. At least two
// points always remain.
func (t *Trajectory) RemovePoint(pr float64) bool {
	if len(t.points) < 3 || t.env.Rng.Float64() >= pr {
		return false
	}
	i := 1 + t.env.Rng.IntN(len(t.points)-2)
	prev, old, next := t.points[i-1], t.points[i], t.points[i+1]
	t.length += geom.Dist(prev, next) - geom.Dist(prev, old) - geom.Dist(old, next)
	t.points = append(t.points[:i], t.points[i+1:]...)
	t.reconcile()
	return true
}

// reconcile recounts collisions for the new shape. Length has already been
// adjusted incrementally by the caller.
func (t *Trajectory) reconcile() {
	if t.length < 0 {
		t.length = 0
	}
	t.collisions = t.countCollisions()
}

// Concatenate joins t and other, which must share t.Last() == other.First().
// The shared point appears once.
func (t *Trajectory) Concatenate(other *Trajectory) (*Trajectory, error) {
	if t.Last() != other.First() {
		return nil, fmt.Errorf("trajectory: cannot join %v to %v", t.Last(), other.First())
	}
	pts := make([]geom.Point, 0, len(t.points)+len(other.points)-1)
	pts = append(pts, t.points...)
	pts = append(pts, other.points[1:]...)
	return New(pts, t.env), nil
}

// drawWaypoint samples a point not already on t from a Gaussian centered on
// the midpoint of start and end.
func (t *Trajectory) drawWaypoint() (geom.Point, bool) {
	taken := make(map[geom.Point]struct{}, len(t.points))
	for _, p := range t.points {
		taken[p] = struct{}{}
	}
	return t.env.sample(t.First(), t.Last(), taken)
}

func (e *Env) sample(start, end geom.Point, taken map[geom.Point]struct{}) (geom.Point, bool) {
	mx := float64(start.X+end.X) / 2
	my := float64(start.Y+end.Y) / 2
	s := e.sigma()
	for range maxDraws {
		p := geom.Snap(mx+e.Rng.NormFloat64()*s, my+e.Rng.NormFloat64()*s)
		if _, dup := taken[p]; !dup {
			return p, true
		}
	}
	return geom.Point{}, false
}
