package trajectory

import (
	"math/rand/v2"
	"sort"

	"fleetsim/internal/geom"
)

// WaypointCount picks how many interior waypoints a seeded trajectory gets.
type WaypointCount func(rng *rand.Rand) int

// UpTo returns a WaypointCount drawing uniformly from [0, n].
func UpTo(n int) WaypointCount {
	return func(rng *rand.Rand) int { return rng.IntN(max(n, 0) + 1) }
}

// Population is one generation of trajectories sharing an Env.
type Population struct {
	members []*Trajectory
	env     *Env
}

// NewPopulation wraps existing members.
func NewPopulation(members []*Trajectory, env *Env) *Population {
	return &Population{members: members, env: env}
}

// Seed builds n trajectories from start to end, each through a random number
// of Gaussian waypoints.
func Seed(n int, start, end geom.Point, waypoints WaypointCount, env *Env) *Population {
	members := make([]*Trajectory, n)
	for i := range members {
		k := waypoints(env.Rng)
		pts := make([]geom.Point, 0, k+2)
		pts = append(pts, start)
		taken := map[geom.Point]struct{}{start: {}, end: {}}
		for range k {
			p, ok := env.sample(start, end, taken)
			if !ok {
				break
			}
			taken[p] = struct{}{}
			pts = append(pts, p)
		}
		pts = append(pts, end)
		members[i] = New(pts, env)
	}
	return NewPopulation(members, env)
}

func (p *Population) Members() []*Trajectory { return p.members }
func (p *Population) Len() int               { return len(p.members) }

// Best returns the fittest member, nil for an empty population.
func (p *Population) Best() *Trajectory {
	var best *Trajectory
	bestF := 0.0
	for _, t := range p.members {
		if f := t.Fitness(); best == nil || f > bestF {
			best, bestF = t, f
		}
	}
	return best
}

// ascending returns the members ordered from least to most fit.
func (p *Population) ascending() []*Trajectory {
	return sortedByFitness(p.members)
}

func sortedByFitness(ts []*Trajectory) []*Trajectory {
	out := append([]*Trajectory(nil), ts...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Fitness() < out[j].Fitness() })
	return out
}

// RankSelect samples n members with replacement. After sorting by ascending
// fitness the member at rank r is drawn with weight r+1.
func (p *Population) RankSelect(n int) []*Trajectory {
	ranked := p.ascending()
	m := len(ranked)
	if m == 0 {
		return nil
	}
	total := m * (m + 1) / 2
	winners := make([]*Trajectory, n)
	for i := range winners {
		r := p.env.Rng.IntN(total)
		acc := 0
		for rank, t := range ranked {
			acc += rank + 1
			if r < acc {
				winners[i] = t
				break
			}
		}
	}
	return winners
}

// Breed crosses random pairs of winners until exactly n children exist. The
// second child of the final pair is dropped when n is odd.
func (p *Population) Breed(winners []*Trajectory, n int) []*Trajectory {
	children := make([]*Trajectory, 0, n+1)
	if len(winners) == 0 {
		return children
	}
	for len(children) < n {
		a := winners[p.env.Rng.IntN(len(winners))]
		b := winners[p.env.Rng.IntN(len(winners))]
		c1, c2 := a.OnePointCrossover(b)
		children = append(children, c1, c2)
	}
	return children[:n]
}

// Vary applies mutation, insertion and removal, in that order, to every child.
func (p *Population) Vary(children []*Trajectory, pm, pa, pr float64) {
	for _, c := range children {
		c.Mutate(pm)
		c.AddPoint(pa)
		c.RemovePoint(pr)
	}
}

// KeepElites overwrites the least fit fraction of children with snapshots of
// the fittest members of p. It returns the number of elites carried over.
func (p *Population) KeepElites(children []*Trajectory, ratio float64) int {
	e := EliteCount(len(children), ratio)
	e = min(e, len(p.members))
	if e == 0 {
		return 0
	}
	prev := p.ascending()
	next := sortedByFitness(children)
	copy(children, next)
	for i := 0; i < e; i++ {
		children[i] = prev[len(prev)-1-i].Clone()
	}
	return e
}

// EliteCount is the number of elites kept for a generation of size n.
func EliteCount(n int, ratio float64) int {
	if ratio <= 0 || n == 0 {
		return 0
	}
	return max(1, min(n, int(ratio*float64(n))))
}
