// Package planner searches for collision-free trajectories with a genetic
// algorithm over trajectory populations.
package planner

import (
	"math/rand/v2"

	"fleetsim/internal/geom"
	"fleetsim/internal/metrics"
	"fleetsim/internal/trajectory"
)

// Config tunes the search.
type Config struct {
	PopulationSize int
	// MaxGenerations bounds the search; it is the only cancellation mechanism.
	MaxGenerations int
	MutateProb     float64
	AddProb        float64
	RemoveProb     float64
	// EliteRatio is the fraction of each generation replaced by the previous
	// generation's best individuals.
	EliteRatio   float64
	MaxWaypoints int
	Sigma        float64
	FitnessK     float64
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 40,
		MaxGenerations: 120,
		MutateProb:     0.3,
		AddProb:        0.2,
		RemoveProb:     0.2,
		EliteRatio:     0.1,
		MaxWaypoints:   4,
		Sigma:          trajectory.DefaultSigma,
		FitnessK:       trajectory.DefaultFitnessK,
	}
}

// ObstacleSource supplies the obstacles to plan around. It is read at the
// start of every search.
type ObstacleSource interface {
	Obstacles() []geom.Shape
}

// Stats describes a finished search.
type Stats struct {
	Generations    int
	BestFitness    float64
	BestCollisions int
	Found          bool
}

// Planner runs trajectory searches. It is not safe for concurrent use: all
// searches share one random source.
type Planner struct {
	cfg       Config
	obstacles ObstacleSource
	rng       *rand.Rand
}

// New creates a planner. A nil rng is replaced by a randomly seeded one.
func New(cfg Config, obstacles ObstacleSource, rng *rand.Rand) *Planner {
	if cfg.PopulationSize < 2 {
		cfg.PopulationSize = 2
	}
	if cfg.MaxGenerations < 0 {
		cfg.MaxGenerations = 0
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Planner{cfg: cfg, obstacles: obstacles, rng: rng}
}

func (p *Planner) Config() Config { return p.cfg }

// FindTrajectory returns a collision-free trajectory from start to end, or
// nil when none was found within the generation cap. Nil means "currently
// unreachable", not failure.
func (p *Planner) FindTrajectory(start, end geom.Point) *trajectory.Trajectory {
	t, _ := p.Search(start, end)
	return t
}

// Search evolves populations until the best member is collision-free or the
// generation cap is reached.
func (p *Planner) Search(start, end geom.Point) (*trajectory.Trajectory, Stats) {
	env := &trajectory.Env{
		Rng:      p.rng,
		Sigma:    p.cfg.Sigma,
		FitnessK: p.cfg.FitnessK,
	}
	if p.obstacles != nil {
		env.Obstacles = p.obstacles.Obstacles()
	}
	if start == end {
		t := trajectory.New([]geom.Point{start}, env)
		return t, p.finish(Stats{Found: true, BestFitness: t.Fitness()})
	}

	n := p.cfg.PopulationSize
	pop := trajectory.Seed(n, start, end, trajectory.UpTo(p.cfg.MaxWaypoints), env)
	var st Stats
	for gen := 0; ; gen++ {
		best := pop.Best()
		st = Stats{Generations: gen, BestFitness: best.Fitness(), BestCollisions: best.Collisions()}
		if best.Collisions() == 0 {
			st.Found = true
			return best.Clone(), p.finish(st)
		}
		if gen >= p.cfg.MaxGenerations {
			return nil, p.finish(st)
		}

		winners := pop.RankSelect(n)
		children := pop.Breed(winners, n)
		pop.Vary(children, p.cfg.MutateProb, p.cfg.AddProb, p.cfg.RemoveProb)
		pop.KeepElites(children, p.cfg.EliteRatio)
		pop = trajectory.NewPopulation(children, env)
	}
}

func (p *Planner) finish(st Stats) Stats {
	outcome := "unreachable"
	if st.Found {
		outcome = "found"
	}
	metrics.PlannerSearches.WithLabelValues(outcome).Inc()
	metrics.PlannerGenerations.Observe(float64(st.Generations))
	return st
}
