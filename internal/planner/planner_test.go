package planner

import (
	"math/rand/v2"
	"testing"

	"fleetsim/internal/geom"
)

type staticObstacles []geom.Shape

func (s staticObstacles) Obstacles() []geom.Shape { return s }

func newTestPlanner(seed uint64, cfg Config, obstacles ...geom.Shape) *Planner {
	return New(cfg, staticObstacles(obstacles), rand.New(rand.NewPCG(seed, seed)))
}

func TestFindTrajectory_OpenField(t *testing.T) {
	p := newTestPlanner(1, DefaultConfig())
	start, end := geom.Point{X: 60, Y: 60}, geom.Point{X: 900, Y: 800}
	tr, st := p.Search(start, end)
	if tr == nil {
		t.Fatal("expected a trajectory in an empty field")
	}
	if st.Generations != 0 || !st.Found {
		t.Errorf("stats = %+v, want found in generation 0", st)
	}
	if tr.First() != start || tr.Last() != end {
		t.Errorf("endpoints %v..%v", tr.First(), tr.Last())
	}
}

func TestFindTrajectory_AroundWall(t *testing.T) {
	wall, err := geom.AxisRect(geom.Point{X: 480, Y: 100}, 40, 800)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.MaxWaypoints = 3
	cfg.Sigma = 300
	p := newTestPlanner(42, cfg, wall)
	tr := p.FindTrajectory(geom.Point{X: 100, Y: 500}, geom.Point{X: 900, Y: 500})
	if tr == nil {
		t.Fatal("expected a detour around the wall")
	}
	if tr.Collisions() != 0 {
		t.Fatalf("trajectory collides %d times", tr.Collisions())
	}
	pts := tr.Points()
	for i := 1; i < len(pts); i++ {
		if wall.Intercepts(geom.Segment{A: pts[i-1], B: pts[i]}) {
			t.Fatalf("segment %v-%v crosses the wall", pts[i-1], pts[i])
		}
	}
}

func TestFindTrajectory_EnclosedDestination(t *testing.T) {
	// circle centred between (0,0) and (999,999) swallowing the destination
	enclosure, err := geom.NewCircle(geom.Point{X: 499, Y: 499}, 495)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.PopulationSize = 20
	cfg.MaxGenerations = 30
	p := newTestPlanner(7, cfg, enclosure)
	tr, st := p.Search(geom.Point{X: 0, Y: 0}, geom.Point{X: 500, Y: 500})
	if tr != nil {
		t.Fatalf("expected nil, got %v", tr)
	}
	if st.Found || st.Generations != cfg.MaxGenerations {
		t.Errorf("stats = %+v, want exhausted after %d generations", st, cfg.MaxGenerations)
	}
}

func TestFindTrajectory_SamePoint(t *testing.T) {
	p := newTestPlanner(1, DefaultConfig())
	tr := p.FindTrajectory(geom.Point{X: 10, Y: 10}, geom.Point{X: 10, Y: 10})
	if tr == nil || tr.Len() != 1 || tr.Length() != 0 {
		t.Fatalf("got %v, want single-point trajectory", tr)
	}
}

func TestSearchIsReproducible(t *testing.T) {
	rect, _ := geom.AxisRect(geom.Point{X: 300, Y: 300}, 200, 200)
	a := newTestPlanner(99, DefaultConfig(), rect)
	b := newTestPlanner(99, DefaultConfig(), rect)
	start, end := geom.Point{X: 200, Y: 200}, geom.Point{X: 700, Y: 700}
	ta, sa := a.Search(start, end)
	tb, sb := b.Search(start, end)
	if sa != sb {
		t.Fatalf("stats differ: %+v vs %+v", sa, sb)
	}
	if (ta == nil) != (tb == nil) {
		t.Fatal("one search found a trajectory, the other did not")
	}
	if ta != nil && ta.Length() != tb.Length() {
		t.Fatalf("lengths differ: %v vs %v", ta.Length(), tb.Length())
	}
}
