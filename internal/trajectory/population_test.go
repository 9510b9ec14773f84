package trajectory

import (
	"testing"

	"fleetsim/internal/geom"
)

func TestSeedProducesValidMembers(t *testing.T) {
	env := testEnv(21)
	start, end := geom.Point{X: 50, Y: 500}, geom.Point{X: 950, Y: 500}
	pop := Seed(30, start, end, UpTo(4), env)
	if pop.Len() != 30 {
		t.Fatalf("Len = %d, want 30", pop.Len())
	}
	for _, m := range pop.Members() {
		checkInvariants(t, m, start, end)
		if m.Len() > 6 {
			t.Errorf("too many waypoints: %d points", m.Len())
		}
	}
}

func TestBestPrefersCollisionFree(t *testing.T) {
	wall, _ := geom.AxisRect(geom.Point{X: 400, Y: 0}, 20, 600)
	env := testEnv(1, wall)
	blocked := New(pts(100, 300, 900, 300), env)
	around := New(pts(100, 300, 410, 700, 900, 300), env)
	pop := NewPopulation([]*Trajectory{blocked, around}, env)
	if pop.Best() != around {
		t.Fatalf("Best = %v, want detour", pop.Best())
	}
}

func TestRankSelectFavoursFitter(t *testing.T) {
	env := testEnv(9)
	short := New(pts(0, 0, 10, 0), env)
	long := New(pts(0, 0, 500, 500, 10, 0), env)
	pop := NewPopulation([]*Trajectory{long, short}, env)
	counts := map[*Trajectory]int{}
	for _, w := range pop.RankSelect(3000) {
		counts[w]++
	}
	// weights 1 and 2
	if counts[short] < 1800 || counts[long] < 800 {
		t.Fatalf("unexpected selection counts short=%d long=%d", counts[short], counts[long])
	}
}

func TestBreedExactCount(t *testing.T) {
	env := testEnv(4)
	pop := Seed(7, geom.Point{X: 100, Y: 100}, geom.Point{X: 300, Y: 300}, UpTo(3), env)
	for _, n := range []int{1, 6, 7} {
		if got := len(pop.Breed(pop.Members(), n)); got != n {
			t.Errorf("Breed(%d) produced %d", n, got)
		}
	}
}

func TestKeepElites(t *testing.T) {
	env := testEnv(4)
	best := New(pts(0, 0, 10, 0), env)
	var members []*Trajectory
	members = append(members, best)
	for i := 1; i < 10; i++ {
		members = append(members, New(pts(0, 0, 300+i, 400, 10, 0), env))
	}
	pop := NewPopulation(members, env)

	children := make([]*Trajectory, 10)
	for i := range children {
		children[i] = New(pts(0, 0, 600+i, 700, 10, 0), env)
	}
	if n := pop.KeepElites(children, 0.1); n != 1 {
		t.Fatalf("kept %d elites, want 1", n)
	}
	found := false
	for _, c := range children {
		if c == best {
			t.Fatal("elite kept by reference")
		}
		if c.Length() == best.Length() {
			found = true
		}
	}
	if !found {
		t.Fatal("best individual not carried over")
	}
}

func TestEliteCount(t *testing.T) {
	tests := []struct {
		n     int
		ratio float64
		want  int
	}{
		{40, 0.1, 4},
		{5, 0.1, 1},
		{10, 0, 0},
		{0, 0.5, 0},
		{10, 2, 10},
	}
	for _, tt := range tests {
		if got := EliteCount(tt.n, tt.ratio); got != tt.want {
			t.Errorf("EliteCount(%d,%v) = %d, want %d", tt.n, tt.ratio, got, tt.want)
		}
	}
}
