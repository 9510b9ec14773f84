package geom

import (
	"errors"
	"math"
	"testing"
)

func mustCircle(t *testing.T, c Point, r float64) Shape {
	t.Helper()
	s, err := NewCircle(c, r)
	if err != nil {
		t.Fatalf("NewCircle: %v", err)
	}
	return s
}

func TestNewPointBounds(t *testing.T) {
	tests := []struct {
		x, y int
		ok   bool
	}{
		{0, 0, true},
		{999, 999, true},
		{-1, 5, false},
		{5, 1000, false},
	}
	for _, tt := range tests {
		_, err := NewPoint(tt.x, tt.y)
		if (err == nil) != tt.ok {
			t.Errorf("NewPoint(%d,%d) err=%v, want ok=%v", tt.x, tt.y, err, tt.ok)
		}
	}
}

func TestSegmentDegenerate(t *testing.T) {
	_, err := NewSegment(Point{3, 4}, Point{3, 4})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Kind != "segment" {
		t.Errorf("kind = %q, want segment", ve.Kind)
	}
}

func TestSegmentIntersects(t *testing.T) {
	a := Segment{Point{0, 0}, Point{10, 10}}
	tests := []struct {
		name string
		b    Segment
		want bool
	}{
		{"crossing", Segment{Point{0, 10}, Point{10, 0}}, true},
		{"parallel", Segment{Point{0, 1}, Point{10, 11}}, false},
		{"disjoint", Segment{Point{20, 0}, Point{30, 5}}, false},
		{"short of line", Segment{Point{0, 5}, Point{4, 5}}, false},
	}
	for _, tt := range tests {
		if got := a.Intersects(tt.b); got != tt.want {
			t.Errorf("%s: Intersects = %v, want %v", tt.name, got, tt.want)
		}
		if got := tt.b.Intersects(a); got != tt.want {
			t.Errorf("%s (swapped): Intersects = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSegmentDistanceTo(t *testing.T) {
	s := Segment{Point{0, 0}, Point{10, 0}}
	tests := []struct {
		p    Point
		want float64
	}{
		{Point{5, 3}, 3},
		{Point{-4, 3}, 5},
		{Point{13, 4}, 5},
		{Point{10, 0}, 0},
	}
	for _, tt := range tests {
		if got := s.DistanceTo(tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("DistanceTo(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestLineSymmetricAndContiguous(t *testing.T) {
	pairs := [][2]Point{
		{{0, 0}, {7, 3}},
		{{10, 2}, {1, 9}},
		{{5, 5}, {5, 20}},
		{{30, 4}, {2, 4}},
		{{0, 0}, {50, 50}},
	}
	for _, pr := range pairs {
		fwd := Line(pr[0], pr[1])
		back := Line(pr[1], pr[0])
		if len(fwd) != len(back) {
			t.Fatalf("%v: len %d vs %d", pr, len(fwd), len(back))
		}
		for i := range fwd {
			if fwd[i] != back[len(back)-1-i] {
				t.Fatalf("%v: not symmetric at %d: %v vs %v", pr, i, fwd[i], back[len(back)-1-i])
			}
		}
		if fwd[0] != pr[0] || fwd[len(fwd)-1] != pr[1] {
			t.Fatalf("%v: endpoints %v..%v", pr, fwd[0], fwd[len(fwd)-1])
		}
		if want := StepDist(pr[0], pr[1]) + 1; len(fwd) != want {
			t.Errorf("%v: %d points, want %d", pr, len(fwd), want)
		}
		for i := 1; i < len(fwd); i++ {
			if StepDist(fwd[i-1], fwd[i]) != 1 {
				t.Fatalf("%v: jump between %v and %v", pr, fwd[i-1], fwd[i])
			}
		}
	}
}

func TestCircleSurroundsBoundary(t *testing.T) {
	c := mustCircle(t, Point{100, 100}, 5)
	if !c.Surrounds(Point{105, 100}) {
		t.Error("point at exactly radius should be inside")
	}
	if !c.Surrounds(Point{103, 104}) {
		t.Error("(3,4) offset is distance 5, should be inside")
	}
	if c.Surrounds(Point{106, 100}) {
		t.Error("point beyond radius should be outside")
	}
}

func TestShapeOutsideBoundsNeverSurrounded(t *testing.T) {
	rect, _ := AxisRect(Point{10, 10}, 20, 30)
	tri, _ := NewTriangle(Point{100, 100}, Point{150, 100}, Point{120, 160})
	poly, _ := NewPolygon(Point{200, 200}, Point{260, 210}, Point{250, 270}, Point{190, 250})
	circ := mustCircle(t, Point{500, 500}, 40)
	for _, s := range []Shape{rect, tri, poly, circ} {
		lo, hi := s.Bounds()
		probes := []Point{
			{lo.X - 1, lo.Y}, {hi.X + 1, hi.Y}, {lo.X, lo.Y - 1}, {hi.X, hi.Y + 1},
			{lo.X - 3, hi.Y + 3},
		}
		for _, p := range probes {
			if s.Surrounds(p) {
				t.Errorf("%v surrounds %v outside its bounds %v..%v", s.Kind(), p, lo, hi)
			}
		}
	}
}

func TestPolygonSurrounds(t *testing.T) {
	rect, err := AxisRect(Point{10, 10}, 20, 20)
	if err != nil {
		t.Fatal(err)
	}
	if !rect.Surrounds(Point{20, 20}) {
		t.Error("center should be inside")
	}
	if rect.Surrounds(Point{40, 20}) {
		t.Error("point right of rectangle should be outside")
	}
	// ray from (5,10) passes through vertex (10,10): must not double count
	tri, _ := NewTriangle(Point{10, 10}, Point{30, 0}, Point{30, 20})
	if tri.Surrounds(Point{5, 10}) {
		t.Error("point left of vertex should be outside")
	}
	if !tri.Surrounds(Point{25, 10}) {
		t.Error("interior point should be inside")
	}
}

func TestIntercepts(t *testing.T) {
	rect, _ := AxisRect(Point{100, 100}, 50, 50)
	circ := mustCircle(t, Point{400, 400}, 30)
	tests := []struct {
		name string
		s    Shape
		seg  Segment
		want bool
	}{
		{"through rect", rect, Segment{Point{90, 125}, Point{160, 125}}, true},
		{"beside rect", rect, Segment{Point{90, 160}, Point{160, 160}}, false},
		{"through circle", circ, Segment{Point{300, 400}, Point{500, 400}}, true},
		{"tangent circle", circ, Segment{Point{300, 430}, Point{500, 430}}, true},
		{"miss circle", circ, Segment{Point{300, 431}, Point{500, 431}}, false},
		{"ends short of circle", circ, Segment{Point{300, 400}, Point{360, 400}}, false},
	}
	for _, tt := range tests {
		if got := tt.s.Intercepts(tt.seg); got != tt.want {
			t.Errorf("%s: Intercepts = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestConstructionInvariants(t *testing.T) {
	var ve *ValidationError
	if _, err := NewCircle(Point{1, 1}, 0); !errors.As(err, &ve) {
		t.Errorf("zero radius: got %v", err)
	}
	if _, err := NewRectangle(Point{0, 0}, Point{10, 0}, Point{12, 10}, Point{0, 10}); !errors.As(err, &ve) {
		t.Errorf("skewed rectangle: got %v", err)
	}
	if _, err := NewRectangle(Point{0, 0}, Point{10, 0}, Point{10, 0}, Point{0, 10}); !errors.As(err, &ve) {
		t.Errorf("repeated rectangle vertex: got %v", err)
	}
	if _, err := NewTriangle(Point{0, 0}, Point{5, 5}, Point{10, 10}); !errors.As(err, &ve) {
		t.Errorf("collinear triangle: got %v", err)
	}
	if _, err := NewPolygon(Point{0, 0}, Point{5, 5}); !errors.As(err, &ve) {
		t.Errorf("two-vertex polygon: got %v", err)
	}
	if _, err := NewTriangle(Point{0, 0}, Point{1000, 5}, Point{10, 10}); !errors.As(err, &ve) {
		t.Errorf("off-grid vertex: got %v", err)
	}
	// rotated rectangle is fine
	if _, err := NewRectangle(Point{10, 0}, Point{20, 10}, Point{10, 20}, Point{0, 10}); err != nil {
		t.Errorf("diamond rectangle rejected: %v", err)
	}
}
