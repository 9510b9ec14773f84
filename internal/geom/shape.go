package geom

import "math"

// Kind tags the variant held by a Shape.
type Kind int

const (
	KindCircle Kind = iota
	KindPolygon
	KindRectangle
	KindTriangle
)

func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindPolygon:
		return "polygon"
	case KindRectangle:
		return "rectangle"
	case KindTriangle:
		return "triangle"
	default:
		return "unknown"
	}
}

// Shape is an obstacle: a closed union of circle, polygon, rectangle and
// triangle. Rectangles and triangles are polygons with extra construction
// invariants. Shapes are immutable once built.
type Shape struct {
	kind   Kind
	points []Point
	radius float64
}

// NewCircle builds a circle around center. The radius must be positive.
func NewCircle(center Point, radius float64) (Shape, error) {
	if !center.InBounds() {
		return Shape{}, invalid("circle", "center %v off grid", center)
	}
	if !(radius > 0) {
		return Shape{}, invalid("circle", "radius %.2f must be positive", radius)
	}
	return Shape{kind: KindCircle, points: []Point{center}, radius: radius}, nil
}

// NewPolygon builds a simple polygon from at least three distinct vertices,
// listed in boundary order.
func NewPolygon(points ...Point) (Shape, error) {
	if len(points) < 3 {
		return Shape{}, invalid("polygon", "need at least 3 vertices, got %d", len(points))
	}
	if err := checkVertices("polygon", points); err != nil {
		return Shape{}, err
	}
	return Shape{kind: KindPolygon, points: append([]Point(nil), points...)}, nil
}

// NewRectangle builds a rectangle from four vertices in boundary order. Every
// corner must be a right angle.
func NewRectangle(a, b, c, d Point) (Shape, error) {
	pts := []Point{a, b, c, d}
	if err := checkVertices("rectangle", pts); err != nil {
		return Shape{}, err
	}
	for i := range pts {
		p, q, r := pts[i], pts[(i+1)%4], pts[(i+2)%4]
		dot := (p.X-q.X)*(r.X-q.X) + (p.Y-q.Y)*(r.Y-q.Y)
		if dot != 0 {
			return Shape{}, invalid("rectangle", "corner %v is not a right angle", q)
		}
	}
	return Shape{kind: KindRectangle, points: pts}, nil
}

// AxisRect is the axis-aligned rectangle with lower-left corner c and the given size.
func AxisRect(c Point, w, h int) (Shape, error) {
	return NewRectangle(
		c,
		Point{X: c.X + w, Y: c.Y},
		Point{X: c.X + w, Y: c.Y + h},
		Point{X: c.X, Y: c.Y + h},
	)
}

// NewTriangle builds a triangle; collinear vertices are rejected.
func NewTriangle(a, b, c Point) (Shape, error) {
	pts := []Point{a, b, c}
	if err := checkVertices("triangle", pts); err != nil {
		return Shape{}, err
	}
	if cross(a, b, c) == 0 {
		return Shape{}, invalid("triangle", "vertices %v %v %v are collinear", a, b, c)
	}
	return Shape{kind: KindTriangle, points: pts}, nil
}

func checkVertices(kind string, pts []Point) error {
	seen := make(map[Point]struct{}, len(pts))
	for _, p := range pts {
		if !p.InBounds() {
			return invalid(kind, "vertex %v off grid", p)
		}
		if _, dup := seen[p]; dup {
			return invalid(kind, "repeated vertex %v", p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// cross is twice the signed area of triangle abc.
func cross(a, b, c Point) int {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func (s Shape) Kind() Kind { return s.kind }

// Points returns a copy of the defining points. For a circle this is the center.
func (s Shape) Points() []Point { return append([]Point(nil), s.points...) }

// Radius is the circle radius, zero for polygons.
func (s Shape) Radius() float64 { return s.radius }

// Bounds returns the corners of the axis-aligned box enclosing s.
func (s Shape) Bounds() (lo, hi Point) {
	if len(s.points) == 0 {
		return Point{}, Point{}
	}
	if s.kind == KindCircle {
		c := s.points[0]
		r := int(math.Ceil(s.radius))
		return Point{X: c.X - r, Y: c.Y - r}, Point{X: c.X + r, Y: c.Y + r}
	}
	lo, hi = s.points[0], s.points[0]
	for _, p := range s.points[1:] {
		lo.X, lo.Y = min(lo.X, p.X), min(lo.Y, p.Y)
		hi.X, hi.Y = max(hi.X, p.X), max(hi.Y, p.Y)
	}
	return lo, hi
}

// Surrounds reports whether p lies inside s. A point exactly on a circle's
// boundary is inside.
func (s Shape) Surrounds(p Point) bool {
	if len(s.points) == 0 {
		return false
	}
	switch s.kind {
	case KindCircle:
		return Dist(s.points[0], p) <= s.radius
	case KindPolygon, KindRectangle, KindTriangle:
		return s.polygonSurrounds(p)
	}
	return false
}

// Ray casting: toggle on every edge crossed by the horizontal ray from p.
// The half-open y test counts a vertex shared by two edges once.
func (s Shape) polygonSurrounds(p Point) bool {
	inside := false
	n := len(s.points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := s.points[i], s.points[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			x := float64(pj.X-pi.X)*float64(p.Y-pi.Y)/float64(pj.Y-pi.Y) + float64(pi.X)
			if float64(p.X) < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Intercepts reports whether seg collides with s.
func (s Shape) Intercepts(seg Segment) bool {
	if len(s.points) == 0 {
		return false
	}
	switch s.kind {
	case KindCircle:
		return seg.DistanceTo(s.points[0]) <= s.radius
	case KindPolygon, KindRectangle, KindTriangle:
		n := len(s.points)
		for i := range s.points {
			edge := Segment{A: s.points[i], B: s.points[(i+1)%n]}
			if seg.Intersects(edge) {
				return true
			}
		}
	}
	return false
}
