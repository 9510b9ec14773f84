package geom

import "math"

// Segment is a directed line segment between two distinct points.
type Segment struct {
	A, B Point
}

// NewSegment returns the segment a→b. Equal endpoints are rejected.
func NewSegment(a, b Point) (Segment, error) {
	if a == b {
		return Segment{}, invalid("segment", "degenerate segment at %v", a)
	}
	return Segment{A: a, B: b}, nil
}

// Len is the Euclidean length of the segment.
func (s Segment) Len() float64 { return Dist(s.A, s.B) }

// Intersects reports whether s and o cross, using the counter-clockwise
// orientation test: each segment's endpoints must fall on opposite sides of
// the other segment.
func (s Segment) Intersects(o Segment) bool {
	return ccw(s.A, o.A, o.B) != ccw(s.B, o.A, o.B) &&
		ccw(s.A, s.B, o.A) != ccw(s.A, s.B, o.B)
}

func ccw(a, b, c Point) bool {
	return (c.Y-a.Y)*(b.X-a.X) > (b.Y-a.Y)*(c.X-a.X)
}

// DistanceTo is the minimum distance from p to any point of s.
func (s Segment) DistanceTo(p Point) float64 {
	dx := float64(s.B.X - s.A.X)
	dy := float64(s.B.Y - s.A.Y)
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return Dist(s.A, p)
	}
	t := (float64(p.X-s.A.X)*dx + float64(p.Y-s.A.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	px := float64(s.A.X) + t*dx
	py := float64(s.A.Y) + t*dy
	return math.Hypot(float64(p.X)-px, float64(p.Y)-py)
}

// Raster returns the digital line covering s, endpoints included.
func (s Segment) Raster() []Point { return Line(s.A, s.B) }

// Line returns every grid point on the digital line from a to b inclusive.
// Consecutive points differ by at most one on each axis, and Line(b, a) is
// exactly Line(a, b) reversed.
func Line(a, b Point) []Point {
	if a == b {
		return []Point{a}
	}
	from, to := a, b
	flip := less(b, a)
	if flip {
		from, to = b, a
	}
	pts := bresenham(from, to)
	if flip {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return pts
}

func less(p, q Point) bool {
	return p.X < q.X || (p.X == q.X && p.Y < q.Y)
}

func bresenham(a, b Point) []Point {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	pts := make([]Point, 0, max(dx, -dy)+1)
	x, y := a.X, a.Y
	e := dx + dy
	for {
		pts = append(pts, Point{X: x, Y: y})
		if x == b.X && y == b.Y {
			return pts
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}
