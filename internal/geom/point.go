// Package geom holds the integer-grid geometry robots are routed on: points,
// segments, their digital rasterization, and the obstacle shapes with their
// collision predicates.
package geom

import (
	"fmt"
	"math"
)

const (
	// GridSize is the side length of the square field.
	GridSize = 1000
	// MaxCoord is the largest valid coordinate on either axis.
	MaxCoord = GridSize - 1
)

// Point is an immutable grid location in [0,MaxCoord]x[0,MaxCoord].
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// NewPoint returns the point (x, y) or a ValidationError when it lies off the grid.
func NewPoint(x, y int) (Point, error) {
	p := Point{X: x, Y: y}
	if !p.InBounds() {
		return Point{}, invalid("point", "%v outside [0,%d]", p, MaxCoord)
	}
	return p, nil
}

// InBounds reports whether p lies on the grid.
func (p Point) InBounds() bool {
	return p.X >= 0 && p.X <= MaxCoord && p.Y >= 0 && p.Y <= MaxCoord
}

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Dist is the Euclidean distance between a and b.
func Dist(a, b Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// StepDist is the number of single-cell moves (8-connected) between a and b.
func StepDist(a, b Point) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

// Snap rounds (x, y) to the nearest grid point, clamping onto the grid.
func Snap(x, y float64) Point {
	return Point{X: clampCoord(x), Y: clampCoord(y)}
}

func clampCoord(v float64) int {
	r := int(math.Round(v))
	if r < 0 {
		return 0
	}
	if r > MaxCoord {
		return MaxCoord
	}
	return r
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
