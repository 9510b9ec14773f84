package deliverymap

import (
	"fmt"
	"math/rand/v2"

	"fleetsim/internal/geom"
)

const (
	minExtent = 20
	maxExtent = 120
)

// Generate builds a map with n random circles, rectangles and triangles lying
// inside the margins. Draws that fail shape validation are discarded.
func Generate(n, low, high int, rng *rand.Rand) (*Map, error) {
	m, err := New(low, high)
	if err != nil {
		return nil, err
	}
	if high-low <= maxExtent {
		return nil, fmt.Errorf("deliverymap: margins [%d,%d] too narrow for obstacles", low, high)
	}
	for placed, tries := 0, 0; placed < n; tries++ {
		if tries >= n*maxPlacementTries {
			return nil, fmt.Errorf("deliverymap: placed %d of %d obstacles", placed, n)
		}
		s, err := randomShape(low, high, rng)
		if err != nil {
			continue
		}
		m.obstacles = append(m.obstacles, s)
		placed++
	}
	return m, nil
}

func randomShape(low, high int, rng *rand.Rand) (geom.Shape, error) {
	extent := func() int { return minExtent + rng.IntN(maxExtent-minExtent+1) }
	corner := func(size int) geom.Point {
		return geom.Point{X: low + rng.IntN(high-low-size+1), Y: low + rng.IntN(high-low-size+1)}
	}
	switch rng.IntN(3) {
	case 0:
		d := extent() &^ 1
		c := corner(d)
		return geom.NewCircle(geom.Point{X: c.X + d/2, Y: c.Y + d/2}, float64(d)/2)
	case 1:
		w, h := extent(), extent()
		c := corner(max(w, h))
		return geom.AxisRect(c, w, h)
	default:
		d := extent()
		c := corner(d)
		return geom.NewTriangle(
			geom.Point{X: c.X + rng.IntN(d+1), Y: c.Y},
			geom.Point{X: c.X + d, Y: c.Y + rng.IntN(d+1)},
			geom.Point{X: c.X + rng.IntN(d+1), Y: c.Y + d},
		)
	}
}
