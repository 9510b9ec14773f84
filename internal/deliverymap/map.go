// Package deliverymap holds the obstacle field robots plan around and decides
// whether a delivery request can be accepted.
package deliverymap

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"fleetsim/internal/geom"
	"fleetsim/internal/model"
)

const (
	DefaultMarginLow  = 50
	DefaultMarginHigh = 950

	maxPlacementTries = 1000
)

var ErrNoFreePoint = errors.New("no free point found")

// Map is safe for concurrent use. Obstacles are only ever added; every
// addition bumps Version.
type Map struct {
	mu        sync.RWMutex
	obstacles []geom.Shape
	low, high int
	version   uint64
}

// New returns a map whose requests must lie within [low, high] on both axes.
func New(low, high int, obstacles ...geom.Shape) (*Map, error) {
	if low < 0 || high > geom.MaxCoord || low >= high {
		return nil, fmt.Errorf("deliverymap: bad margins [%d,%d]", low, high)
	}
	return &Map{
		obstacles: append([]geom.Shape(nil), obstacles...),
		low:       low,
		high:      high,
	}, nil
}

// Obstacles returns the current obstacle list. The slice is a copy.
func (m *Map) Obstacles() []geom.Shape {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]geom.Shape(nil), m.obstacles...)
}

func (m *Map) AddObstacle(s geom.Shape) {
	m.mu.Lock()
	m.obstacles = append(m.obstacles, s)
	m.version++
	m.mu.Unlock()
}

func (m *Map) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

func (m *Map) Margins() (low, high int) { return m.low, m.high }

// IsDeliveryRequestValid reports whether both endpoints lie inside the margins
// and outside every obstacle.
func (m *Map) IsDeliveryRequestValid(req model.Request) bool {
	return m.inMargins(req.Start) && m.inMargins(req.End) &&
		m.IsPointFree(req.Start) && m.IsPointFree(req.End)
}

func (m *Map) inMargins(p geom.Point) bool {
	return p.X >= m.low && p.X <= m.high && p.Y >= m.low && p.Y <= m.high
}

// IsPointFree reports whether no obstacle surrounds p.
func (m *Map) IsPointFree(p geom.Point) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.obstacles {
		if s.Surrounds(p) {
			return false
		}
	}
	return true
}

// RandomFreePoint draws a point inside the margins that no obstacle covers.
func (m *Map) RandomFreePoint(rng *rand.Rand) (geom.Point, error) {
	for range maxPlacementTries {
		p := geom.Point{X: m.low + rng.IntN(m.high-m.low+1), Y: m.low + rng.IntN(m.high-m.low+1)}
		if m.IsPointFree(p) {
			return p, nil
		}
	}
	return geom.Point{}, ErrNoFreePoint
}

// View describes the obstacles for front-ends.
func (m *Map) View() []model.ObstacleView {
	obs := m.Obstacles()
	out := make([]model.ObstacleView, 0, len(obs))
	for _, s := range obs {
		out = append(out, model.ObstacleView{Kind: s.Kind().String(), Points: s.Points(), Radius: s.Radius()})
	}
	return out
}
