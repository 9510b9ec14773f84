package model

import (
	"fmt"

	"github.com/google/uuid"

	"fleetsim/internal/geom"
)

// Request is a delivery from Start to End. Requests are immutable values.
type Request struct {
	ID    string     `json:"id"`
	Start geom.Point `json:"start"`
	End   geom.Point `json:"end"`
}

// NewRequest returns a request with a fresh ID. Both endpoints must be on the grid.
func NewRequest(start, end geom.Point) (Request, error) {
	if !start.InBounds() || !end.InBounds() {
		return Request{}, fmt.Errorf("request %v -> %v: endpoint off grid", start, end)
	}
	return Request{ID: uuid.New().String(), Start: start, End: end}, nil
}

// Valid reports whether r came from NewRequest.
func (r Request) Valid() bool {
	return r.ID != "" && r.Start.InBounds() && r.End.InBounds()
}

func (r Request) String() string {
	return fmt.Sprintf("%s %v->%v", ShortID(r.ID), r.Start, r.End)
}

// RequestIn is the wire form accepted by request intake.
type RequestIn struct {
	Start geom.Point `json:"start"`
	End   geom.Point `json:"end"`
}

// RobotStatus is a read-only snapshot of one robot, published every tick.
type RobotStatus struct {
	ID        string     `json:"id"`
	Position  geom.Point `json:"position"`
	Station   geom.Point `json:"station"`
	Energy    float64    `json:"energy"`
	State     string     `json:"state"`
	Remaining int        `json:"remaining"`
	Steps     int        `json:"steps"`
	RequestID string     `json:"requestId,omitempty"`
}

// StatusEvent is the per-tick status published to observers.
type StatusEvent struct {
	Step   int           `json:"step"`
	TS     string        `json:"ts"`
	Queued int           `json:"queued"`
	Robots []RobotStatus `json:"robots"`
}

// ObstacleView describes an obstacle for front-ends.
type ObstacleView struct {
	Kind   string       `json:"kind"`
	Points []geom.Point `json:"points"`
	Radius float64      `json:"radius,omitempty"`
}

// ShortID trims a uuid to its first block for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
