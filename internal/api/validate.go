package api

import (
	"fmt"
	"strings"

	"fleetsim/internal/geom"
	"fleetsim/internal/model"
)

// ObstacleIn is the wire form of a new obstacle.
type ObstacleIn struct {
	Kind   string       `json:"kind"`
	Points []geom.Point `json:"points"`
	Radius float64      `json:"radius,omitempty"`
}

func requestFromInput(in model.RequestIn) (model.Request, error) {
	if !in.Start.InBounds() {
		return model.Request{}, fmt.Errorf("start %v off grid", in.Start)
	}
	if !in.End.InBounds() {
		return model.Request{}, fmt.Errorf("end %v off grid", in.End)
	}
	return model.NewRequest(in.Start, in.End)
}

// obstacleFromInput builds the shape; construction failures are
// *geom.ValidationError.
func obstacleFromInput(in ObstacleIn) (geom.Shape, error) {
	for _, p := range in.Points {
		if !p.InBounds() {
			return geom.Shape{}, fmt.Errorf("point %v off grid", p)
		}
	}
	switch strings.ToLower(in.Kind) {
	case "circle":
		if len(in.Points) != 1 {
			return geom.Shape{}, fmt.Errorf("circle needs exactly one center point")
		}
		return geom.NewCircle(in.Points[0], in.Radius)
	case "rectangle":
		if len(in.Points) != 4 {
			return geom.Shape{}, fmt.Errorf("rectangle needs 4 points, got %d", len(in.Points))
		}
		return geom.NewRectangle(in.Points[0], in.Points[1], in.Points[2], in.Points[3])
	case "triangle":
		if len(in.Points) != 3 {
			return geom.Shape{}, fmt.Errorf("triangle needs 3 points, got %d", len(in.Points))
		}
		return geom.NewTriangle(in.Points[0], in.Points[1], in.Points[2])
	case "polygon":
		return geom.NewPolygon(in.Points...)
	default:
		return geom.Shape{}, fmt.Errorf("unknown obstacle kind %q (allowed: circle,rectangle,triangle,polygon)", in.Kind)
	}
}
