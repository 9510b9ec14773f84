// Package ui is the interactive front-end of the simulator: it asks for the
// run parameters, takes delivery requests and prints robot status.
package ui

import (
	"fleetsim/internal/deliverymap"
	"fleetsim/internal/model"
)

// UI is what the simulation needs from a front-end. Ask* calls block until the
// user answers; they fail only when input is exhausted.
type UI interface {
	AskForNumberOfObstacles() (int, error)
	AskForNRobots() (int, error)
	AskForSpeed() (float64, error)
	AskForRequest() (model.Request, error)
	IsAskingForNewPoint() (bool, error)

	DisplayRobotStatus(step int, robots []model.RobotStatus)
	DisplayErrorMessage(msg string)
	SendMapInformation(m *deliverymap.Map)
	AddRequest(req model.Request) error
}

// RequestSink accepts requests for dispatch.
type RequestSink interface {
	Append(req model.Request) error
}
