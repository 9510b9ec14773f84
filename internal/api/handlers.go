package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fleetsim/internal/geom"
	"fleetsim/internal/model"
)

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check redis connectivity when streaming through it
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if p, ok := s.Broker.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// StatusHandler handles GET /v1/status
func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Status.Snapshot())
}

// RobotsHandler handles GET /v1/robots
func (s *Server) RobotsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	snap := s.Status.Snapshot()
	items := snap.Robots
	if items == nil {
		items = []model.RobotStatus{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"step": snap.Step, "items": items})
}

// RequestsHandler handles GET/POST /v1/requests
func (s *Server) RequestsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items := s.Queue.Snapshot()
		if items == nil {
			items = []model.Request{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		var in model.RequestIn
		if err := decodeJSON(w, r, &in); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		req, err := requestFromInput(in)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error(), r.URL.Path)
			return
		}
		if !s.Map.IsDeliveryRequestValid(req) {
			writeProblem(w, http.StatusUnprocessableEntity, "Request rejected", "endpoint inside an obstacle or outside the delivery margins", r.URL.Path)
			return
		}
		if err := s.Queue.Append(req); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Enqueue failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusAccepted, req)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// MapHandler handles GET /v1/map
func (s *Server) MapHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	low, high := s.Map.Margins()
	writeJSON(w, http.StatusOK, map[string]any{
		"version":   s.Map.Version(),
		"margins":   map[string]int{"low": low, "high": high},
		"obstacles": s.Map.View(),
	})
}

// ObstaclesHandler handles POST /v1/obstacles. Robots drop cached
// trajectories on their next tick.
func (s *Server) ObstaclesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in ObstacleIn
	if err := decodeJSON(w, r, &in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	shape, err := obstacleFromInput(in)
	if err != nil {
		status := http.StatusBadRequest
		var verr *geom.ValidationError
		if errors.As(err, &verr) {
			status = http.StatusUnprocessableEntity
		}
		writeProblem(w, status, "Invalid obstacle", err.Error(), r.URL.Path)
		return
	}
	s.Map.AddObstacle(shape)
	writeJSON(w, http.StatusCreated, map[string]any{"version": s.Map.Version(), "kind": shape.Kind().String()})
}
