package api

import (
	"net/http"
	"time"

	"fleetsim/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	c := s.Config
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"step":  s.Status.Snapshot().Step,
		"config": map[string]any{
			"seed":            c.Simulation.Seed,
			"robots":          c.Simulation.Robots,
			"obstacles":       c.Simulation.Obstacles,
			"speed":           c.Simulation.Speed,
			"population":      c.Planner.Population,
			"max_generations": c.Planner.MaxGenerations,
			"has_redis_url":   c.Redis.URL != "",
		},
	}
	writeJSON(w, http.StatusOK, info)
}
