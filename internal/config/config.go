// Package config loads the simulator configuration from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Robot      RobotConfig      `yaml:"robot"`
	Planner    PlannerConfig    `yaml:"planner"`
	Map        MapConfig        `yaml:"map"`
	HTTP       HTTPConfig       `yaml:"http"`
	Redis      RedisConfig      `yaml:"redis"`
}

type SimulationConfig struct {
	// Seed drives every random source; 0 picks a random seed at startup.
	Seed      uint64 `yaml:"seed"`
	Robots    int    `yaml:"robots"`
	Obstacles int    `yaml:"obstacles"`
	// Speed is in ticks per second; 0 runs unpaced.
	Speed       float64 `yaml:"speed"`
	StatusEvery int     `yaml:"status_every"`
	// MaxSteps stops the run after that many ticks; 0 runs until cancelled.
	MaxSteps    int  `yaml:"max_steps"`
	Interactive bool `yaml:"interactive"`
}

type RobotConfig struct {
	MoveCost   float64 `yaml:"move_cost"`
	IdleCost   float64 `yaml:"idle_cost"`
	ChargeRate float64 `yaml:"charge_rate"`
	MaxEnergy  float64 `yaml:"max_energy"`
	CacheSize  int     `yaml:"cache_size"`
}

type PlannerConfig struct {
	Population     int     `yaml:"population"`
	MaxGenerations int     `yaml:"max_generations"`
	MutateProb     float64 `yaml:"mutate_prob"`
	AddProb        float64 `yaml:"add_prob"`
	RemoveProb     float64 `yaml:"remove_prob"`
	EliteRatio     float64 `yaml:"elite_ratio"`
	MaxWaypoints   int     `yaml:"max_waypoints"`
	Sigma          float64 `yaml:"sigma"`
	FitnessK       float64 `yaml:"fitness_k"`
}

type MapConfig struct {
	MarginLow  int `yaml:"margin_low"`
	MarginHigh int `yaml:"margin_high"`
}

type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
	// Channel prefixes pub/sub channel names as channel:topic.
	Channel string `yaml:"channel"`
}

func Defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Robots:      3,
			Obstacles:   10,
			Speed:       10,
			StatusEvery: 1,
			Interactive: true,
		},
		Robot: RobotConfig{
			MoveCost:   0.1,
			IdleCost:   0.01,
			ChargeRate: 0.5,
			MaxEnergy:  100,
			CacheSize:  32,
		},
		Planner: PlannerConfig{
			Population:     40,
			MaxGenerations: 120,
			MutateProb:     0.3,
			AddProb:        0.2,
			RemoveProb:     0.2,
			EliteRatio:     0.1,
			MaxWaypoints:   4,
			Sigma:          150,
			FitnessK:       100,
		},
		Map: MapConfig{
			MarginLow:  50,
			MarginHigh: 950,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Redis: RedisConfig{
			Channel: "fleetsim",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overlays PORT, REDIS_URL and FLEETSIM_SEED. Setting PORT enables
// the HTTP surface.
func (c *Config) ApplyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.HTTP.Addr = ":" + port
		c.HTTP.Enabled = true
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		c.Redis.URL = url
	}
	if s := os.Getenv("FLEETSIM_SEED"); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("FLEETSIM_SEED: %w", err)
		}
		c.Simulation.Seed = seed
	}
	return nil
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	s, r, p, m := c.Simulation, c.Robot, c.Planner, c.Map
	check(s.Robots >= 0, "simulation.robots must not be negative")
	check(s.Obstacles >= 0, "simulation.obstacles must not be negative")
	check(s.Speed >= 0, "simulation.speed must not be negative")
	check(s.StatusEvery >= 1, "simulation.status_every must be at least 1")
	check(s.MaxSteps >= 0, "simulation.max_steps must not be negative")
	check(r.MoveCost > 0, "robot.move_cost must be positive")
	check(r.IdleCost >= 0, "robot.idle_cost must not be negative")
	check(r.ChargeRate > 0, "robot.charge_rate must be positive")
	check(r.MaxEnergy > 0, "robot.max_energy must be positive")
	check(r.CacheSize >= 1, "robot.cache_size must be at least 1")
	check(p.Population >= 2, "planner.population must be at least 2")
	check(p.MaxGenerations >= 1, "planner.max_generations must be at least 1")
	for name, v := range map[string]float64{
		"mutate_prob": p.MutateProb, "add_prob": p.AddProb,
		"remove_prob": p.RemoveProb, "elite_ratio": p.EliteRatio,
	} {
		check(v >= 0 && v <= 1, "planner.%s must be within [0,1], got %v", name, v)
	}
	check(p.MaxWaypoints >= 0, "planner.max_waypoints must not be negative")
	check(p.Sigma > 0, "planner.sigma must be positive")
	check(p.FitnessK > 0, "planner.fitness_k must be positive")
	check(m.MarginLow >= 0 && m.MarginHigh <= 999 && m.MarginLow < m.MarginHigh,
		"map margins [%d,%d] must satisfy 0 <= low < high <= 999", m.MarginLow, m.MarginHigh)
	return errors.Join(errs...)
}
