package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleetsim/internal/api"
	"fleetsim/internal/buildinfo"
	"fleetsim/internal/config"
	"fleetsim/internal/deliverymap"
	"fleetsim/internal/dispatch"
	"fleetsim/internal/metrics"
	"fleetsim/internal/planner"
	"fleetsim/internal/robot"
	"fleetsim/internal/sim"
	"fleetsim/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fleetsim: %v", err)
	}
}

func run() error {
	path := os.Getenv("FLEETSIM_CONFIG")
	if path == "" {
		path = "fleetsim.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	log.Printf("%s", buildinfo.String())

	console := ui.NewConsole(os.Stdin, os.Stdout)
	if cfg.Simulation.Interactive {
		if err := askRunParameters(console, cfg); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	log.Printf("seed %d: %d robots, %d obstacles, %.1f ticks/s", seed, cfg.Simulation.Robots, cfg.Simulation.Obstacles, cfg.Simulation.Speed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Separate streams keep the obstacle field and robot placement stable
	// when planner settings change.
	mapRng := rand.New(rand.NewPCG(seed, 1))
	planRng := rand.New(rand.NewPCG(seed, 2))
	placeRng := rand.New(rand.NewPCG(seed, 3))

	m, err := deliverymap.Generate(cfg.Simulation.Obstacles, cfg.Map.MarginLow, cfg.Map.MarginHigh, mapRng)
	if err != nil {
		return err
	}
	console.SendMapInformation(m)

	queue := dispatch.NewQueue()
	console.Bind(queue)
	manager, err := dispatch.NewManager(queue)
	if err != nil {
		return err
	}

	pl := planner.New(plannerConfig(cfg.Planner), m, planRng)
	params := robot.Params{
		MoveCost:   cfg.Robot.MoveCost,
		IdleCost:   cfg.Robot.IdleCost,
		ChargeRate: cfg.Robot.ChargeRate,
		MaxEnergy:  cfg.Robot.MaxEnergy,
		CacheSize:  cfg.Robot.CacheSize,
	}
	agents := make([]sim.Agent, 0, cfg.Simulation.Robots)
	for i := 0; i < cfg.Simulation.Robots; i++ {
		station, err := m.RandomFreePoint(placeRng)
		if err != nil {
			return fmt.Errorf("place robot %d: %w", i, err)
		}
		r, err := robot.New(station, pl, params)
		if err != nil {
			return err
		}
		r.WatchMap(m)
		if err := manager.Subscribe(r); err != nil {
			return err
		}
		log.Printf("robot %s stationed at %v", r.ID()[:8], station)
		agents = append(agents, r)
	}

	sched := sim.New(manager, queue, agents, sim.Options{
		Speed:       cfg.Simulation.Speed,
		MaxSteps:    cfg.Simulation.MaxSteps,
		StatusEvery: cfg.Simulation.StatusEvery,
	})
	sched.AddObserver(console)
	metrics.RegisterDefault()

	var srv *http.Server
	if cfg.HTTP.Enabled {
		var broker api.EventBroker
		if cfg.Redis.URL != "" {
			rb, err := api.NewRedisBroker(cfg.Redis.URL, cfg.Redis.Channel)
			if err != nil {
				log.Printf("redis broker unavailable, streaming in-process: %v", err)
			} else {
				defer func() { _ = rb.Close() }()
				broker = rb
			}
		}
		deps := api.NewServer(sched, queue, m, broker, cfg)
		sched.AddObserver(deps)
		srv = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           deps.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Printf("API listening on %s", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("server error: %v", err)
				stop()
			}
		}()
	}

	if cfg.Simulation.Interactive {
		go func() {
			if err := console.Listen(ctx); err != nil {
				log.Printf("console: %v", err)
			}
		}()
	}

	runErr := sched.Run(ctx)
	if runErr != nil {
		console.DisplayErrorMessage(runErr.Error())
	}
	log.Printf("simulation stopped after %d steps", sched.Step())

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}
	return runErr
}

func askRunParameters(c ui.UI, cfg *config.Config) error {
	n, err := c.AskForNumberOfObstacles()
	if err != nil {
		return err
	}
	robots, err := c.AskForNRobots()
	if err != nil {
		return err
	}
	speed, err := c.AskForSpeed()
	if err != nil {
		return err
	}
	cfg.Simulation.Obstacles, cfg.Simulation.Robots, cfg.Simulation.Speed = n, robots, speed
	return nil
}

func plannerConfig(p config.PlannerConfig) planner.Config {
	return planner.Config{
		PopulationSize: p.Population,
		MaxGenerations: p.MaxGenerations,
		MutateProb:     p.MutateProb,
		AddProb:        p.AddProb,
		RemoveProb:     p.RemoveProb,
		EliteRatio:     p.EliteRatio,
		MaxWaypoints:   p.MaxWaypoints,
		Sigma:          p.Sigma,
		FitnessK:       p.FitnessK,
	}
}
