// Command tribesim runs the hunter-gatherer ecosystem simulation with an
// interactive console, an optional HTTP control plane and an optional run
// journal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/tribesim/internal/api"
	"github.com/talgya/tribesim/internal/config"
	"github.com/talgya/tribesim/internal/console"
	"github.com/talgya/tribesim/internal/engine"
	"github.com/talgya/tribesim/internal/entropy"
	"github.com/talgya/tribesim/internal/persistence"
)

func main() {
	if err := run(); err != nil {
		slog.Error("tribesim failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		seed       int64
		live       bool
		batchDays  int
	)
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.Int64Var(&seed, "seed", 0, "random seed (overrides config when non-zero)")
	flag.BoolVar(&live, "live", false, "advance one day per live.interval in the background")
	flag.IntVar(&batchDays, "days", 0, "simulate n days, print the summary and exit")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if seed != 0 {
		cfg.Seed = seed
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	// Logs go to stderr so the console owns stdout.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	// Scripted runs stay reproducible; random.org is only used live.
	randomKey := ""
	if live {
		randomKey = cfg.RandomOrgKey
	}
	src := entropy.FromConfig(randomKey, cfg.Seed)
	if _, ok := src.(*entropy.Client); ok {
		slog.Warn("using random.org entropy, run is not reproducible")
	}

	sim := engine.NewSimulation(cfg.Params, src)
	eng := engine.NewEngine(sim)
	eng.Interval = cfg.Live.Interval
	eng.Speed = cfg.Live.Speed

	slog.Info("simulation ready",
		"seed", cfg.Seed,
		"humans", cfg.Params.InitialHumans,
		"animals", cfg.Params.InitialAnimals,
		"plants", cfg.Params.InitialPlants,
		"season_length", cfg.Params.SeasonLength,
	)

	var recorder *persistence.Recorder
	if cfg.JournalDSN != "" {
		journal, err := persistence.Open(cfg.JournalDSN)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer journal.Close()

		recorder, err = persistence.NewRecorder(ctx, journal, cfg.Seed, cfg.Params)
		if err != nil {
			return err
		}
		eng.OnDay = recorder.Record
	}

	if batchDays > 0 {
		eng.Advance(batchDays)
		eng.With(func(sim *engine.Simulation) {
			console.StatusReport(os.Stdout, sim)
			console.SummaryReport(os.Stdout, sim.Summary())
		})
		return nil
	}

	if cfg.API.Port > 0 {
		if cfg.API.AdminKey == "" {
			slog.Warn("TRIBESIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		srv := &api.Server{
			Eng:         eng,
			Recorder:    recorder,
			Port:        cfg.API.Port,
			AdminKey:    cfg.API.AdminKey,
			CORSOrigins: cfg.API.CORSOrigins,
			Limiter:     api.NewRateLimiter(ctx, cfg.API.RateLimit, cfg.API.RateWindow),
		}
		h := srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP shutdown failed", "error", err)
			}
		}()
	}

	if live {
		go func() {
			if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("live engine stopped", "error", err)
			}
		}()
	}

	con := console.New(eng, os.Stdout)
	if recorder != nil {
		con.OnOverride = recorder.RecordEvents
	}
	done := make(chan error, 1)
	go func() { done <- con.Run(ctx, os.Stdin) }()

	select {
	case <-ctx.Done():
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("console stopped", "error", err)
		}
	}
	eng.Stop()

	var summary engine.Summary
	eng.With(func(sim *engine.Simulation) { summary = sim.Summary() })
	console.SummaryReport(os.Stdout, summary)
	slog.Info("simulation finished", "day", summary.Day, "humans", summary.Humans, "migrations", summary.TotalMigrations)
	return nil
}
