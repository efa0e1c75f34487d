package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/meadow/config"
	"github.com/pthm-cable/meadow/sim"
	"github.com/pthm-cable/meadow/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "out", "Output directory for snapshot CSVs")
	seed := flag.Int64("seed", 0, "Population RNG seed (0 = use config)")
	terrainSeed := flag.Int64("terrain-seed", 0, "Terrain RNG seed (0 = use config)")
	maxTicks := flag.Int("max-ticks", 0, "Tick budget (0 = use config)")
	logStats := flag.Bool("log-stats", false, "Log a population summary on every flush")
	checkInvariants := flag.Bool("check-invariants", false, "Verify world/population state after every tick")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Apply CLI overrides
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *terrainSeed != 0 {
		cfg.Terrain.Seed = *terrainSeed
	}
	if *maxTicks != 0 {
		cfg.Simulation.MaxTicks = *maxTicks
	}
	if *checkInvariants {
		cfg.Simulation.CheckInvariants = true
	}
	cfg.ComputeDerived()

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	sink, err := telemetry.NewCSVSink(*outputDir, cfg)
	if err != nil {
		slog.Error("failed to open snapshot sink", "error", err)
		os.Exit(1)
	}

	s, err := sim.New(sim.Options{Config: cfg, Sink: sink, LogStats: *logStats})
	if err != nil {
		slog.Error("failed to initialize simulation", "error", err)
		os.Exit(1)
	}

	slog.Info("starting simulation",
		"width", cfg.World.Width,
		"height", cfg.World.Height,
		"max_ticks", cfg.Simulation.MaxTicks,
		"seed", cfg.Simulation.Seed,
		"terrain_seed", cfg.Terrain.Seed,
		"initial_population", s.Alive(),
		"output_dir", sink.Dir(),
	)

	if err := s.Run(); err != nil {
		slog.Error("simulation aborted", "error", err)
		sink.Close()
		os.Exit(1)
	}

	if err := sink.Close(); err != nil {
		slog.Error("failed to close snapshot sink", "error", err)
		os.Exit(1)
	}

	slog.Info("simulation complete",
		"ticks", s.Tick(),
		"population", s.Alive(),
		"output_dir", sink.Dir(),
	)
}
