package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/accrete/config"
	"github.com/pthm-cable/accrete/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml or config.toml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = run until saturated)")
	stepsPerUpdate := flag.Int("steps-per-update", 0, "Simulation ticks per update call (0 = use config)")
	seedLayout := flag.String("seed-layout", "", "Seed layout: center, mirrored or script (empty = use config)")
	seedScript := flag.String("seed-script", "", "Lua seed script for the script layout")
	resume := flag.String("resume", "", "Resume from a snapshot file")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		Config:         config.Cfg(),
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		StepsPerUpdate: *stepsPerUpdate,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
		SeedLayout:     *seedLayout,
		SeedScript:     *seedScript,
		ResumePath:     *resume,
	}

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}
	defer g.Unload()

	slog.Info("starting simulation",
		"seed", rngSeed,
		"max_ticks", *maxTicks,
		"steps_per_update", *stepsPerUpdate,
	)

	start := time.Now()
	for {
		g.Update()

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			break
		}
		if g.Saturated() {
			slog.Info("field saturated", "tick", g.Tick())
			break
		}
	}

	if *snapshotDir != "" {
		if path, err := g.SaveSnapshot(); err != nil {
			slog.Error("failed to save final snapshot", "error", err)
		} else {
			slog.Info("final snapshot saved", "path", path)
		}
	}
	g.LogSummary()
	slog.Info("done", "elapsed", time.Since(start).Round(time.Millisecond).String())
}
