// Package game drives a growth field headlessly: seeding, spawning, stepping and
// telemetry.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/accrete/config"
	"github.com/pthm-cable/accrete/field"
	"github.com/pthm-cable/accrete/lineage"
	"github.com/pthm-cable/accrete/telemetry"
)

// Game holds the complete simulation state.
type Game struct {
	cfg     *config.Config
	rng     *rand.Rand
	rngSeed int64

	field   *field.Field
	tracker *lineage.Tracker

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	statsCallback    func(telemetry.WindowStats)
	logStats         bool
	snapshotDir      string

	// State
	tick           int32
	dt             float64
	stepsPerUpdate int
	lastStats      telemetry.WindowStats
}

// NewGameWithOptions creates a game, seeds the field and spawns the starting particles.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	dt := cfg.Spawn.FrameDT
	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	steps := opts.StepsPerUpdate
	if steps <= 0 {
		steps = max(cfg.Spawn.TicksPerUpdate, 1)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	params := field.Params{
		Bins:        cfg.Field.Bins,
		MaxMoving:   cfg.Field.MaxMoving,
		MaxStatic:   cfg.Field.MaxStatic,
		BatchLimit:  cfg.Field.BatchLimit,
		Attenuation: cfg.Motion.AttractorAttenuation,
		Configs:     cfg.Derived.Bindings,
		SpawnConfig: cfg.Derived.SpawnConfigID,
	}

	g := &Game{
		cfg:              cfg,
		rng:              rng,
		rngSeed:          opts.Seed,
		field:            field.NewWithParams(cfg.Field.HalfWidth, cfg.Field.HalfHeight, params, rng),
		tracker:          lineage.NewTracker(),
		collector:        telemetry.NewCollector(statsWindow, dt),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Bookmarks),
		statsCallback:    opts.StatsCallback,
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
		dt:               dt,
		stepsPerUpdate:   steps,
	}
	g.field.SetRecorder(field.MultiRecorder{g.collector, g.tracker})

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	if opts.ResumePath != "" {
		if err := g.resume(opts.ResumePath); err != nil {
			om.Close()
			return nil, err
		}
	} else if err := g.start(opts); err != nil {
		om.Close()
		return nil, err
	}

	return g, nil
}

// Update runs StepsPerUpdate simulation ticks.
func (g *Game) Update() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.simulationStep()
	}
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// SimTime returns the simulated time in seconds.
func (g *Game) SimTime() float64 {
	return float64(g.tick) * g.dt
}

// Field returns the simulated field.
func (g *Game) Field() *field.Field {
	return g.field
}

// Lineage returns the growth history tracker.
func (g *Game) Lineage() *lineage.Tracker {
	return g.tracker
}

// LastStats returns the most recently flushed window.
func (g *Game) LastStats() telemetry.WindowStats {
	return g.lastStats
}

// Saturated reports that growth is over: the static container is full, or the particle
// budget is spent and no moving particle is left to fuse.
func (g *Game) Saturated() bool {
	_, staticCap := g.field.Capacities()
	if g.field.NumStatic() >= staticCap {
		return true
	}
	budgetSpent := g.field.NumMoving()+g.field.NumStatic() >= g.cfg.Spawn.MaxParticles
	return budgetSpent && g.field.NumMoving() == 0
}

// Unload exports the final static cluster and closes output files.
func (g *Game) Unload() {
	if g.outputManager == nil {
		return
	}
	if err := g.outputManager.WriteStatic(g.field.StaticParticles(), g.tracker.Depth); err != nil {
		slog.Error("failed to write static export", "error", err)
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.outputManager = nil
}
