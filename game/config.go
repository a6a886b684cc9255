package game

import (
	"github.com/pthm-cable/accrete/config"
	"github.com/pthm-cable/accrete/telemetry"
)

// Seed layouts.
const (
	LayoutCenter   = "center"   // one seed at the origin
	LayoutMirrored = "mirrored" // rotationally symmetric seed rings
	LayoutScript   = "script"   // Lua seed script
)

// Options configures game creation.
type Options struct {
	Seed           int64
	Config         *config.Config // nil uses config.Cfg()
	StatsWindowSec float64        // 0 uses telemetry.stats_window
	StepsPerUpdate int            // ticks per Update call, 0 uses spawn.ticks_per_update
	LogStats       bool
	OutputDir      string // CSV logs and config snapshot, empty disables
	SnapshotDir    string // JSON snapshots on bookmarks, empty disables

	// SeedLayout and SeedScript override field.seed_layout and field.seed_script.
	SeedLayout string
	SeedScript string

	// ResumePath restores the field from a snapshot instead of seeding it.
	ResumePath string

	StatsCallback func(telemetry.WindowStats)
}
