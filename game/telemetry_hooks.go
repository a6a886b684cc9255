package game

import (
	"log/slog"

	"github.com/pthm-cable/accrete/components"
	"github.com/pthm-cable/accrete/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.sampleField())
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}

		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}

		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// sampleField gathers the field state the window statistics are computed from.
func (g *Game) sampleField() telemetry.FieldSample {
	static := g.field.StaticParticles()
	positions := make([]components.Vector, len(static))
	for i, p := range static {
		positions[i] = p.Pos
	}
	_, staticCap := g.field.Capacities()

	return telemetry.FieldSample{
		Moving:          g.field.NumMoving(),
		StaticCapacity:  staticCap,
		StaticPositions: positions,
		Occupancy:       g.field.BucketOccupancy(),
		BindRadius:      g.field.Config(g.field.Params().SpawnConfig).Radius,
		Lineage:         g.tracker.Summary(),
	}
}

// saveSnapshot writes the current field to the snapshot directory.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	snapshot := telemetry.NewSnapshot(g.field, g.rngSeed, g.tick, g.SimTime())
	snapshot.Bookmark = bookmark

	path, err := telemetry.SaveSnapshot(snapshot, g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}

// SaveSnapshot writes the current field to the snapshot directory without a bookmark.
// It returns the file path, or "" when snapshots are disabled.
func (g *Game) SaveSnapshot() (string, error) {
	if g.snapshotDir == "" {
		return "", nil
	}
	snapshot := telemetry.NewSnapshot(g.field, g.rngSeed, g.tick, g.SimTime())
	return telemetry.SaveSnapshot(snapshot, g.snapshotDir)
}
