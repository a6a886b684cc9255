package game

import "log/slog"

// LogSummary logs the final field state and lineage.
func (g *Game) LogSummary() {
	movingCap, staticCap := g.field.Capacities()
	slog.Info("run summary",
		"tick", g.tick,
		"sim_time", g.SimTime(),
		"moving", g.field.NumMoving(),
		"moving_cap", movingCap,
		"static", g.field.NumStatic(),
		"static_cap", staticCap,
		"saturated", g.Saturated(),
		"lineage", g.tracker.Summary(),
		"last_window", g.lastStats,
	)
}
