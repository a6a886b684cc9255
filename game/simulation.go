package game

import (
	"math"

	"github.com/pthm-cable/accrete/telemetry"
)

// simulationStep runs a single tick of the simulation.
func (g *Game) simulationStep() {
	now := g.SimTime()
	g.collector.SetClock(now)
	g.tracker.SetClock(g.tick, now)

	g.perfCollector.StartTick()

	// 1. Fuse moving particles onto the cluster
	g.perfCollector.StartPhase(telemetry.PhaseAttachments)
	g.field.UpdateAttachments()

	// 2. Drift
	g.perfCollector.StartPhase(telemetry.PhasePositions)
	g.field.UpdatePositions(g.cfg.Motion.PositionDelta)

	// 3. Steer
	g.perfCollector.StartPhase(telemetry.PhaseVelocities)
	g.field.UpdateVelocities(g.cfg.Motion.VelocityDelta)

	// 4. Boundary spawns
	g.perfCollector.StartPhase(telemetry.PhaseSpawn)
	g.updateSpawning(now)

	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// updateSpawning adds a boundary particle as a Poisson process while the particle budget
// lasts. The rate grows with the cluster so supply keeps up with capture.
func (g *Game) updateSpawning(now float64) {
	sp := g.cfg.Spawn
	if g.field.NumMoving()+g.field.NumStatic() >= sp.MaxParticles {
		return
	}

	rate := sp.SpawnRate
	if now > 0 {
		rate += float64(g.field.NumStatic()) / now
	}
	if g.rng.Float64() < spawnProbability(rate, g.dt) {
		g.field.AddBoundaryParticle(now)
	}
}

// spawnProbability is the chance of at least one arrival within dt at rate per second.
func spawnProbability(rate, dt float64) float64 {
	if rate <= 0 || dt <= 0 {
		return 0
	}
	return 1 - math.Exp(-rate*dt)
}
