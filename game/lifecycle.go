package game

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/accrete/components"
	"github.com/pthm-cable/accrete/scripting"
	"github.com/pthm-cable/accrete/telemetry"
)

// start spawns the initial moving particles and seeds the field.
func (g *Game) start(opts Options) error {
	for i := 0; i < g.cfg.Spawn.StartParticles; i++ {
		g.field.AddParticle()
	}

	layout := opts.SeedLayout
	if layout == "" {
		layout = g.cfg.Field.SeedLayout
	}
	script := opts.SeedScript
	if script == "" {
		script = g.cfg.Field.SeedScript
	}

	switch layout {
	case "", LayoutCenter:
	case LayoutMirrored:
		g.seedMirrored()
	case LayoutScript:
		if err := g.seedScript(script); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown seed layout %q", layout)
	}

	// Growth needs at least one static particle.
	if g.field.NumStatic() == 0 {
		g.field.AddStaticParticle(components.Vector{})
	}

	slog.Info("field seeded",
		"layout", layout,
		"static", g.field.NumStatic(),
		"moving", g.field.NumMoving(),
	)
	return nil
}

// seedMirrored places rings of seeds with a random rotational symmetry.
// Later rings sit further out; each seed is repeated at every mirror angle.
func (g *Game) seedMirrored() {
	sp := g.cfg.Spawn
	lo, hi := sp.MinMirrors, max(sp.MaxMirrors, sp.MinMirrors)
	mirrors := lo + g.rng.Intn(hi-lo+1)
	if mirrors < 1 {
		mirrors = 1
	}

	half := float64(mirrors) / 2
	points := 1 + int(half) + int(g.rng.Float64()*math.Max(6-half, 0))
	width := g.cfg.Field.HalfWidth

	for i := 0; i < points; i++ {
		th := g.rng.Float64() * 2 * math.Pi
		r := (0.2 + g.rng.Float64()) * (float64(i+1) * 0.5 / float64(points)) * width
		for m := 0; m < mirrors; m++ {
			s, c := math.Sincos(th + float64(m)*2*math.Pi/float64(mirrors))
			g.field.AddStaticParticle(components.Vec(s*r, c*r))
		}
	}
	slog.Debug("mirrored seeds", "mirrors", mirrors, "points", points)
}

func (g *Game) seedScript(path string) error {
	if path == "" {
		return fmt.Errorf("seed layout %q needs a seed script", LayoutScript)
	}
	engine := scripting.NewEngine(g.field, g.rng)
	defer engine.Close()
	if err := engine.RunFile(path); err != nil {
		return fmt.Errorf("seed script: %w", err)
	}
	return nil
}

// resume restores the field from a snapshot. Restored static particles enter the
// lineage as seeds; their history is not part of the snapshot.
func (g *Game) resume(path string) error {
	snapshot, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return err
	}
	if err := snapshot.Restore(g.field); err != nil {
		return err
	}
	g.tick = snapshot.Tick
	g.collector.Reset(g.tick)
	for i, p := range g.field.StaticParticles() {
		g.tracker.RecordSeed(i, p)
	}

	slog.Info("resumed from snapshot",
		"path", path,
		"tick", g.tick,
		"static", g.field.NumStatic(),
		"moving", g.field.NumMoving(),
	)
	return nil
}
