// Package lineage records the growth history of the static cluster as ECS entities,
// one per static particle.
package lineage

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/accrete/components"
	"github.com/pthm-cable/accrete/field"
)

// Summary aggregates the lineage tree.
type Summary struct {
	Seeds     int     `csv:"seeds"`
	Fusions   int     `csv:"fusions"`
	MaxDepth  int     `csv:"max_depth"`
	MeanDepth float64 `csv:"mean_depth"`
	Branches  int     `csv:"branches"` // particles with two or more children
	Tips      int     `csv:"tips"`     // particles nothing fused onto

	MeanCaptureAge float64 `csv:"mean_capture_age"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("seeds", s.Seeds),
		slog.Int("fusions", s.Fusions),
		slog.Int("max_depth", s.MaxDepth),
		slog.Float64("mean_depth", s.MeanDepth),
		slog.Int("branches", s.Branches),
		slog.Int("tips", s.Tips),
		slog.Float64("mean_capture_age", s.MeanCaptureAge),
	)
}

// Tracker mirrors static particles into an ECS world.
// Static particles are never removed, so a static index identifies its entity for the
// lifetime of the field.
type Tracker struct {
	field.NopRecorder

	world *ecs.World

	mapper *ecs.Map3[components.Fusion, components.Generation, components.Offspring]
	filter *ecs.Filter3[components.Fusion, components.Generation, components.Offspring]

	genMap       *ecs.Map1[components.Generation]
	offspringMap *ecs.Map1[components.Offspring]

	byStatic []ecs.Entity
	tick     int32
	now      float64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	world := ecs.NewWorld()
	return &Tracker{
		world:        world,
		mapper:       ecs.NewMap3[components.Fusion, components.Generation, components.Offspring](world),
		filter:       ecs.NewFilter3[components.Fusion, components.Generation, components.Offspring](world),
		genMap:       ecs.NewMap1[components.Generation](world),
		offspringMap: ecs.NewMap1[components.Offspring](world),
	}
}

// SetClock stamps subsequent records with the tick and simulation time.
func (t *Tracker) SetClock(tick int32, now float64) {
	t.tick = tick
	t.now = now
}

// Len returns the number of tracked particles.
func (t *Tracker) Len() int {
	return len(t.byStatic)
}

// RecordSeed registers an unanchored static particle.
func (t *Tracker) RecordSeed(index int, _ components.StaticParticle) {
	fusion := components.Fusion{
		Tick:        t.tick,
		StaticIndex: index,
		AnchorIndex: -1,
		StaticPort:  -1,
		MovingPort:  -1,
	}
	t.add(index, &fusion, 0)
}

// RecordFusion registers the particle created by c one generation below its anchor.
func (t *Tracker) RecordFusion(c field.Conversion) {
	depth := 1
	if anchor, ok := t.entity(c.AnchorIndex); ok {
		depth = t.genMap.Get(anchor).Depth + 1
		t.offspringMap.Get(anchor).Count++
	}
	fusion := components.Fusion{
		Tick:        t.tick,
		StaticIndex: c.NewIndex,
		AnchorIndex: c.AnchorIndex,
		StaticPort:  int8(c.Result.StaticPort()),
		MovingPort:  int8(c.Result.MovingPort()),
	}
	if c.MovingIndex >= 0 {
		fusion.CaptureAge = t.now - c.Since
	}
	t.add(c.NewIndex, &fusion, depth)
}

func (t *Tracker) add(index int, fusion *components.Fusion, depth int) {
	gen := components.Generation{Depth: depth}
	off := components.Offspring{}
	e := t.mapper.NewEntity(fusion, &gen, &off)

	for len(t.byStatic) <= index {
		t.byStatic = append(t.byStatic, ecs.Entity{})
	}
	t.byStatic[index] = e
}

func (t *Tracker) entity(index int) (ecs.Entity, bool) {
	if index < 0 || index >= len(t.byStatic) {
		return ecs.Entity{}, false
	}
	e := t.byStatic[index]
	if e.IsZero() || !t.world.Alive(e) {
		return ecs.Entity{}, false
	}
	return e, true
}

// Depth returns the generation of the static particle at index.
func (t *Tracker) Depth(index int) (int, bool) {
	e, ok := t.entity(index)
	if !ok {
		return 0, false
	}
	return t.genMap.Get(e).Depth, true
}

// Children returns how many particles fused onto the static particle at index.
func (t *Tracker) Children(index int) (int, bool) {
	e, ok := t.entity(index)
	if !ok {
		return 0, false
	}
	return t.offspringMap.Get(e).Count, true
}

// Summary walks every tracked particle.
func (t *Tracker) Summary() Summary {
	var s Summary
	totalDepth := 0
	totalAge := 0.0
	n := 0

	query := t.filter.Query()
	for query.Next() {
		fusion, gen, off := query.Get()
		n++
		if fusion.AnchorIndex < 0 {
			s.Seeds++
		} else {
			s.Fusions++
			totalAge += fusion.CaptureAge
		}
		totalDepth += gen.Depth
		if gen.Depth > s.MaxDepth {
			s.MaxDepth = gen.Depth
		}
		switch {
		case off.Count == 0:
			s.Tips++
		case off.Count >= 2:
			s.Branches++
		}
	}

	if n > 0 {
		s.MeanDepth = float64(totalDepth) / float64(n)
	}
	if s.Fusions > 0 {
		s.MeanCaptureAge = totalAge / float64(s.Fusions)
	}
	return s
}

// Reset drops every tracked particle.
func (t *Tracker) Reset() {
	for _, e := range t.byStatic {
		if !e.IsZero() && t.world.Alive(e) {
			t.world.RemoveEntity(e)
		}
	}
	t.byStatic = t.byStatic[:0]
}
