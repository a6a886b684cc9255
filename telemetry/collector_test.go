package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/accrete/components"
	"github.com/pthm-cable/accrete/field"
	"github.com/pthm-cable/accrete/lineage"
	"github.com/pthm-cable/accrete/systems"
)

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 0.1)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("expected 10 ticks per window, got %d", c.WindowDurationTicks())
	}

	c.RecordSpawn(true)
	c.RecordSpawn(false)
	c.RecordSeed(0, components.StaticParticle{})
	c.RecordRejection(systems.RejectTooFar)
	c.RecordRejection(systems.RejectTooFar)
	c.RecordRejection(systems.RejectPortBusy)
	c.RecordDropped()

	c.SetClock(5)
	c.RecordFusion(field.Conversion{MovingIndex: 0, Since: 3})
	c.RecordFusion(field.Conversion{MovingIndex: -1}) // placed, no drift time

	if c.ShouldFlush(9) {
		t.Error("window should not be complete at tick 9")
	}
	if !c.ShouldFlush(10) {
		t.Error("window should be complete at tick 10")
	}

	snap := FieldSample{
		Moving:         3,
		StaticCapacity: 10,
		StaticPositions: []components.Vector{
			components.Vec(0, 0), components.Vec(5, 0), components.Vec(0, 5), components.Vec(-5, 0),
		},
		Occupancy: []int{4},
		Lineage:   lineage.Summary{MaxDepth: 1, Tips: 3},
	}
	stats := c.Flush(10, snap)

	if stats.Static != 4 || stats.Moving != 3 {
		t.Errorf("unexpected population %d/%d", stats.Static, stats.Moving)
	}
	if math.Abs(stats.StaticFill-0.4) > 1e-9 {
		t.Errorf("expected static fill 0.4, got %v", stats.StaticFill)
	}
	if stats.Spawns != 2 || stats.BoundarySpawns != 1 || stats.Seeds != 1 || stats.Fusions != 2 || stats.Dropped != 1 {
		t.Errorf("unexpected event counts %+v", stats)
	}
	if stats.RejectTooFar != 2 || stats.RejectPortBusy != 1 {
		t.Errorf("unexpected rejections %d/%d", stats.RejectTooFar, stats.RejectPortBusy)
	}
	if stats.PairEvaluations != 6 {
		t.Errorf("expected 6 pair evaluations, got %d", stats.PairEvaluations)
	}
	if math.Abs(stats.FusionRate-2) > 1e-9 {
		t.Errorf("expected 2 fusions per second, got %v", stats.FusionRate)
	}
	if stats.CaptureAgeMean != 2 {
		t.Errorf("expected capture age 2, got %v", stats.CaptureAgeMean)
	}
	if stats.RadiusMax != 5 || stats.BucketMax != 4 || stats.MaxDepth != 1 || stats.Tips != 3 {
		t.Errorf("unexpected snapshot stats %+v", stats)
	}

	next := c.Flush(20, FieldSample{})
	if next.Fusions != 0 || next.Spawns != 0 || next.RejectTooFar != 0 || next.CaptureAgeMean != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if next.WindowStartTick != 10 {
		t.Errorf("expected window start 10, got %d", next.WindowStartTick)
	}
}
