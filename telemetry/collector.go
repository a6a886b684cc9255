// Package telemetry provides growth statistics, bookmarking, performance timing and
// CSV output for simulation runs.
package telemetry

import (
	"github.com/pthm-cable/accrete/components"
	"github.com/pthm-cable/accrete/field"
	"github.com/pthm-cable/accrete/lineage"
	"github.com/pthm-cable/accrete/systems"
)

// FieldSample is the field state sampled at the end of a window.
type FieldSample struct {
	Moving          int
	StaticCapacity  int
	StaticPositions []components.Vector
	Occupancy       []int
	BindRadius      float64
	Lineage         lineage.Summary
}

// Collector accumulates field events within time windows and produces WindowStats.
// It implements field.Recorder.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32
	now             float64

	// Event counters for current window
	spawns         int
	boundarySpawns int
	seeds          int
	fusions        int
	dropped        int
	rejections     [systems.NumRejections]int
	captureAges    []float64
}

var _ field.Recorder = (*Collector)(nil)

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec/dt + 0.5)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// SetClock sets the simulation time used to age fused particles.
func (c *Collector) SetClock(now float64) {
	c.now = now
}

// RecordSpawn records a new moving particle.
func (c *Collector) RecordSpawn(boundary bool) {
	c.spawns++
	if boundary {
		c.boundarySpawns++
	}
}

// RecordRejection records a failed pair evaluation.
func (c *Collector) RecordRejection(why systems.Rejection) {
	c.rejections[why]++
}

// RecordDropped records a match lost to an earlier conversion in the same batch.
func (c *Collector) RecordDropped() {
	c.dropped++
}

// RecordFusion records a conversion.
func (c *Collector) RecordFusion(conv field.Conversion) {
	c.fusions++
	if conv.MovingIndex >= 0 {
		c.captureAges = append(c.captureAges, c.now-conv.Since)
	}
}

// RecordSeed records a free static particle.
func (c *Collector) RecordSeed(int, components.StaticParticle) {
	c.seeds++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, snap FieldSample) WindowStats {
	elapsed := float64(currentTick-c.windowStartTick) * c.dt

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Moving: snap.Moving,
		Static: len(snap.StaticPositions),

		Spawns:         c.spawns,
		BoundarySpawns: c.boundarySpawns,
		Seeds:          c.seeds,
		Fusions:        c.fusions,
		Dropped:        c.dropped,

		RejectTooFar:   c.rejections[systems.RejectTooFar],
		RejectPortBusy: c.rejections[systems.RejectPortBusy],
		RejectNoPort:   c.rejections[systems.RejectNoPortAtAngle],
		RejectSiteMask: c.rejections[systems.RejectSiteNotAttachable],

		MaxDepth:  snap.Lineage.MaxDepth,
		MeanDepth: snap.Lineage.MeanDepth,
		Branches:  snap.Lineage.Branches,
		Tips:      snap.Lineage.Tips,
	}
	for _, n := range c.rejections {
		stats.PairEvaluations += n
	}
	stats.PairEvaluations += c.fusions + c.dropped

	if snap.StaticCapacity > 0 {
		stats.StaticFill = float64(stats.Static) / float64(snap.StaticCapacity)
	}
	if elapsed > 0 {
		stats.FusionRate = float64(c.fusions) / elapsed
	}

	stats.CaptureAgeMean, stats.CaptureAgeP50, stats.CaptureAgeP90 = Quantiles(c.captureAges)

	radii := Radii(snap.StaticPositions, components.Vector{})
	stats.RadiusMean, stats.RadiusP50, stats.RadiusP90 = Quantiles(radii)
	for _, r := range radii {
		stats.RadiusMax = max(stats.RadiusMax, r)
	}
	stats.GyrationRadius = GyrationRadius(snap.StaticPositions)
	stats.FractalDimension = FractalDimension(radii, snap.BindRadius)
	stats.BucketMax, stats.BucketMean = Occupancy(snap.Occupancy)

	c.Reset(currentTick)
	return stats
}

// Reset discards the current window and starts a new one at tick.
func (c *Collector) Reset(tick int32) {
	c.windowStartTick = tick
	c.spawns = 0
	c.boundarySpawns = 0
	c.seeds = 0
	c.fusions = 0
	c.dropped = 0
	c.rejections = [systems.NumRejections]int{}
	c.captureAges = c.captureAges[:0]
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
