// Package field runs the growth simulation: moving particles drift under Brownian and
// attractor forces and fuse onto static particles through port matching.
//
// A Field is single-threaded. Every exported method runs to completion; buffers handed out
// are snapshots valid only until the next mutating call.
package field

import (
	"errors"
	"fmt"
	"iter"

	"github.com/pthm-cable/accrete/components"
	"github.com/pthm-cable/accrete/systems"
)

// Default capacities and limits.
const (
	DefaultMaxMoving  = 1000
	DefaultMaxStatic  = 5000
	DefaultBatchLimit = 4
)

// Params configures a Field.
type Params struct {
	Bins       int // spatial buckets per axis
	MaxMoving  int
	MaxStatic  int
	BatchLimit int // conversions per UpdateAttachments call

	// Attenuation scales the centre attractor.
	Attenuation float64

	// Configs is the binding configuration registry, indexed by configuration id.
	Configs []systems.BindingConfiguration

	// SpawnConfig is the configuration id given to new particles.
	SpawnConfig uint8
}

// DefaultParams returns the stock parameters: hexagonal binding, 36 bins.
func DefaultParams() Params {
	return Params{
		Bins:        systems.DefaultBins,
		MaxMoving:   DefaultMaxMoving,
		MaxStatic:   DefaultMaxStatic,
		BatchLimit:  DefaultBatchLimit,
		Attenuation: 1.0,
		Configs:     []systems.BindingConfiguration{systems.Hexa()},
	}
}

// Conversion describes a moving particle that fused into a new static particle.
type Conversion struct {
	MovingIndex int // index in the moving container before the batch removal
	AnchorIndex int // static particle it fused to
	NewIndex    int // index of the new static particle
	Result      systems.BindingResult
	Particle    components.StaticParticle
	Since       float64 // spawn time of the moving particle
}

// Field owns the moving and static particles of one simulation.
type Field struct {
	half     components.Vector
	params   Params
	rng      systems.RandomSource
	recorder Recorder

	moving *systems.Container[components.MovingParticle]
	static *systems.IndexedContainer[components.StaticParticle]
}

// New creates an elliptical field spanning -half..+half on each axis with default params.
func New(halfWidth, halfHeight float64, rng systems.RandomSource) *Field {
	return NewWithParams(halfWidth, halfHeight, DefaultParams(), rng)
}

// NewWithParams creates a field with explicit params. Zero values fall back to defaults.
func NewWithParams(halfWidth, halfHeight float64, params Params, rng systems.RandomSource) *Field {
	def := DefaultParams()
	if params.Bins <= 0 {
		params.Bins = def.Bins
	}
	if params.MaxMoving <= 0 {
		params.MaxMoving = def.MaxMoving
	}
	if params.MaxStatic <= 0 {
		params.MaxStatic = def.MaxStatic
	}
	if params.BatchLimit <= 0 {
		params.BatchLimit = def.BatchLimit
	}
	if len(params.Configs) == 0 {
		params.Configs = def.Configs
	}
	if int(params.SpawnConfig) >= len(params.Configs) {
		params.SpawnConfig = 0
	}

	return &Field{
		half:   components.Vec(halfWidth, halfHeight),
		params: params,
		rng:    rng,
		moving: systems.NewContainer[components.MovingParticle](params.MaxMoving),
		static: systems.NewIndexedContainer[components.StaticParticle](params.MaxStatic, halfWidth, halfHeight, params.Bins),
	}
}

// SetRecorder installs an event observer; nil disables recording.
func (f *Field) SetRecorder(r Recorder) {
	f.recorder = r
}

// Params returns the effective parameters.
func (f *Field) Params() Params {
	return f.params
}

// HalfExtents returns the field half width and half height.
func (f *Field) HalfExtents() components.Vector {
	return f.half
}

// Config returns the binding configuration for id, falling back to id 0.
func (f *Field) Config(id uint8) *systems.BindingConfiguration {
	if int(id) >= len(f.params.Configs) {
		id = 0
	}
	return &f.params.Configs[id]
}

// AddParticle spawns a moving particle anywhere in the field. Nothing happens when the
// moving container is full.
func (f *Field) AddParticle() {
	if f.moving.IsFull() {
		return
	}
	f.spawn(systems.RandomPosInEllipse(f.rng, f.half), 0, false)
}

// AddBoundaryParticle spawns a moving particle on the field boundary at time since.
// Nothing happens when the moving container is full.
func (f *Field) AddBoundaryParticle(since float64) {
	if f.moving.IsFull() {
		return
	}
	f.spawn(systems.RandomBoundaryPos(f.rng, f.half), since, true)
}

func (f *Field) spawn(pos components.Vector, since float64, boundary bool) {
	p := components.MovingParticle{
		Pos:   pos,
		Vel:   systems.RandomDirection(f.rng),
		Since: since,
	}.WithConfigID(f.params.SpawnConfig)
	if _, err := f.moving.Add(p); errors.Is(err, systems.ErrFull) {
		return
	}
	if f.recorder != nil {
		f.recorder.RecordSpawn(boundary)
	}
}

// AddStaticParticle places a static particle at pos, respecting existing binding sites.
// With no static particle within binding range a free particle is created at pos. When
// particles are in range the new one must bind to one of them, snapping to its port;
// it reports false if every nearby site is busy or the static container is full.
func (f *Field) AddStaticParticle(pos components.Vector) bool {
	if f.static.IsFull() {
		return false
	}
	m := components.MovingParticle{
		Pos: pos,
		Vel: systems.RandomDirection(f.rng),
	}.WithConfigID(f.params.SpawnConfig)
	cfgM := f.Config(m.ConfigID())

	nearby := false
	for idx, s := range f.static.Neighbors(pos) {
		cfgS := f.Config(s.ConfigID())
		if !cfgS.CloseEnough(s.Pos, pos) {
			continue
		}
		nearby = true
		result, why := systems.Evaluate(m, s, cfgM, cfgS)
		if why != systems.Matched {
			f.recordRejection(why)
			continue
		}
		if c, ok := f.convert(m, -1, idx, result); ok {
			if f.recorder != nil {
				f.recorder.RecordFusion(c)
			}
			return true
		}
	}
	if nearby {
		return false
	}

	seed := components.StaticParticle{
		Pos:     pos,
		Binding: components.NewBindingWord(m.ConfigID(), -1),
	}
	idx, err := f.static.Add(seed)
	if err != nil {
		return false
	}
	if f.recorder != nil {
		f.recorder.RecordSeed(idx, seed)
	}
	return true
}

// Restore replaces the field contents with the given particles, preserving their order.
// It fails without touching the field when either set exceeds its capacity.
func (f *Field) Restore(moving []components.MovingParticle, static []components.StaticParticle) error {
	if len(moving) > f.moving.Cap() {
		return fmt.Errorf("%d moving particles: %w", len(moving), systems.ErrFull)
	}
	if len(static) > f.static.Cap() {
		return fmt.Errorf("%d static particles: %w", len(static), systems.ErrFull)
	}

	half := f.half
	f.moving = systems.NewContainer[components.MovingParticle](f.params.MaxMoving)
	f.static = systems.NewIndexedContainer[components.StaticParticle](f.params.MaxStatic, half.X, half.Y, f.params.Bins)
	for _, p := range moving {
		f.moving.Add(p)
	}
	for _, p := range static {
		f.static.Add(p)
	}
	return nil
}

// UpdatePositions advances every moving particle by velocity×dt.
func (f *Field) UpdatePositions(dt float64) {
	f.moving.ApplyToAll(func(p *components.MovingParticle) {
		p.Pos = components.Add(p.Pos, components.Scale(dt, p.Vel))
	})
}

// UpdateVelocities steers every moving particle by a Brownian direction and the centre
// attractor, then renormalises the velocity.
func (f *Field) UpdateVelocities(dt float64) {
	fill := float64(f.static.Len()) / float64(f.static.Cap())
	f.moving.ApplyToAll(func(p *components.MovingParticle) {
		brownian := systems.RandomDirection(f.rng)
		attractor := systems.CenterAttractor(p.Pos, f.half)
		force := systems.AttractorForce(attractor, f.params.Attenuation, fill)
		p.Vel = systems.SteerVelocity(p.Vel, attractor, force, brownian, dt)
	})
}

// Step runs one tick: attachments, then positions, then velocities.
func (f *Field) Step(positionDelta, velocityDelta float64) []Conversion {
	conversions := f.UpdateAttachments()
	f.UpdatePositions(positionDelta)
	f.UpdateVelocities(velocityDelta)
	return conversions
}

// NumMoving returns the live moving particle count.
func (f *Field) NumMoving() int {
	return f.moving.Len()
}

// NumStatic returns the live static particle count.
func (f *Field) NumStatic() int {
	return f.static.Len()
}

// Capacities returns the moving and static capacities.
func (f *Field) Capacities() (moving, static int) {
	return f.moving.Cap(), f.static.Cap()
}

// Moving returns the moving particle at index.
func (f *Field) Moving(index int) (components.MovingParticle, error) {
	return f.moving.At(index)
}

// Static returns the static particle at index.
func (f *Field) Static(index int) (components.StaticParticle, error) {
	return f.static.At(index)
}

// MovingParticles returns the live moving particles.
func (f *Field) MovingParticles() []components.MovingParticle {
	return f.moving.Live()
}

// StaticParticles returns the live static particles.
func (f *Field) StaticParticles() []components.StaticParticle {
	return f.static.Live()
}

// MovingBuffer returns the whole moving buffer; entries past NumMoving are stale.
func (f *Field) MovingBuffer() []components.MovingParticle {
	return f.moving.Raw()
}

// StaticBuffer returns the whole static buffer; entries past NumStatic are stale.
func (f *Field) StaticBuffer() []components.StaticParticle {
	return f.static.Raw()
}

// StaticClusters yields the static particles grouped by spatial bucket.
func (f *Field) StaticClusters() iter.Seq[[]systems.Handle[components.StaticParticle]] {
	return f.static.Clusters()
}

// BucketOccupancy returns the number of static particles per spatial bucket.
func (f *Field) BucketOccupancy() []int {
	return f.static.Bins().Occupancy()
}

func (f *Field) recordRejection(r systems.Rejection) {
	if f.recorder != nil {
		f.recorder.RecordRejection(r)
	}
}
