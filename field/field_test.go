package field

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/accrete/components"
	"github.com/pthm-cable/accrete/systems"
)

type countingRecorder struct {
	spawns     int
	boundary   int
	rejections [systems.NumRejections]int
	dropped    int
	fusions    []Conversion
	seeds      int
}

func (r *countingRecorder) RecordSpawn(boundary bool) {
	r.spawns++
	if boundary {
		r.boundary++
	}
}
func (r *countingRecorder) RecordRejection(why systems.Rejection) { r.rejections[why]++ }
func (r *countingRecorder) RecordDropped()                        { r.dropped++ }
func (r *countingRecorder) RecordFusion(c Conversion)             { r.fusions = append(r.fusions, c) }
func (r *countingRecorder) RecordSeed(int, components.StaticParticle) {
	r.seeds++
}

func smallField(t *testing.T) *Field {
	t.Helper()
	params := DefaultParams()
	params.Bins = 4
	return NewWithParams(10, 10, params, rand.New(rand.NewSource(1)))
}

func addMover(t *testing.T, f *Field, x, y float64) {
	t.Helper()
	if _, err := f.moving.Add(components.MovingParticle{
		Pos: components.Vec(x, y),
		Vel: components.Vec(1, 0),
	}); err != nil {
		t.Fatalf("add mover: %v", err)
	}
}

func near(a, b components.Vector) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestNewFieldIsEmpty(t *testing.T) {
	f := New(100, 50, rand.New(rand.NewSource(1)))
	if f.NumMoving() != 0 || f.NumStatic() != 0 {
		t.Errorf("expected empty field, got %d moving %d static", f.NumMoving(), f.NumStatic())
	}
	moving, static := f.Capacities()
	if moving != DefaultMaxMoving || static != DefaultMaxStatic {
		t.Errorf("unexpected capacities %d/%d", moving, static)
	}
	if len(f.MovingBuffer()) != DefaultMaxMoving || len(f.StaticBuffer()) != DefaultMaxStatic {
		t.Error("raw buffers should span the full capacity")
	}
	if f.HalfExtents() != components.Vec(100, 50) {
		t.Errorf("unexpected half extents %v", f.HalfExtents())
	}
}

func TestAttachmentScenario(t *testing.T) {
	f := smallField(t)
	if !f.AddStaticParticle(components.Vec(0, 0)) {
		t.Fatal("seed rejected")
	}
	addMover(t, f, 1, 0)
	addMover(t, f, -5, 1) // just outside the radius
	addMover(t, f, 2, 2)  // same port as the first, loses the race
	addMover(t, f, -5, 6)

	pending := f.collectAttachments()
	if len(pending) != 2 || pending[0].moving != 0 || pending[1].moving != 2 {
		t.Fatalf("expected matches for movers 0 and 2, got %+v", pending)
	}

	conversions := f.UpdateAttachments()
	if len(conversions) != 1 {
		t.Fatalf("expected 1 conversion, got %d", len(conversions))
	}
	if f.NumStatic() != 2 || f.NumMoving() != 3 {
		t.Errorf("expected 2 static and 3 moving, got %d and %d", f.NumStatic(), f.NumMoving())
	}

	fused, _ := f.Static(1)
	if want := components.Scale(5, components.FromDegrees(30)); !near(fused.Pos, want) {
		t.Errorf("fused particle at %v, want %v", fused.Pos, want)
	}

	if again := f.UpdateAttachments(); len(again) != 0 {
		t.Errorf("expected no further attachments, got %d", len(again))
	}
	if len(f.collectAttachments()) != 0 {
		t.Error("expected no pending matches")
	}
}

func TestAttachmentWithTwoStatics(t *testing.T) {
	f := smallField(t)
	f.AddStaticParticle(components.Vec(0, 0))
	if _, err := f.static.Add(components.StaticParticle{
		Pos:     components.Vec(1, 0),
		Binding: components.NewBindingWord(0, -1),
	}); err != nil {
		t.Fatal(err)
	}
	addMover(t, f, -5, 1)
	addMover(t, f, 2, 2)
	addMover(t, f, -5, 6)

	pending := f.collectAttachments()
	if len(pending) != 1 || pending[0].moving != 1 {
		t.Fatalf("expected a single match for mover 1, got %+v", pending)
	}
	f.UpdateAttachments()
	if len(f.collectAttachments()) != 0 {
		t.Error("expected no pending matches after update")
	}
}

func TestAttachmentBatchIsCapped(t *testing.T) {
	params := DefaultParams()
	f := NewWithParams(100, 100, params, rand.New(rand.NewSource(1)))
	f.AddStaticParticle(components.Vec(0, 0))
	for _, deg := range []float64{30, 90, 150, 210, 270} {
		p := components.FromDegrees(deg)
		addMover(t, f, p.X, p.Y)
	}

	first := f.UpdateAttachments()
	if len(first) != DefaultBatchLimit {
		t.Fatalf("expected %d conversions, got %d", DefaultBatchLimit, len(first))
	}
	if f.NumMoving() != 1 || f.NumStatic() != 5 {
		t.Errorf("expected 1 moving and 5 static, got %d and %d", f.NumMoving(), f.NumStatic())
	}

	second := f.UpdateAttachments()
	if len(second) != 1 {
		t.Fatalf("expected the last mover to fuse, got %d", len(second))
	}
	if f.NumMoving() != 0 || f.NumStatic() != 6 {
		t.Errorf("expected 0 moving and 6 static, got %d and %d", f.NumMoving(), f.NumStatic())
	}

	seed, _ := f.Static(0)
	if seed.Binding.BusyCount() != 5 {
		t.Errorf("expected the seed to carry 5 binds, got %d", seed.Binding.BusyCount())
	}
}

func TestAttachmentDroppedWhenStaticFull(t *testing.T) {
	params := DefaultParams()
	params.Bins = 4
	params.MaxStatic = 1
	f := NewWithParams(10, 10, params, rand.New(rand.NewSource(1)))
	rec := &countingRecorder{}
	f.SetRecorder(rec)

	f.AddStaticParticle(components.Vec(0, 0))
	addMover(t, f, 1, 0)

	if got := f.UpdateAttachments(); len(got) != 0 {
		t.Fatalf("expected no conversion into a full container, got %d", len(got))
	}
	if f.NumMoving() != 1 {
		t.Errorf("dropped mover should stay moving, got %d", f.NumMoving())
	}
	if rec.dropped != 1 {
		t.Errorf("expected 1 dropped match, got %d", rec.dropped)
	}
	seed, _ := f.Static(0)
	if seed.Binding.BusyCount() != 0 {
		t.Error("dropped match must not mark the anchor busy")
	}
}

func TestAddStaticParticle(t *testing.T) {
	params := DefaultParams()
	params.Bins = 8
	f := NewWithParams(50, 50, params, rand.New(rand.NewSource(3)))
	rec := &countingRecorder{}
	f.SetRecorder(rec)

	if !f.AddStaticParticle(components.Vec(0, 0)) {
		t.Fatal("seed rejected")
	}
	if !f.AddStaticParticle(components.Vec(1, 0)) {
		t.Fatal("nearby particle should bind to the seed")
	}
	bound, _ := f.Static(1)
	if want := components.Scale(5, components.FromDegrees(30)); !near(bound.Pos, want) {
		t.Errorf("expected snap to %v, got %v", want, bound.Pos)
	}
	if !f.AddStaticParticle(components.Vec(40, 0)) {
		t.Fatal("distant particle should become a new seed")
	}
	if f.NumStatic() != 3 || f.NumMoving() != 0 {
		t.Errorf("expected 3 static and no moving, got %d and %d", f.NumStatic(), f.NumMoving())
	}
	if rec.seeds != 2 || len(rec.fusions) != 1 {
		t.Errorf("expected 2 seeds and 1 fusion, got %d and %d", rec.seeds, len(rec.fusions))
	}
	if rec.fusions[0].MovingIndex != -1 {
		t.Errorf("placed particle should not report a moving index, got %d", rec.fusions[0].MovingIndex)
	}
}

func TestAddStaticParticleRejectedWhenSitesBusy(t *testing.T) {
	params := DefaultParams()
	params.Bins = 4
	params.Configs = []systems.BindingConfiguration{systems.Hexa().WithMaxBinds(0)}
	f := NewWithParams(10, 10, params, rand.New(rand.NewSource(1)))

	f.AddStaticParticle(components.Vec(0, 0))
	if f.AddStaticParticle(components.Vec(1, 0)) {
		t.Error("expected rejection when every nearby site is busy")
	}
	if f.NumStatic() != 1 {
		t.Errorf("expected 1 static, got %d", f.NumStatic())
	}
}

func TestAddStaticParticleFull(t *testing.T) {
	params := DefaultParams()
	params.MaxStatic = 1
	f := NewWithParams(10, 10, params, rand.New(rand.NewSource(1)))

	if !f.AddStaticParticle(components.Vec(-8, -8)) {
		t.Fatal("first seed rejected")
	}
	if f.AddStaticParticle(components.Vec(8, 8)) {
		t.Error("expected rejection at capacity")
	}
}

func TestSpawningRespectsCapacity(t *testing.T) {
	params := DefaultParams()
	params.MaxMoving = 3
	f := NewWithParams(10, 10, params, rand.New(rand.NewSource(5)))
	rec := &countingRecorder{}
	f.SetRecorder(rec)

	for i := 0; i < 5; i++ {
		f.AddBoundaryParticle(float64(i))
	}
	f.AddParticle()

	if f.NumMoving() != 3 {
		t.Errorf("expected 3 moving particles, got %d", f.NumMoving())
	}
	if rec.spawns != 3 || rec.boundary != 3 {
		t.Errorf("expected 3 boundary spawns recorded, got %d/%d", rec.spawns, rec.boundary)
	}
	for _, p := range f.MovingParticles() {
		if l := components.Length(p.Vel); math.Abs(l-1) > 1e-9 {
			t.Errorf("spawned velocity not unit: %v", p.Vel)
		}
	}
}

func TestUpdatePositionsAndVelocities(t *testing.T) {
	f := smallField(t)
	addMover(t, f, 2, 3)

	f.UpdatePositions(0.75)
	p, _ := f.Moving(0)
	if !near(p.Pos, components.Vec(2.75, 3)) {
		t.Errorf("expected position (2.75, 3), got %v", p.Pos)
	}

	for i := 0; i < 50; i++ {
		f.UpdateVelocities(0.8)
		p, _ = f.Moving(0)
		if l := components.Length(p.Vel); math.Abs(l-1) > 1e-9 {
			t.Fatalf("velocity not unit after update %d: %v", i, p.Vel)
		}
	}
}

func TestStepGrowsCluster(t *testing.T) {
	params := DefaultParams()
	params.Bins = 8
	f := NewWithParams(40, 40, params, rand.New(rand.NewSource(11)))
	f.AddStaticParticle(components.Vec(0, 0))
	for i := 0; i < 200; i++ {
		f.AddParticle()
	}

	total := 0
	for tick := 0; tick < 2000 && f.NumMoving() > 0; tick++ {
		c := f.Step(0.75, 0.8)
		if len(c) > DefaultBatchLimit {
			t.Fatalf("tick %d converted %d particles", tick, len(c))
		}
		total += len(c)
	}

	if total == 0 {
		t.Fatal("expected the cluster to grow")
	}
	if f.NumStatic() != 1+total {
		t.Errorf("static count %d does not match 1 + %d conversions", f.NumStatic(), total)
	}
	if f.NumStatic()+f.NumMoving() != 201 {
		t.Errorf("particles lost: %d static + %d moving", f.NumStatic(), f.NumMoving())
	}
	for i, s := range f.StaticParticles() {
		if s.Binding.BusyCount() > 6 {
			t.Errorf("static %d exceeds the port count", i)
		}
	}
}

func TestStaticClustersCoverAll(t *testing.T) {
	f := smallField(t)
	f.AddStaticParticle(components.Vec(-8, -8))
	f.AddStaticParticle(components.Vec(8, 8))
	f.AddStaticParticle(components.Vec(8, -8))

	total := 0
	for group := range f.StaticClusters() {
		total += len(group)
	}
	if total != f.NumStatic() {
		t.Errorf("clusters cover %d of %d particles", total, f.NumStatic())
	}
	occupied := 0
	for _, n := range f.BucketOccupancy() {
		occupied += n
	}
	if occupied != 3 {
		t.Errorf("expected 3 indexed particles, got %d", occupied)
	}
}
