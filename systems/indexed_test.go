package systems

import (
	"slices"
	"testing"

	"github.com/pthm-cable/accrete/components"
)

func staticAt(x, y float64) components.StaticParticle {
	return components.StaticParticle{Pos: components.Vec(x, y)}
}

// checkIndex verifies every live index sits in the bucket of its particle and nowhere else.
func checkIndex(t *testing.T, c *IndexedContainer[components.StaticParticle]) {
	t.Helper()
	if got := c.Bins().Len(); got != c.Len() {
		t.Errorf("grid holds %d ids, container holds %d", got, c.Len())
	}
	for i, p := range c.Values() {
		bucket := c.Bins().Index(p.Pos)
		if !slices.Contains(c.Bins().BucketContents(bucket), i) {
			t.Errorf("index %d missing from bucket %d", i, bucket)
		}
	}
}

func TestIndexedContainerRemoveRelocates(t *testing.T) {
	c := NewIndexedContainer[components.StaticParticle](8, 10, 10, 4)
	c.Add(staticAt(-8, -8))
	c.Add(staticAt(0, 0))
	c.Add(staticAt(8, 8))
	checkIndex(t, c)

	c.Remove(0)
	if c.Len() != 2 {
		t.Fatalf("expected 2 particles, got %d", c.Len())
	}
	if p, _ := c.At(0); p.Pos != components.Vec(8, 8) {
		t.Errorf("expected last particle moved to slot 0, got %v", p.Pos)
	}
	topRight := c.Bins().Index(components.Vec(8, 8))
	if got := c.Bins().BucketContents(topRight); !slices.Equal(got, []int{0}) {
		t.Errorf("expected relocated id 0 in bucket %d, got %v", topRight, got)
	}
	checkIndex(t, c)
}

func TestIndexedContainerRemoveManySharedBucket(t *testing.T) {
	c := NewIndexedContainer[components.StaticParticle](8, 10, 10, 4)
	for i := 0; i < 6; i++ {
		c.Add(staticAt(float64(i)*0.1, 0))
	}
	c.Add(staticAt(-9, 9))

	c.RemoveMany(0, 3, 5)
	if c.Len() != 4 {
		t.Fatalf("expected 4 particles, got %d", c.Len())
	}
	checkIndex(t, c)
}

func TestIndexedContainerUpdateMovesBucket(t *testing.T) {
	c := NewIndexedContainer[components.StaticParticle](4, 10, 10, 4)
	c.Add(staticAt(-8, -8))

	h, _ := c.Copy(0)
	h.Particle.Pos = components.Vec(8, 8)
	c.Update(h)

	if got := c.Bins().BucketContents(0); len(got) != 0 {
		t.Errorf("old bucket still holds %v", got)
	}
	checkIndex(t, c)
}

func TestIndexedContainerApplyToAllReindexes(t *testing.T) {
	c := NewIndexedContainer[components.StaticParticle](4, 10, 10, 4)
	c.Add(staticAt(-8, -8))
	c.Add(staticAt(-7, -8))

	c.ApplyToAll(func(p *components.StaticParticle) {
		p.Pos = components.Add(p.Pos, components.Vec(15, 15))
	})
	checkIndex(t, c)
}

func TestIndexedContainerAddFull(t *testing.T) {
	c := NewIndexedContainer[components.StaticParticle](1, 10, 10, 4)
	c.Add(staticAt(0, 0))
	if _, err := c.Add(staticAt(1, 1)); err == nil {
		t.Fatal("expected ErrFull")
	}
	if c.Bins().Len() != 1 {
		t.Errorf("failed add leaked into grid: %d ids", c.Bins().Len())
	}
}

func TestIndexedContainerClusters(t *testing.T) {
	c := NewIndexedContainer[components.StaticParticle](8, 10, 10, 4)
	c.Add(staticAt(-8, -8))
	c.Add(staticAt(-9, -9))
	c.Add(staticAt(0, 0))
	c.Add(staticAt(8, 8))

	groups := 0
	total := 0
	for group := range c.Clusters() {
		groups++
		total += len(group)
		for _, h := range group {
			p, _ := c.At(h.Index)
			if p != h.Particle {
				t.Errorf("handle %d carries stale particle", h.Index)
			}
		}
	}
	if groups != 3 {
		t.Errorf("expected 3 non-empty buckets, got %d", groups)
	}
	if total != c.Len() {
		t.Errorf("clusters cover %d particles, want %d", total, c.Len())
	}
}

func TestIndexedContainerNeighbors(t *testing.T) {
	c := NewIndexedContainer[components.StaticParticle](8, 10, 10, 4)
	c.Add(staticAt(0, 0))   // bucket 10
	c.Add(staticAt(-4, -4)) // bucket 5, adjacent
	c.Add(staticAt(-9, -9)) // bucket 0, not adjacent to 10

	var got []int
	for idx := range c.Neighbors(components.Vec(1, 1)) {
		got = append(got, idx)
	}
	slices.Sort(got)
	if !slices.Equal(got, []int{0, 1}) {
		t.Errorf("expected neighbours [0 1], got %v", got)
	}
}
