package systems

import (
	"iter"

	"github.com/pthm-cable/accrete/components"
)

// Positioned is a particle with a location in the field.
type Positioned interface {
	Position() components.Vector
}

// IndexedContainer is a Container whose indices are mirrored in a Binnery.
// Every live index sits in exactly one bucket, the one matching its current position.
type IndexedContainer[T Positioned] struct {
	Container[T]
	bins *Binnery
}

// NewIndexedContainer creates an indexed container over an n×n grid.
func NewIndexedContainer[T Positioned](capacity int, halfWidth, halfHeight float64, n int) *IndexedContainer[T] {
	return &IndexedContainer[T]{
		Container: *NewContainer[T](capacity),
		bins:      NewBinnery(halfWidth, halfHeight, n),
	}
}

// Bins exposes the spatial index.
func (c *IndexedContainer[T]) Bins() *Binnery {
	return c.bins
}

// Add appends p and registers its index in the grid.
func (c *IndexedContainer[T]) Add(p T) (int, error) {
	idx, err := c.Container.Add(p)
	if err != nil {
		return idx, err
	}
	c.bins.Add(idx, p.Position())
	return idx, nil
}

// Remove deletes the particle at index, keeping the grid in step with the swap.
func (c *IndexedContainer[T]) Remove(index int) {
	if index < 0 || index >= c.count {
		return
	}
	removedPos := c.particles[index].Position()
	lastPos := c.particles[c.count-1].Position()

	moved, _ := c.swapRemove(index)
	c.bins.Remove(index, removedPos)
	if moved != index {
		// the last particle now lives at index; find it by its own position
		c.bins.Relocate(moved, index, lastPos)
	}
}

// RemoveMany removes the given indices highest first.
func (c *IndexedContainer[T]) RemoveMany(indices ...int) {
	for _, idx := range descending(indices) {
		c.Remove(idx)
	}
}

// ApplyToAll mutates every particle and rebuilds the grid, since in-place edits
// cannot relocate bucket entries incrementally.
func (c *IndexedContainer[T]) ApplyToAll(fn func(*T)) {
	c.Container.ApplyToAll(fn)
	c.Reindex()
}

// Reindex clears the grid and reinserts every live index.
func (c *IndexedContainer[T]) Reindex() {
	c.bins.Clear()
	for i := 0; i < c.count; i++ {
		c.bins.Add(i, c.particles[i].Position())
	}
}

// Update writes h back, moving its grid entry if the position changed.
func (c *IndexedContainer[T]) Update(h Handle[T]) {
	if h.Index < 0 || h.Index >= c.count {
		return
	}
	oldPos := c.particles[h.Index].Position()
	newPos := h.Particle.Position()
	if c.bins.Index(oldPos) != c.bins.Index(newPos) {
		c.bins.Remove(h.Index, oldPos)
		c.bins.Add(h.Index, newPos)
	}
	c.particles[h.Index] = h.Particle
}

// Clusters yields one group of handles per non-empty bucket, in bucket order.
func (c *IndexedContainer[T]) Clusters() iter.Seq[[]Handle[T]] {
	return func(yield func([]Handle[T]) bool) {
		for bucket := range c.bins.buckets {
			ids := c.bins.BucketContents(bucket)
			if len(ids) == 0 {
				continue
			}
			group := make([]Handle[T], 0, len(ids))
			for _, id := range ids {
				if h, ok := c.Copy(id); ok {
					group = append(group, h)
				}
			}
			if !yield(group) {
				return
			}
		}
	}
}

// Neighbors yields (index, particle) candidates from the 3×3 neighbourhood of pos.
func (c *IndexedContainer[T]) Neighbors(pos components.Vector) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for _, bucket := range c.bins.NeighborBuckets(pos) {
			for _, id := range c.bins.BucketContents(bucket) {
				p, err := c.At(id)
				if err != nil {
					continue
				}
				if !yield(id, p) {
					return
				}
			}
		}
	}
}
