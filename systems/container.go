package systems

import (
	"errors"
	"iter"
	"slices"
)

// Container errors.
var (
	ErrFull     = errors.New("container full")
	ErrNotFound = errors.New("index not found")
)

// Handle is an owned copy of a particle together with the index it was read from.
// Mutate Particle and hand the handle back to Update to write it into the container.
type Handle[T any] struct {
	Particle T
	Index    int
}

// Container is a fixed-capacity ordered store of particles.
// Indices in [0, Len()) are valid. An index keeps denoting the same particle only
// until the next removal: removal moves the last particle into the freed slot.
type Container[T any] struct {
	particles []T
	count     int
}

// NewContainer creates a container holding up to capacity particles.
func NewContainer[T any](capacity int) *Container[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Container[T]{particles: make([]T, capacity)}
}

// Len returns the number of live particles.
func (c *Container[T]) Len() int {
	return c.count
}

// Cap returns the capacity.
func (c *Container[T]) Cap() int {
	return len(c.particles)
}

// IsFull reports whether no further particle fits.
func (c *Container[T]) IsFull() bool {
	return c.count >= len(c.particles)
}

// Add appends p and returns its index, or ErrFull at capacity.
func (c *Container[T]) Add(p T) (int, error) {
	if c.IsFull() {
		return -1, ErrFull
	}
	idx := c.count
	c.particles[idx] = p
	c.count++
	return idx, nil
}

// At returns the particle at index.
func (c *Container[T]) At(index int) (T, error) {
	if index < 0 || index >= c.count {
		var zero T
		return zero, ErrNotFound
	}
	return c.particles[index], nil
}

// Copy returns an owned handle for the particle at index.
func (c *Container[T]) Copy(index int) (Handle[T], bool) {
	p, err := c.At(index)
	if err != nil {
		return Handle[T]{}, false
	}
	return Handle[T]{Particle: p, Index: index}, true
}

// Values yields (index, particle) pairs in storage order.
// Storage order is not insertion order once anything has been removed.
func (c *Container[T]) Values() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < c.count; i++ {
			if !yield(i, c.particles[i]) {
				return
			}
		}
	}
}

// Remove deletes the particle at index by moving the last particle into its slot.
// Out-of-range indices are ignored.
func (c *Container[T]) Remove(index int) {
	c.swapRemove(index)
}

// swapRemove removes index and reports which index was moved into its place.
// moved == index when the removed slot was the last one.
func (c *Container[T]) swapRemove(index int) (moved int, ok bool) {
	if index < 0 || index >= c.count {
		return 0, false
	}
	last := c.count - 1
	c.particles[index] = c.particles[last]
	c.count--
	return last, true
}

// RemoveMany removes the given indices in any order.
// Indices are processed highest first so pending indices stay valid; duplicates and
// out-of-range entries are ignored.
func (c *Container[T]) RemoveMany(indices ...int) {
	for _, idx := range descending(indices) {
		c.swapRemove(idx)
	}
}

// descending returns a deduplicated copy of indices sorted high to low.
func descending(indices []int) []int {
	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	slices.Reverse(sorted)
	return sorted
}

// ApplyToAll calls fn on every live particle in place.
func (c *Container[T]) ApplyToAll(fn func(*T)) {
	for i := 0; i < c.count; i++ {
		fn(&c.particles[i])
	}
}

// Update writes h back into its recorded index. Stale handles are ignored.
func (c *Container[T]) Update(h Handle[T]) {
	if h.Index < 0 || h.Index >= c.count {
		return
	}
	c.particles[h.Index] = h.Particle
}

// Live returns the live prefix of the backing buffer. The view is valid only until the
// next mutating call.
func (c *Container[T]) Live() []T {
	return c.particles[:c.count]
}

// Raw returns the full backing buffer, including stale entries past Len().
func (c *Container[T]) Raw() []T {
	return c.particles
}
