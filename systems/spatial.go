// Package systems provides the spatial index, particle containers and binding rules
// driven by the field each tick.
package systems

import (
	"math"
	"slices"

	"github.com/pthm-cable/accrete/components"
)

// DefaultBins is the default number of buckets per axis.
const DefaultBins = 36

// Binnery is a fixed-resolution grid mapping positions to buckets of container indices.
// Resolution does not adapt to field size or density.
type Binnery struct {
	n       int
	offsetX float64
	offsetY float64
	scaleX  float64
	scaleY  float64
	buckets [][]int // flat grid of index lists, row-major
}

// NewBinnery creates an n×n grid over a field spanning -half..+half on each axis.
func NewBinnery(halfWidth, halfHeight float64, n int) *Binnery {
	if n < 1 {
		n = 1
	}
	buckets := make([][]int, n*n)
	for i := range buckets {
		buckets[i] = make([]int, 0, 4) // pre-allocate small capacity
	}
	return &Binnery{
		n:       n,
		offsetX: halfWidth,
		offsetY: halfHeight,
		scaleX:  axisScale(halfWidth, n),
		scaleY:  axisScale(halfHeight, n),
		buckets: buckets,
	}
}

func axisScale(half float64, n int) float64 {
	if half <= 0 {
		return 0
	}
	return float64(n) / (2 * half)
}

// Size returns the number of buckets per axis.
func (b *Binnery) Size() int {
	return b.n
}

// Len returns the total number of indexed ids.
func (b *Binnery) Len() int {
	total := 0
	for _, bucket := range b.buckets {
		total += len(bucket)
	}
	return total
}

// Clear removes all ids from the grid.
func (b *Binnery) Clear() {
	for i := range b.buckets {
		b.buckets[i] = b.buckets[i][:0]
	}
}

// Index returns the bucket for pos. Off-field positions clamp to edge buckets.
func (b *Binnery) Index(pos components.Vector) int {
	col := b.axisIndex(pos.X, b.offsetX, b.scaleX)
	row := b.axisIndex(pos.Y, b.offsetY, b.scaleY)
	return row*b.n + col
}

func (b *Binnery) axisIndex(v, offset, scale float64) int {
	f := math.Floor((v + offset) * scale)
	// Clamp to valid range (NaN lands in bucket 0)
	if !(f >= 0) {
		return 0
	}
	if f >= float64(b.n) {
		return b.n - 1
	}
	return int(f)
}

// Add appends id to the bucket for pos. The caller guarantees id is not present yet.
func (b *Binnery) Add(id int, pos components.Vector) {
	idx := b.Index(pos)
	b.buckets[idx] = append(b.buckets[idx], id)
}

// Remove deletes id from the bucket for pos. Missing ids are ignored.
func (b *Binnery) Remove(id int, pos components.Vector) {
	idx := b.Index(pos)
	bucket := b.buckets[idx]
	if i := slices.Index(bucket, id); i >= 0 {
		b.buckets[idx] = slices.Delete(bucket, i, i+1)
	}
}

// Relocate renames oldID to newID inside the bucket for pos.
// pos must be the position of the particle that carried oldID.
func (b *Binnery) Relocate(oldID, newID int, pos components.Vector) {
	bucket := b.buckets[b.Index(pos)]
	if i := slices.Index(bucket, oldID); i >= 0 {
		bucket[i] = newID
	}
}

// NeighborBuckets returns the sorted 3×3 neighbourhood of the bucket holding pos.
func (b *Binnery) NeighborBuckets(pos components.Vector) []int {
	return b.NeighborBucketsOf(b.Index(pos))
}

// NeighborBucketsOf returns the sorted 3×3 neighbourhood of bucket, saturating at the
// grid edge: interior buckets yield 9 entries, corners 4.
func (b *Binnery) NeighborBucketsOf(bucket int) []int {
	if bucket < 0 || bucket >= len(b.buckets) {
		return nil
	}
	col := bucket % b.n
	row := bucket / b.n

	out := make([]int, 0, 9)
	for r := max(row-1, 0); r <= min(row+1, b.n-1); r++ {
		for c := max(col-1, 0); c <= min(col+1, b.n-1); c++ {
			out = append(out, r*b.n+c)
		}
	}
	// row-major iteration already yields a sorted, duplicate-free set
	return out
}

// BucketContents returns a copy of the ids in bucket, so callers may mutate the grid
// while walking the snapshot.
func (b *Binnery) BucketContents(bucket int) []int {
	if bucket < 0 || bucket >= len(b.buckets) {
		return nil
	}
	return slices.Clone(b.buckets[bucket])
}

// Occupancy returns the number of ids in every bucket.
func (b *Binnery) Occupancy() []int {
	out := make([]int, len(b.buckets))
	for i, bucket := range b.buckets {
		out[i] = len(bucket)
	}
	return out
}
