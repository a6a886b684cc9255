package systems

import (
	"math"
	"slices"
	"testing"

	"github.com/pthm-cable/accrete/components"
)

func TestBinneryIndex(t *testing.T) {
	b := NewBinnery(10, 10, 4)

	tests := []struct {
		name string
		pos  components.Vector
		want int
	}{
		{"bottom left corner", components.Vec(-10, -10), 0},
		{"centre", components.Vec(0, 0), 10},
		{"inside top right", components.Vec(9.9, 9.9), 15},
		{"top right edge clamps", components.Vec(10, 10), 15},
		{"far left clamps", components.Vec(-100, 0), 8},
		{"far above clamps", components.Vec(0, 1e9), 14},
		{"NaN lands in bucket zero", components.Vec(math.NaN(), math.NaN()), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Index(tt.pos); got != tt.want {
				t.Errorf("Index(%v) = %d, want %d", tt.pos, got, tt.want)
			}
		})
	}
}

func TestBinneryNeighborBuckets(t *testing.T) {
	b := NewBinnery(10, 10, 4)

	tests := []struct {
		name   string
		bucket int
		want   []int
	}{
		{"interior", 5, []int{0, 1, 2, 4, 5, 6, 8, 9, 10}},
		{"bottom left corner", 0, []int{0, 1, 4, 5}},
		{"top right corner", 15, []int{10, 11, 14, 15}},
		{"bottom edge", 1, []int{0, 1, 2, 4, 5, 6}},
		{"out of range", 16, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.NeighborBucketsOf(tt.bucket)
			if !slices.Equal(got, tt.want) {
				t.Errorf("NeighborBucketsOf(%d) = %v, want %v", tt.bucket, got, tt.want)
			}
			if !slices.IsSorted(got) {
				t.Errorf("neighbourhood %v not sorted", got)
			}
		})
	}
}

func TestBinnerySingleBucket(t *testing.T) {
	b := NewBinnery(10, 10, 1)
	if got := b.Index(components.Vec(7, -3)); got != 0 {
		t.Errorf("expected bucket 0 on a 1x1 grid, got %d", got)
	}
	if got := b.NeighborBucketsOf(0); !slices.Equal(got, []int{0}) {
		t.Errorf("expected [0], got %v", got)
	}
}

func TestBinneryAddRemoveRelocate(t *testing.T) {
	b := NewBinnery(10, 10, 4)
	pos := components.Vec(1, 1)
	bucket := b.Index(pos)

	b.Add(3, pos)
	b.Add(7, pos)
	if b.Len() != 2 {
		t.Fatalf("expected 2 ids, got %d", b.Len())
	}

	b.Relocate(7, 2, pos)
	if got := b.BucketContents(bucket); !slices.Equal(got, []int{3, 2}) {
		t.Errorf("after relocate expected [3 2], got %v", got)
	}

	b.Remove(3, pos)
	b.Remove(99, pos) // missing ids are ignored
	if got := b.BucketContents(bucket); !slices.Equal(got, []int{2}) {
		t.Errorf("after remove expected [2], got %v", got)
	}

	// snapshot must not alias the grid
	snap := b.BucketContents(bucket)
	snap[0] = 42
	if got := b.BucketContents(bucket); got[0] != 2 {
		t.Errorf("bucket mutated through snapshot: %v", got)
	}

	b.Clear()
	if b.Len() != 0 {
		t.Errorf("expected empty grid after Clear, got %d", b.Len())
	}
}

func TestBinneryOccupancy(t *testing.T) {
	b := NewBinnery(10, 10, 2)
	b.Add(0, components.Vec(-5, -5))
	b.Add(1, components.Vec(-6, -6))
	b.Add(2, components.Vec(5, 5))

	want := []int{2, 0, 0, 1}
	if got := b.Occupancy(); !slices.Equal(got, want) {
		t.Errorf("Occupancy() = %v, want %v", got, want)
	}
}
