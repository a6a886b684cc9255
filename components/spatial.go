package components

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vector is a planar point or direction in field units.
type Vector = r2.Vec

// Vec builds a Vector from its components.
func Vec(x, y float64) Vector {
	return Vector{X: x, Y: y}
}

// Length returns the euclidean length of v.
func Length(v Vector) float64 {
	return r2.Norm(v)
}

// Add returns a+b.
func Add(a, b Vector) Vector {
	return r2.Add(a, b)
}

// Sub returns a-b.
func Sub(a, b Vector) Vector {
	return r2.Sub(a, b)
}

// Scale returns v scaled by f.
func Scale(f float64, v Vector) Vector {
	return r2.Scale(f, v)
}

// DistanceSquared returns the squared distance between a and b (avoids sqrt in hot paths).
func DistanceSquared(a, b Vector) float64 {
	return r2.Norm2(r2.Sub(b, a))
}

// Normalize returns v scaled to unit length. The zero vector stays zero.
func Normalize(v Vector) Vector {
	if v.X == 0 && v.Y == 0 {
		return v
	}
	return r2.Unit(v)
}

// HeadingDegrees returns the direction of v in degrees, in (-180, 180].
func HeadingDegrees(v Vector) float64 {
	return math.Atan2(v.Y, v.X) * 180 / math.Pi
}

// FromDegrees returns the unit vector pointing at angle deg.
func FromDegrees(deg float64) Vector {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Vector{X: c, Y: s}
}
