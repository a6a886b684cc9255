package systems

import (
	"math"

	"github.com/pthm-cable/accrete/components"
)

// RandomSource supplies uniform samples in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// RandomDirection returns a random unit vector.
func RandomDirection(rng RandomSource) components.Vector {
	s, c := math.Sincos(rng.Float64() * 2 * math.Pi)
	return components.Vector{X: s, Y: c}
}

// RandomPosInEllipse returns a uniformly distributed point inside the ellipse with
// half extents half.
func RandomPosInEllipse(rng RandomSource, half components.Vector) components.Vector {
	if half.X <= 0 || half.Y <= 0 {
		return components.Vector{}
	}
	for {
		v := components.Vector{
			X: (rng.Float64()*2 - 1) * half.X,
			Y: (rng.Float64()*2 - 1) * half.Y,
		}
		if v.X*v.X/(half.X*half.X)+v.Y*v.Y/(half.Y*half.Y) <= 1 {
			return v
		}
	}
}

// RandomBoundaryPos returns a point on the ellipse boundary.
// Density skews slightly for non-circular fields.
func RandomBoundaryPos(rng RandomSource, half components.Vector) components.Vector {
	d := RandomDirection(rng)
	return components.Vector{X: d.X * half.X, Y: d.Y * half.Y}
}

// CenterAttractor points from pos towards the field centre, relative to the half extents.
// It fades towards the centre.
func CenterAttractor(pos, half components.Vector) components.Vector {
	return components.Vector{X: -pos.X / half.X, Y: -pos.Y / half.Y}
}

// AttractorForce scales the attractor. Particles speed up near the centre and the pull
// grows as the static population fills its capacity (staticFill in [0, 1]).
func AttractorForce(attractor components.Vector, attenuation, staticFill float64) float64 {
	return attenuation * (0.2/(0.2+math.Max(components.Length(attractor), 1)) + 0.5*staticFill)
}

// SteerVelocity returns the next unit velocity: the old velocity nudged by delta towards
// the normalised sum of the attractor pull and a Brownian direction.
func SteerVelocity(vel, attractor components.Vector, force float64, brownian components.Vector, delta float64) components.Vector {
	push := components.Scale(delta, components.Normalize(components.Add(components.Scale(force, attractor), brownian)))
	next := components.Normalize(components.Add(vel, push))
	if next.X == 0 && next.Y == 0 {
		// degenerate cancellation: keep heading
		return components.Normalize(vel)
	}
	return next
}
