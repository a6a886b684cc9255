// Package components defines the particle records and ECS components for the simulation.
package components

// Flag bits carried by a moving particle.
const (
	// FlagConfigMask selects the binding configuration id of a moving particle.
	FlagConfigMask uint64 = 0xff
)

// MovingParticle is a free particle drifting through the field.
// Vel is renormalised to unit length after every velocity update.
type MovingParticle struct {
	Pos   Vector
	Vel   Vector
	Since float64 // simulation time when the particle appeared
	Flags uint64
}

// ConfigID returns the binding configuration id of the particle.
func (p MovingParticle) ConfigID() uint8 {
	return uint8(p.Flags & FlagConfigMask)
}

// WithConfigID returns a copy of p using binding configuration id.
func (p MovingParticle) WithConfigID(id uint8) MovingParticle {
	p.Flags = (p.Flags &^ FlagConfigMask) | uint64(id)
	return p
}

// Position returns the particle position.
func (p MovingParticle) Position() Vector {
	return p.Pos
}

// StaticParticle is a fused, immobile particle.
// Only the busy bits of Binding change after creation, and they are never cleared.
type StaticParticle struct {
	Pos     Vector
	Rot     float64 // rotation relative to the binding configuration, degrees
	Binding BindingWord
}

// Position returns the particle position.
func (p StaticParticle) Position() Vector {
	return p.Pos
}

// ConfigID returns the binding configuration id of the particle.
func (p StaticParticle) ConfigID() uint8 {
	return p.Binding.ConfigID()
}
