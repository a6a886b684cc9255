package systems

import "github.com/pthm-cable/accrete/components"

// Rejection is the outcome of evaluating a moving/static pair.
type Rejection uint8

const (
	Matched Rejection = iota
	RejectTooFar
	RejectPortBusy
	RejectNoPortAtAngle
	RejectSiteNotAttachable

	numRejections
)

// NumRejections is the number of distinct outcomes, Matched included.
const NumRejections = int(numRejections)

// String returns the snake_case name used in logs and CSV columns.
func (r Rejection) String() string {
	switch r {
	case Matched:
		return "matched"
	case RejectTooFar:
		return "too_far"
	case RejectPortBusy:
		return "port_busy"
	case RejectNoPortAtAngle:
		return "no_port_at_angle"
	case RejectSiteNotAttachable:
		return "site_not_attachable"
	}
	return "unknown"
}

// BindingResult describes how a moving particle fuses to a static one.
// It can only be produced by Evaluate.
type BindingResult struct {
	rot        float64 // rotation of the fused particle (deferred for port alignment)
	staticPort int8
	movingPort int8
}

// Rotation returns the rotation computed at match time.
func (r BindingResult) Rotation() float64 { return r.rot }

// StaticPort returns the port used on the static particle.
func (r BindingResult) StaticPort() int { return int(r.staticPort) }

// MovingPort returns the port of the arriving particle that faces the static one.
func (r BindingResult) MovingPort() int { return int(r.movingPort) }

// Evaluate decides whether m can fuse to s.
// cfgM and cfgS are the configurations of the moving and static particle; the static
// side's alignment policy applies.
func Evaluate(m components.MovingParticle, s components.StaticParticle, cfgM, cfgS *BindingConfiguration) (BindingResult, Rejection) {
	if !cfgS.CloseEnough(m.Pos, s.Pos) {
		return BindingResult{}, RejectTooFar
	}
	if s.Binding.BusyCount() >= int(cfgS.MaxBinds) {
		return BindingResult{}, RejectPortBusy
	}

	angleToM := components.HeadingDegrees(components.Sub(m.Pos, s.Pos))
	staticPort, ok := cfgS.AngleToPort(angleToM - s.Rot)
	if !ok {
		return BindingResult{}, RejectNoPortAtAngle
	}
	// a masked site on the anchor counts as no port
	if !cfgS.IsPortAttachable(staticPort) {
		return BindingResult{}, RejectNoPortAtAngle
	}
	if !s.Binding.IsPortFree(staticPort) {
		return BindingResult{}, RejectPortBusy
	}

	// Zero and Port look up the arriving port relative to the anchor's frame;
	// Free uses the direction the particle is travelling.
	frame := s.Rot
	var rot float64
	switch cfgS.Align {
	case AlignZero:
		rot = s.Rot
	case AlignPort:
		rot = 0 // resolved in Apply
	case AlignFree:
		frame = components.HeadingDegrees(m.Vel)
		rot = frame
	}

	movingPort, ok := cfgM.AngleToPort(180 + angleToM - frame)
	if !ok {
		return BindingResult{}, RejectNoPortAtAngle
	}
	if !cfgM.IsPortAttachable(movingPort) {
		return BindingResult{}, RejectSiteNotAttachable
	}

	return BindingResult{
		rot:        rot,
		staticPort: int8(staticPort),
		movingPort: int8(movingPort),
	}, Matched
}

// Apply commits the binding: it marks the static port busy and returns the new static
// particle. It reports false, leaving s untouched, when the port was taken or the bind
// limit reached since Evaluate ran.
func (r BindingResult) Apply(m components.MovingParticle, s *components.StaticParticle, cfgM, cfgS *BindingConfiguration) (components.StaticParticle, bool) {
	if !s.Binding.IsPortFree(r.StaticPort()) || s.Binding.BusyCount() >= int(cfgS.MaxBinds) {
		return components.StaticParticle{}, false
	}
	s.Binding.SetPortBusy(r.StaticPort())

	site := s.Rot
	if a, ok := cfgS.PortToAngle(r.StaticPort()); ok {
		site += a
	}

	pos := m.Pos
	if cfgS.Align != AlignFree {
		pos = components.Add(s.Pos, components.Scale(cfgS.Radius, components.FromDegrees(site)))
	}

	rot := r.rot
	if cfgS.Align == AlignPort {
		rot = 0
		if own, ok := cfgM.PortToAngle(r.MovingPort()); ok {
			rot = 180 + site - own
		}
	}

	return components.StaticParticle{
		Pos:     pos,
		Rot:     rot,
		Binding: components.NewBindingWord(m.ConfigID(), r.MovingPort()),
	}, true
}
