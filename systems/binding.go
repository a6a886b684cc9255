package systems

import (
	"fmt"
	"math"
	"strings"

	"github.com/pthm-cable/accrete/components"
)

// bindEpsilon widens the binding radius to absorb floating error.
const bindEpsilon = 1.0000001

// Alignment decides the rotation of a freshly fused particle.
type Alignment uint8

const (
	AlignZero Alignment = iota // inherit the anchor's rotation
	AlignPort                  // turn the own port to face the anchor's site
	AlignFree                  // use the arrival heading (non-crystalline growth)
)

// String returns the config name of the alignment.
func (a Alignment) String() string {
	switch a {
	case AlignZero:
		return "zero"
	case AlignPort:
		return "port"
	case AlignFree:
		return "free"
	}
	return "unknown"
}

// ParseAlignment maps a config name to an Alignment.
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zero":
		return AlignZero, nil
	case "port":
		return AlignPort, nil
	case "free":
		return AlignFree, nil
	}
	return AlignZero, fmt.Errorf("unknown alignment %q", s)
}

// BindingConfiguration describes the binding sites of a particle.
// Segments partition the circle starting at 0°; a zero-width segment is a disabled port.
type BindingConfiguration struct {
	Segments [components.MaxPorts]float64 // port widths, degrees
	Radius   float64                      // attachment radius

	// MaxBinds limits binds to this particle, excluding its own attachment.
	MaxBinds uint8

	// AttachmentSiteMask lists the ports usable by an arriving particle.
	AttachmentSiteMask components.PortMask

	Align Alignment
}

// Tri is a three-port configuration.
func Tri() BindingConfiguration {
	return BindingConfiguration{
		Segments:           [components.MaxPorts]float64{120, 120, 120},
		Radius:             5,
		MaxBinds:           2,
		AttachmentSiteMask: 0b000111,
		Align:              AlignZero,
	}
}

// Square is a four-port configuration.
func Square() BindingConfiguration {
	return BindingConfiguration{
		Segments:           [components.MaxPorts]float64{90, 90, 90, 90},
		Radius:             5,
		MaxBinds:           3,
		AttachmentSiteMask: 0b001111,
		Align:              AlignZero,
	}
}

// Penta is a five-port configuration.
func Penta() BindingConfiguration {
	return BindingConfiguration{
		Segments:           [components.MaxPorts]float64{72, 72, 72, 72, 72},
		Radius:             5,
		MaxBinds:           4,
		AttachmentSiteMask: 0b011111,
		Align:              AlignZero,
	}
}

// Hexa is a six-port configuration.
func Hexa() BindingConfiguration {
	return BindingConfiguration{
		Segments:           [components.MaxPorts]float64{60, 60, 60, 60, 60, 60},
		Radius:             5,
		MaxBinds:           5,
		AttachmentSiteMask: 0b111111,
		Align:              AlignZero,
	}
}

// Preset returns a named configuration: tri, square, penta or hexa.
func Preset(name string) (BindingConfiguration, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tri":
		return Tri(), nil
	case "square":
		return Square(), nil
	case "penta":
		return Penta(), nil
	case "hexa", "":
		return Hexa(), nil
	}
	return BindingConfiguration{}, fmt.Errorf("unknown binding preset %q", name)
}

// WithRadius returns a copy using radius r.
func (c BindingConfiguration) WithRadius(r float64) BindingConfiguration {
	c.Radius = r
	return c
}

// WithMaxBinds returns a copy allowing n binds.
func (c BindingConfiguration) WithMaxBinds(n uint8) BindingConfiguration {
	c.MaxBinds = n
	return c
}

// WithAlign returns a copy using alignment a.
func (c BindingConfiguration) WithAlign(a Alignment) BindingConfiguration {
	c.Align = a
	return c
}

// Ports returns the number of enabled ports.
func (c BindingConfiguration) Ports() int {
	n := 0
	for _, w := range c.Segments {
		if w > 0 {
			n++
		}
	}
	return n
}

// AngleToPort returns the port covering angle (degrees, any range).
// It reports false when the angle falls in the unassigned remainder of the circle.
func (c BindingConfiguration) AngleToPort(angle float64) (int, bool) {
	a := normalizeDegrees(angle)
	start := 0.0
	for port, width := range c.Segments {
		if start <= a && a < start+width {
			return port, true
		}
		start += width
	}
	return -1, false
}

// PortToAngle returns the angular centre of port, or false for a missing or disabled port.
func (c BindingConfiguration) PortToAngle(port int) (float64, bool) {
	if port < 0 || port >= len(c.Segments) || c.Segments[port] <= 0 {
		return 0, false
	}
	start := 0.0
	for _, w := range c.Segments[:port] {
		start += w
	}
	return start + c.Segments[port]/2, true
}

// IsPortAttachable reports whether port may be used as an arriving site.
func (c BindingConfiguration) IsPortAttachable(port int) bool {
	return c.AttachmentSiteMask.Has(port)
}

// CloseEnough reports whether two positions are within the attachment radius.
func (c BindingConfiguration) CloseEnough(a, b components.Vector) bool {
	return components.DistanceSquared(a, b) <= c.Radius*c.Radius*bindEpsilon
}

// normalizeDegrees wraps an angle to [0, 360).
func normalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		// tiny negative inputs round up to a full turn
		a = 0
	}
	return a
}
