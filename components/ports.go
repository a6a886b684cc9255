package components

import "math/bits"

// MaxPorts is the number of port slots a binding configuration can describe.
const MaxPorts = 6

// PortMask holds one bit per port.
type PortMask uint8

// Has reports whether port is set.
func (m PortMask) Has(port int) bool {
	if port < 0 || port >= 8 {
		return false
	}
	return m&(1<<uint(port)) != 0
}

// With returns m with port set.
func (m PortMask) With(port int) PortMask {
	if port < 0 || port >= 8 {
		return m
	}
	return m | 1<<uint(port)
}

// Count returns the number of set ports.
func (m PortMask) Count() int {
	return bits.OnesCount8(uint8(m))
}

const (
	bindingConfigIDMask uint64 = 0xff
	bindingBusyShift           = 32
)

// BindingWord packs a static particle's binding state:
// the low 32 bits hold the configuration id (masked to 8 bits),
// the high 32 bits hold the busy port mask.
// The layout matches the raw static buffer consumed by renderers.
type BindingWord uint64

// NewBindingWord builds a word for configuration cfgID with port preset busy.
// A negative port leaves every port free.
func NewBindingWord(cfgID uint8, port int) BindingWord {
	w := BindingWord(uint64(cfgID) & bindingConfigIDMask)
	if port >= 0 {
		w.SetPortBusy(port)
	}
	return w
}

// ConfigID returns the binding configuration id.
func (w BindingWord) ConfigID() uint8 {
	return uint8(uint64(w) & bindingConfigIDMask)
}

// Busy returns the busy port mask.
func (w BindingWord) Busy() PortMask {
	return PortMask(uint64(w) >> bindingBusyShift)
}

// IsPortFree reports whether port has no partner yet.
func (w BindingWord) IsPortFree(port int) bool {
	return !w.Busy().Has(port)
}

// SetPortBusy marks port as occupied.
func (w *BindingWord) SetPortBusy(port int) {
	if port < 0 || port >= 8 {
		return
	}
	*w |= BindingWord(uint64(1) << (bindingBusyShift + uint(port)))
}

// BusyCount returns the number of occupied ports.
func (w BindingWord) BusyCount() int {
	return w.Busy().Count()
}
