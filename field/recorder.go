package field

import (
	"github.com/pthm-cable/accrete/components"
	"github.com/pthm-cable/accrete/systems"
)

// Recorder observes field events. All methods are called synchronously.
type Recorder interface {
	RecordSpawn(boundary bool)
	RecordRejection(r systems.Rejection)
	RecordDropped()
	RecordFusion(c Conversion)
	RecordSeed(index int, p components.StaticParticle)
}

// NopRecorder ignores every event. Embed it to implement part of Recorder.
type NopRecorder struct{}

func (NopRecorder) RecordSpawn(bool)                          {}
func (NopRecorder) RecordRejection(systems.Rejection)         {}
func (NopRecorder) RecordDropped()                            {}
func (NopRecorder) RecordFusion(Conversion)                   {}
func (NopRecorder) RecordSeed(int, components.StaticParticle) {}

// MultiRecorder fans every event out to each recorder in order.
type MultiRecorder []Recorder

func (m MultiRecorder) RecordSpawn(boundary bool) {
	for _, r := range m {
		r.RecordSpawn(boundary)
	}
}

func (m MultiRecorder) RecordRejection(why systems.Rejection) {
	for _, r := range m {
		r.RecordRejection(why)
	}
}

func (m MultiRecorder) RecordDropped() {
	for _, r := range m {
		r.RecordDropped()
	}
}

func (m MultiRecorder) RecordFusion(c Conversion) {
	for _, r := range m {
		r.RecordFusion(c)
	}
}

func (m MultiRecorder) RecordSeed(index int, p components.StaticParticle) {
	for _, r := range m {
		r.RecordSeed(index, p)
	}
}
