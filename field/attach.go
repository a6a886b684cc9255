package field

import (
	"github.com/pthm-cable/accrete/components"
	"github.com/pthm-cable/accrete/systems"
)

// pendingBind is a match found during the scan, applied after the scan completes.
type pendingBind struct {
	moving int
	anchor int
	result systems.BindingResult
}

// collectAttachments scans moving particles in storage order and returns at most
// BatchLimit matches, the first matching static candidate per moving particle.
func (f *Field) collectAttachments() []pendingBind {
	limit := f.params.BatchLimit
	pending := make([]pendingBind, 0, limit)

	for mi, m := range f.moving.Values() {
		cfgM := f.Config(m.ConfigID())
		for si, s := range f.static.Neighbors(m.Pos) {
			result, why := systems.Evaluate(m, s, cfgM, f.Config(s.ConfigID()))
			if why != systems.Matched {
				f.recordRejection(why)
				continue
			}
			pending = append(pending, pendingBind{moving: mi, anchor: si, result: result})
			break
		}
		if len(pending) >= limit {
			break
		}
	}
	return pending
}

// UpdateAttachments fuses up to BatchLimit moving particles onto nearby static ones.
//
// Matches are applied in scan order while the moving indices are still valid, then all
// converted particles leave the moving container in one RemoveMany. A match whose port
// was taken by an earlier conversion in the same batch is dropped; that particle stays
// moving and is retried next tick.
func (f *Field) UpdateAttachments() []Conversion {
	pending := f.collectAttachments()
	if len(pending) == 0 {
		return nil
	}

	conversions := make([]Conversion, 0, len(pending))
	converted := make([]int, 0, len(pending))
	for _, p := range pending {
		m, err := f.moving.At(p.moving)
		if err != nil {
			continue
		}
		c, ok := f.convert(m, p.moving, p.anchor, p.result)
		if !ok {
			if f.recorder != nil {
				f.recorder.RecordDropped()
			}
			continue
		}
		converted = append(converted, p.moving)
		conversions = append(conversions, c)
		if f.recorder != nil {
			f.recorder.RecordFusion(c)
		}
	}

	f.moving.RemoveMany(converted...)
	return conversions
}

// convert applies result to the anchor and inserts the resulting static particle.
// The anchor is updated through a copied handle so no reference into the container is
// held across the insert.
func (f *Field) convert(m components.MovingParticle, movingIndex, anchorIndex int, result systems.BindingResult) (Conversion, bool) {
	if f.static.IsFull() {
		return Conversion{}, false
	}
	anchor, ok := f.static.Copy(anchorIndex)
	if !ok {
		return Conversion{}, false
	}

	cfgM := f.Config(m.ConfigID())
	cfgS := f.Config(anchor.Particle.ConfigID())
	p, ok := result.Apply(m, &anchor.Particle, cfgM, cfgS)
	if !ok {
		return Conversion{}, false
	}
	f.static.Update(anchor)

	newIndex, err := f.static.Add(p)
	if err != nil {
		return Conversion{}, false
	}
	return Conversion{
		MovingIndex: movingIndex,
		AnchorIndex: anchorIndex,
		NewIndex:    newIndex,
		Result:      result,
		Particle:    p,
		Since:       m.Since,
	}, true
}
