package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/accrete/components"
	"github.com/pthm-cable/accrete/field"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete field state for replay.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	HalfWidth  float64 `json:"half_width"`
	HalfHeight float64 `json:"half_height"`

	Tick    int32   `json:"tick"`
	SimTime float64 `json:"sim_time"`

	Moving []MovingState `json:"moving"`
	Static []StaticState `json:"static"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// MovingState holds one moving particle.
type MovingState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VelX   float64 `json:"vel_x"`
	VelY   float64 `json:"vel_y"`
	Since  float64 `json:"since"`
	Config uint8   `json:"config"`
}

// StaticState holds one static particle with its busy ports.
type StaticState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Rot    float64 `json:"rot"`
	Config uint8   `json:"config"`
	Busy   uint8   `json:"busy"`
}

// NewSnapshot captures the state of f.
func NewSnapshot(f *field.Field, seed int64, tick int32, simTime float64) *Snapshot {
	half := f.HalfExtents()
	s := &Snapshot{
		Version:    SnapshotVersion,
		RNGSeed:    seed,
		HalfWidth:  half.X,
		HalfHeight: half.Y,
		Tick:       tick,
		SimTime:    simTime,
	}
	for _, p := range f.MovingParticles() {
		s.Moving = append(s.Moving, MovingState{
			X: p.Pos.X, Y: p.Pos.Y,
			VelX: p.Vel.X, VelY: p.Vel.Y,
			Since:  p.Since,
			Config: p.ConfigID(),
		})
	}
	for _, p := range f.StaticParticles() {
		s.Static = append(s.Static, StaticState{
			X: p.Pos.X, Y: p.Pos.Y,
			Rot:    p.Rot,
			Config: p.ConfigID(),
			Busy:   uint8(p.Binding.Busy()),
		})
	}
	return s
}

// Particles converts the snapshot back into field particles.
func (s *Snapshot) Particles() ([]components.MovingParticle, []components.StaticParticle) {
	moving := make([]components.MovingParticle, len(s.Moving))
	for i, m := range s.Moving {
		moving[i] = components.MovingParticle{
			Pos:   components.Vec(m.X, m.Y),
			Vel:   components.Vec(m.VelX, m.VelY),
			Since: m.Since,
		}.WithConfigID(m.Config)
	}

	static := make([]components.StaticParticle, len(s.Static))
	for i, st := range s.Static {
		word := components.NewBindingWord(st.Config, -1)
		busy := components.PortMask(st.Busy)
		for port := 0; port < components.MaxPorts; port++ {
			if busy.Has(port) {
				word.SetPortBusy(port)
			}
		}
		static[i] = components.StaticParticle{
			Pos:     components.Vec(st.X, st.Y),
			Rot:     st.Rot,
			Binding: word,
		}
	}
	return moving, static
}

// Restore loads the snapshot particles into f, replacing its contents.
func (s *Snapshot) Restore(f *field.Field) error {
	moving, static := s.Particles()
	if err := f.Restore(moving, static); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	return nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
