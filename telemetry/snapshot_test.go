package telemetry

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/accrete/components"
	"github.com/pthm-cable/accrete/field"
)

func grownField(t *testing.T) *field.Field {
	t.Helper()
	f := field.New(100, 100, rand.New(rand.NewSource(9)))
	f.AddStaticParticle(components.Vec(0, 0))
	f.AddStaticParticle(components.Vec(1, 0))
	f.AddStaticParticle(components.Vec(-1, 0))
	for i := 0; i < 20; i++ {
		f.AddParticle()
	}
	return f
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	f := grownField(t)

	snapshot := NewSnapshot(f, 42, 1000, 16.7)
	snapshot.Bookmark = &Bookmark{Type: BookmarkHalfFull, Tick: 1000, Description: "Test bookmark"}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.RNGSeed != 42 || loaded.Tick != 1000 || loaded.HalfWidth != 100 {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if len(loaded.Static) != f.NumStatic() || len(loaded.Moving) != f.NumMoving() {
		t.Errorf("particle count mismatch: %d/%d", len(loaded.Static), len(loaded.Moving))
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkHalfFull {
		t.Errorf("bookmark not loaded: %+v", loaded.Bookmark)
	}

	restored := field.New(100, 100, rand.New(rand.NewSource(1)))
	if err := loaded.Restore(restored); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	for i, want := range f.StaticParticles() {
		got, err := restored.Static(i)
		if err != nil || got != want {
			t.Errorf("static %d: got %+v, want %+v", i, got, want)
		}
	}
	for i, want := range f.MovingParticles() {
		got, err := restored.Moving(i)
		if err != nil || got != want {
			t.Errorf("moving %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestSnapshotRestoreTooLarge(t *testing.T) {
	snapshot := NewSnapshot(grownField(t), 1, 0, 0)
	params := field.DefaultParams()
	params.MaxStatic = 1
	small := field.NewWithParams(100, 100, params, rand.New(rand.NewSource(1)))

	if err := snapshot.Restore(small); err == nil {
		t.Error("expected capacity error")
	}
	if small.NumStatic() != 0 {
		t.Error("failed restore modified the field")
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:  SnapshotVersion,
		Tick:     5000,
		Bookmark: &Bookmark{Type: BookmarkGrowthStall, Tick: 5000},
	}
	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if expected := filepath.Join(tmpDir, "snapshot_5000_growth_stall.json"); path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	path, err = SaveSnapshot(&Snapshot{Version: SnapshotVersion, Tick: 3000}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if expected := filepath.Join(tmpDir, "snapshot_3000.json"); path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadSnapshotVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 0}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected version error")
	}
}
