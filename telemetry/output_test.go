package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/accrete/components"
	"github.com/pthm-cable/accrete/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager, got %v %v", om, err)
	}
	// nil manager is a no-op
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Errorf("WriteConfig: %v", err)
	}
	for i := 1; i <= 2; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: int32(i * 600), Fusions: i}); err != nil {
			t.Errorf("WriteTelemetry: %v", err)
		}
	}
	if err := om.WritePerf(NewPerfCollector(4).Stats(), 600); err != nil {
		t.Errorf("WritePerf: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkHalfFull, Tick: 600}); err != nil {
		t.Errorf("WriteBookmark: %v", err)
	}
	static := []components.StaticParticle{
		{Pos: components.Vec(1, 2), Binding: components.NewBindingWord(0, 3)},
	}
	if err := om.WriteStatic(static, func(int) (int, bool) { return 7, true }); err != nil {
		t.Errorf("WriteStatic: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Errorf("expected header and 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,sim_time,moving") {
		t.Errorf("unexpected header %q", lines[0])
	}

	f, err := os.Open(filepath.Join(dir, "static.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var records []StaticRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		t.Fatalf("reading static.csv: %v", err)
	}
	if len(records) != 1 || records[0].Busy != 1<<3 || records[0].Depth != 7 {
		t.Errorf("unexpected static export %+v", records)
	}

	for _, name := range []string{"perf.csv", "bookmarks.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
