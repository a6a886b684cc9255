// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/accrete/components"
	"github.com/pthm-cable/accrete/systems"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Field     FieldConfig     `yaml:"field" toml:"field"`
	Binding   BindingConfig   `yaml:"binding" toml:"binding"`
	Motion    MotionConfig    `yaml:"motion" toml:"motion"`
	Spawn     SpawnConfig     `yaml:"spawn" toml:"spawn"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
	Bookmarks BookmarksConfig `yaml:"bookmarks" toml:"bookmarks"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-" toml:"-"`
}

// FieldConfig holds field geometry and capacities.
type FieldConfig struct {
	HalfWidth  float64 `yaml:"half_width" toml:"half_width"`
	HalfHeight float64 `yaml:"half_height" toml:"half_height"`
	Bins       int     `yaml:"bins" toml:"bins"`               // spatial buckets per axis
	MaxMoving  int     `yaml:"max_moving" toml:"max_moving"`   // moving particle capacity
	MaxStatic  int     `yaml:"max_static" toml:"max_static"`   // static particle capacity
	BatchLimit int     `yaml:"batch_limit" toml:"batch_limit"` // conversions per tick
	SeedLayout string  `yaml:"seed_layout" toml:"seed_layout"` // center, mirrored or script
	SeedScript string  `yaml:"seed_script" toml:"seed_script"` // Lua file for the script layout
}

// BindingConfig lists the binding configurations. The position in Configs is the id.
type BindingConfig struct {
	Spawn   string         `yaml:"spawn" toml:"spawn"` // name of the configuration given to new particles
	Configs []BindingEntry `yaml:"configs" toml:"configs"`
}

// BindingEntry describes one binding configuration, starting from a preset.
// Unset fields keep the preset value.
type BindingEntry struct {
	Name               string    `yaml:"name" toml:"name"`
	Preset             string    `yaml:"preset" toml:"preset"`     // tri, square, penta, hexa
	Segments           []float64 `yaml:"segments,omitempty" toml:"segments,omitempty"`
	Radius             float64   `yaml:"radius,omitempty" toml:"radius,omitempty"`
	MaxBinds           *int      `yaml:"max_binds,omitempty" toml:"max_binds,omitempty"`
	AttachmentSiteMask *int      `yaml:"attachment_site_mask,omitempty" toml:"attachment_site_mask,omitempty"`
	Align              string    `yaml:"align,omitempty" toml:"align,omitempty"` // zero, port, free
}

// MotionConfig holds per-tick motion parameters.
type MotionConfig struct {
	PositionDelta        float64 `yaml:"position_delta" toml:"position_delta"`               // distance per tick along velocity
	VelocityDelta        float64 `yaml:"velocity_delta" toml:"velocity_delta"`               // steering strength per tick
	AttractorAttenuation float64 `yaml:"attractor_attenuation" toml:"attractor_attenuation"` // 0 disables the centre pull
}

// SpawnConfig holds population and spawning parameters.
type SpawnConfig struct {
	StartParticles int     `yaml:"start_particles" toml:"start_particles"`
	MaxParticles   int     `yaml:"max_particles" toml:"max_particles"` // moving + static budget for boundary spawns
	SpawnRate      float64 `yaml:"spawn_rate" toml:"spawn_rate"`       // base boundary spawns per second
	FrameDT        float64 `yaml:"frame_dt" toml:"frame_dt"`           // simulated seconds per tick
	TicksPerUpdate int     `yaml:"ticks_per_update" toml:"ticks_per_update"`
	MinMirrors     int     `yaml:"min_mirrors" toml:"min_mirrors"` // mirrored seed layout symmetry range
	MaxMirrors     int     `yaml:"max_mirrors" toml:"max_mirrors"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window" toml:"stats_window"` // simulated seconds per window
	BookmarkHistorySize int     `yaml:"bookmark_history_size" toml:"bookmark_history_size"`
	PerfCollectorWindow int     `yaml:"perf_collector_window" toml:"perf_collector_window"`
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	GrowthStall GrowthStallConfig `yaml:"growth_stall" toml:"growth_stall"`
	GrowthBurst GrowthBurstConfig `yaml:"growth_burst" toml:"growth_burst"`
}

// GrowthStallConfig holds growth stall detection parameters.
type GrowthStallConfig struct {
	Windows    int `yaml:"windows" toml:"windows"`         // consecutive windows without fusions
	MinMoving  int `yaml:"min_moving" toml:"min_moving"`   // ignore stalls with fewer moving particles
	MinStatics int `yaml:"min_statics" toml:"min_statics"` // ignore stalls before the cluster exists
}

// GrowthBurstConfig holds growth burst detection parameters.
type GrowthBurstConfig struct {
	Multiplier float64 `yaml:"multiplier" toml:"multiplier"`
	MinFusions int     `yaml:"min_fusions" toml:"min_fusions"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Bindings       []systems.BindingConfiguration // resolved, indexed by config id
	BindingIndex   map[string]uint8               // name -> config id
	SpawnConfigID  uint8
	TicksPerWindow int
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML or TOML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived validates the config and resolves binding configurations.
func (c *Config) computeDerived() error {
	if c.Field.HalfWidth <= 0 || c.Field.HalfHeight <= 0 {
		return fmt.Errorf("field extents must be positive, got %vx%v", c.Field.HalfWidth, c.Field.HalfHeight)
	}
	if len(c.Binding.Configs) == 0 {
		c.Binding.Configs = []BindingEntry{{Name: "hexa", Preset: "hexa"}}
	}
	if len(c.Binding.Configs) > int(components.FlagConfigMask)+1 {
		return fmt.Errorf("too many binding configs: %d", len(c.Binding.Configs))
	}

	c.Derived.Bindings = make([]systems.BindingConfiguration, len(c.Binding.Configs))
	c.Derived.BindingIndex = make(map[string]uint8, len(c.Binding.Configs))
	for i, entry := range c.Binding.Configs {
		bc, err := entry.resolve()
		if err != nil {
			return fmt.Errorf("binding config %d (%s): %w", i, entry.Name, err)
		}
		c.Derived.Bindings[i] = bc
		name := entry.Name
		if name == "" {
			name = entry.Preset
		}
		c.Derived.BindingIndex[name] = uint8(i)
	}

	c.Derived.SpawnConfigID = 0
	if c.Binding.Spawn != "" {
		id, ok := c.Derived.BindingIndex[c.Binding.Spawn]
		if !ok {
			return fmt.Errorf("spawn binding config %q not defined", c.Binding.Spawn)
		}
		c.Derived.SpawnConfigID = id
	}

	if c.Spawn.FrameDT <= 0 {
		return fmt.Errorf("spawn.frame_dt must be positive, got %v", c.Spawn.FrameDT)
	}
	if c.Spawn.TicksPerUpdate < 1 {
		c.Spawn.TicksPerUpdate = 1
	}
	if c.Spawn.MinMirrors < 1 {
		c.Spawn.MinMirrors = 1
	}
	if c.Spawn.MaxMirrors < c.Spawn.MinMirrors {
		c.Spawn.MaxMirrors = c.Spawn.MinMirrors
	}
	c.Derived.TicksPerWindow = max(1, int(math.Round(c.Telemetry.StatsWindow/c.Spawn.FrameDT)))
	return nil
}

// resolve builds the binding configuration described by e.
func (e BindingEntry) resolve() (systems.BindingConfiguration, error) {
	bc, err := systems.Preset(e.Preset)
	if err != nil {
		return bc, err
	}
	if len(e.Segments) > 0 {
		if len(e.Segments) > components.MaxPorts {
			return bc, fmt.Errorf("%d segments, at most %d ports", len(e.Segments), components.MaxPorts)
		}
		bc.Segments = [components.MaxPorts]float64{}
		total := 0.0
		for i, w := range e.Segments {
			if w < 0 {
				return bc, fmt.Errorf("negative segment width %v", w)
			}
			bc.Segments[i] = w
			total += w
		}
		if total > 360 {
			return bc, fmt.Errorf("segments cover %v degrees", total)
		}
	}
	if e.Radius > 0 {
		bc = bc.WithRadius(e.Radius)
	}
	if e.MaxBinds != nil {
		if *e.MaxBinds < 0 || *e.MaxBinds > components.MaxPorts {
			return bc, fmt.Errorf("max_binds %d out of range", *e.MaxBinds)
		}
		bc = bc.WithMaxBinds(uint8(*e.MaxBinds))
	}
	if e.AttachmentSiteMask != nil {
		if *e.AttachmentSiteMask < 0 || *e.AttachmentSiteMask >= 1<<components.MaxPorts {
			return bc, fmt.Errorf("attachment_site_mask %b out of range", *e.AttachmentSiteMask)
		}
		bc.AttachmentSiteMask = components.PortMask(*e.AttachmentSiteMask)
	}
	if e.Align != "" {
		align, err := systems.ParseAlignment(e.Align)
		if err != nil {
			return bc, err
		}
		bc = bc.WithAlign(align)
	}
	return bc, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
