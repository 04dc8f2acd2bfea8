// Package config provides configuration loading and access for placement runs.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/streamlines/geom"
	"github.com/pthm-cable/streamlines/streamline"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all placement configuration parameters.
type Config struct {
	Domain    DomainConfig    `yaml:"domain"`
	Placement PlacementConfig `yaml:"placement"`
	Spacing   SpacingConfig   `yaml:"spacing"`
	Field     FieldConfig     `yaml:"field"`
	Ranges    RangesConfig    `yaml:"ranges"`
	Smoothing SmoothingConfig `yaml:"smoothing"`
	Render    RenderConfig    `yaml:"render"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// DomainConfig is the region streamlines are confined to.
type DomainConfig struct {
	XMin float64 `yaml:"x_min"`
	XMax float64 `yaml:"x_max"`
	YMin float64 `yaml:"y_min"`
	YMax float64 `yaml:"y_max"`
}

// PlacementConfig holds tracer and scheduler parameters.
type PlacementConfig struct {
	StepSize       float64 `yaml:"step_size"`
	StartX         float64 `yaml:"start_x"`
	StartY         float64 `yaml:"start_y"`
	Subdivision    float64 `yaml:"subdivision"`     // Index cells per unit (0 = derive from spacing)
	Neighborhood   string  `yaml:"neighborhood"`    // cell | moore
	MaxSteps       int     `yaml:"max_steps"`       // Per direction (0 = unlimited)
	MaxStreamlines int     `yaml:"max_streamlines"` // 0 = unlimited
}

// SpacingConfig selects and tunes the spacing policy.
type SpacingConfig struct {
	Mode             string  `yaml:"mode"` // constant | radial | noise
	SeedDistance     float64 `yaml:"seed_distance"`
	NearSeedDistance float64 `yaml:"near_seed_distance"` // radial: at center; noise: at noise minimum
	FarSeedDistance  float64 `yaml:"far_seed_distance"`  // radial: at the farthest corner; noise: at noise maximum
	GrowthRatio      float64 `yaml:"growth_ratio"`       // growth distance = seed distance * this
	CenterX          float64 `yaml:"center_x"`
	CenterY          float64 `yaml:"center_y"`
}

// FieldConfig selects and tunes the direction field.
type FieldConfig struct {
	Mode       string  `yaml:"mode"`  // constant | perlin | simplex | vortex
	Angle      float64 `yaml:"angle"` // Base direction in turns
	Scale      float64 `yaml:"scale"` // Base noise frequency
	Octaves    int     `yaml:"octaves"`
	Lacunarity float64 `yaml:"lacunarity"`
	Gain       float64 `yaml:"gain"`
	Seed       int64   `yaml:"seed"`
	CenterX    float64 `yaml:"center_x"`
	CenterY    float64 `yaml:"center_y"`
}

// RangesConfig selects the range policy.
type RangesConfig struct {
	Mode  string `yaml:"mode"` // domain | columns | rows
	Bands int    `yaml:"bands"`
}

// SmoothingConfig is applied to exported and rendered copies only.
type SmoothingConfig struct {
	Tightness float64 `yaml:"tightness"`
	Repeats   int     `yaml:"repeats"`
}

// RenderConfig holds PNG output settings.
type RenderConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Margin     int     `yaml:"margin"`
	Background string  `yaml:"background"` // #rrggbb
	Stroke     float64 `yaml:"stroke"`     // Line width in pixels
	HueStart   float64 `yaml:"hue_start"`  // Degrees
	HueSpan    float64 `yaml:"hue_span"`   // Degrees spread across the set
}

// TelemetryConfig holds performance collection parameters.
type TelemetryConfig struct {
	PerfWindow int `yaml:"perf_window"` // Streamlines per perf sample
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Bounds          geom.Bounds             // Domain as bounds
	Start           geom.Point              // Placement.StartX/Y
	Subdivision     float64                 // Effective index subdivision
	Neighborhood    streamline.Neighborhood // Parsed Placement.Neighborhood
	MaxSeedDistance float64                 // Largest seed distance the spacing mode can produce
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

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
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
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if !(c.Domain.XMin < c.Domain.XMax) || !(c.Domain.YMin < c.Domain.YMax) {
		bad("domain is empty: x [%g, %g], y [%g, %g]", c.Domain.XMin, c.Domain.XMax, c.Domain.YMin, c.Domain.YMax)
	}

	if !(c.Placement.StepSize > 0) {
		bad("placement.step_size must be positive, got %g", c.Placement.StepSize)
	}
	if c.Placement.Subdivision < 0 {
		bad("placement.subdivision must not be negative, got %g", c.Placement.Subdivision)
	}
	if _, ok := streamline.ParseNeighborhood(c.Placement.Neighborhood); !ok {
		bad("placement.neighborhood %q is not cell or moore", c.Placement.Neighborhood)
	}
	if c.Placement.MaxSteps < 0 || c.Placement.MaxStreamlines < 0 {
		bad("placement limits must not be negative")
	}

	switch c.Spacing.Mode {
	case "constant":
		if !(c.Spacing.SeedDistance > 0) {
			bad("spacing.seed_distance must be positive, got %g", c.Spacing.SeedDistance)
		}
	case "radial", "noise":
		if !(c.Spacing.NearSeedDistance > 0) || !(c.Spacing.FarSeedDistance > 0) {
			bad("spacing near/far seed distances must be positive, got %g and %g", c.Spacing.NearSeedDistance, c.Spacing.FarSeedDistance)
		}
		// Noise spacing reuses the field's noise parameters.
		if c.Spacing.Mode == "noise" && (!(c.Field.Scale > 0) || c.Field.Octaves < 1) {
			bad("spacing.mode noise needs a positive field.scale and at least one field octave")
		}
	default:
		bad("spacing.mode %q is not constant, radial or noise", c.Spacing.Mode)
	}
	if !(c.Spacing.GrowthRatio > 0) || c.Spacing.GrowthRatio > 1 {
		bad("spacing.growth_ratio must be in (0, 1], got %g", c.Spacing.GrowthRatio)
	}

	switch c.Field.Mode {
	case "constant", "vortex":
	case "perlin", "simplex":
		if !(c.Field.Scale > 0) || c.Field.Octaves < 1 {
			bad("field noise needs a positive scale and at least one octave")
		}
	default:
		bad("field.mode %q is not constant, perlin, simplex or vortex", c.Field.Mode)
	}

	switch c.Ranges.Mode {
	case "domain":
	case "columns", "rows":
		if c.Ranges.Bands < 1 {
			bad("ranges.bands must be at least 1, got %d", c.Ranges.Bands)
		}
	default:
		bad("ranges.mode %q is not domain, columns or rows", c.Ranges.Mode)
	}

	if c.Smoothing.Tightness < 0 || c.Smoothing.Tightness > 0.5 || c.Smoothing.Repeats < 0 {
		bad("smoothing.tightness must be in [0, 0.5] and repeats non-negative")
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 || c.Render.Margin < 0 {
		bad("render size must be positive, got %dx%d margin %d", c.Render.Width, c.Render.Height, c.Render.Margin)
	}

	return errors.Join(errs...)
}

// Refresh validates c again and recomputes derived values. Call it after
// changing fields in code, as the preview and optimizer do.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Bounds = geom.NewBounds(c.Domain.XMin, c.Domain.XMax, c.Domain.YMin, c.Domain.YMax)
	c.Derived.Start = geom.Pt(c.Placement.StartX, c.Placement.StartY)
	c.Derived.Neighborhood, _ = streamline.ParseNeighborhood(c.Placement.Neighborhood)

	switch c.Spacing.Mode {
	case "constant":
		c.Derived.MaxSeedDistance = c.Spacing.SeedDistance
	default:
		c.Derived.MaxSeedDistance = math.Max(c.Spacing.NearSeedDistance, c.Spacing.FarSeedDistance)
	}

	// A cell at least as wide as the largest threshold lets the Moore
	// neighborhood see every entry that can reject a point.
	c.Derived.Subdivision = c.Placement.Subdivision
	if c.Derived.Subdivision == 0 {
		c.Derived.Subdivision = streamline.SubdivisionFor(c.Derived.MaxSeedDistance)
	}
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
