package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/streamlines/geom"
	"github.com/pthm-cable/streamlines/streamline"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Derived.Bounds != geom.NewBounds(0, 1, 0, 1) {
		t.Errorf("Bounds = %+v, want unit square", cfg.Derived.Bounds)
	}
	if cfg.Derived.Start != geom.Pt(0.5, 0.5) {
		t.Errorf("Start = %v, want (0.5, 0.5)", cfg.Derived.Start)
	}
	if cfg.Derived.Neighborhood != streamline.Moore {
		t.Errorf("Neighborhood = %v, want moore", cfg.Derived.Neighborhood)
	}
	if cfg.Derived.MaxSeedDistance != 0.03 {
		t.Errorf("MaxSeedDistance = %v, want 0.03", cfg.Derived.MaxSeedDistance)
	}
	if got := cfg.Derived.Subdivision; math.Abs(got-1/0.03) > 1e-9 {
		t.Errorf("Subdivision = %v, want 1/0.03", got)
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	path := writeFile(t, `
placement:
  subdivision: 50
  neighborhood: cell
spacing:
  mode: constant
  seed_distance: 0.1
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Derived.Subdivision != 50 {
		t.Errorf("Subdivision = %v, want 50", cfg.Derived.Subdivision)
	}
	if cfg.Derived.Neighborhood != streamline.CellLocal {
		t.Errorf("Neighborhood = %v, want cell", cfg.Derived.Neighborhood)
	}
	if cfg.Derived.MaxSeedDistance != 0.1 {
		t.Errorf("MaxSeedDistance = %v, want 0.1", cfg.Derived.MaxSeedDistance)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Placement.StepSize != 0.005 {
		t.Errorf("StepSize = %v, want default 0.005", cfg.Placement.StepSize)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero step", "placement:\n  step_size: 0\n"},
		{"empty domain", "domain:\n  x_min: 1\n  x_max: 1\n"},
		{"bad neighborhood", "placement:\n  neighborhood: hex\n"},
		{"negative seed distance", "spacing:\n  mode: constant\n  seed_distance: -1\n"},
		{"growth ratio above one", "spacing:\n  growth_ratio: 1.5\n"},
		{"unknown field", "field:\n  mode: curl\n"},
		{"no bands", "ranges:\n  mode: columns\n  bands: 0\n"},
		{"negative subdivision", "placement:\n  subdivision: -3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestRefreshRederives(t *testing.T) {
	cfg := Default()
	cfg.Spacing.Mode = "constant"
	cfg.Spacing.SeedDistance = 0.25
	if err := cfg.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if cfg.Derived.Subdivision != 4 {
		t.Errorf("Subdivision = %v, want 4", cfg.Derived.Subdivision)
	}

	cfg.Spacing.SeedDistance = 0
	if err := cfg.Refresh(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestDerivedSubdivisionCoversSeedDistance(t *testing.T) {
	tests := []struct {
		name string
		mode string
		seed float64
		near float64
		far  float64
		want float64
	}{
		{"unit constant", "constant", 0.1, 0, 0, 10},
		{"wide constant", "constant", 5, 0, 0, 0.2},
		{"wider than one", "constant", 1.5, 0, 0, 1 / 1.5},
		{"radial uses far", "radial", 0, 2, 8, 0.125},
		{"noise uses near", "noise", 0, 4, 0.5, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Domain = DomainConfig{XMin: 0, XMax: 100, YMin: 0, YMax: 100}
			cfg.Spacing.Mode = tt.mode
			cfg.Spacing.SeedDistance = tt.seed
			cfg.Spacing.NearSeedDistance = tt.near
			cfg.Spacing.FarSeedDistance = tt.far
			if err := cfg.Refresh(); err != nil {
				t.Fatalf("Refresh: %v", err)
			}
			if got := cfg.Derived.Subdivision; math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Subdivision = %v, want %v", got, tt.want)
			}
			// One cell must span the largest seed distance.
			if w := 1 / cfg.Derived.Subdivision; w < cfg.Derived.MaxSeedDistance-1e-12 {
				t.Errorf("cell width %v is narrower than seed distance %v", w, cfg.Derived.MaxSeedDistance)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Field.Seed = 99
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Field.Seed != 99 {
		t.Errorf("Field.Seed = %d, want 99", loaded.Field.Seed)
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	saved := global
	global = nil
	defer func() {
		global = saved
		if recover() == nil {
			t.Error("expected Cfg() to panic before Init")
		}
	}()
	Cfg()
}
