package field

import (
	"math"
	"testing"

	"github.com/pthm-cable/streamlines/config"
	"github.com/pthm-cable/streamlines/geom"
	"github.com/pthm-cable/streamlines/streamline"
)

func TestPerlinDeterministic(t *testing.T) {
	a, b := NewPerlin(7), NewPerlin(7)
	c := NewPerlin(8)

	differs := false
	for i := range 20 {
		x, y := 0.37*float64(i), 0.11*float64(i)+0.5
		if a.Eval2(x, y) != b.Eval2(x, y) {
			t.Fatalf("same seed gave different values at (%v, %v)", x, y)
		}
		if a.Eval2(x, y) != c.Eval2(x, y) {
			differs = true
		}
	}
	if !differs {
		t.Error("different seeds gave identical noise")
	}
}

func TestPerlinRangeAndLattice(t *testing.T) {
	p := NewPerlin(1)
	if got := p.Eval2(3, 4); got != 0 {
		t.Errorf("Eval2 on a lattice point = %v, want 0", got)
	}
	for i := range 500 {
		x, y := 0.173*float64(i), 0.091*float64(i)
		if v := p.Eval2(x, y); v < -1 || v > 1 {
			t.Fatalf("Eval2(%v, %v) = %v, outside [-1, 1]", x, y, v)
		}
	}
}

func TestFBMOctaves(t *testing.T) {
	src := NewSimplex(3)
	p := geom.Pt(0.3, 0.7)

	one := FBM{Source: src, Scale: 2, Octaves: 1, Lacunarity: 2, Gain: 0.5}
	if got, want := one.At(p), 0.5*src.Eval2(0.6, 1.4); math.Abs(got-want) > 1e-12 {
		t.Errorf("one octave = %v, want %v", got, want)
	}

	none := FBM{Source: src, Scale: 2}
	if got := none.At(p); got != 0 {
		t.Errorf("zero octaves = %v, want 0", got)
	}

	u := FBM{Source: src, Scale: 2, Octaves: 4, Lacunarity: 2, Gain: 0.5}.unit(p)
	if u < 0 || u > 1 {
		t.Errorf("unit() = %v, outside [0, 1]", u)
	}
}

func TestVortexIsTangent(t *testing.T) {
	center := geom.Pt(0.5, 0.5)
	f := Vortex(center, 0)

	tests := []struct {
		p    geom.Point
		want geom.Turns
	}{
		{geom.Pt(1, 0.5), 0.25},
		{geom.Pt(0.5, 1), 0.5},
		{geom.Pt(0, 0.5), 0.75},
		{geom.Pt(0.5, 0), 0},
		{center, 0},
	}
	for _, tt := range tests {
		if got := f(tt.p); math.Abs(float64(got-tt.want)) > 1e-12 {
			t.Errorf("Vortex at %v = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestRadialSpacing(t *testing.T) {
	s := RadialSpacing(geom.Pt(0, 0), 1, 0.01, 0.05, 0.5)

	tests := []struct {
		p    geom.Point
		want float64
	}{
		{geom.Pt(0, 0), 0.01},
		{geom.Pt(0.5, 0), 0.03},
		{geom.Pt(1, 0), 0.05},
		{geom.Pt(3, 0), 0.05},
	}
	for _, tt := range tests {
		if got := s.SeedDistance(tt.p); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("SeedDistance(%v) = %v, want %v", tt.p, got, tt.want)
		}
		if got := s.GrowthDistance(tt.p); math.Abs(got-tt.want/2) > 1e-12 {
			t.Errorf("GrowthDistance(%v) = %v, want %v", tt.p, got, tt.want/2)
		}
	}
}

func TestNoiseSpacingStaysInRange(t *testing.T) {
	fbm := FBM{Source: NewSimplex(5), Scale: 3, Octaves: 3, Lacunarity: 2, Gain: 0.5}
	s := NoiseSpacing(fbm, 0.01, 0.04, 0.5)
	for i := range 100 {
		p := geom.Pt(0.01*float64(i), 1-0.01*float64(i))
		if d := s.SeedDistance(p); d < 0.01 || d > 0.04 {
			t.Fatalf("SeedDistance(%v) = %v, outside [0.01, 0.04]", p, d)
		}
	}
}

func TestBands(t *testing.T) {
	b := geom.NewBounds(0, 3, 0, 1)
	cols := Columns(b, 3)

	tests := []struct {
		p    geom.Point
		want geom.Range
	}{
		{geom.Pt(0.5, 0.5), geom.Range{Min: 0, Max: 1}},
		{geom.Pt(1.5, 0.5), geom.Range{Min: 1, Max: 2}},
		{geom.Pt(3, 0.5), geom.Range{Min: 2, Max: 3}},
		{geom.Pt(-1, 0.5), geom.Range{Min: 0, Max: 1}},
	}
	for _, tt := range tests {
		got := cols(tt.p)
		if got.X != tt.want || got.Y != b.Y {
			t.Errorf("Columns at %v = %+v, want x %+v", tt.p, got, tt.want)
		}
	}

	rows := Rows(geom.NewBounds(0, 1, 0, 1), 2)
	if got := rows(geom.Pt(0.2, 0.7)); got.Y != (geom.Range{Min: 0.5, Max: 1}) {
		t.Errorf("Rows = %+v, want y [0.5, 1]", got)
	}
	if got := Columns(b, 1)(geom.Pt(2, 0)); got != b {
		t.Errorf("single band = %+v, want whole bounds", got)
	}
}

func TestFromConfigModes(t *testing.T) {
	tests := []struct {
		field, spacing, ranges string
	}{
		{"constant", "constant", "domain"},
		{"perlin", "radial", "columns"},
		{"simplex", "noise", "rows"},
		{"vortex", "radial", "domain"},
	}

	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.spacing+"/"+tt.ranges, func(t *testing.T) {
			cfg := config.Default()
			cfg.Field.Mode = tt.field
			cfg.Spacing.Mode = tt.spacing
			cfg.Ranges.Mode = tt.ranges
			if err := cfg.Refresh(); err != nil {
				t.Fatalf("Refresh: %v", err)
			}

			pol, err := FromConfig(cfg)
			if err != nil {
				t.Fatalf("FromConfig: %v", err)
			}
			p := geom.Pt(0.3, 0.6)
			_ = pol.Field(p)
			if d := pol.Spacing.SeedDistance(p); d <= 0 || d > cfg.Derived.MaxSeedDistance {
				t.Errorf("SeedDistance = %v, want in (0, %v]", d, cfg.Derived.MaxSeedDistance)
			}
			if r := pol.Ranges(p); !r.Contains(p) {
				t.Errorf("range %+v does not contain its seed %v", r, p)
			}
		})
	}
}

func TestNewPlacerRuns(t *testing.T) {
	cfg := config.Default()
	cfg.Spacing.Mode = "constant"
	cfg.Spacing.SeedDistance = 0.1
	cfg.Placement.StepSize = 0.01
	if err := cfg.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	pl, err := NewPlacer(cfg, nil)
	if err != nil {
		t.Fatalf("NewPlacer: %v", err)
	}
	set, err := pl.Place(cfg.Derived.Start)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if set.Len() < 2 {
		t.Errorf("expected several streamlines, got %d", set.Len())
	}
}

func TestNewPlacerKeepsGrowthSeparation(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*config.Config)
	}{
		{"unit square radial", func(c *config.Config) {
			c.Spacing.NearSeedDistance = 0.04
			c.Spacing.FarSeedDistance = 0.1
			c.Placement.StepSize = 0.01
		}},
		{"wide domain constant", func(c *config.Config) {
			c.Domain = config.DomainConfig{XMin: 0, XMax: 100, YMin: 0, YMax: 100}
			c.Placement.StartX, c.Placement.StartY = 50, 50
			c.Placement.StepSize = 1
			c.Placement.MaxSteps = 500
			c.Spacing.Mode = "constant"
			c.Spacing.SeedDistance = 5
			c.Field.Scale = 0.016
		}},
		{"wide domain vortex", func(c *config.Config) {
			c.Domain = config.DomainConfig{XMin: 0, XMax: 100, YMin: 0, YMax: 100}
			c.Placement.StartX, c.Placement.StartY = 30, 50
			c.Placement.StepSize = 1
			c.Placement.MaxSteps = 200
			c.Spacing.Mode = "constant"
			c.Spacing.SeedDistance = 5
			c.Field.Mode = "vortex"
			c.Field.CenterX, c.Field.CenterY = 50, 50
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Spacing.GrowthRatio = 0.5
			tt.setup(cfg)
			if err := cfg.Refresh(); err != nil {
				t.Fatalf("Refresh: %v", err)
			}

			pl, err := NewPlacer(cfg, nil)
			if err != nil {
				t.Fatalf("NewPlacer: %v", err)
			}
			set, err := pl.Place(cfg.Derived.Start)
			if err != nil {
				t.Fatalf("Place: %v", err)
			}
			if set.Len() < 2 {
				t.Fatalf("expected several streamlines, got %d", set.Len())
			}
			if closest, i, j := closestCrossing(set.Streamlines); i >= 0 {
				t.Errorf("streamline %d comes within %v of streamline %d, want at least %v", j, closest, i, set.Streamlines[i].GrowthDistance)
			}
		})
	}
}

// closestCrossing returns the smallest distance between a later streamline
// and an earlier one that breaks the earlier one's growth distance, with
// their indices, or i = -1 when every pair is clear.
func closestCrossing(lines []*streamline.Streamline) (closest float64, i, j int) {
	closest, i, j = math.Inf(1), -1, -1
	for b := 1; b < len(lines); b++ {
		for a := 0; a < b; a++ {
			growth := lines[a].GrowthDistance
			for _, q := range lines[b].Points {
				for _, p := range lines[a].Points {
					if d := geom.Distance(p, q); d < growth && d < closest {
						closest, i, j = d, a, b
					}
				}
			}
		}
	}
	return closest, i, j
}
