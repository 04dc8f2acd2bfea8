// Package field builds the direction fields, spacing policies and range
// policies a placement run is driven by.
package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/streamlines/config"
	"github.com/pthm-cable/streamlines/geom"
	"github.com/pthm-cable/streamlines/streamline"
)

// Constant points every streamline the same way.
func Constant(angle geom.Turns) streamline.DirectionField {
	return func(geom.Point) geom.Turns { return angle }
}

// Noise turns angle by the fractal noise value at each point, one unit of
// noise being one full turn.
func Noise(angle geom.Turns, fbm FBM) streamline.DirectionField {
	return func(p geom.Point) geom.Turns {
		return angle + geom.Turns(fbm.At(p))
	}
}

// Vortex circles counterclockwise around center. A non-zero angle bends
// the circles into spirals. At the center itself the direction is angle.
func Vortex(center geom.Point, angle geom.Turns) streamline.DirectionField {
	return func(p geom.Point) geom.Turns {
		d := r2.Sub(p, center)
		if d.X == 0 && d.Y == 0 {
			return angle
		}
		return geom.TurnsOf(geom.PerpLeft(d)) + angle
	}
}

// ConstantSpacing uses one seed distance everywhere.
func ConstantSpacing(seed, growthRatio float64) streamline.ConstantSpacing {
	return streamline.ConstantSpacing{Seed: seed, Growth: seed * growthRatio}
}

// RadialSpacing interpolates the seed distance from near at center to far
// at reach and beyond.
func RadialSpacing(center geom.Point, reach, near, far, growthRatio float64) streamline.SpacingFuncs {
	seed := func(p geom.Point) float64 {
		t := 1.0
		if reach > 0 {
			t = clamp01(geom.Distance(p, center) / reach)
		}
		return near + t*(far-near)
	}
	return streamline.SpacingFuncs{
		Seed:   seed,
		Growth: func(p geom.Point) float64 { return seed(p) * growthRatio },
	}
}

// NoiseSpacing interpolates the seed distance from near to far following
// the noise value at each point.
func NoiseSpacing(fbm FBM, near, far, growthRatio float64) streamline.SpacingFuncs {
	seed := func(p geom.Point) float64 {
		return near + fbm.unit(p)*(far-near)
	}
	return streamline.SpacingFuncs{
		Seed:   seed,
		Growth: func(p geom.Point) float64 { return seed(p) * growthRatio },
	}
}

// Columns splits b into n vertical bands and confines each streamline to
// the band its seed falls in.
func Columns(b geom.Bounds, n int) streamline.RangePolicy {
	return func(p geom.Point) geom.Bounds {
		return geom.Bounds{X: band(b.X, n, p.X), Y: b.Y}
	}
}

// Rows splits b into n horizontal bands.
func Rows(b geom.Bounds, n int) streamline.RangePolicy {
	return func(p geom.Point) geom.Bounds {
		return geom.Bounds{X: b.X, Y: band(b.Y, n, p.Y)}
	}
}

// band returns the slice of r, one of n equal slices, that holds v. Values
// outside r fall in the nearest end slice.
func band(r geom.Range, n int, v float64) geom.Range {
	if n <= 1 {
		return r
	}
	width := r.Span() / float64(n)
	i := int(math.Floor((v - r.Min) / width))
	i = max(0, min(n-1, i))
	lo := r.Min + float64(i)*width
	hi := r.Min + float64(i+1)*width
	if i == n-1 {
		hi = r.Max
	}
	return geom.Range{Min: lo, Max: hi}
}

// Policies is everything a Placer needs besides the start point.
type Policies struct {
	Field   streamline.DirectionField
	Spacing streamline.SpacingPolicy
	Ranges  streamline.RangePolicy
}

// FromConfig builds the policies cfg describes.
func FromConfig(cfg *config.Config) (Policies, error) {
	var pol Policies
	bounds := cfg.Derived.Bounds

	fc := cfg.Field
	switch fc.Mode {
	case "constant":
		pol.Field = Constant(geom.Turns(fc.Angle))
	case "perlin":
		pol.Field = Noise(geom.Turns(fc.Angle), fieldFBM(NewPerlin(fc.Seed), fc))
	case "simplex":
		pol.Field = Noise(geom.Turns(fc.Angle), fieldFBM(NewSimplex(fc.Seed), fc))
	case "vortex":
		pol.Field = Vortex(geom.Pt(fc.CenterX, fc.CenterY), geom.Turns(fc.Angle))
	default:
		return Policies{}, fmt.Errorf("unknown field mode %q", fc.Mode)
	}

	sc := cfg.Spacing
	switch sc.Mode {
	case "constant":
		pol.Spacing = ConstantSpacing(sc.SeedDistance, sc.GrowthRatio)
	case "radial":
		center := geom.Pt(sc.CenterX, sc.CenterY)
		pol.Spacing = RadialSpacing(center, farthestCorner(bounds, center), sc.NearSeedDistance, sc.FarSeedDistance, sc.GrowthRatio)
	case "noise":
		// Offset the seed so spacing noise does not mirror the field noise.
		fbm := fieldFBM(NewSimplex(fc.Seed+1), fc)
		pol.Spacing = NoiseSpacing(fbm, sc.NearSeedDistance, sc.FarSeedDistance, sc.GrowthRatio)
	default:
		return Policies{}, fmt.Errorf("unknown spacing mode %q", sc.Mode)
	}

	switch cfg.Ranges.Mode {
	case "domain":
		pol.Ranges = streamline.FixedRange(bounds)
	case "columns":
		pol.Ranges = Columns(bounds, cfg.Ranges.Bands)
	case "rows":
		pol.Ranges = Rows(bounds, cfg.Ranges.Bands)
	default:
		return Policies{}, fmt.Errorf("unknown ranges mode %q", cfg.Ranges.Mode)
	}

	return pol, nil
}

// NewPlacer returns a placer for cfg reporting to obs, which may be nil.
func NewPlacer(cfg *config.Config, obs streamline.Observer) (*streamline.Placer, error) {
	pol, err := FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("building policies: %w", err)
	}
	return &streamline.Placer{
		Field:    pol.Field,
		Spacing:  pol.Spacing,
		Ranges:   pol.Ranges,
		StepSize: cfg.Placement.StepSize,
		Options: streamline.Options{
			Subdivision:    cfg.Derived.Subdivision,
			Neighborhood:   cfg.Derived.Neighborhood,
			MaxSteps:       cfg.Placement.MaxSteps,
			MaxStreamlines: cfg.Placement.MaxStreamlines,
			Observer:       obs,
		},
	}, nil
}

func fieldFBM(src Noise2D, fc config.FieldConfig) FBM {
	return FBM{
		Source:     src,
		Scale:      fc.Scale,
		Octaves:    fc.Octaves,
		Lacunarity: fc.Lacunarity,
		Gain:       fc.Gain,
	}
}

func farthestCorner(b geom.Bounds, p geom.Point) float64 {
	dx := math.Max(math.Abs(p.X-b.X.Min), math.Abs(p.X-b.X.Max))
	dy := math.Max(math.Abs(p.Y-b.Y.Min), math.Abs(p.Y-b.Y.Max))
	return math.Hypot(dx, dy)
}
