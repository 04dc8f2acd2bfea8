package streamline

import "github.com/pthm-cable/streamlines/geom"

// DirectionField gives the local flow direction. It must be pure.
type DirectionField func(p geom.Point) geom.Turns

// SpacingPolicy gives the minimum distances a streamline seeded at p is
// placed with.
type SpacingPolicy interface {
	// SeedDistance is the minimum distance between a new seed and this
	// streamline's points, and the sideways offset used to find seeds.
	SeedDistance(p geom.Point) float64
	// GrowthDistance is the minimum distance a growing streamline keeps
	// from this streamline's points.
	GrowthDistance(p geom.Point) float64
}

// SpacingFuncs adapts a pair of functions to SpacingPolicy.
type SpacingFuncs struct {
	Seed   func(p geom.Point) float64
	Growth func(p geom.Point) float64
}

func (s SpacingFuncs) SeedDistance(p geom.Point) float64   { return s.Seed(p) }
func (s SpacingFuncs) GrowthDistance(p geom.Point) float64 { return s.Growth(p) }

// ConstantSpacing uses the same distances everywhere.
type ConstantSpacing struct {
	Seed, Growth float64
}

func (s ConstantSpacing) SeedDistance(geom.Point) float64   { return s.Seed }
func (s ConstantSpacing) GrowthDistance(geom.Point) float64 { return s.Growth }

// RangePolicy gives the bounds that confine a streamline seeded at p.
type RangePolicy func(p geom.Point) geom.Bounds

// FixedRange confines every streamline to b.
func FixedRange(b geom.Bounds) RangePolicy {
	return func(geom.Point) geom.Bounds { return b }
}

// Spacing is the pair of thresholds one streamline is placed with.
type Spacing struct {
	Seed   float64
	Growth float64
}

// spacingAt evaluates policy at p.
func spacingAt(policy SpacingPolicy, p geom.Point) Spacing {
	return Spacing{Seed: policy.SeedDistance(p), Growth: policy.GrowthDistance(p)}
}
