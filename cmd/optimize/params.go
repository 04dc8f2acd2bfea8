package main

import (
	"github.com/pthm-cable/streamlines/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Path string  // Config path for logging
	Min  float64 // Lower bound
	Max  float64 // Upper bound

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector picks the spacing parameters that matter for mode.
// The growth ratio is tuned when tuneGrowth is set.
func NewParamVector(mode string, tuneGrowth bool) *ParamVector {
	var specs []ParamSpec
	switch mode {
	case "constant":
		specs = append(specs, ParamSpec{
			Name: "seed_distance", Path: "spacing.seed_distance", Min: 0.003, Max: 0.2,
			get: func(c *config.Config) float64 { return c.Spacing.SeedDistance },
			set: func(c *config.Config, v float64) { c.Spacing.SeedDistance = v },
		})
	default:
		specs = append(specs,
			ParamSpec{
				Name: "near_seed_distance", Path: "spacing.near_seed_distance", Min: 0.003, Max: 0.2,
				get: func(c *config.Config) float64 { return c.Spacing.NearSeedDistance },
				set: func(c *config.Config, v float64) { c.Spacing.NearSeedDistance = v },
			},
			ParamSpec{
				Name: "far_seed_distance", Path: "spacing.far_seed_distance", Min: 0.003, Max: 0.2,
				get: func(c *config.Config) float64 { return c.Spacing.FarSeedDistance },
				set: func(c *config.Config, v float64) { c.Spacing.FarSeedDistance = v },
			},
		)
	}
	if tuneGrowth {
		specs = append(specs, ParamSpec{
			Name: "growth_ratio", Path: "spacing.growth_ratio", Min: 0.2, Max: 1.0,
			get: func(c *config.Config) float64 { return c.Spacing.GrowthRatio },
			set: func(c *config.Config, v float64) { c.Spacing.GrowthRatio = v },
		})
	}
	return &ParamVector{Specs: specs}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
}

// ExtractFromConfig reads current parameter values from cfg, clamped to
// their bounds.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	values := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		values[i] = spec.get(cfg)
	}
	return pv.Clamp(values)
}
