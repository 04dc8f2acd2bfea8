package main

import (
	"errors"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/streamlines/config"
	"github.com/pthm-cable/streamlines/field"
	"github.com/pthm-cable/streamlines/streamline"
	"github.com/pthm-cable/streamlines/telemetry"
)

// Fitness component weights.
const (
	countWeight  = 1.0
	spreadWeight = 0.5
	shortWeight  = 0.1

	// Streamlines shorter than this many seed distances count as stubs.
	stubLengths = 4.0
)

// FitnessEvaluator runs placements over several field seeds and scores
// how close they land to a target streamline count.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []int64
	baseConfig *config.Config
	target     float64

	mu         sync.Mutex
	lastResult EvalResult
}

// EvalResult summarizes one Evaluate call.
type EvalResult struct {
	Fitness     float64
	Streamlines float64 // Mean over seeds
	Spread      float64 // Std over seeds
	LengthP10   float64 // Mean over seeds
	Failed      int     // Seeds with an invalid config or no initial streamline
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, baseCfg *config.Config, target int) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		seeds:      seeds,
		baseConfig: baseCfg,
		target:     float64(target),
	}
}

// LastResult returns the summary of the most recent evaluation.
func (fe *FitnessEvaluator) LastResult() EvalResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastResult
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	stats telemetry.RunStats
	err   error
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			stats, err := fe.runPlacement(x, s)
			results[idx] = seedResult{stats: stats, err: err}
		}(i, seed)
	}
	wg.Wait()

	res := fe.score(results, fe.maxSeedDistance(x))

	fe.mu.Lock()
	fe.lastResult = res
	fe.mu.Unlock()

	return res.Fitness
}

// runPlacement executes a single placement with the field seeded by seed.
func (fe *FitnessEvaluator) runPlacement(x []float64, seed int64) (telemetry.RunStats, error) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Field.Seed = seed
	if err := cfg.Refresh(); err != nil {
		return telemetry.RunStats{}, err
	}

	placer, err := field.NewPlacer(cfg, nil)
	if err != nil {
		return telemetry.RunStats{}, err
	}
	set, err := placer.Place(cfg.Derived.Start)
	if err != nil && !errors.Is(err, streamline.ErrStreamlineLimit) {
		return telemetry.RunStats{}, err
	}
	return telemetry.ComputeRunStats(set), nil
}

// copyConfig returns a copy of the base config. Config holds no
// references, so a value copy is independent.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// maxSeedDistance is the largest seed distance x produces.
func (fe *FitnessEvaluator) maxSeedDistance(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	if cfg.Spacing.Mode == "constant" {
		return cfg.Spacing.SeedDistance
	}
	return math.Max(cfg.Spacing.NearSeedDistance, cfg.Spacing.FarSeedDistance)
}

// score combines per-seed results:
//
//	fitness = countWeight × log²((n+1)/(target+1))
//	        + spreadWeight × (std(n)/mean(n))²
//	        + shortWeight × (1 - min(1, p10 / (stubLengths × seedDistance)))
//
// Failed seeds score as if they placed nothing.
func (fe *FitnessEvaluator) score(results []seedResult, seedDistance float64) EvalResult {
	var res EvalResult
	counts := make([]float64, 0, len(results))
	var countErr, shortSum float64

	for _, r := range results {
		n := float64(r.stats.Streamlines)
		if r.err != nil {
			res.Failed++
			n = 0
		}
		counts = append(counts, n)

		logErr := math.Log((n + 1) / (fe.target + 1))
		countErr += logErr * logErr

		p10 := r.stats.Length.P10
		res.LengthP10 += p10
		shortSum += 1 - clamp01(p10/(stubLengths*seedDistance))
	}

	k := float64(len(results))
	mean, std := stat.MeanStdDev(counts, nil)
	if len(counts) < 2 {
		std = 0
	}
	res.Streamlines = mean
	res.Spread = std
	res.LengthP10 /= k

	spread := 0.0
	if mean > 0 {
		spread = (std / mean) * (std / mean)
	}

	res.Fitness = countWeight*countErr/k + spreadWeight*spread + shortWeight*shortSum/k
	return res
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
