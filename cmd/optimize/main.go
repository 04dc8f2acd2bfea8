// Package main tunes spacing parameters so placements land near a target
// streamline count across several field seeds.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/streamlines/config"
)

// EvalRecord is one row of optimize_log.csv.
type EvalRecord struct {
	Eval             int     `csv:"eval"`
	Fitness          float64 `csv:"fitness"`
	Streamlines      float64 `csv:"streamlines"`
	Spread           float64 `csv:"spread"`
	LengthP10        float64 `csv:"length_p10"`
	Failed           int     `csv:"failed"`
	SeedDistance     float64 `csv:"seed_distance"`
	NearSeedDistance float64 `csv:"near_seed_distance"`
	FarSeedDistance  float64 `csv:"far_seed_distance"`
	GrowthRatio      float64 `csv:"growth_ratio"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	target := flag.Int("target", 400, "Target number of streamlines")
	seeds := flag.Int("seeds", 3, "Number of field seeds per evaluation")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations")
	tuneGrowth := flag.Bool("tune-growth", false, "Also tune spacing.growth_ratio")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if *target < 1 {
		log.Fatal("--target must be at least 1")
	}

	// Create output directory
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Load base config
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	// Leave room above the target so overshoot is visible to the search.
	if limit := 4 * *target; baseCfg.Placement.MaxStreamlines == 0 || baseCfg.Placement.MaxStreamlines > limit {
		baseCfg.Placement.MaxStreamlines = limit
	}

	params := NewParamVector(baseCfg.Spacing.Mode, *tuneGrowth)

	// Generate seeds for evaluation
	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = baseCfg.Field.Seed + int64(i*1000)
	}

	evaluator := NewFitnessEvaluator(params, evalSeeds, baseCfg, *target)

	dim := params.Dim()
	initX := params.Normalize(params.ExtractFromConfig(baseCfg))

	// Open log file
	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	// Track evaluations and timing
	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			// Denormalize and clamp to get actual parameter values
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(clamped)
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}

			// Log the values actually used
			cfg := *baseCfg
			params.ApplyToConfig(&cfg, clamped)
			res := evaluator.LastResult()
			record := EvalRecord{
				Eval:             evalCount,
				Fitness:          fitness,
				Streamlines:      res.Streamlines,
				Spread:           res.Spread,
				LengthP10:        res.LengthP10,
				Failed:           res.Failed,
				SeedDistance:     cfg.Spacing.SeedDistance,
				NearSeedDistance: cfg.Spacing.NearSeedDistance,
				FarSeedDistance:  cfg.Spacing.FarSeedDistance,
				GrowthRatio:      cfg.Spacing.GrowthRatio,
			}
			write := gocsv.MarshalWithoutHeaders
			if evalCount == 1 {
				write = gocsv.Marshal
			}
			if err := write([]EvalRecord{record}, logFile); err != nil {
				log.Printf("failed to log evaluation: %v", err)
			}

			// Calculate timing
			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(max(*maxEvals-evalCount, 0)) * avgPerEval

			fmt.Printf("Eval %d/%d: streamlines=%.0f±%.0f p10=%.3f fitness=%.4f (best=%.4f) | elapsed: %s, ETA: %s\n",
				evalCount, *maxEvals, res.Streamlines, res.Spread, res.LengthP10, fitness, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation; seeds run in parallel inside Evaluate
	}

	method := &optimize.NelderMead{
		SimplexSize: 0.2,
	}

	fmt.Printf("Starting Nelder-Mead search over %d parameters, target=%d, max_evals=%d\n",
		dim, *target, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, spacing mode: %s\n", *seeds, baseCfg.Spacing.Mode)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluations completed")
	}

	totalTime := time.Since(startTime)
	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(totalTime))
	fmt.Printf("Best fitness: %.4f\n", bestFitness)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, bestParams[i])
	}

	// Save best config
	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}
}
