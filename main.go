package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/streamlines/config"
	"github.com/pthm-cable/streamlines/field"
	"github.com/pthm-cable/streamlines/render"
	"github.com/pthm-cable/streamlines/render/raster"
	"github.com/pthm-cable/streamlines/streamline"
	"github.com/pthm-cable/streamlines/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config and snapshot")
	pngPath := flag.String("png", "", "Write a rendering of the placed streamlines to this PNG file")
	logStats := flag.Bool("log-stats", false, "Log window stats via slog while placing")
	fieldSeed := flag.Int64("field-seed", 0, "Noise seed (0 = use config)")
	maxStreamlines := flag.Int("max-streamlines", -1, "Stop after N streamlines (0 = unlimited, -1 = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *fieldSeed != 0 {
		cfg.Field.Seed = *fieldSeed
	}
	if *maxStreamlines >= 0 {
		cfg.Placement.MaxStreamlines = *maxStreamlines
	}
	if err := cfg.Refresh(); err != nil {
		slog.Error("invalid config overrides", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, *outputDir, *pngPath, *logStats); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, outputDir, pngPath string, logStats bool) error {
	out, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return err
	}
	defer out.Close()

	collector := telemetry.NewCollector(cfg.Telemetry.PerfWindow, out, logStats)
	placer, err := field.NewPlacer(cfg, collector)
	if err != nil {
		return err
	}

	slog.Info("placing streamlines",
		"field", cfg.Field.Mode,
		"spacing", cfg.Spacing.Mode,
		"ranges", cfg.Ranges.Mode,
		"seed", cfg.Field.Seed,
		"subdivision", cfg.Derived.Subdivision,
		"neighborhood", cfg.Derived.Neighborhood.String(),
	)

	start := time.Now()
	set, err := placer.Place(cfg.Derived.Start)
	switch {
	case errors.Is(err, streamline.ErrStreamlineLimit):
		slog.Warn("streamline limit reached", "max_streamlines", cfg.Placement.MaxStreamlines)
	case err != nil:
		return err
	}
	elapsed := time.Since(start)

	if err := collector.Finish(); err != nil {
		slog.Warn("telemetry output failed", "error", err)
	}

	stats := telemetry.ComputeRunStats(set)
	slog.Info("placement complete",
		"elapsed_ms", elapsed.Milliseconds(),
		"stats", stats,
		"totals", collector.Totals(),
	)

	if out != nil {
		if err := out.WriteConfig(cfg); err != nil {
			return err
		}
		if err := out.WriteStreamlines(set.Streamlines); err != nil {
			return err
		}
		if err := out.WriteRunStats(stats); err != nil {
			return err
		}
		path, err := telemetry.SaveSnapshot(telemetry.NewSnapshot(cfg, set), filepath.Join(out.Dir(), "snapshots"))
		if err != nil {
			return err
		}
		slog.Info("wrote output", "dir", out.Dir(), "snapshot", path)
	}

	if pngPath != "" {
		style, err := render.StyleFromConfig(cfg)
		if err != nil {
			return err
		}
		scene := render.BuildScene(render.Frame(cfg.Derived.Bounds, style), set.Streamlines, style)
		if err := raster.WritePNG(pngPath, scene); err != nil {
			return err
		}
		slog.Info("wrote png", "path", pngPath, "width", style.Width, "height", style.Height)
	}

	return nil
}
