// Streamline preview tool - interactive placement with sliders.
//
// Usage: go run ./cmd/streamlinepreview [-config path]
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/streamlines/camera"
	"github.com/pthm-cable/streamlines/config"
	"github.com/pthm-cable/streamlines/field"
	"github.com/pthm-cable/streamlines/render"
	"github.com/pthm-cable/streamlines/render/raster"
	"github.com/pthm-cable/streamlines/streamline"
	"github.com/pthm-cable/streamlines/telemetry"
)

const (
	windowWidth  = 1100
	windowHeight = 740
	previewSize  = 720
	panelWidth   = windowWidth - previewSize - 30
)

var fieldModes = []string{"constant", "perlin", "simplex", "vortex"}

// previewState is the result of the last placement.
type previewState struct {
	scene   render.Scene
	stats   telemetry.RunStats
	elapsed time.Duration
	limited bool
	err     error
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	defaults := *cfg

	rl.InitWindow(windowWidth, windowHeight, "Streamline Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	style, err := render.StyleFromConfig(cfg)
	if err != nil {
		slog.Error("bad render style", "error", err)
		os.Exit(1)
	}
	style.Width, style.Height, style.Margin = previewSize, previewSize, 16

	cam := camera.New(previewSize, previewSize, cfg.Derived.Bounds, float64(style.Margin))
	perf := telemetry.NewPerfCollector(30)

	var set *streamline.Set
	var state previewState
	needsRegen := true
	needsScene := false

	for !rl.WindowShouldClose() {
		perf.RecordFrame()

		if needsRegen {
			set, state = place(cfg)
			needsRegen = false
			needsScene = true
		}
		if needsScene && set != nil {
			state.scene = render.BuildScene(cam, set.Streamlines, style)
			needsScene = false
		}

		// Camera controls over the preview area
		mouse := rl.GetMousePosition()
		if mouse.X < previewSize && mouse.Y < previewSize {
			if wheel := rl.GetMouseWheelMove(); wheel != 0 {
				cam.ZoomBy(1 + 0.1*float64(wheel))
				needsScene = true
			}
			if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
				d := rl.GetMouseDelta()
				if d.X != 0 || d.Y != 0 {
					cam.Pan(-d.X, -d.Y)
					needsScene = true
				}
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.BeginScissorMode(0, 0, previewSize, previewSize)
		rl.DrawRectangle(0, 0, previewSize, previewSize, style.Background)
		raster.Draw(state.scene)
		rl.EndScissorMode()
		rl.DrawRectangleLines(0, 0, previewSize, previewSize, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Streamline Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		changed := false
		slider := func(label, format string, value *float64, lo, hi float32) {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			next := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				"", "",
				float32(*value), lo, hi,
			)
			rl.DrawText(fmt.Sprintf(format, *value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			if next != float32(*value) {
				*value = float64(next)
				changed = true
			}
			panelY += 35
		}

		switch cfg.Spacing.Mode {
		case "constant":
			slider("Seed distance", "%.3f", &cfg.Spacing.SeedDistance, 0.005, 0.1)
		default:
			slider("Near seed distance", "%.3f", &cfg.Spacing.NearSeedDistance, 0.005, 0.1)
			slider("Far seed distance", "%.3f", &cfg.Spacing.FarSeedDistance, 0.005, 0.1)
		}
		slider("Growth ratio", "%.2f", &cfg.Spacing.GrowthRatio, 0.1, 1)
		slider("Step size", "%.4f", &cfg.Placement.StepSize, 0.001, 0.02)
		slider("Field angle (turns)", "%.2f", &cfg.Field.Angle, 0, 1)
		slider("Field scale", "%.2f", &cfg.Field.Scale, 0.1, 8)

		rl.DrawText("Field seed", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newSeed := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"", "",
			float32(cfg.Field.Seed), 0, 99999,
		)
		rl.DrawText(fmt.Sprintf("%d", cfg.Field.Seed), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if int64(newSeed) != cfg.Field.Seed {
			cfg.Field.Seed = int64(newSeed)
			changed = true
		}
		panelY += 45

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Field: "+cfg.Field.Mode) {
			cfg.Field.Mode = nextMode(cfg.Field.Mode)
			changed = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			cfg.Field.Seed = int64(rl.GetRandomValue(0, 99999))
			changed = true
		}
		panelY += 40

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset View") {
			cam.Reset()
			needsScene = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			*cfg = defaults
			cam.Reset()
			changed = true
		}
		panelY += 50

		if changed {
			if err := cfg.Refresh(); err != nil {
				state.err = err
			} else {
				needsRegen = true
			}
		}

		// Stats
		perfStats := perf.Stats()
		lines := []string{
			fmt.Sprintf("Streamlines: %d  Points: %d", state.stats.Streamlines, state.stats.Points),
			fmt.Sprintf("Length p50: %.3f  max: %.3f", state.stats.Length.P50, state.stats.Length.Max),
			fmt.Sprintf("Placed in %d ms  FPS: %.0f", state.elapsed.Milliseconds(), perfStats.FPS),
		}
		if state.limited {
			lines = append(lines, "Streamline limit reached")
		}
		for _, line := range lines {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.DarkGray)
			panelY += 18
		}
		if state.err != nil {
			rl.DrawText(state.err.Error(), int32(panelX), int32(panelY), 12, rl.Maroon)
		}

		// Instructions
		rl.DrawText("Drag to pan, wheel to zoom", int32(panelX), int32(windowHeight-48), 12, rl.LightGray)
		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)

		// Copy to clipboard on C key
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yamlSnippet(cfg))
		}

		rl.EndDrawing()
	}
}

// place runs a full placement for cfg.
func place(cfg *config.Config) (*streamline.Set, previewState) {
	placer, err := field.NewPlacer(cfg, nil)
	if err != nil {
		return nil, previewState{err: err}
	}

	start := time.Now()
	set, err := placer.Place(cfg.Derived.Start)
	state := previewState{elapsed: time.Since(start)}
	switch {
	case errors.Is(err, streamline.ErrStreamlineLimit):
		state.limited = true
	case err != nil:
		state.err = err
		return nil, state
	}
	state.stats = telemetry.ComputeRunStats(set)
	return set, state
}

func nextMode(mode string) string {
	for i, m := range fieldModes {
		if m == mode {
			return fieldModes[(i+1)%len(fieldModes)]
		}
	}
	return fieldModes[0]
}

func yamlSnippet(cfg *config.Config) string {
	return fmt.Sprintf(`placement:
  step_size: %.4f
spacing:
  mode: %s
  seed_distance: %.4f
  near_seed_distance: %.4f
  far_seed_distance: %.4f
  growth_ratio: %.2f
field:
  mode: %s
  angle: %.3f
  scale: %.2f
  seed: %d`,
		cfg.Placement.StepSize,
		cfg.Spacing.Mode, cfg.Spacing.SeedDistance, cfg.Spacing.NearSeedDistance,
		cfg.Spacing.FarSeedDistance, cfg.Spacing.GrowthRatio,
		cfg.Field.Mode, cfg.Field.Angle, cfg.Field.Scale, cfg.Field.Seed)
}
