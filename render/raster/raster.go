// Package raster draws render scenes with raylib, either into a CPU image
// for PNG export or into the current window.
package raster

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/streamlines/render"
)

const (
	saturation = 0.55
	value      = 0.45
)

// Rasterize draws scene into a new CPU image. The caller must release it
// with rl.UnloadImage.
func Rasterize(scene render.Scene) *rl.Image {
	img := rl.GenImageColor(scene.Width, scene.Height, scene.Background)
	thick := max(int32(scene.StrokeWidth+0.5), 1)
	for _, s := range scene.Strokes {
		col := rl.ColorFromHSV(float32(s.Hue), saturation, value)
		for i := 1; i < len(s.Points); i++ {
			rl.ImageDrawLineEx(img, vec(s.Points[i-1]), vec(s.Points[i]), thick, col)
		}
	}
	return img
}

// WritePNG rasterizes scene and writes it to path.
func WritePNG(path string, scene render.Scene) error {
	img := Rasterize(scene)
	defer rl.UnloadImage(img)
	if !rl.ExportImage(*img, path) {
		return fmt.Errorf("exporting %s failed", path)
	}
	return nil
}

// Draw renders scene into the active drawing context. Call between
// rl.BeginDrawing and rl.EndDrawing.
func Draw(scene render.Scene) {
	for _, s := range scene.Strokes {
		col := rl.ColorFromHSV(float32(s.Hue), saturation, value)
		points := make([]rl.Vector2, len(s.Points))
		for i, p := range s.Points {
			points[i] = vec(p)
		}
		if scene.StrokeWidth <= 1 {
			rl.DrawLineStrip(points, col)
			continue
		}
		rl.DrawSplineLinear(points, float32(scene.StrokeWidth), col)
	}
}

func vec(p render.Pixel) rl.Vector2 {
	return rl.Vector2{X: p.X, Y: p.Y}
}
