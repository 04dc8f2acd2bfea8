// Package render turns placed streamlines into projected, smoothed strokes
// ready to rasterize or draw on screen.
package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/pthm-cable/streamlines/camera"
	"github.com/pthm-cable/streamlines/config"
	"github.com/pthm-cable/streamlines/geom"
	"github.com/pthm-cable/streamlines/streamline"
)

// Style holds drawing parameters.
type Style struct {
	Width, Height int
	Margin        int
	Background    color.RGBA
	StrokeWidth   float64

	// Hues are spread over [HueStart, HueStart+HueSpan) by placement order.
	HueStart, HueSpan float64

	// Chaikin smoothing applied to the drawn copy only.
	Tightness float64
	Repeats   int
}

// StyleFromConfig builds a Style from the render and smoothing sections.
func StyleFromConfig(cfg *config.Config) (Style, error) {
	bg, err := ParseHex(cfg.Render.Background)
	if err != nil {
		return Style{}, fmt.Errorf("render background: %w", err)
	}
	return Style{
		Width:       cfg.Render.Width,
		Height:      cfg.Render.Height,
		Margin:      cfg.Render.Margin,
		Background:  bg,
		StrokeWidth: cfg.Render.Stroke,
		HueStart:    cfg.Render.HueStart,
		HueSpan:     cfg.Render.HueSpan,
		Tightness:   cfg.Smoothing.Tightness,
		Repeats:     cfg.Smoothing.Repeats,
	}, nil
}

// ParseHex parses "#rrggbb" or "#rrggbbaa".
func ParseHex(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("color %q: want #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Pixel is a screen position.
type Pixel struct {
	X, Y float32
}

// Stroke is one streamline in screen space.
type Stroke struct {
	Points []Pixel
	Hue    float64 // Degrees in [0, 360)
}

// Scene is everything needed to draw one frame.
type Scene struct {
	Width, Height int
	Background    color.RGBA
	StrokeWidth   float64
	Strokes       []Stroke
}

// Hue returns the hue of the i-th of n streamlines.
func Hue(i, n int, start, span float64) float64 {
	h := start
	if n > 1 {
		h += span * float64(i) / float64(n-1)
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// BuildScene smooths and projects lines through cam. Streamline geometry is
// not modified.
func BuildScene(cam *camera.Camera, lines []*streamline.Streamline, style Style) Scene {
	scene := Scene{
		Width:       style.Width,
		Height:      style.Height,
		Background:  style.Background,
		StrokeWidth: style.StrokeWidth,
		Strokes:     make([]Stroke, 0, len(lines)),
	}
	for i, s := range lines {
		points := geom.Smooth(s.Points, style.Tightness, style.Repeats)
		stroke := Stroke{
			Points: make([]Pixel, len(points)),
			Hue:    Hue(i, len(lines), style.HueStart, style.HueSpan),
		}
		for j, p := range points {
			x, y := cam.WorldToScreen(p)
			stroke.Points[j] = Pixel{X: x, Y: y}
		}
		scene.Strokes = append(scene.Strokes, stroke)
	}
	return scene
}

// Frame builds a camera that fits bounds into the style's canvas.
func Frame(bounds geom.Bounds, style Style) *camera.Camera {
	return camera.New(float64(style.Width), float64(style.Height), bounds, float64(style.Margin))
}
