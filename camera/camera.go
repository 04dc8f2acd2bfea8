// Package camera maps placement domain coordinates to pixels.
package camera

import (
	"math"

	"github.com/pthm-cable/streamlines/geom"
)

// Camera controls the viewport onto the domain. Domain y grows upward,
// screen y grows downward.
type Camera struct {
	// Position is the camera center in domain coordinates
	X, Y float64

	// Zoom level relative to the fitted view (1.0 shows the whole domain)
	Zoom float64

	// Viewport dimensions in pixels
	ViewportW, ViewportH float64

	// Margin in pixels kept clear around the domain at zoom 1
	Margin float64

	Domain geom.Bounds

	// Zoom constraints
	MinZoom, MaxZoom float64
}

// New creates a camera that fits domain inside the viewport with margin
// pixels on the tighter axis.
func New(viewportW, viewportH float64, domain geom.Bounds, margin float64) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		Margin:    margin,
		Domain:    domain,
		MinZoom:   1.0,
		MaxZoom:   16.0,
	}
	c.Reset()
	return c
}

// Scale returns pixels per domain unit at the current zoom.
func (c *Camera) Scale() float64 {
	return c.fitScale() * c.Zoom
}

// fitScale is the pixels-per-unit that fits the whole domain at zoom 1,
// preserving aspect.
func (c *Camera) fitScale() float64 {
	w, h := c.Domain.X.Span(), c.Domain.Y.Span()
	if w <= 0 || h <= 0 {
		return 1
	}
	sx := (c.ViewportW - 2*c.Margin) / w
	sy := (c.ViewportH - 2*c.Margin) / h
	return max(math.Min(sx, sy), math.SmallestNonzeroFloat64)
}

// WorldToScreen converts domain coordinates to screen coordinates.
func (c *Camera) WorldToScreen(p geom.Point) (sx, sy float32) {
	s := c.Scale()
	sx = float32(c.ViewportW/2 + (p.X-c.X)*s)
	sy = float32(c.ViewportH/2 - (p.Y-c.Y)*s)
	return sx, sy
}

// ScreenToWorld converts screen coordinates to domain coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) geom.Point {
	s := c.Scale()
	return geom.Pt(
		c.X+(float64(sx)-c.ViewportW/2)/s,
		c.Y-(float64(sy)-c.ViewportH/2)/s,
	)
}

// IsVisible returns true if a circle at p with the given radius in domain
// units could be visible on screen.
func (c *Camera) IsVisible(p geom.Point, radius float64) bool {
	v := c.VisibleWorldBounds()
	return p.X >= v.X.Min-radius && p.X <= v.X.Max+radius &&
		p.Y >= v.Y.Min-radius && p.Y <= v.Y.Max+radius
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float64) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the camera by the given delta in screen pixels. The center
// stays inside the domain.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X = clamp(c.X+float64(dx)/s, c.Domain.X.Min, c.Domain.X.Max)
	c.Y = clamp(c.Y-float64(dy)/s, c.Domain.Y.Min, c.Domain.Y.Max)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float64) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centers the camera on the domain at zoom 1.
func (c *Camera) Reset() {
	c.X = c.Domain.X.Lerp(0.5)
	c.Y = c.Domain.Y.Lerp(0.5)
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the domain-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() geom.Bounds {
	s := c.Scale()
	halfW := c.ViewportW / (2 * s)
	halfH := c.ViewportH / (2 * s)
	return geom.NewBounds(c.X-halfW, c.X+halfW, c.Y-halfH, c.Y+halfH)
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
