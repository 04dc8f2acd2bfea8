// Package geom provides the 2D primitives shared by the placement engine,
// the field library and the renderers.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a position in domain units.
type Point = r2.Vec

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Turns is an angle where 1.0 is a full rotation.
type Turns float64

// Radians converts t to radians.
func (t Turns) Radians() float64 {
	return float64(t) * 2 * math.Pi
}

// Vec returns the unit vector pointing in direction t.
// Zero turns points along +X.
func (t Turns) Vec() r2.Vec {
	s, c := math.Sincos(t.Radians())
	return r2.Vec{X: c, Y: s}
}

// Opposite returns the direction half a turn away.
func (t Turns) Opposite() Turns {
	return t + 0.5
}

// TurnsOf returns the direction of v in turns, in [0, 1).
func TurnsOf(v r2.Vec) Turns {
	a := math.Atan2(v.Y, v.X) / (2 * math.Pi)
	if a < 0 {
		a++
	}
	return Turns(a)
}

// Distance returns the Euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return r2.Norm(r2.Sub(p, q))
}

// Range is a closed interval [Min, Max].
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether v lies in the interval, endpoints included.
func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

// Span returns Max - Min.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// Lerp maps t in [0, 1] onto the interval.
func (r Range) Lerp(t float64) float64 {
	return r.Min + t*(r.Max-r.Min)
}

// Bounds is an axis-aligned region given by one closed interval per axis.
type Bounds struct {
	X Range `yaml:"x" json:"x"`
	Y Range `yaml:"y" json:"y"`
}

// NewBounds is shorthand for Bounds{X: Range{x0, x1}, Y: Range{y0, y1}}.
func NewBounds(x0, x1, y0, y1 float64) Bounds {
	return Bounds{X: Range{Min: x0, Max: x1}, Y: Range{Min: y0, Max: y1}}
}

// Contains reports whether p lies inside both intervals.
func (b Bounds) Contains(p Point) bool {
	return b.X.Contains(p.X) && b.Y.Contains(p.Y)
}

// Box returns b as a gonum box.
func (b Bounds) Box() r2.Box {
	return r2.Box{
		Min: r2.Vec{X: b.X.Min, Y: b.Y.Min},
		Max: r2.Vec{X: b.X.Max, Y: b.Y.Max},
	}
}

// Empty reports whether either interval is inverted or NaN.
func (b Bounds) Empty() bool {
	return !(b.X.Min <= b.X.Max) || !(b.Y.Min <= b.Y.Max)
}
