package streamline

import (
	"iter"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/streamlines/geom"
)

// TraceOptions tunes a trace.
type TraceOptions struct {
	// MaxSteps caps the points emitted in each direction (0 = unlimited).
	// Closed orbits in the field never leave the domain and would otherwise
	// trace forever.
	MaxSteps int
}

// Walk yields an Euler walk from start through field. Backward walks step
// half a turn against the field. Each point, start included, is checked with
// shouldContinue before it is yielded; the first point that fails ends the
// walk and is not yielded.
func Walk(start geom.Point, stepSize float64, field DirectionField, forward bool, shouldContinue func(geom.Point) bool, maxSteps int) iter.Seq[geom.Point] {
	return func(yield func(geom.Point) bool) {
		current := start
		for n := 0; maxSteps <= 0 || n < maxSteps; n++ {
			if !shouldContinue(current) {
				return
			}

			angle := field(current)
			if !forward {
				angle = angle.Opposite()
			}
			next := r2.Add(current, r2.Scale(stepSize, angle.Vec()))

			if !yield(current) {
				return
			}
			current = next
		}
	}
}

// Trace returns the streamline through seed in front-to-back order: the
// backward walk reversed, then the forward walk. The seed appears once, at
// the junction. The result is empty when the seed itself fails
// shouldContinue.
func Trace(seed geom.Point, stepSize float64, field DirectionField, shouldContinue func(geom.Point) bool, opts TraceOptions) []geom.Point {
	// The backward walk starts with the seed, so after reversal it ends there.
	points := slices.Collect(Walk(seed, stepSize, field, false, shouldContinue, opts.MaxSteps))
	if len(points) == 0 {
		return nil
	}
	slices.Reverse(points)

	first := true
	for p := range Walk(seed, stepSize, field, true, shouldContinue, opts.MaxSteps) {
		// Skip the seed, already emitted by the backward walk.
		if first {
			first = false
			continue
		}
		points = append(points, p)
	}
	return points
}
