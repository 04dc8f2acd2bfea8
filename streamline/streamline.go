package streamline

import (
	"errors"
	"fmt"
	"iter"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/streamlines/geom"
)

var (
	// ErrEmptyTrace means a trace produced fewer than two points. It is
	// routine: the seed sat on a boundary or next to an existing line.
	ErrEmptyTrace = errors.New("streamline: trace has fewer than 2 points")

	// ErrNoInitialSeed means the first streamline of a run could not be
	// built, so placement cannot start.
	ErrNoInitialSeed = errors.New("streamline: no initial streamline")
)

// Streamline is one accepted polyline. It is immutable once built.
type Streamline struct {
	Seed           geom.Point
	Points         []geom.Point
	SeedDistance   float64
	GrowthDistance float64
	Bounds         geom.Bounds
}

// FromFlowField traces a streamline from seed. Tracing stops in each
// direction at the first point outside bounds or closer to an indexed point
// than that point's own growth distance. It returns ErrEmptyTrace when fewer
// than two points survive.
func FromFlowField(index *PointIndex, seed geom.Point, spacing Spacing, bounds geom.Bounds, stepSize float64, field DirectionField, opts TraceOptions) (*Streamline, error) {
	shouldContinue := func(p geom.Point) bool {
		return bounds.Contains(p) && index.clearOfGrowth(p)
	}

	points := Trace(seed, stepSize, field, shouldContinue, opts)
	if len(points) < 2 {
		return nil, ErrEmptyTrace
	}

	return &Streamline{
		Seed:           seed,
		Points:         points,
		SeedDistance:   spacing.Seed,
		GrowthDistance: spacing.Growth,
		Bounds:         bounds,
	}, nil
}

// FromPoints wraps already traced points, for example a re-loaded export.
func FromPoints(seed geom.Point, points []geom.Point, spacing Spacing, bounds geom.Bounds) (*Streamline, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("building streamline from %d points: %w", len(points), ErrEmptyTrace)
	}
	return &Streamline{
		Seed:           seed,
		Points:         points,
		SeedDistance:   spacing.Seed,
		GrowthDistance: spacing.Growth,
		Bounds:         bounds,
	}, nil
}

// Length returns the polyline length.
func (s *Streamline) Length() float64 {
	return geom.PathLength(s.Points)
}

// Spacing returns the thresholds s was placed with.
func (s *Streamline) Spacing() Spacing {
	return Spacing{Seed: s.SeedDistance, Growth: s.GrowthDistance}
}

// SeedCandidates yields the points of s's offset shell that are legal seeds
// for new streamlines: inside s's bounds and at least each nearby indexed
// point's own seed distance away. Validity is checked lazily against the
// index as it is at the moment each point is reached.
func (s *Streamline) SeedCandidates(index *PointIndex) iter.Seq[geom.Point] {
	return func(yield func(geom.Point) bool) {
		for p := range Shell(s.Points, s.SeedDistance) {
			if !s.Bounds.Contains(p) || !index.clearOfSeeds(p) {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// Shell yields, for each vertex of points, a left and then a right offset
// at distance, perpendicular to the forward tangent (toward the next vertex,
// or from the previous one at the last vertex). Vertices whose tangent is
// degenerate are skipped.
func Shell(points []geom.Point, distance float64) iter.Seq[geom.Point] {
	return func(yield func(geom.Point) bool) {
		if len(points) < 2 {
			return
		}
		last := len(points) - 1
		for i := range points {
			var from, to geom.Point
			if i == last {
				from, to = points[i-1], points[i]
			} else {
				from, to = points[i], points[i+1]
			}
			delta := r2.Sub(to, from)
			if delta.X == 0 && delta.Y == 0 {
				continue
			}
			forward := r2.Unit(delta)

			left := r2.Add(points[i], r2.Scale(distance, geom.PerpLeft(forward)))
			right := r2.Add(points[i], r2.Scale(distance, geom.PerpRight(forward)))
			if !yield(left) || !yield(right) {
				return
			}
		}
	}
}
