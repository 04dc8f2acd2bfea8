package streamline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pthm-cable/streamlines/geom"
)

// ErrStreamlineLimit is returned with a partial set when a run reaches
// Options.MaxStreamlines.
var ErrStreamlineLimit = errors.New("streamline: streamline limit reached")

// Phase names reported to Observer.Phase.
const (
	PhaseShell = "shell"
	PhaseTrace = "trace"
	PhaseIndex = "index"
)

// Observer receives placement progress. All calls happen on the placing
// goroutine, in order.
type Observer interface {
	// Phase marks the start of a phase of work.
	Phase(name string)
	// Candidates reports how many seed candidates source produced.
	Candidates(source *Streamline, n int)
	// Accepted reports a new streamline; index is its position in the set.
	Accepted(index int, s *Streamline)
	// Rejected reports a candidate whose trace was too short.
	Rejected(seed geom.Point)
}

// Options tunes a placement run.
type Options struct {
	Subdivision  float64
	Neighborhood Neighborhood
	// MaxSteps caps each one-directional walk (0 = unlimited).
	MaxSteps int
	// MaxStreamlines stops the run early (0 = unlimited). Tiny spacing
	// relative to the domain otherwise grows the set without bound.
	MaxStreamlines int
	Observer       Observer
}

// Placer grows an evenly spaced set of streamlines from one starting seed.
type Placer struct {
	Field    DirectionField
	Spacing  SpacingPolicy
	Ranges   RangePolicy
	StepSize float64
	Options  Options
}

// Place runs placement to exhaustion. Streamlines come back in discovery
// order: the accepted list doubles as a FIFO worklist, so growth is
// breadth-first from the starting streamline.
func (pl *Placer) Place(start geom.Point) (*Set, error) {
	set := NewSet(NewPointIndex(pl.Options.Subdivision, pl.Options.Neighborhood))
	obs := pl.Options.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	traceOpts := TraceOptions{MaxSteps: pl.Options.MaxSteps}

	obs.Phase(PhaseTrace)
	first, err := FromFlowField(set.Index, start, spacingAt(pl.Spacing, start), pl.Ranges(start), pl.StepSize, pl.Field, traceOpts)
	if err != nil {
		return nil, fmt.Errorf("%w at (%g, %g): %w", ErrNoInitialSeed, start.X, start.Y, err)
	}
	obs.Phase(PhaseIndex)
	set.Add(first)
	obs.Accepted(0, first)
	if pl.Options.MaxStreamlines > 0 && set.Len() >= pl.Options.MaxStreamlines {
		return set, ErrStreamlineLimit
	}

	for cursor := 0; cursor < len(set.Streamlines); cursor++ {
		current := set.Streamlines[cursor]

		obs.Phase(PhaseShell)
		seeds := slices.Collect(current.SeedCandidates(set.Index))
		obs.Candidates(current, len(seeds))

		for _, seed := range seeds {
			obs.Phase(PhaseTrace)
			s, err := FromFlowField(set.Index, seed, spacingAt(pl.Spacing, seed), pl.Ranges(seed), pl.StepSize, pl.Field, traceOpts)
			if err != nil {
				obs.Rejected(seed)
				continue
			}

			obs.Phase(PhaseIndex)
			set.Add(s)
			obs.Accepted(set.Len()-1, s)

			if pl.Options.MaxStreamlines > 0 && set.Len() >= pl.Options.MaxStreamlines {
				return set, ErrStreamlineLimit
			}
		}
	}

	return set, nil
}

// Place is shorthand for building a Placer with a Moore index sized to the
// spacing at start. Policies whose distances grow away from start need a
// Placer with an explicit Subdivision.
func Place(start geom.Point, field DirectionField, spacing SpacingPolicy, ranges RangePolicy, stepSize float64) ([]*Streamline, error) {
	sp := spacingAt(spacing, start)
	pl := &Placer{
		Field:    field,
		Spacing:  spacing,
		Ranges:   ranges,
		StepSize: stepSize,
		Options:  Options{Subdivision: SubdivisionFor(max(sp.Seed, sp.Growth)), Neighborhood: Moore},
	}
	set, err := pl.Place(start)
	if set == nil {
		return nil, err
	}
	return set.Streamlines, err
}

type nopObserver struct{}

func (nopObserver) Phase(string)                {}
func (nopObserver) Candidates(*Streamline, int) {}
func (nopObserver) Accepted(int, *Streamline)   {}
func (nopObserver) Rejected(geom.Point)         {}
