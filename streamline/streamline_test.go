package streamline

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/pthm-cable/streamlines/geom"
)

var approxPoints = cmpopts.EquateApprox(0, 1e-12)

func TestShellOffsetsBothSides(t *testing.T) {
	points := []geom.Point{geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(2, 0)}
	got := slices.Collect(Shell(points, 0.1))
	want := []geom.Point{
		geom.Pt(0, 0.1), geom.Pt(0, -0.1),
		geom.Pt(1, 0.1), geom.Pt(1, -0.1),
		geom.Pt(2, 0.1), geom.Pt(2, -0.1),
	}
	if d := cmp.Diff(want, got, approxPoints); d != "" {
		t.Errorf("Shell mismatch (-want +got):\n%s", d)
	}
}

func TestShellLastVertexUsesPreviousTangent(t *testing.T) {
	points := []geom.Point{geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(1, 1)}
	got := slices.Collect(Shell(points, 0.5))
	// The last vertex reuses the tangent from (1,0) to (1,1).
	want := []geom.Point{geom.Pt(0.5, 1), geom.Pt(1.5, 1)}
	if d := cmp.Diff(want, got[len(got)-2:], approxPoints); d != "" {
		t.Errorf("last vertex offsets mismatch (-want +got):\n%s", d)
	}
}

func TestShellSkipsDegenerateTangent(t *testing.T) {
	points := []geom.Point{geom.Pt(0, 0), geom.Pt(0, 0), geom.Pt(1, 0)}
	got := slices.Collect(Shell(points, 0.1))
	want := []geom.Point{
		geom.Pt(0, 0.1), geom.Pt(0, -0.1),
		geom.Pt(1, 0.1), geom.Pt(1, -0.1),
	}
	if d := cmp.Diff(want, got, approxPoints); d != "" {
		t.Errorf("Shell mismatch (-want +got):\n%s", d)
	}
}

func TestShellTooShort(t *testing.T) {
	if got := slices.Collect(Shell([]geom.Point{geom.Pt(0, 0)}, 0.1)); len(got) != 0 {
		t.Errorf("expected no offsets for a single point, got %v", got)
	}
}

func TestSeedCandidatesRespectOwnBounds(t *testing.T) {
	s := &Streamline{
		Points:       []geom.Point{geom.Pt(0.2, 0), geom.Pt(0.4, 0), geom.Pt(0.6, 0)},
		SeedDistance: 0.1,
		Bounds:       geom.NewBounds(0, 1, 0, 1),
	}
	got := slices.Collect(s.SeedCandidates(NewPointIndex(10, Moore)))
	// Right offsets fall below y=0 and are dropped.
	want := []geom.Point{geom.Pt(0.2, 0.1), geom.Pt(0.4, 0.1), geom.Pt(0.6, 0.1)}
	if d := cmp.Diff(want, got, approxPoints); d != "" {
		t.Errorf("SeedCandidates mismatch (-want +got):\n%s", d)
	}
}

func TestSeedCandidatesKeepOwnSeedDistance(t *testing.T) {
	index := NewPointIndex(10, Moore)
	s := &Streamline{
		Points:         []geom.Point{geom.Pt(0.3, 0.5), geom.Pt(0.4, 0.5)},
		SeedDistance:   0.1,
		GrowthDistance: 0.05,
		Bounds:         geom.NewBounds(0, 1, 0, 1),
	}
	set := NewSet(index)
	set.Add(s)

	// Offsets sit exactly one seed distance from the vertex they came from
	// and must not be rejected by that vertex.
	got := slices.Collect(s.SeedCandidates(index))
	if len(got) != 4 {
		t.Errorf("expected all 4 shell points to survive, got %v", got)
	}
}

func TestSeedCandidatesUseEntryThresholds(t *testing.T) {
	index := NewPointIndex(10, Moore)
	// A dense neighbor just above the line: its own seed distance is small.
	index.Insert(geom.Pt(0.5, 0.62), 0.01, 0.005)
	// A sparse neighbor below: its own seed distance is large.
	index.Insert(geom.Pt(0.5, 0.33), 0.2, 0.1)

	s := &Streamline{
		Points:       []geom.Point{geom.Pt(0.5, 0.5), geom.Pt(0.51, 0.5)},
		SeedDistance: 0.1,
		Bounds:       geom.NewBounds(0, 1, 0, 1),
	}
	got := slices.Collect(s.SeedCandidates(index))
	for _, p := range got {
		if p.Y < 0.5 {
			t.Errorf("candidate %v should be rejected by the sparse neighbor's seed distance", p)
		}
	}
	if len(got) != 2 {
		t.Errorf("expected the two upper candidates to survive the dense neighbor, got %v", got)
	}
}

func TestFromFlowFieldStopsAtIndexedPoints(t *testing.T) {
	index := NewPointIndex(10, Moore)
	// A vertical wall of points at x=0.8.
	for y := 0.0; y <= 1.0; y += 0.01 {
		index.Insert(geom.Pt(0.8, y), 0.1, 0.05)
	}

	s, err := FromFlowField(index, geom.Pt(0.5, 0.5), Spacing{Seed: 0.1, Growth: 0.05}, geom.NewBounds(0, 1, 0, 1), 0.01, constantField(0), TraceOptions{})
	if err != nil {
		t.Fatalf("FromFlowField: %v", err)
	}
	for _, p := range s.Points {
		if p.X > 0.75+1e-9 {
			t.Errorf("point %v grew within the wall's growth distance", p)
		}
	}
	if s.Seed != geom.Pt(0.5, 0.5) || s.SeedDistance != 0.1 || s.GrowthDistance != 0.05 {
		t.Errorf("unexpected streamline metadata: %+v", s)
	}
}

func TestFromFlowFieldEmptyTrace(t *testing.T) {
	index := NewPointIndex(10, Moore)
	_, err := FromFlowField(index, geom.Pt(-0.1, 0.5), Spacing{Seed: 0.1, Growth: 0.05}, geom.NewBounds(0, 1, 0, 1), 0.01, constantField(0), TraceOptions{})
	if !errors.Is(err, ErrEmptyTrace) {
		t.Errorf("expected ErrEmptyTrace, got %v", err)
	}

	// A seed on the right edge heading right: only the backward trace
	// survives, which is still a valid line.
	s, err := FromFlowField(index, geom.Pt(1, 0.5), Spacing{Seed: 0.1, Growth: 0.05}, geom.NewBounds(0, 1, 0, 1), 0.01, constantField(0), TraceOptions{})
	if err != nil {
		t.Fatalf("expected a backward-only line, got %v", err)
	}
	if s.Points[len(s.Points)-1] != geom.Pt(1, 0.5) {
		t.Errorf("expected the seed at the front end, got %v", s.Points[len(s.Points)-1])
	}
}

func TestSpacingRejection(t *testing.T) {
	index := NewPointIndex(20, CellLocal)
	set := NewSet(index)
	spacing := Spacing{Seed: 0.05, Growth: 0.045}
	unit := geom.NewBounds(0, 1, 0, 1)

	first, err := FromFlowField(index, geom.Pt(0.5, 0.5), spacing, unit, 0.01, constantField(0), TraceOptions{})
	if err != nil {
		t.Fatalf("first streamline: %v", err)
	}
	set.Add(first)

	second := geom.Pt(0.5, 0.52)
	if len(index.PointsNear(second)) == 0 {
		t.Fatal("expected the first streamline's points in the second seed's cell")
	}
	if index.clearOfSeeds(second) {
		t.Error("expected a seed 0.02 away to be rejected with seed distance 0.05")
	}
	if _, err := FromFlowField(index, second, spacing, unit, 0.01, constantField(0), TraceOptions{}); !errors.Is(err, ErrEmptyTrace) {
		t.Errorf("expected the second trace to be empty, got %v", err)
	}
}

func TestFromPoints(t *testing.T) {
	_, err := FromPoints(geom.Pt(0, 0), []geom.Point{geom.Pt(0, 0)}, Spacing{}, geom.Bounds{})
	if !errors.Is(err, ErrEmptyTrace) {
		t.Errorf("expected ErrEmptyTrace for one point, got %v", err)
	}

	s, err := FromPoints(geom.Pt(0, 0), []geom.Point{geom.Pt(0, 0), geom.Pt(3, 4)}, Spacing{Seed: 1, Growth: 0.5}, geom.NewBounds(0, 5, 0, 5))
	if err != nil {
		t.Fatalf("FromPoints: %v", err)
	}
	if s.Length() != 5 {
		t.Errorf("Length() = %v, want 5", s.Length())
	}
	if s.Spacing() != (Spacing{Seed: 1, Growth: 0.5}) {
		t.Errorf("Spacing() = %+v", s.Spacing())
	}
}
