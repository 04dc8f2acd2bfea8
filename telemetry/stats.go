// Package telemetry provides placement progress tracking, run statistics,
// bookmarks and result export.
package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/streamlines/streamline"
)

// WindowStats holds counters for a window of processed source streamlines.
type WindowStats struct {
	WindowStart int `csv:"-"`
	WindowEnd   int `csv:"window_end"` // Source streamlines processed so far

	Streamlines int `csv:"streamlines"` // Accepted so far
	Points      int `csv:"points"`      // Indexed so far

	// Events during window
	Candidates int     `csv:"candidates"`
	Accepted   int     `csv:"accepted"`
	Rejected   int     `csv:"rejected"`
	AcceptRate float64 `csv:"accept_rate"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean float64 `csv:"mean"`
	Std  float64 `csv:"std"`
	Min  float64 `csv:"min"`
	P10  float64 `csv:"p10"`
	P50  float64 `csv:"p50"`
	P90  float64 `csv:"p90"`
	Max  float64 `csv:"max"`
}

// Describe computes a Distribution. The input is not modified.
func Describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var d Distribution
	if len(sorted) > 1 {
		d.Mean, d.Std = stat.MeanStdDev(sorted, nil)
	} else {
		d.Mean = sorted[0]
	}
	d.Min = floats.Min(sorted)
	d.Max = floats.Max(sorted)
	d.P10 = Percentile(sorted, 0.10)
	d.P50 = Percentile(sorted, 0.50)
	d.P90 = Percentile(sorted, 0.90)
	return d
}

// LogValue implements slog.LogValuer for structured logging.
func (d Distribution) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("mean", d.Mean),
		slog.Float64("std", d.Std),
		slog.Float64("min", d.Min),
		slog.Float64("p10", d.P10),
		slog.Float64("p50", d.P50),
		slog.Float64("p90", d.P90),
		slog.Float64("max", d.Max),
	)
}

// RunStats summarizes a finished placement.
type RunStats struct {
	Streamlines  int
	Points       int
	Cells        int
	Length       Distribution // Polyline length per streamline
	PointCount   Distribution // Points per streamline
	SeedDistance Distribution // Seed distance per streamline
	TotalLength  float64
}

// ComputeRunStats summarizes set.
func ComputeRunStats(set *streamline.Set) RunStats {
	n := set.Len()
	lengths := make([]float64, n)
	counts := make([]float64, n)
	seeds := make([]float64, n)
	for i, s := range set.Streamlines {
		lengths[i] = s.Length()
		counts[i] = float64(len(s.Points))
		seeds[i] = s.SeedDistance
	}

	return RunStats{
		Streamlines:  n,
		Points:       set.Points(),
		Cells:        set.Index.Cells(),
		Length:       Describe(lengths),
		PointCount:   Describe(counts),
		SeedDistance: Describe(seeds),
		TotalLength:  floats.Sum(lengths),
	}
}

// RunStatsCSV is a flat struct for CSV export of run statistics.
type RunStatsCSV struct {
	Streamlines  int     `csv:"streamlines"`
	Points       int     `csv:"points"`
	Cells        int     `csv:"cells"`
	TotalLength  float64 `csv:"total_length"`
	LengthMean   float64 `csv:"length_mean"`
	LengthStd    float64 `csv:"length_std"`
	LengthP10    float64 `csv:"length_p10"`
	LengthP50    float64 `csv:"length_p50"`
	LengthP90    float64 `csv:"length_p90"`
	PointsMean   float64 `csv:"points_mean"`
	SeedDistMin  float64 `csv:"seed_distance_min"`
	SeedDistMean float64 `csv:"seed_distance_mean"`
	SeedDistMax  float64 `csv:"seed_distance_max"`
}

// ToCSV converts RunStats to a flat CSV-friendly struct.
func (s RunStats) ToCSV() RunStatsCSV {
	return RunStatsCSV{
		Streamlines:  s.Streamlines,
		Points:       s.Points,
		Cells:        s.Cells,
		TotalLength:  s.TotalLength,
		LengthMean:   s.Length.Mean,
		LengthStd:    s.Length.Std,
		LengthP10:    s.Length.P10,
		LengthP50:    s.Length.P50,
		LengthP90:    s.Length.P90,
		PointsMean:   s.PointCount.Mean,
		SeedDistMin:  s.SeedDistance.Min,
		SeedDistMean: s.SeedDistance.Mean,
		SeedDistMax:  s.SeedDistance.Max,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s RunStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("streamlines", s.Streamlines),
		slog.Int("points", s.Points),
		slog.Int("cells", s.Cells),
		slog.Float64("total_length", s.TotalLength),
		slog.Any("length", s.Length),
		slog.Any("points_per_line", s.PointCount),
		slog.Any("seed_distance", s.SeedDistance),
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", s.WindowStart),
		slog.Int("window_end", s.WindowEnd),
		slog.Int("streamlines", s.Streamlines),
		slog.Int("points", s.Points),
		slog.Int("candidates", s.Candidates),
		slog.Int("accepted", s.Accepted),
		slog.Int("rejected", s.Rejected),
		slog.Float64("accept_rate", s.AcceptRate),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("window", "stats", s)
}
