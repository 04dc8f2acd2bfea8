package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/streamlines/streamline"
)

// Phases timed per source streamline, in the order a source is processed.
var Phases = []string{streamline.PhaseShell, streamline.PhaseTrace, streamline.PhaseIndex}

// PerfSample holds timing data for one source streamline: generating its
// seed candidates, tracing them, and indexing the accepted ones.
type PerfSample struct {
	Duration time.Duration
	Phases   map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	sourceStart   time.Time
	phaseStart    time.Time
	lastPhase     string
	open          bool

	// Frame timing (preview window)
	lastFrameTime time.Time
	frameDuration time.Duration

	now func() time.Time
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of source streamlines to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 100
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
		now:           time.Now,
	}
}

// StartSource begins timing a new source streamline, closing the previous
// one if it is still open.
func (p *PerfCollector) StartSource() {
	if p.open {
		p.EndSource()
	}
	p.sourceStart = p.now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
	p.open = true
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndSource finishes timing the current source streamline and records the
// sample. It does nothing if no source is open.
func (p *PerfCollector) EndSource() {
	if !p.open {
		return
	}
	now := p.now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		Duration: now.Sub(p.sourceStart),
		Phases:   p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastPhase = ""
	p.open = false
}

// RecordFrame records frame timing for the preview window.
func (p *PerfCollector) RecordFrame() {
	now := p.now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgDuration time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total source time
	PhasePct map[string]float64

	SourcesPerSecond float64

	// Frame timing (preview window)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:      make(map[string]time.Duration),
			PhasePct:      make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	var total, minDur, maxDur time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.Duration

		if i == 0 || s.Duration < minDur {
			minDur = s.Duration
		}
		if s.Duration > maxDur {
			maxDur = s.Duration
		}

		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgDuration:      avg,
		MinDuration:      minDur,
		MaxDuration:      maxDur,
		PhaseAvg:         phaseAvg,
		PhasePct:         phasePct,
		SourcesPerSecond: perSec,
		FrameDuration:    p.frameDuration,
		FPS:              fps,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_source_us", s.AvgDuration.Microseconds()),
		slog.Int64("min_source_us", s.MinDuration.Microseconds()),
		slog.Int64("max_source_us", s.MaxDuration.Microseconds()),
		slog.Float64("sources_per_sec", s.SourcesPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd     int     `csv:"window_end"`
	AvgSourceUS   int64   `csv:"avg_source_us"`
	MinSourceUS   int64   `csv:"min_source_us"`
	MaxSourceUS   int64   `csv:"max_source_us"`
	SourcesPerSec float64 `csv:"sources_per_sec"`
	ShellPct      float64 `csv:"shell_pct"`
	TracePct      float64 `csv:"trace_pct"`
	IndexPct      float64 `csv:"index_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgSourceUS:   s.AvgDuration.Microseconds(),
		MinSourceUS:   s.MinDuration.Microseconds(),
		MaxSourceUS:   s.MaxDuration.Microseconds(),
		SourcesPerSec: s.SourcesPerSecond,
		ShellPct:      s.PhasePct[streamline.PhaseShell],
		TracePct:      s.PhasePct[streamline.PhaseTrace],
		IndexPct:      s.PhasePct[streamline.PhaseIndex],
	}
}
