package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/streamlines/geom"
	"github.com/pthm-cable/streamlines/streamline"
)

// Collector receives placement progress as a streamline.Observer, times
// each source streamline and groups counters into windows of windowSize
// sources. Completed windows are checked for bookmarks, logged, and written
// to out when it is non-nil.
type Collector struct {
	windowSize int
	perf       *PerfCollector
	bookmarks  *BookmarkDetector
	out        *OutputManager
	logWindows bool

	// Progress
	sources     int // Source streamlines whose shells have been generated
	streamlines int
	points      int
	windowStart int

	// Event counters for current window
	candidates int
	accepted   int
	rejected   int

	totals Totals
	err    error
}

// Totals holds counters over the whole run.
type Totals struct {
	Sources    int `csv:"sources"`
	Candidates int `csv:"candidates"`
	Accepted   int `csv:"accepted"`
	Rejected   int `csv:"rejected"`
	Bookmarks  int `csv:"bookmarks"`
}

// NewCollector creates a collector. out may be nil.
func NewCollector(windowSize int, out *OutputManager, logWindows bool) *Collector {
	if windowSize < 1 {
		windowSize = 100
	}
	return &Collector{
		windowSize: windowSize,
		perf:       NewPerfCollector(windowSize),
		bookmarks:  NewBookmarkDetector(10),
		out:        out,
		logWindows: logWindows,
	}
}

// Phase implements streamline.Observer. A shell phase starts a new source.
func (c *Collector) Phase(name string) {
	if name == streamline.PhaseShell {
		c.closeSource()
		c.perf.StartSource()
		c.sources++
		c.totals.Sources++
	}
	c.perf.StartPhase(name)
}

// Candidates implements streamline.Observer.
func (c *Collector) Candidates(_ *streamline.Streamline, n int) {
	c.candidates += n
	c.totals.Candidates += n
}

// Accepted implements streamline.Observer.
func (c *Collector) Accepted(_ int, s *streamline.Streamline) {
	c.accepted++
	c.totals.Accepted++
	c.streamlines++
	c.points += len(s.Points)
}

// Rejected implements streamline.Observer.
func (c *Collector) Rejected(geom.Point) {
	c.rejected++
	c.totals.Rejected++
}

// closeSource ends timing of the open source and flushes the window when
// it is full.
func (c *Collector) closeSource() {
	c.perf.EndSource()
	if c.sources > 0 && c.sources-c.windowStart >= c.windowSize {
		c.flush()
	}
}

// Finish closes the last source and flushes the partial window. It returns
// the first output error seen during the run.
func (c *Collector) Finish() error {
	c.perf.EndSource()
	if c.sources > c.windowStart || c.accepted > 0 {
		c.flush()
	}
	return c.err
}

func (c *Collector) flush() {
	stats := WindowStats{
		WindowStart: c.windowStart,
		WindowEnd:   c.sources,
		Streamlines: c.streamlines,
		Points:      c.points,
		Candidates:  c.candidates,
		Accepted:    c.accepted,
		Rejected:    c.rejected,
	}
	if c.candidates > 0 {
		stats.AcceptRate = float64(c.accepted) / float64(c.candidates)
	}
	perf := c.perf.Stats()

	if c.logWindows {
		slog.Info("window", "stats", stats, "perf", perf)
	}
	c.record(c.out.WriteWindow(stats))
	c.record(c.out.WritePerf(perf, stats.WindowEnd))

	for _, b := range c.bookmarks.Check(stats) {
		b.LogBookmark()
		c.totals.Bookmarks++
		c.record(c.out.WriteBookmark(b))
	}

	c.windowStart = c.sources
	c.candidates = 0
	c.accepted = 0
	c.rejected = 0
}

func (c *Collector) record(err error) {
	if err != nil && c.err == nil {
		c.err = err
	}
}

// Totals returns counters over the whole run.
func (c *Collector) Totals() Totals {
	return c.totals
}

// Perf returns the performance collector.
func (c *Collector) Perf() *PerfCollector {
	return c.perf
}
