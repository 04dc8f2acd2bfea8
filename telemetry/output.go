package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/streamlines/config"
	"github.com/pthm-cable/streamlines/geom"
	"github.com/pthm-cable/streamlines/streamline"
)

// PointRecord is one row of streamlines.csv.
type PointRecord struct {
	Streamline     int     `csv:"streamline"`
	Index          int     `csv:"index"`
	X              float64 `csv:"x"`
	Y              float64 `csv:"y"`
	SeedX          float64 `csv:"seed_x"`
	SeedY          float64 `csv:"seed_y"`
	SeedDistance   float64 `csv:"seed_distance"`
	GrowthDistance float64 `csv:"growth_distance"`
	XMin           float64 `csv:"x_min"`
	XMax           float64 `csv:"x_max"`
	YMin           float64 `csv:"y_min"`
	YMax           float64 `csv:"y_max"`
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir          string
	windowFile   *os.File
	perfFile     *os.File
	bookmarkFile *os.File

	// Track if headers have been written
	windowHeaderWritten   bool
	perfHeaderWritten     bool
	bookmarkHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "windows.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating windows.csv: %w", err)
	}
	om.windowFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.windowFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	f, err = os.Create(filepath.Join(dir, "bookmarks.csv"))
	if err != nil {
		om.windowFile.Close()
		om.perfFile.Close()
		return nil, fmt.Errorf("creating bookmarks.csv: %w", err)
	}
	om.bookmarkFile = f

	return om, nil
}

// appendCSV writes records to w, with a header row only on the first call.
func appendCSV[T any](w io.Writer, records []T, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, w); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, w)
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteWindow writes a window stats record to windows.csv.
func (om *OutputManager) WriteWindow(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.windowFile, []WindowStats{stats}, &om.windowHeaderWritten); err != nil {
		return fmt.Errorf("writing window: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.perfFile, []PerfStatsCSV{stats.ToCSV(windowEnd)}, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.bookmarkFile, []Bookmark{b}, &om.bookmarkHeaderWritten); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// WriteRunStats writes stats.csv with a single row.
func (om *OutputManager) WriteRunStats(stats RunStats) error {
	if om == nil {
		return nil
	}
	f, err := os.Create(filepath.Join(om.dir, "stats.csv"))
	if err != nil {
		return fmt.Errorf("creating stats.csv: %w", err)
	}
	defer f.Close()

	if err := gocsv.Marshal([]RunStatsCSV{stats.ToCSV()}, f); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// WriteStreamlines writes every point of lines to streamlines.csv, one row
// per point, in placement order.
func (om *OutputManager) WriteStreamlines(lines []*streamline.Streamline) error {
	if om == nil {
		return nil
	}
	f, err := os.Create(filepath.Join(om.dir, "streamlines.csv"))
	if err != nil {
		return fmt.Errorf("creating streamlines.csv: %w", err)
	}
	defer f.Close()

	if err := WriteStreamlinesCSV(f, lines); err != nil {
		return fmt.Errorf("writing streamlines: %w", err)
	}
	return nil
}

// WriteStreamlinesCSV writes lines as point rows to w.
func WriteStreamlinesCSV(w io.Writer, lines []*streamline.Streamline) error {
	var rows []PointRecord
	for i, s := range lines {
		for j, p := range s.Points {
			rows = append(rows, PointRecord{
				Streamline:     i,
				Index:          j,
				X:              p.X,
				Y:              p.Y,
				SeedX:          s.Seed.X,
				SeedY:          s.Seed.Y,
				SeedDistance:   s.SeedDistance,
				GrowthDistance: s.GrowthDistance,
				XMin:           s.Bounds.X.Min,
				XMax:           s.Bounds.X.Max,
				YMin:           s.Bounds.Y.Min,
				YMax:           s.Bounds.Y.Max,
			})
		}
	}
	return gocsv.Marshal(rows, w)
}

// ReadStreamlines loads streamlines written by WriteStreamlinesCSV. Rows
// must be grouped by streamline and ordered by index.
func ReadStreamlines(r io.Reader) ([]*streamline.Streamline, error) {
	var rows []PointRecord
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parsing streamlines: %w", err)
	}

	var lines []*streamline.Streamline
	for start := 0; start < len(rows); {
		end := start
		for end < len(rows) && rows[end].Streamline == rows[start].Streamline {
			if rows[end].Index != end-start {
				return nil, fmt.Errorf("streamline %d: point %d out of order", rows[end].Streamline, rows[end].Index)
			}
			end++
		}

		head := rows[start]
		points := make([]geom.Point, 0, end-start)
		for _, row := range rows[start:end] {
			points = append(points, geom.Pt(row.X, row.Y))
		}
		s, err := streamline.FromPoints(
			geom.Pt(head.SeedX, head.SeedY),
			points,
			streamline.Spacing{Seed: head.SeedDistance, Growth: head.GrowthDistance},
			geom.NewBounds(head.XMin, head.XMax, head.YMin, head.YMax),
		)
		if err != nil {
			return nil, fmt.Errorf("streamline %d: %w", head.Streamline, err)
		}
		lines = append(lines, s)
		start = end
	}

	return lines, nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.windowFile, om.perfFile, om.bookmarkFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
