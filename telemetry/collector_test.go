package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"
)

func TestCollectorTotals(t *testing.T) {
	c := NewCollector(4, nil, false)
	set := placeHorizontal(t, c)
	if err := c.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	totals := c.Totals()
	if totals.Accepted != set.Len() {
		t.Errorf("Accepted = %d, want %d", totals.Accepted, set.Len())
	}
	// Every streamline is processed as a source once.
	if totals.Sources != set.Len() {
		t.Errorf("Sources = %d, want %d", totals.Sources, set.Len())
	}
	// Each candidate is either rejected or becomes a streamline; the first
	// streamline is not a candidate.
	if totals.Candidates != totals.Rejected+totals.Accepted-1 {
		t.Errorf("Candidates = %d, want rejected %d + accepted %d - 1",
			totals.Candidates, totals.Rejected, totals.Accepted)
	}

	if stats := c.Perf().Stats(); stats.AvgDuration < 0 {
		t.Errorf("negative average duration %v", stats.AvgDuration)
	}
}

func TestCollectorWritesWindows(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	const windowSize = 4
	c := NewCollector(windowSize, om, false)
	set := placeHorizontal(t, c)
	if err := c.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "windows.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var windows []WindowStats
	if err := gocsv.Unmarshal(f, &windows); err != nil {
		t.Fatalf("parsing windows.csv: %v", err)
	}

	sources := c.Totals().Sources
	want := (sources + windowSize - 1) / windowSize
	if len(windows) != want {
		t.Fatalf("got %d windows for %d sources, want %d", len(windows), sources, want)
	}

	accepted := 0
	for i, w := range windows {
		accepted += w.Accepted
		if i < len(windows)-1 && w.WindowEnd != (i+1)*windowSize {
			t.Errorf("window %d ends at %d, want %d", i, w.WindowEnd, (i+1)*windowSize)
		}
		if w.Candidates > 0 && w.AcceptRate != float64(w.Accepted)/float64(w.Candidates) {
			t.Errorf("window %d accept rate %v inconsistent", i, w.AcceptRate)
		}
	}
	if accepted != set.Len() {
		t.Errorf("windows accepted %d streamlines, want %d", accepted, set.Len())
	}
	if last := windows[len(windows)-1]; last.WindowEnd != sources {
		t.Errorf("last window ends at %d, want %d", last.WindowEnd, sources)
	}
	if last := windows[len(windows)-1]; last.Streamlines != set.Len() {
		t.Errorf("last window reports %d streamlines, want %d", last.Streamlines, set.Len())
	}
}
