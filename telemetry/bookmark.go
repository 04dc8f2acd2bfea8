package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSurge      BookmarkType = "surge"
	BookmarkSaturation BookmarkType = "saturation"
	BookmarkStall      BookmarkType = "stall"
)

// Bookmark marks a notable window in a placement run.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Window      int          `csv:"window_end"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"window_end", b.Window,
		"description", b.Description,
	)
}

// BookmarkDetector detects turning points in placement progress.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	stalled   bool // A stall was already reported
	saturated bool // A saturation was already reported
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if len(bd.getHistory()) >= 3 {
		// Surge: more than twice the average acceptances
		if b := bd.checkSurge(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Saturation: accept rate fell below a quarter of the average
		if b := bd.checkSaturation(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Stall: candidates but no acceptances
		if b := bd.checkStall(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	var total int
	for _, h := range history {
		total += h.Accepted
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.Accepted) > avg*2.0 && stats.Accepted >= 5 {
		return &Bookmark{
			Type:        BookmarkSurge,
			Window:      stats.WindowEnd,
			Description: fmt.Sprintf("Accepted %d is %.1fx average (%.1f)", stats.Accepted, float64(stats.Accepted)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSaturation(stats WindowStats) *Bookmark {
	if bd.saturated || stats.Candidates < 20 {
		return nil
	}

	history := bd.getHistory()
	var accepted, candidates int
	for _, h := range history {
		accepted += h.Accepted
		candidates += h.Candidates
	}
	if candidates == 0 || accepted == 0 {
		return nil
	}
	avgRate := float64(accepted) / float64(candidates)

	if stats.AcceptRate < avgRate*0.25 {
		bd.saturated = true
		return &Bookmark{
			Type:        BookmarkSaturation,
			Window:      stats.WindowEnd,
			Description: fmt.Sprintf("Accept rate %.3f dropped below a quarter of average (%.3f)", stats.AcceptRate, avgRate),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStall(stats WindowStats) *Bookmark {
	if bd.stalled || stats.Candidates == 0 || stats.Accepted > 0 {
		return nil
	}
	bd.stalled = true
	return &Bookmark{
		Type:        BookmarkStall,
		Window:      stats.WindowEnd,
		Description: fmt.Sprintf("No acceptances from %d candidates after %d streamlines", stats.Candidates, stats.Streamlines),
	}
}
