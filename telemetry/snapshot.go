package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/streamlines/config"
	"github.com/pthm-cable/streamlines/geom"
	"github.com/pthm-cable/streamlines/streamline"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds a finished placement and the settings needed to rebuild
// its index.
type Snapshot struct {
	Version int `json:"version"`

	FieldMode   string `json:"field_mode"`
	FieldSeed   int64  `json:"field_seed"`
	SpacingMode string `json:"spacing_mode"`

	Domain       geom.Bounds `json:"domain"`
	Subdivision  float64     `json:"subdivision"`
	Neighborhood string      `json:"neighborhood"`

	Streamlines []StreamlineState `json:"streamlines"`
}

// StreamlineState holds one streamline.
type StreamlineState struct {
	Seed           [2]float64   `json:"seed"`
	SeedDistance   float64      `json:"seed_distance"`
	GrowthDistance float64      `json:"growth_distance"`
	Bounds         geom.Bounds  `json:"bounds"`
	Points         [][2]float64 `json:"points"`
}

// NewSnapshot captures set as placed under cfg.
func NewSnapshot(cfg *config.Config, set *streamline.Set) *Snapshot {
	snap := &Snapshot{
		Version:      SnapshotVersion,
		FieldMode:    cfg.Field.Mode,
		FieldSeed:    cfg.Field.Seed,
		SpacingMode:  cfg.Spacing.Mode,
		Domain:       cfg.Derived.Bounds,
		Subdivision:  cfg.Derived.Subdivision,
		Neighborhood: cfg.Derived.Neighborhood.String(),
		Streamlines:  make([]StreamlineState, 0, set.Len()),
	}
	for _, s := range set.Streamlines {
		state := StreamlineState{
			Seed:           [2]float64{s.Seed.X, s.Seed.Y},
			SeedDistance:   s.SeedDistance,
			GrowthDistance: s.GrowthDistance,
			Bounds:         s.Bounds,
			Points:         make([][2]float64, len(s.Points)),
		}
		for i, p := range s.Points {
			state.Points[i] = [2]float64{p.X, p.Y}
		}
		snap.Streamlines = append(snap.Streamlines, state)
	}
	return snap
}

// Restore rebuilds the set, re-registering every point in a fresh index.
func (snap *Snapshot) Restore() (*streamline.Set, error) {
	neighborhood, ok := streamline.ParseNeighborhood(snap.Neighborhood)
	if !ok {
		return nil, fmt.Errorf("unknown neighborhood %q", snap.Neighborhood)
	}

	set := streamline.NewSet(streamline.NewPointIndex(snap.Subdivision, neighborhood))
	for i, state := range snap.Streamlines {
		points := make([]geom.Point, len(state.Points))
		for j, p := range state.Points {
			points[j] = geom.Pt(p[0], p[1])
		}
		s, err := streamline.FromPoints(
			geom.Pt(state.Seed[0], state.Seed[1]),
			points,
			streamline.Spacing{Seed: state.SeedDistance, Growth: state.GrowthDistance},
			state.Bounds,
		)
		if err != nil {
			return nil, fmt.Errorf("streamline %d: %w", i, err)
		}
		set.Add(s)
	}
	return set, nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%s_%d_%d.json", snapshot.FieldMode, snapshot.FieldSeed, len(snapshot.Streamlines))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
