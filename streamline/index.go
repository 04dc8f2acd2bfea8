// Package streamline places evenly spaced streamlines through a 2D
// direction field.
//
// A run starts from one seed, traces a streamline through the field in both
// directions, then repeatedly offsets each accepted streamline sideways to
// find seeds for new ones. Every accepted point is remembered in a
// PointIndex together with the spacing its own streamline was placed with,
// so that regions of different density never crowd each other.
package streamline

import (
	"iter"
	"math"

	"github.com/pthm-cable/streamlines/geom"
)

// DefaultSubdivision is the number of index cells per domain unit.
const DefaultSubdivision = 100

// SubdivisionFor returns the finest subdivision whose cells are still
// maxDistance wide, so a Moore check sees every entry within maxDistance.
// The result may be fractional. A non-positive maxDistance yields
// DefaultSubdivision.
func SubdivisionFor(maxDistance float64) float64 {
	if !(maxDistance > 0) {
		return DefaultSubdivision
	}
	return 1 / maxDistance
}

// Neighborhood selects which cells a proximity check examines.
type Neighborhood int

const (
	// CellLocal checks only the candidate's own cell. Thresholds must be
	// well below one cell width or near-boundary neighbors are missed.
	CellLocal Neighborhood = iota
	// Moore checks the candidate's cell and its eight neighbors, which
	// finds every entry within one cell width of the candidate.
	Moore
)

// String returns the config spelling of n.
func (n Neighborhood) String() string {
	switch n {
	case CellLocal:
		return "cell"
	case Moore:
		return "moore"
	default:
		return "unknown"
	}
}

// ParseNeighborhood maps the config spelling back to a Neighborhood.
func ParseNeighborhood(s string) (Neighborhood, bool) {
	switch s {
	case "cell":
		return CellLocal, true
	case "moore", "":
		return Moore, true
	}
	return CellLocal, false
}

// Key identifies one index cell.
type Key struct {
	X, Y int
}

// Entry is one accepted point with the thresholds of the streamline that
// owns it.
type Entry struct {
	SeedDistance   float64
	GrowthDistance float64
	Point          geom.Point
}

// PointIndex is a uniform-grid spatial hash of accepted points. It only
// grows; there is no removal.
type PointIndex struct {
	subdivision  float64
	neighborhood Neighborhood
	cells        map[Key][]Entry
	count        int
}

// NewPointIndex creates an empty index with subdivision cells per unit.
// A non-positive subdivision falls back to DefaultSubdivision.
func NewPointIndex(subdivision float64, neighborhood Neighborhood) *PointIndex {
	if subdivision <= 0 {
		subdivision = DefaultSubdivision
	}
	return &PointIndex{
		subdivision:  subdivision,
		neighborhood: neighborhood,
		cells:        make(map[Key][]Entry),
	}
}

// Key returns the cell of p. Coordinates are rounded, not floored, so cells
// are centered on multiples of 1/subdivision.
func (idx *PointIndex) Key(p geom.Point) Key {
	return Key{
		X: int(math.Round(p.X * idx.subdivision)),
		Y: int(math.Round(p.Y * idx.subdivision)),
	}
}

// Insert adds p to its cell. Duplicates are kept.
func (idx *PointIndex) Insert(p geom.Point, seedDistance, growthDistance float64) {
	key := idx.Key(p)
	idx.cells[key] = append(idx.cells[key], Entry{
		SeedDistance:   seedDistance,
		GrowthDistance: growthDistance,
		Point:          p,
	})
	idx.count++
}

// PointsNear returns the entries in p's own cell, or nil if it is empty.
// The returned slice must not be modified.
func (idx *PointIndex) PointsNear(p geom.Point) []Entry {
	return idx.cells[idx.Key(p)]
}

// Nearby yields the entries a proximity check against p must examine,
// according to the index's neighborhood.
func (idx *PointIndex) Nearby(p geom.Point) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		center := idx.Key(p)
		if idx.neighborhood == CellLocal {
			for _, e := range idx.cells[center] {
				if !yield(e) {
					return
				}
			}
			return
		}
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				for _, e := range idx.cells[Key{X: center.X + dx, Y: center.Y + dy}] {
					if !yield(e) {
						return
					}
				}
			}
		}
	}
}

// Len returns the number of inserted points.
func (idx *PointIndex) Len() int {
	return idx.count
}

// Cells returns the number of non-empty cells.
func (idx *PointIndex) Cells() int {
	return len(idx.cells)
}

// CellWidth returns the width of one cell in domain units.
func (idx *PointIndex) CellWidth() float64 {
	return 1 / idx.subdivision
}

// Neighborhood returns the neighborhood the index was created with.
func (idx *PointIndex) Neighborhood() Neighborhood {
	return idx.neighborhood
}

// seedTolerance absorbs rounding in shell offsets, which sit exactly one
// seed distance from the vertex they were offset from.
const seedTolerance = 1e-9

// clearOfSeeds reports whether p keeps every nearby entry's own seed
// distance.
func (idx *PointIndex) clearOfSeeds(p geom.Point) bool {
	for e := range idx.Nearby(p) {
		if geom.Distance(p, e.Point) < e.SeedDistance-seedTolerance {
			return false
		}
	}
	return true
}

// clearOfGrowth reports whether p keeps every nearby entry's own growth
// distance.
func (idx *PointIndex) clearOfGrowth(p geom.Point) bool {
	for e := range idx.Nearby(p) {
		if geom.Distance(p, e.Point) < e.GrowthDistance {
			return false
		}
	}
	return true
}
