package streamline

// Set is the ordered collection of accepted streamlines and the index of
// all their points.
type Set struct {
	Streamlines []*Streamline
	Index       *PointIndex
}

// NewSet creates an empty set backed by index.
func NewSet(index *PointIndex) *Set {
	return &Set{Index: index}
}

// Add registers every point of s with s's own thresholds, then appends s.
func (set *Set) Add(s *Streamline) {
	for _, p := range s.Points {
		set.Index.Insert(p, s.SeedDistance, s.GrowthDistance)
	}
	set.Streamlines = append(set.Streamlines, s)
}

// Len returns the number of accepted streamlines.
func (set *Set) Len() int {
	return len(set.Streamlines)
}

// Points returns the total number of accepted points.
func (set *Set) Points() int {
	return set.Index.Len()
}
