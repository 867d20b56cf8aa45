// Package extent implements wumpus's extent-list abstraction (spec.md C2):
// a lazy sequence of (start, end) integer intervals used to represent both
// document boundaries and GCL query results. The closed set of variants is
// modeled as a tagged sum type behind a common List interface, following
// the §9 redesign note ("model as a tagged variant implementing a common
// iterator contract") and the document-at-a-time advance style of
// _examples/vasth-golucene/core/index/postings_enum.go (no go.mod there, so
// it is reference-only idiom, not a teacher copy).
package extent

// Extent is a single closed interval [Start, End], Start <= End.
type Extent struct {
	Start int64
	End   int64
}

// List is the common contract every extent-list variant implements. All
// methods are safe to call repeatedly and must not panic on malformed
// construction; malformed operands collapse to Empty per spec §4.2's
// "constructors on malformed operands yield an empty list" failure model.
type List interface {
	// FirstStartGeq returns the first extent with Start >= p, or ok=false
	// if none exists.
	FirstStartGeq(p int64) (Extent, bool)
	// LastEndLeq returns the last extent with End <= p, or ok=false if none
	// exists.
	LastEndLeq(p int64) (Extent, bool)
	// Length returns the number of extents, computing it lazily once if the
	// variant doesn't track it incrementally.
	Length() int64
	// TotalSize returns the sum of (End-Start+1) across every extent.
	TotalSize() int64
	// Selectivity is an optimizer hint in [0,1]: the estimated fraction of
	// the index's postings this list will touch. Cheap, possibly
	// approximate variants return an upper bound rather than iterate.
	Selectivity() float64
}

// Empty is the extent list with no elements.
type Empty struct{}

func (Empty) FirstStartGeq(int64) (Extent, bool) { return Extent{}, false }
func (Empty) LastEndLeq(int64) (Extent, bool)    { return Extent{}, false }
func (Empty) Length() int64                      { return 0 }
func (Empty) TotalSize() int64                   { return 0 }
func (Empty) Selectivity() float64               { return 0 }

// Singleton is an extent list holding exactly one fixed extent.
type Singleton struct {
	E Extent
}

// NewSingleton builds a one-element list, collapsing to Empty if the
// interval is malformed (Start > End).
func NewSingleton(start, end int64) List {
	if start > end {
		return Empty{}
	}
	return Singleton{E: Extent{Start: start, End: end}}
}

func (s Singleton) FirstStartGeq(p int64) (Extent, bool) {
	if s.E.Start >= p {
		return s.E, true
	}
	return Extent{}, false
}

func (s Singleton) LastEndLeq(p int64) (Extent, bool) {
	if s.E.End <= p {
		return s.E, true
	}
	return Extent{}, false
}

func (s Singleton) Length() int64    { return 1 }
func (s Singleton) TotalSize() int64 { return s.E.End - s.E.Start + 1 }
func (s Singleton) Selectivity() float64 { return 1 }

// Postings is an extent list backed by a sorted slice of postings read from
// an inverted file segment, each posting treated as a zero-width extent
// [p,p]. Real index-backed iterators wrap an on-disk/in-place segment
// reader behind the same shape; this in-memory slice form is what the
// accumulator and tests use directly.
type Postings struct {
	values []int64
}

// NewPostings wraps a strictly increasing slice of postings as an extent
// list. A non-increasing or empty slice collapses to Empty.
func NewPostings(values []int64) List {
	if len(values) == 0 {
		return Empty{}
	}
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return Empty{}
		}
	}
	return Postings{values: values}
}

func (p Postings) FirstStartGeq(target int64) (Extent, bool) {
	idx := lowerBound(p.values, target)
	if idx >= len(p.values) {
		return Extent{}, false
	}
	return Extent{Start: p.values[idx], End: p.values[idx]}, true
}

func (p Postings) LastEndLeq(target int64) (Extent, bool) {
	idx := lowerBound(p.values, target+1) - 1
	if idx < 0 {
		return Extent{}, false
	}
	return Extent{Start: p.values[idx], End: p.values[idx]}, true
}

func (p Postings) Length() int64    { return int64(len(p.values)) }
func (p Postings) TotalSize() int64 { return int64(len(p.values)) }
func (p Postings) Selectivity() float64 {
	if len(p.values) == 0 {
		return 0
	}
	return 1
}

func lowerBound(values []int64, target int64) int {
	lo, hi := 0, len(values)
	for lo < hi {
		mid := (lo + hi) / 2
		if values[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
