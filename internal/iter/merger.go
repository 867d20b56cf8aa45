package iter

import (
	"github.com/gmargari/wumpus-sub004/internal/extent"
	"github.com/gmargari/wumpus-sub004/pkg/codec"
)

// MinSegmentSize and MaxSegmentSize are segment-length bounds in postings.
// The merger does not consult them: it holds each term's whole decoded list,
// and on-disk segmentation is done by the ondisk package's segmentOf (at
// ondisk.MaxSegmentSize postings) when the target is written.
const (
	MinSegmentSize = 512
	MaxSegmentSize = 1 << 16
)

// ShortTarget receives whole per-term posting lists destined for a
// short-list (compact, merged) partition.
type ShortTarget interface {
	AddTerm(term string, postings []int64, mode codec.Mode) error
}

// LongTarget receives postings destined for the in-place (long-list)
// store. inplace.InPlaceIndex satisfies this directly.
type LongTarget interface {
	AddPostings(term string, postings []int64, mode codec.Mode) error
	FinishUpdate() error
	AppearsInIndex(term string) bool
	SetAppearsInIndex(term string, appears bool)
}

// TermSink collects AddTerm calls into a sorted in-memory slice, the shape
// ondisk.WriteV1/WriteV2 expect. It is the ShortTarget a merge writes into
// before the hybrid manager persists the result to disk.
type TermSink struct {
	terms []TermPostings
}

func NewTermSink() *TermSink { return &TermSink{} }

func (s *TermSink) AddTerm(term string, postings []int64, mode codec.Mode) error {
	s.terms = append(s.terms, TermPostings{Term: term, Postings: postings, Mode: mode})
	return nil
}

// Terms returns every collected term, in the order AddTerm was called
// (callers are expected to drive it from an already-sorted Iterator).
func (s *TermSink) Terms() []TermPostings { return s.terms }

// Merger folds one or more Iterators into a ShortTarget or LongTarget,
// optionally filtering postings against a visible-document extent list for
// garbage collection (spec §4.6).
type Merger struct{}

func NewMerger() *Merger { return &Merger{} }

// MergeIndices drains it into target, term by term. When visible is
// non-nil, each term's postings are filtered to those contained in some
// extent of visible — the "mergeIndicesWithGarbageCollection" path: a
// removed partition's document extents are simply absent from visible, so
// none of its postings survive the containment filter.
func (m *Merger) MergeIndices(target ShortTarget, it Iterator, visible extent.List) error {
	defer it.Close()

	for it.HasNext() {
		term := it.Term()
		postings := it.Postings()
		mode := it.Mode()

		if visible != nil {
			postings = filterVisible(postings, visible)
			if len(postings) == 0 {
				it.Advance()
				continue
			}
		}

		if err := target.AddTerm(term, postings, mode); err != nil {
			return err
		}
		it.Advance()
	}
	return nil
}

// filterVisible keeps only the postings contained in some extent of
// visible, via the extent package's co-sequential ContainedIn intersection
// (spec §4.6's "co-sequential / galloping intersection between postings and
// intervals").
func filterVisible(postings []int64, visible extent.List) []int64 {
	inner := extent.NewPostings(postings)
	filtered := extent.NewContainedIn(inner, visible)

	out := make([]int64, 0, len(postings))
	pos := int64(0)
	for {
		e, ok := filtered.FirstStartGeq(pos)
		if !ok {
			break
		}
		out = append(out, e.Start)
		pos = e.Start + 1
	}
	return out
}

// MergeWithLongTarget routes terms that have grown past longListThreshold
// (by decoded posting byte-weight) to a LongTarget, and everything else to
// a ShortTarget. A term is routed long if it already lives in long (its
// appearsInIndex bit is set) or newly crosses the threshold on this merge;
// once routed long, its appearsInIndex bit is set on the long target, so
// later merges keep routing it long.
func (m *Merger) MergeWithLongTarget(short ShortTarget, long LongTarget, it Iterator, longListThreshold int64) error {
	defer it.Close()

	for it.HasNext() {
		term := it.Term()
		postings := it.Postings()
		mode := it.Mode()

		weight := int64(len(postings)) * 8
		if weight >= longListThreshold || long.AppearsInIndex(term) {
			if err := long.AddPostings(term, postings, mode); err != nil {
				return err
			}
			long.SetAppearsInIndex(term, true)
		} else {
			if err := short.AddTerm(term, postings, mode); err != nil {
				return err
			}
		}
		it.Advance()
	}
	return long.FinishUpdate()
}
