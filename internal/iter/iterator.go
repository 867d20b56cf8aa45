// Package iter implements wumpus's IndexIterator and Merger abstractions
// (spec.md C6): a uniform cursor over any posting source (on-disk V1/V2,
// the in-memory accumulator, the in-place index), an N-way tournament
// merge preserving cross-partition term/publication-order monotonicity,
// and a merger that folds many iterators into one target, optionally
// filtering postings against a visible-document extent list for garbage
// collection.
//
// Grounded on the §9 redesign note "Reference-counted file handle shared
// by many list segments" (realized here as the plain read-only byte
// slices ondisk/inplace already expose) and on
// original_source/index/index_merger.cpp for the merge-loop shape.
package iter

import "github.com/gmargari/wumpus-sub004/pkg/codec"

// Iterator is the uniform read cursor every posting source implements.
// Terms are visited in lexicographic order; within a term, postings are
// already fully decoded in posting order.
type Iterator interface {
	// HasNext reports whether a current term is available.
	HasNext() bool
	// Term returns the current term. Valid only while HasNext() is true.
	Term() string
	// Postings returns the current term's full decoded posting list.
	Postings() []int64
	// Mode returns the codec mode postings should be re-encoded with.
	Mode() codec.Mode
	// Advance moves to the next term.
	Advance()
	// Close releases any resources (file handles, mmaps) the iterator holds.
	Close() error
}

// TermPostings is one term and its full posting list, the unit Iterator
// and Merger exchange.
type TermPostings struct {
	Term     string
	Postings []int64
	Mode     codec.Mode
}

// Source is a sorted, in-memory list of terms exposed as an Iterator.
// internal/hybrid builds Sources directly from the terms and postings of
// ondisk.V2Index partitions and of accum.FlushedTerm slices, keeping this
// package free of import-cycle-prone dependencies on ondisk/inplace/accum.
type Source struct {
	terms []TermPostings
	pos   int
}

// NewSource builds a Source from an already-sorted slice. The caller is
// responsible for lexicographic ordering; Source does not re-sort.
func NewSource(terms []TermPostings) *Source {
	return &Source{terms: terms}
}

func (s *Source) HasNext() bool { return s.pos < len(s.terms) }
func (s *Source) Term() string  { return s.terms[s.pos].Term }
func (s *Source) Postings() []int64 {
	return s.terms[s.pos].Postings
}
func (s *Source) Mode() codec.Mode { return s.terms[s.pos].Mode }
func (s *Source) Advance()         { s.pos++ }
func (s *Source) Close() error     { return nil }
