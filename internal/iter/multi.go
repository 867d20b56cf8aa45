package iter

import (
	"container/heap"

	"go.uber.org/multierr"

	"github.com/gmargari/wumpus-sub004/pkg/codec"
)

// MultipleIndexIterator tournament-merges N child iterators. Ties break by
// lexicographic term first, then by publication order (the child with the
// smaller index was registered first, i.e. is the older partition) — this
// preserves the cross-partition monotonic invariant required by
// HybridManager.getUpdates (spec §4.6, §4.7).
type MultipleIndexIterator struct {
	children []Iterator
	h        multiHeap
}

// NewMultipleIndexIterator builds a tournament merge over children, in
// publication order (index 0 = oldest).
func NewMultipleIndexIterator(children []Iterator) *MultipleIndexIterator {
	m := &MultipleIndexIterator{children: children}
	for i, c := range children {
		if c.HasNext() {
			heap.Push(&m.h, multiItem{term: c.Term(), childIdx: i})
		}
	}
	return m
}

type multiItem struct {
	term     string
	childIdx int
}

type multiHeap []multiItem

func (h multiHeap) Len() int { return len(h) }
func (h multiHeap) Less(i, j int) bool {
	if h[i].term != h[j].term {
		return h[i].term < h[j].term
	}
	return h[i].childIdx < h[j].childIdx
}
func (h multiHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *multiHeap) Push(x any)   { *h = append(*h, x.(multiItem)) }
func (h *multiHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// HasNext reports whether any child still has postings.
func (m *MultipleIndexIterator) HasNext() bool {
	return m.h.Len() > 0
}

// NextTermPostings pops every child currently positioned at the
// lexicographically smallest term, concatenates their posting lists in
// publication order (oldest first), and advances each contributing child.
func (m *MultipleIndexIterator) NextTermPostings() (TermPostings, bool) {
	if m.h.Len() == 0 {
		return TermPostings{}, false
	}

	term := m.h[0].term
	var mode codec.Mode
	var postings []int64
	var contributors []int

	for m.h.Len() > 0 && m.h[0].term == term {
		item := heap.Pop(&m.h).(multiItem)
		contributors = append(contributors, item.childIdx)
	}
	// Publication order (oldest first): sort contributors ascending, which
	// they already are since the heap breaks term ties on childIdx.
	for _, ci := range contributors {
		child := m.children[ci]
		postings = append(postings, child.Postings()...)
		mode = child.Mode()
		child.Advance()
		if child.HasNext() {
			heap.Push(&m.h, multiItem{term: child.Term(), childIdx: ci})
		}
	}

	return TermPostings{Term: term, Postings: postings, Mode: mode}, true
}

// Close closes every child iterator, aggregating any errors.
func (m *MultipleIndexIterator) Close() error {
	var err error
	for _, c := range m.children {
		err = multierr.Append(err, c.Close())
	}
	return err
}
