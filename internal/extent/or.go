package extent

import "container/heap"

// heapOrChildren above which Or switches from a linear scan over children
// to a container/heap-based k-way merge, per DESIGN.md's justification:
// below this fan-out a linear scan over a handful of children beats the
// constant overhead of heap bookkeeping.
const heapOrChildren = 8

// Or is the k-way merge (union) of child extent lists. A single-element
// Or collapses to that child directly (spec §4.2: "or collapses
// single-element instances").
type Or struct {
	children []List
}

// NewOr builds the union of children, dropping nil/Empty children and
// collapsing to Empty or to the sole surviving child where possible.
func NewOr(children []List) List {
	live := make([]List, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		if _, ok := c.(Empty); ok {
			continue
		}
		live = append(live, c)
	}
	switch len(live) {
	case 0:
		return Empty{}
	case 1:
		return live[0]
	default:
		return Or{children: live}
	}
}

func (o Or) FirstStartGeq(p int64) (Extent, bool) {
	if len(o.children) > heapOrChildren {
		return o.firstStartGeqHeap(p)
	}
	var best Extent
	found := false
	for _, c := range o.children {
		e, ok := c.FirstStartGeq(p)
		if !ok {
			continue
		}
		if !found || e.Start < best.Start {
			best = e
			found = true
		}
	}
	return best, found
}

func (o Or) firstStartGeqHeap(p int64) (Extent, bool) {
	h := &orHeap{}
	heap.Init(h)
	for i, c := range o.children {
		if e, ok := c.FirstStartGeq(p); ok {
			heap.Push(h, orItem{e: e, childIdx: i})
		}
	}
	if h.Len() == 0 {
		return Extent{}, false
	}
	top := (*h)[0]
	return top.e, true
}

func (o Or) LastEndLeq(p int64) (Extent, bool) {
	var best Extent
	found := false
	for _, c := range o.children {
		e, ok := c.LastEndLeq(p)
		if !ok {
			continue
		}
		if !found || e.End > best.End {
			best = e
			found = true
		}
	}
	return best, found
}

func (o Or) Length() int64 {
	var total int64
	for _, c := range o.children {
		total += c.Length()
	}
	return total
}

func (o Or) TotalSize() int64 {
	var total int64
	for _, c := range o.children {
		total += c.TotalSize()
	}
	return total
}

func (o Or) Selectivity() float64 {
	var total float64
	for _, c := range o.children {
		total += c.Selectivity()
	}
	if total > 1 {
		total = 1
	}
	return total
}

type orItem struct {
	e        Extent
	childIdx int
}

type orHeap []orItem

func (h orHeap) Len() int            { return len(h) }
func (h orHeap) Less(i, j int) bool  { return h[i].e.Start < h[j].e.Start }
func (h orHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *orHeap) Push(x any)         { *h = append(*h, x.(orItem)) }
func (h *orHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
