package extent

import "math"

// ContainedIn returns every extent from inner that lies fully inside some
// extent of outer (GCL "inner..outer" containment).
type ContainedIn struct {
	inner, outer List
}

func NewContainedIn(inner, outer List) List {
	if inner == nil || outer == nil {
		return Empty{}
	}
	if isEmpty(inner) || isEmpty(outer) {
		return Empty{}
	}
	return ContainedIn{inner: inner, outer: outer}
}

func (c ContainedIn) FirstStartGeq(p int64) (Extent, bool) {
	cand, ok := c.inner.FirstStartGeq(p)
	for ok {
		// The only outer extent that can contain cand is the first one
		// ending at or after cand.End: the one right after the last outer
		// extent that ends before it.
		o, found := c.outer.FirstStartGeq(math.MinInt64)
		if prev, has := c.outer.LastEndLeq(cand.End - 1); has {
			o, found = c.outer.FirstStartGeq(prev.Start + 1)
		}
		if !found {
			return Extent{}, false
		}
		if o.Start <= cand.Start && cand.End <= o.End {
			return cand, true
		}
		cand, ok = c.inner.FirstStartGeq(cand.Start + 1)
	}
	return Extent{}, false
}

func (c ContainedIn) LastEndLeq(p int64) (Extent, bool) {
	cand, ok := c.inner.LastEndLeq(p)
	for ok {
		// The only outer extent that can contain cand is the last one
		// starting at or before cand.Start: the one right before the first
		// outer extent that starts after it.
		o, found := c.outer.LastEndLeq(math.MaxInt64)
		if next, has := c.outer.FirstStartGeq(cand.Start + 1); has {
			o, found = c.outer.LastEndLeq(next.End - 1)
		}
		if !found {
			return Extent{}, false
		}
		if o.Start <= cand.Start && cand.End <= o.End {
			return cand, true
		}
		cand, ok = c.inner.LastEndLeq(cand.End - 1)
	}
	return Extent{}, false
}

func (c ContainedIn) Length() int64 {
	var count int64
	pos := int64(0)
	for {
		e, ok := c.FirstStartGeq(pos)
		if !ok {
			break
		}
		count++
		pos = e.Start + 1
	}
	return count
}

func (c ContainedIn) TotalSize() int64 {
	var total int64
	pos := int64(0)
	for {
		e, ok := c.FirstStartGeq(pos)
		if !ok {
			break
		}
		total += e.End - e.Start + 1
		pos = e.Start + 1
	}
	return total
}

func (c ContainedIn) Selectivity() float64 { return c.inner.Selectivity() }

// Contains returns every extent from outer that fully contains some extent
// of inner (GCL "outer...inner" containment), the dual of ContainedIn.
type Contains struct {
	outer, inner List
}

func NewContains(outer, inner List) List {
	if outer == nil || inner == nil {
		return Empty{}
	}
	if isEmpty(outer) || isEmpty(inner) {
		return Empty{}
	}
	return Contains{outer: outer, inner: inner}
}

func (c Contains) FirstStartGeq(p int64) (Extent, bool) {
	cand, ok := c.outer.FirstStartGeq(p)
	for ok {
		in, found := c.inner.FirstStartGeq(cand.Start)
		if found && cand.Start <= in.Start && in.End <= cand.End {
			return cand, true
		}
		cand, ok = c.outer.FirstStartGeq(cand.Start + 1)
	}
	return Extent{}, false
}

func (c Contains) LastEndLeq(p int64) (Extent, bool) {
	cand, ok := c.outer.LastEndLeq(p)
	for ok {
		in, found := c.inner.LastEndLeq(cand.End)
		if found && cand.Start <= in.Start && in.End <= cand.End {
			return cand, true
		}
		cand, ok = c.outer.LastEndLeq(cand.End - 1)
	}
	return Extent{}, false
}

func (c Contains) Length() int64 {
	var count int64
	pos := int64(0)
	for {
		e, ok := c.FirstStartGeq(pos)
		if !ok {
			break
		}
		count++
		pos = e.Start + 1
	}
	return count
}

func (c Contains) TotalSize() int64 {
	var total int64
	pos := int64(0)
	for {
		e, ok := c.FirstStartGeq(pos)
		if !ok {
			break
		}
		total += e.End - e.Start + 1
		pos = e.Start + 1
	}
	return total
}

func (c Contains) Selectivity() float64 { return c.outer.Selectivity() }

// Sequence returns, for each adjacent pair (a extent immediately followed
// by a b extent, i.e. b.Start == a.End+1), the spanning extent
// [a.Start, b.End] (GCL adjacency operator).
type Sequence struct {
	a, b List
}

func NewSequence(a, b List) List {
	if a == nil || b == nil {
		return Empty{}
	}
	if isEmpty(a) || isEmpty(b) {
		return Empty{}
	}
	return Sequence{a: a, b: b}
}

func (s Sequence) FirstStartGeq(p int64) (Extent, bool) {
	ea, ok := s.a.FirstStartGeq(p)
	for ok {
		eb, found := s.b.FirstStartGeq(ea.End + 1)
		if found && eb.Start == ea.End+1 {
			return Extent{Start: ea.Start, End: eb.End}, true
		}
		ea, ok = s.a.FirstStartGeq(ea.Start + 1)
	}
	return Extent{}, false
}

func (s Sequence) LastEndLeq(p int64) (Extent, bool) {
	eb, ok := s.b.LastEndLeq(p)
	for ok {
		ea, found := s.a.LastEndLeq(eb.Start - 1)
		if found && ea.End == eb.Start-1 {
			return Extent{Start: ea.Start, End: eb.End}, true
		}
		eb, ok = s.b.LastEndLeq(eb.End - 1)
	}
	return Extent{}, false
}

func (s Sequence) Length() int64 {
	var count int64
	pos := int64(0)
	for {
		e, ok := s.FirstStartGeq(pos)
		if !ok {
			break
		}
		count++
		pos = e.Start + 1
	}
	return count
}

func (s Sequence) TotalSize() int64 {
	var total int64
	pos := int64(0)
	for {
		e, ok := s.FirstStartGeq(pos)
		if !ok {
			break
		}
		total += e.End - e.Start + 1
		pos = e.Start + 1
	}
	return total
}

func (s Sequence) Selectivity() float64 {
	sa, sb := s.a.Selectivity(), s.b.Selectivity()
	if sa < sb {
		return sa
	}
	return sb
}

func isEmpty(l List) bool {
	_, ok := l.(Empty)
	return ok
}
