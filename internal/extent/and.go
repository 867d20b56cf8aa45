package extent

// And is the co-sequential intersection of two extent lists: an output
// extent exists for every pair (a,b) where a fully contains b or vice versa
// is NOT required — per GCL semantics AND merges two lists by repeatedly
// advancing the list whose current extent starts earlier, emitting a
// result whenever the current pair overlaps, following wumpus's GCL "and"
// operator (extents must overlap; the result spans their union).
type And struct {
	a, b List
}

// NewAnd builds the intersection of a and b, collapsing to Empty if either
// operand is nil.
func NewAnd(a, b List) List {
	if a == nil || b == nil {
		return Empty{}
	}
	if _, ok := a.(Empty); ok {
		return Empty{}
	}
	if _, ok := b.(Empty); ok {
		return Empty{}
	}
	return And{a: a, b: b}
}

func (n And) FirstStartGeq(p int64) (Extent, bool) {
	ea, okA := n.a.FirstStartGeq(p)
	eb, okB := n.b.FirstStartGeq(p)
	for okA && okB {
		if overlaps(ea, eb) {
			return union(ea, eb), true
		}
		if ea.Start < eb.Start {
			ea, okA = n.a.FirstStartGeq(eb.Start)
		} else {
			eb, okB = n.b.FirstStartGeq(ea.Start)
		}
	}
	return Extent{}, false
}

func (n And) LastEndLeq(p int64) (Extent, bool) {
	ea, okA := n.a.LastEndLeq(p)
	eb, okB := n.b.LastEndLeq(p)
	for okA && okB {
		if overlaps(ea, eb) {
			return union(ea, eb), true
		}
		if ea.End > eb.End {
			ea, okA = n.a.LastEndLeq(eb.End)
		} else {
			eb, okB = n.b.LastEndLeq(ea.End)
		}
	}
	return Extent{}, false
}

// Length walks the merge once to count matches; callers needing this
// repeatedly should cache it.
func (n And) Length() int64 {
	var count int64
	pos := int64(0)
	for {
		e, ok := n.FirstStartGeq(pos)
		if !ok {
			break
		}
		count++
		pos = e.Start + 1
	}
	return count
}

func (n And) TotalSize() int64 {
	var total int64
	pos := int64(0)
	for {
		e, ok := n.FirstStartGeq(pos)
		if !ok {
			break
		}
		total += e.End - e.Start + 1
		pos = e.Start + 1
	}
	return total
}

func (n And) Selectivity() float64 {
	sa, sb := n.a.Selectivity(), n.b.Selectivity()
	if sa < sb {
		return sa
	}
	return sb
}

func overlaps(a, b Extent) bool {
	return a.Start <= b.End && b.Start <= a.End
}

func union(a, b Extent) Extent {
	start := a.Start
	if b.Start < start {
		start = b.Start
	}
	end := a.End
	if b.End > end {
		end = b.End
	}
	return Extent{Start: start, End: end}
}
