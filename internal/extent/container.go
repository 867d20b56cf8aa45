package extent

// Container builds the region "from A to the next B after it" (GCL's
// tag-pairing "A..B" operator, e.g. `"<doc>".."</doc>"`): for every extent in
// starts, the nearest extent in ends whose Start lies beyond it gives the
// matching close tag, and the pair collapses into a single spanning extent.
// This is distinct from ContainedIn/Contains, which test nesting between two
// already-built lists rather than constructing new extents from tag pairs.
type Container struct {
	starts, ends List
}

// NewContainer pairs starts with ends, collapsing to Empty if either operand
// is nil or empty.
func NewContainer(starts, ends List) List {
	if starts == nil || ends == nil {
		return Empty{}
	}
	if isEmpty(starts) || isEmpty(ends) {
		return Empty{}
	}
	return Container{starts: starts, ends: ends}
}

func (c Container) FirstStartGeq(p int64) (Extent, bool) {
	s, ok := c.starts.FirstStartGeq(p)
	for ok {
		e, found := c.ends.FirstStartGeq(s.End + 1)
		if found {
			return Extent{Start: s.Start, End: e.End}, true
		}
		s, ok = c.starts.FirstStartGeq(s.Start + 1)
	}
	return Extent{}, false
}

func (c Container) LastEndLeq(p int64) (Extent, bool) {
	e, ok := c.ends.LastEndLeq(p)
	for ok {
		s, found := c.starts.LastEndLeq(e.Start - 1)
		if found {
			return Extent{Start: s.Start, End: e.End}, true
		}
		e, ok = c.ends.LastEndLeq(e.End - 1)
	}
	return Extent{}, false
}

func (c Container) Length() int64 {
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

func (c Container) TotalSize() int64 {
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

func (c Container) Selectivity() float64 { return c.starts.Selectivity() }
