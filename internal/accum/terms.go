package accum

// Terms returns every distinct term currently held in the accumulator, in
// no particular order, without draining them. Used by the query engine's
// wildcard expansion (spec invariant 7: "getPostings(abc*) equals the
// ordered OR of getPostings(t) for every indexed t with prefix abc").
func (a *Accumulator) Terms() []string {
	if a.closed.Load() {
		return nil
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]string, len(a.entries))
	for i := range a.entries {
		out[i] = a.entries[i].term
	}
	return out
}
