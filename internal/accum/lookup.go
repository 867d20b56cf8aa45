package accum

// GetPostings decodes term's full posting list without disturbing the
// accumulator's state, for HybridManager.getUpdates to consult the most
// recent in-memory postings alongside the on-disk partitions and in-place
// index (spec §4.7 "finally the accumulator").
func (a *Accumulator) GetPostings(term string) ([]int64, bool) {
	if a.closed.Load() {
		return nil, false
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	idx := a.findEntry(term, a.hashOf(term))
	if idx < 0 {
		return nil, false
	}
	return a.decodePostings(&a.entries[idx]), true
}
