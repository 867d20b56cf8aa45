package accum

import "sort"

// ExtractAbove removes and decodes every term whose current memory
// footprint is >= thresholdBytes, reclaiming their chunks via Recompact
// (spec §4.7's partial flush: "for every term whose accumulator footprint
// >= threshold, flush the term into the InPlaceIndex and reclaim memory").
// Unlike Clear, the removed terms' postings are returned rather than
// discarded.
func (a *Accumulator) ExtractAbove(thresholdBytes int64) []FlushedTerm {
	a.mu.Lock()
	defer a.mu.Unlock()

	var extracted []FlushedTerm
	kept := a.entries[:0]
	for i := range a.entries {
		e := &a.entries[i]
		if e.memoryConsumed >= thresholdBytes {
			extracted = append(extracted, FlushedTerm{Term: e.term, Postings: a.decodePostings(e)})
			a.markChainDead(e.firstChunk)
			continue
		}
		kept = append(kept, *e)
	}
	a.entries = kept

	for i := range a.table {
		a.table[i] = -1
	}
	for newIdx := range a.entries {
		e := &a.entries[newIdx]
		bucket := e.hashValue % HashTableSize
		e.next = a.table[bucket]
		a.table[bucket] = int32(newIdx)
	}

	a.recompactLocked()

	sort.Slice(extracted, func(i, j int) bool { return extracted[i].Term < extracted[j].Term })
	return extracted
}
