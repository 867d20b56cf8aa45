package accum

// Recompact runs the two-phase in-place defragmenter described in spec
// §4.3: phase 1 destructively marks every live chunk with its owning term's
// index, phase 2 sweeps containers front-to-back compacting live chunks to
// the front and releasing fully-free containers. It runs in time linear in
// container bytes and needs no auxiliary per-chunk map.
func (a *Accumulator) Recompact() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recompactLocked()
}

// recompactLocked writes the owning term's index into each live chunk's
// next-pointer field during phase 1, destructively repurposing it to record
// ownership instead of linkage.
// Negative values (including noChunk) are never valid term indices, so a
// chunk's field is unambiguously "marked" once non-negative.
func (a *Accumulator) recompactLocked() {
	if len(a.containers) == 0 {
		return
	}

	// Phase 1: for every term, walk its chunk chain once, stamping each
	// chunk's next-pointer field with the owning term's entry index. This
	// destroys linkage information, which phase 2 reconstructs from the
	// scan order as chunks are relocated.
	for termIdx := range a.entries {
		e := &a.entries[termIdx]
		addr := e.firstChunk
		e.firstChunk = noChunk
		for addr != noChunk {
			container := a.containers[addr.container()]
			offset := addr.offset()
			next := getInt32(container[offset:])
			putInt32(container[offset:], int32(termIdx))
			addr = chunkAddr(next)
		}
	}

	// Phase 2: sweep every container front-to-back. A chunk whose
	// next-pointer field now holds a non-negative term index is live;
	// relocate it to the write cursor and rewrite the owning term's chain
	// via its currentChunk breadcrumb. Chunks whose field is negative were
	// marked dead by markChainDead (their term was removed by Clear or
	// ExtractAbove) and are skipped.
	liveEnd := make([]int, len(a.containers))
	for ci, container := range a.containers {
		write := 0
		read := 0
		for read < a.used[ci] {
			chunkSize := int(container[read+4])
			termIdx := int(getInt32(container[read:]))

			if termIdx < 0 {
				read += chunkSize
				continue
			}

			e := &a.entries[termIdx]
			if write != read {
				copy(container[write:write+chunkSize], container[read:read+chunkSize])
			}
			newAddr := packAddr(ci, write)

			if e.firstChunk == noChunk {
				e.firstChunk = newAddr
			} else {
				pc, po := e.currentChunk.container(), e.currentChunk.offset()
				putInt32(a.containers[pc][po:], int32(newAddr))
			}
			e.currentChunk = newAddr
			putInt32(container[write:], int32(noChunk))

			write += chunkSize
			read += chunkSize
		}
		liveEnd[ci] = write
	}

	a.used = liveEnd

	// Release containers that ended up fully empty.
	keep := a.containers[:0]
	keepUsed := a.used[:0]
	for i, end := range liveEnd {
		if end == 0 {
			continue
		}
		keep = append(keep, a.containers[i])
		keepUsed = append(keepUsed, end)
	}
	a.containers = keep
	a.used = keepUsed
}

// Clear releases every term whose posting count is >= threshold, marking
// its chunks free and running Recompact to reclaim the freed bytes (spec
// §4.3 "clear(threshold)").
func (a *Accumulator) Clear(threshold int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	kept := a.entries[:0]
	for i := range a.entries {
		if a.entries[i].numberOfPostings >= threshold {
			a.markChainDead(a.entries[i].firstChunk)
			continue
		}
		kept = append(kept, a.entries[i])
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
}

// markChainDead walks a chunk chain using its still-intact next-pointers
// and overwrites each chunk's next-pointer field with noChunk, so a
// subsequent recompact sweep recognizes the chunk as garbage rather than
// misreading a stale link as a live term index.
func (a *Accumulator) markChainDead(addr chunkAddr) {
	for addr != noChunk {
		container := a.containers[addr.container()]
		offset := addr.offset()
		next := getInt32(container[offset:])
		putInt32(container[offset:], int32(noChunk))
		addr = chunkAddr(next)
	}
}
