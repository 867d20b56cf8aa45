package inplace

import (
	"context"
	stdErrors "errors"

	"github.com/gmargari/wumpus-sub004/pkg/codec"
	"github.com/gmargari/wumpus-sub004/pkg/werrors"
)

var ErrInPlaceIndexClosed = stdErrors.New("operation failed: cannot access closed in-place index")

// New creates an InPlaceIndex ready for AddPostings calls.
func New(ctx context.Context, config *Config) (*InPlaceIndex, error) {
	if config == nil || config.Logger == nil {
		return nil, werrors.NewValidationError(
			nil, werrors.ErrorCodeInvalidInput, "in-place index configuration is required",
		).WithField("config")
	}

	return &InPlaceIndex{
		log:            config.Logger,
		growth:         config.GrowthMode,
		terms:          make(map[string]*termDescriptor),
		appearsInIndex: make(map[string]bool),
	}, nil
}

// Close flushes any pending update and releases the backing store.
func (idx *InPlaceIndex) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrInPlaceIndexClosed
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.finishUpdateLocked()
	idx.log.Infow("Closing in-place index", "terms", len(idx.terms))
	idx.blocks = nil
	idx.freeBitmap = nil
	idx.terms = nil
	return nil
}

// AddPostings appends postings (already compressed into one PLSH segment
// via codec.BuildSegment) to term's posting list, buffering the write in
// RAM until the pending buffer is full or FinishUpdate is called (spec
// §4.5: "Pending updates for the currently being written term are buffered
// in RAM ... so a future relocation can happen before any write to disk").
func (idx *InPlaceIndex) AddPostings(term string, postings []int64, mode codec.Mode) error {
	if idx.closed.Load() {
		return ErrInPlaceIndexClosed
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.pendingTerm != "" && idx.pendingTerm != term {
		if err := idx.finishUpdateLocked(); err != nil {
			return err
		}
	}
	if idx.pending == nil {
		idx.pendingTerm = term
		idx.pending = &pendingUpdate{}
	}

	segment := codec.BuildSegment(mode, postings)
	idx.pending.segments = append(idx.pending.segments, segment)
	idx.pending.totalBytes += len(segment)

	if len(idx.pending.segments) >= MaxPendingSegmentCount || idx.pending.totalBytes >= MaxPendingDataBytes {
		return idx.finishUpdateLocked()
	}
	return nil
}

// FinishUpdate flushes any buffered pending segments for the
// currently-written term to the backing store.
func (idx *InPlaceIndex) FinishUpdate() error {
	if idx.closed.Load() {
		return ErrInPlaceIndexClosed
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.finishUpdateLocked()
}

func (idx *InPlaceIndex) finishUpdateLocked() error {
	if idx.pending == nil {
		return nil
	}
	term := idx.pendingTerm
	pending := idx.pending
	idx.pending = nil
	idx.pendingTerm = ""

	desc, ok := idx.terms[term]
	if !ok {
		desc = &termDescriptor{}
		if err := idx.allocateRun(desc, InitialBlocks); err != nil {
			return err
		}
		idx.terms[term] = desc
	}

	for _, seg := range pending.segments {
		if err := idx.appendSegment(desc, seg); err != nil {
			return err
		}
	}
	return nil
}

// appendSegment writes one compressed PLSH segment into desc's tail run,
// growing that run (relocate or chain) first if there isn't room.
func (idx *InPlaceIndex) appendSegment(desc *termDescriptor, seg []byte) error {
	target := desc
	for target.overflow != nil {
		target = target.overflow
	}

	capacity := target.indexBlockLength * BlockSize
	if target.indexBlockUsed+len(seg) > capacity {
		if err := idx.grow(desc, len(seg)); err != nil {
			return err
		}
		for target.overflow != nil {
			target = target.overflow
		}
	}

	idx.writeAt(target.indexBlockStart, target.indexBlockUsed, seg)
	target.indexBlockUsed += len(seg)

	h, err := codec.DecodePLSH(seg)
	if err != nil {
		return err
	}
	desc.compressedHeaders = append(desc.compressedHeaders, h)
	desc.segmentCount++
	desc.postingCount += int64(h.PostingCount)
	return nil
}

// grow enlarges desc (or its tail overflow run) to fit minBytes more data,
// either relocating to a bigger contiguous run or chaining a new overflow
// run, per spec §4.5 step 3.
func (idx *InPlaceIndex) grow(desc *termDescriptor, minBytes int) error {
	tail := desc
	for tail.overflow != nil {
		tail = tail.overflow
	}

	neededBlocks := (tail.indexBlockUsed + minBytes + BlockSize - 1) / BlockSize
	if neededBlocks < tail.indexBlockLength*2 {
		neededBlocks = tail.indexBlockLength * 2
	}
	if neededBlocks < 1 {
		neededBlocks = 1
	}

	if idx.growth == GrowthChain {
		// A fresh overflow run starts empty, so it only needs room for minBytes
		// itself (not tail's existing usage); chainBlocks still floors at
		// InitialBlocks so small segments don't allocate a near-empty run.
		chainBlocks := (minBytes + BlockSize - 1) / BlockSize
		if chainBlocks < InitialBlocks {
			chainBlocks = InitialBlocks
		}
		overflow := &termDescriptor{}
		if err := idx.allocateRun(overflow, chainBlocks); err != nil {
			return err
		}
		tail.overflow = overflow
		return nil
	}

	// Relocate: allocate a larger contiguous run, copy existing bytes, free
	// the old run.
	newDesc := &termDescriptor{}
	if err := idx.allocateRun(newDesc, neededBlocks); err != nil {
		return err
	}
	old := idx.readRun(tail)
	idx.writeAt(newDesc.indexBlockStart, 0, old)
	idx.freeRun(tail.indexBlockStart, tail.indexBlockLength)

	tail.indexBlockStart = newDesc.indexBlockStart
	tail.indexBlockLength = newDesc.indexBlockLength
	return nil
}

// allocateRun finds n contiguous free blocks (growing the backing store if
// none exist) and marks them used.
func (idx *InPlaceIndex) allocateRun(desc *termDescriptor, n int) error {
	start, ok := idx.findFreeRun(n)
	if !ok {
		start = len(idx.blocks)
		for i := 0; i < n; i++ {
			idx.blocks = append(idx.blocks, make([]byte, BlockSize))
			idx.freeBitmap = append(idx.freeBitmap, false)
		}
	} else {
		for i := start; i < start+n; i++ {
			idx.freeBitmap[i] = false
		}
	}
	desc.indexBlockStart = start
	desc.indexBlockLength = n
	desc.indexBlockUsed = 0
	return nil
}

func (idx *InPlaceIndex) findFreeRun(n int) (int, bool) {
	run := 0
	for i, free := range idx.freeBitmap {
		if free {
			run++
			if run == n {
				return i - n + 1, true
			}
		} else {
			run = 0
		}
	}
	return 0, false
}

func (idx *InPlaceIndex) freeRun(start, length int) {
	for i := start; i < start+length && i < len(idx.freeBitmap); i++ {
		idx.freeBitmap[i] = true
		idx.blocks[i] = make([]byte, BlockSize)
	}
}

func (idx *InPlaceIndex) writeAt(blockStart, byteOffset int, data []byte) {
	pos := 0
	absoluteOffset := blockStart*BlockSize + byteOffset
	for pos < len(data) {
		block := absoluteOffset / BlockSize
		within := absoluteOffset % BlockSize
		n := copy(idx.blocks[block][within:], data[pos:])
		pos += n
		absoluteOffset += n
	}
}

func (idx *InPlaceIndex) readRun(desc *termDescriptor) []byte {
	out := make([]byte, 0, desc.indexBlockUsed)
	remaining := desc.indexBlockUsed
	for b := desc.indexBlockStart; remaining > 0; b++ {
		n := BlockSize
		if n > remaining {
			n = remaining
		}
		out = append(out, idx.blocks[b][:n]...)
		remaining -= n
	}
	return out
}

// GetPostings reconstructs the full posting list for term by decoding every
// segment across its run and any chained overflow runs (spec §4.5
// "getPostings(term) reconstructs a SegmentedPostingList").
func (idx *InPlaceIndex) GetPostings(term string) ([]int64, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	desc, ok := idx.terms[term]
	if !ok {
		return nil, false
	}

	var postings []int64
	for d := desc; d != nil; d = d.overflow {
		data := idx.readRun(d)
		pos := 0
		for pos < len(data) {
			h, err := codec.DecodePLSH(data[pos:])
			if err != nil {
				break
			}
			segLen := codec.PLSHSize + int(h.ByteLength)
			if pos+segLen > len(data) {
				break
			}
			_, ps, err := codec.ReadSegment(data[pos : pos+segLen])
			if err != nil {
				break
			}
			postings = append(postings, ps...)
			pos += segLen
		}
	}
	return postings, true
}

// SetAppearsInIndex sets term's appearsInIndex bit (spec §4.5). The hybrid
// manager and iter.Merger.MergeWithLongTarget set it to true after writing
// the term into this index, and MergeWithLongTarget routes every term whose
// bit is set here. The bit does not record which short-list partitions
// hold the term.
func (idx *InPlaceIndex) SetAppearsInIndex(term string, appears bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.appearsInIndex[term] = appears
}

// AppearsInIndex reports the current value of that bit.
func (idx *InPlaceIndex) AppearsInIndex(term string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.appearsInIndex[term]
}

// Terms returns every term currently stored, for term-map persistence and
// iteration.
func (idx *InPlaceIndex) Terms() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]string, 0, len(idx.terms))
	for t := range idx.terms {
		out = append(out, t)
	}
	return out
}
