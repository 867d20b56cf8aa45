package accum

import (
	"context"
	stdErrors "errors"

	"github.com/cespare/xxhash/v2"
	"github.com/gmargari/wumpus-sub004/pkg/werrors"
)

var ErrAccumulatorClosed = stdErrors.New("operation failed: cannot access closed accumulator")

// New creates an Accumulator ready for concurrent AddPosting calls.
func New(ctx context.Context, config *Config) (*Accumulator, error) {
	if config == nil || config.Logger == nil {
		return nil, werrors.NewValidationError(
			nil, werrors.ErrorCodeInvalidInput, "accumulator configuration is required",
		).WithField("config")
	}

	table := make([]int32, HashTableSize)
	for i := range table {
		table[i] = -1
	}

	return &Accumulator{
		log:       config.Logger,
		config:    *config,
		table:     table,
		entries:   make([]termEntry, 0, 4096),
		docWindow: make(map[string]int, 256),
	}, nil
}

// Close releases every container and marks the accumulator unusable.
func (a *Accumulator) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return ErrAccumulatorClosed
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.log.Infow("Closing accumulator", "terms", len(a.entries), "memoryConsumed", a.memoryConsumed)
	a.containers = nil
	a.used = nil
	a.entries = nil
	a.table = nil
	a.docWindow = nil
	return nil
}

func (a *Accumulator) hashOf(term string) uint64 {
	return xxhash.Sum64String(term)
}

// findEntry returns the chain-node index for term, or -1 if absent.
func (a *Accumulator) findEntry(term string, hash uint64) int32 {
	bucket := hash % HashTableSize
	idx := a.table[bucket]
	for idx >= 0 {
		e := &a.entries[idx]
		if e.hashValue == hash && e.term == term {
			return idx
		}
		idx = e.next
	}
	return -1
}

// moveToFront relinks idx to the head of its bucket chain, amortizing
// repeated lookups of hot terms (spec §4.3 "linear move-to-front chains").
func (a *Accumulator) moveToFront(idx int32, bucket uint64) {
	if a.table[bucket] == idx {
		return
	}
	var prev int32 = a.table[bucket]
	for prev >= 0 && a.entries[prev].next != idx {
		prev = a.entries[prev].next
	}
	if prev >= 0 {
		a.entries[prev].next = a.entries[idx].next
	}
	a.entries[idx].next = a.table[bucket]
	a.table[bucket] = idx
}

func (a *Accumulator) createEntry(term string, hash uint64) int32 {
	bucket := hash % HashTableSize
	idx := int32(len(a.entries))
	a.entries = append(a.entries, termEntry{
		term:      term,
		hashValue: hash,
		firstChunk: noChunk,
		currentChunk: noChunk,
		lastPosting: -1,
		next:      a.table[bucket],
	})
	a.table[bucket] = idx
	return idx
}

// AddPosting appends posting for term, maintaining the invariant that
// posting >= lastPosting unless AppendResetMode is enabled, in which case a
// smaller posting inserts a reset marker (encoded as a zero-length delta
// chunk boundary) rather than being rejected.
func (a *Accumulator) AddPosting(term string, posting int64) error {
	if a.closed.Load() {
		return ErrAccumulatorClosed
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.addPostingLocked(term, posting); err != nil {
		return err
	}

	if a.config.StemmingLevel >= 2 && a.config.Stemmer != nil {
		if stem, ok := a.config.Stemmer.Stem(term); ok && stem != term {
			if err := a.addPostingLocked(stem+"$", posting); err != nil {
				return err
			}
		}
	}

	if a.inDoc && term != docStartMarker && term != docEndMarker {
		if a.docWindow[term] < maxTF {
			a.docWindow[term]++
		}
	}
	return nil
}

func (a *Accumulator) addPostingLocked(term string, posting int64) error {
	hash := a.hashOf(term)
	idx := a.findEntry(term, hash)
	if idx < 0 {
		idx = a.createEntry(term, hash)
	} else {
		a.moveToFront(idx, hash%HashTableSize)
	}

	e := &a.entries[idx]
	if posting < e.lastPosting && e.numberOfPostings > 0 {
		if !a.config.AppendResetMode {
			return werrors.NewIndexError(nil, werrors.ErrorCodeNonMonotonicPosting, "posting out of order").
				WithDetail("term", term).WithDetail("posting", posting).WithDetail("lastPosting", e.lastPosting)
		}
		e.lastPosting = 0
	}

	delta := posting - e.lastPosting
	if e.numberOfPostings == 0 {
		delta = posting
	}
	if err := a.appendDelta(e, delta); err != nil {
		return err
	}
	e.lastPosting = posting
	e.numberOfPostings++
	return nil
}

// appendDelta writes a v-byte encoded delta to the term's current chunk,
// allocating a new (geometrically larger, capped) chunk when full.
func (a *Accumulator) appendDelta(e *termEntry, delta int64) error {
	encoded := vbyteEncode(uint64(delta))

	capacity := e.sizeOfCurrentChunk - chunkHeaderSize
	if e.currentChunk == noChunk || e.bytesUsedInCurrentChunk+len(encoded) > capacity {
		if err := a.growChunk(e, len(encoded)); err != nil {
			return err
		}
	}

	container := e.currentChunk.container()
	offset := e.currentChunk.offset()
	buf := a.containers[container]
	dataStart := offset + chunkHeaderSize + e.bytesUsedInCurrentChunk
	copy(buf[dataStart:], encoded)
	e.bytesUsedInCurrentChunk += len(encoded)
	e.postingsInCurrentChunk++
	buf[offset+4] = byte(chunkHeaderSize + e.bytesUsedInCurrentChunk)
	return nil
}

// growChunk allocates a new chunk for e, chaining it from the previous
// current chunk, sized geometrically (doubling) up to MaxChunkSize.
func (a *Accumulator) growChunk(e *termEntry, minPayload int) error {
	nextSize := chunkHeaderSize + minPayload
	if e.sizeOfCurrentChunk*2 > nextSize {
		nextSize = e.sizeOfCurrentChunk * 2
	}
	if nextSize > MaxChunkSize {
		nextSize = MaxChunkSize
	}
	if nextSize < chunkHeaderSize+minPayload {
		nextSize = chunkHeaderSize + minPayload
		if nextSize > MaxChunkSize {
			return werrors.NewIndexError(nil, werrors.ErrorCodeInternal, "posting delta exceeds max chunk size").
				WithDetail("term", e.term)
		}
	}

	addr, err := a.allocate(nextSize)
	if err != nil {
		return err
	}

	container := addr.container()
	offset := addr.offset()
	buf := a.containers[container]
	putInt32(buf[offset:], int32(noChunk))
	// buf[offset+4] records the chunk's *used* payload length, not its
	// allocated capacity; it is kept current on every append so a chunk
	// chain can be decoded without tracking per-chunk lengths separately.
	buf[offset+4] = byte(chunkHeaderSize)

	if e.currentChunk != noChunk {
		pc, po := e.currentChunk.container(), e.currentChunk.offset()
		putInt32(a.containers[pc][po:], int32(addr))
	} else {
		e.firstChunk = addr
	}
	e.currentChunk = addr
	e.sizeOfCurrentChunk = nextSize
	e.postingsInCurrentChunk = 0
	e.bytesUsedInCurrentChunk = 0
	e.memoryConsumed += int64(nextSize)
	a.memoryConsumed += int64(nextSize)
	return nil
}

// allocate bump-allocates size bytes from the last container, opening a new
// container when the current one cannot fit size bytes.
func (a *Accumulator) allocate(size int) (chunkAddr, error) {
	if len(a.containers) == 0 || a.used[len(a.used)-1]+size > ContainerSize {
		a.containers = append(a.containers, make([]byte, ContainerSize))
		a.used = append(a.used, 0)
	}
	idx := len(a.containers) - 1
	offset := a.used[idx]
	a.used[idx] += size
	return packAddr(idx, offset), nil
}

// MemoryConsumed returns the total bytes currently committed to the chunk
// arena, used by the HybridManager's flush-decision policies against
// Options.MaxUpdateSpace.
func (a *Accumulator) MemoryConsumed() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.memoryConsumed
}

// TermCount returns how many distinct terms are currently accumulated.
func (a *Accumulator) TermCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

func vbyteEncode(v uint64) []byte {
	var out []byte
	for v >= 0x80 {
		out = append(out, byte(v&0x7f)|0x80)
		v >>= 7
	}
	return append(out, byte(v))
}

func putInt32(buf []byte, v int32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}

func getInt32(buf []byte) int32 {
	return int32(buf[0]) | int32(buf[1])<<8 | int32(buf[2])<<16 | int32(buf[3])<<24
}
