// Package accum implements wumpus's in-memory posting accumulator (spec.md
// C3): a fixed hash table keyed by term hash with move-to-front chains,
// backing each term's postings with a singly-linked chain of small chunks
// carved from fixed-size containers, a two-phase in-place recompactor, and
// document-level TF windows.
//
// Generalized from the teacher's internal/index (a map[string]*RecordPointer
// protected by sync.RWMutex + atomic.Bool closed) by replacing "one pointer
// per key" with "one chunk chain per term", and the map itself with a
// fixed-size table of chain heads (separate chaining through termEntry.next)
// as spec §4.3 requires for predictable memory use under heavy ingest.
package accum

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// HashTableSize is the fixed number of chain-head slots in the term table
// (spec §4.3's HASHTABLE_SIZE).
const HashTableSize = 65536

// ContainerSize is the fixed, power-of-two size of each chunk arena
// container in bytes.
const ContainerSize = 16384

// MaxChunkSize bounds a single chunk, including its 5-byte header, so the
// chunk's size field fits in a uint8.
const MaxChunkSize = 255

// chunkHeaderSize is the {nextChunkIndex:int32, chunkSize:u8} header.
const chunkHeaderSize = 5

// DocLevelMaxTF is the number of low bits of a document-start offset
// reserved for the saturating per-document term-frequency count.
const DocLevelMaxTF = 14

// maxTF is the largest value DocLevelMaxTF bits can hold; per-document term
// counts saturate at this value rather than overflowing into the offset.
const maxTF = (1 << DocLevelMaxTF) - 1

// chunkAddr packs a (container, offset) pair into a single int32, following
// spec §4.3's "chunk indices are (container,offset) packed into an int32".
type chunkAddr int32

const noChunk chunkAddr = -1

func packAddr(container, offset int) chunkAddr {
	return chunkAddr(uint32(container)<<16 | uint32(offset&0xffff))
}

func (a chunkAddr) container() int { return int(uint32(a) >> 16) }
func (a chunkAddr) offset() int    { return int(uint32(a) & 0xffff) }

// Stemmer reduces a surface term to its stem form. When stemming is
// enabled the accumulator recursively indexes the stem under a trailing
// '$' so stem-form queries merge with the original postings transparently
// (spec §4.3).
type Stemmer interface {
	Stem(term string) (stem string, ok bool)
}

// termEntry is one chain node in the hash table: the per-term metadata the
// accumulator needs to append postings in O(1) expected time and to flush
// the term's full posting list in sorted order.
type termEntry struct {
	term      string
	stemOf    string // non-empty if this entry is the stemmed twin of stemOf
	hashValue uint64
	next      int32 // chain index of next node with same hashValue%HashTableSize, -1 if none

	firstChunk                chunkAddr
	currentChunk              chunkAddr
	postingsInCurrentChunk    int // count of postings appended to currentChunk
	bytesUsedInCurrentChunk   int // payload bytes of currentChunk already written
	sizeOfCurrentChunk        int
	memoryConsumed            int64
	lastPosting               int64
	numberOfPostings          int64
	postingsInCurrentDocument int
}

// Config configures a new Accumulator.
type Config struct {
	Logger *zap.SugaredLogger
	// AppendResetMode, when true, allows a posting smaller than lastPosting
	// to be appended by inserting a reset marker instead of rejecting it
	// (spec §9 open question, resolved in DESIGN.md).
	AppendResetMode bool
	// StemmingLevel: 0 disables stemming at index time; >=2 stems every
	// added term in addition to indexing its surface form (spec §4.3,
	// §4.8's query-time/index-time stemming split).
	StemmingLevel int
	Stemmer       Stemmer
}

// Accumulator is wumpus's in-memory posting accumulator.
type Accumulator struct {
	log    *zap.SugaredLogger
	config Config

	mu sync.RWMutex

	table   []int32 // chain heads, index into entries; -1 if empty
	entries []termEntry

	containers [][]byte
	used       []int // bytes used in each container's bump arena

	memoryConsumed int64
	closed         atomic.Bool

	// docWindow tracks the currently open document's per-term counts for
	// document-level TF windows (spec §4.3 "Document-level indexing").
	docWindow map[string]int
	docStart  int64
	inDoc     bool
}
