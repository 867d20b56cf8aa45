// Package inplace implements wumpus's InPlaceIndex (spec.md C5): a
// block-allocated mutable store for long-list terms, addressed by a free-
// block bitmap, growing a term's run either by relocation (contiguous) or
// by chaining an overflow run (non-contiguous), with pending updates
// buffered in RAM until finishUpdate flushes them.
//
// Grounded on the teacher's internal/storage/storage.go (append-only
// segment file, size/offset tracking, sync.RWMutex+atomic.Bool closed) and
// pkg/seginfo/seginfo.go (partition naming), generalized from pure append
// to block-granularity random writes; growth-decision shape follows
// original_source/index/my_inplace_index.h's relocate-vs-chain logic.
package inplace

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/gmargari/wumpus-sub004/pkg/codec"
)

// BlockSize is the fixed granularity of the backing store's block
// allocator (spec §4.5's BLOCK_SIZE).
const BlockSize = 4096

// InitialBlocks is how many blocks a brand-new long-list term is given.
const InitialBlocks = 1

// MaxPendingSegmentCount and MaxPendingDataBytes bound the RAM buffer of
// pending updates for the term currently being written, so a future
// relocation can happen before any bytes reach the backing store.
const (
	MaxPendingSegmentCount = 64
	MaxPendingDataBytes    = 1 << 20
)

// termDescriptor is the in-RAM metadata the spec names
// MyInPlaceTermDescriptor: {segmentCount, compressedSegments, postingCount,
// indexBlockStart, indexBlockLength, indexBlockUsed}.
type termDescriptor struct {
	segmentCount     int
	compressedHeaders []codec.PLSH
	postingCount     int64

	indexBlockStart  int // first block of this term's contiguous run
	indexBlockLength int // blocks allocated to this run
	indexBlockUsed   int // bytes used within the run

	overflow *termDescriptor // chained run, used when GrowthMode is GrowthChain
}

// pendingUpdate buffers segments not yet flushed to the backing store for
// the term currently being written.
type pendingUpdate struct {
	segments   [][]byte // full PLSH-framed segments (header+body)
	totalBytes int
}

// Config configures a new InPlaceIndex.
type Config struct {
	Logger *zap.SugaredLogger
	// GrowthMode selects relocate (default, contiguous) vs chain
	// (non-contiguous) when a term's current run runs out of room.
	GrowthMode GrowthMode
}

// GrowthMode selects how a term's run grows once full.
type GrowthMode int

const (
	GrowthRelocate GrowthMode = iota
	GrowthChain
)

// InPlaceIndex is wumpus's mutable long-list store.
type InPlaceIndex struct {
	log    *zap.SugaredLogger
	growth GrowthMode

	mu sync.RWMutex

	blocks     [][]byte // backing store, block-addressed
	freeBitmap []bool   // true = free

	terms map[string]*termDescriptor
	// appearsInIndex holds the persisted per-term bit the hybrid manager
	// sets once a term has been written into this index. It is one bit per
	// term, not a mask over short-list partitions.
	appearsInIndex map[string]bool

	pendingTerm string
	pending     *pendingUpdate

	closed atomic.Bool
}
