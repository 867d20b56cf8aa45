// Package hybrid implements wumpus's HybridManager (spec.md C7): the
// coordinator that owns the in-memory accumulator, the mutable in-place
// (long-list) index, and up to MAX_COMPACTINDEX_COUNT on-disk short-list
// partitions, and decides — on every flush — which of the three flush
// policies (immediate/log/sqrt merge) runs, and which terms get routed to
// the in-place store instead of a fresh partition.
//
// Grounded on the teacher's CAS-guarded coordinator Close pattern (one
// atomic.Bool governing every subsystem's shutdown), generalized from "one
// index + one storage + one compaction" to "N partitions + 1 in-place index
// + 1 accumulator"; partition discovery and naming follows a scan-directory,
// find-latest, decide-whether-to-continue-or-rotate bootstrap and
// pkg/seginfo's slot-based file naming; the three merge policies' trigger
// math follows original_source/index/hybrid_lexicon.cpp.
package hybrid

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edsrzf/mmap-go"
	"go.uber.org/zap"

	"github.com/gmargari/wumpus-sub004/internal/accum"
	"github.com/gmargari/wumpus-sub004/internal/inplace"
	"github.com/gmargari/wumpus-sub004/internal/ondisk"
	"github.com/gmargari/wumpus-sub004/pkg/options"
)

// Config configures a new Manager.
type Config struct {
	Logger  *zap.SugaredLogger
	Options *options.Options
	Stemmer accum.Stemmer
}

// partition is one live on-disk short-list index, identified by its slot
// number within DataDir/SegmentOptions.Directory. When Options.AllIndicesInMemory
// is set, idx's backing bytes come from mapped/file (a read-only memory map,
// per spec §3's "shared read-only memory region") instead of a heap-allocated
// read; mapped and file are nil otherwise.
type partition struct {
	slot int
	path string
	idx  *ondisk.V2Index
	size int64 // on-disk byte size, used by the sqrt-merge size comparison

	mapped mmap.MMap
	file   *os.File
}

// close unmaps and releases the partition's memory map, if any. Safe to call
// on a partition that was opened without AllIndicesInMemory.
func (p *partition) close() error {
	if p.mapped == nil {
		return nil
	}
	err := p.mapped.Unmap()
	if cerr := p.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Manager is wumpus's HybridManager: the single entry point AddPosting and
// getUpdates go through, coordinating the accumulator, the in-place index,
// and the on-disk partition set.
type Manager struct {
	log  *zap.SugaredLogger
	opts *options.Options

	mu sync.RWMutex

	accumulator *accum.Accumulator
	inplace     *inplace.InPlaceIndex
	partitions  map[int]*partition // slot -> partition, sparse

	lastMergeDuration time.Duration

	closed atomic.Bool
}
