package hybrid

import (
	"context"
	"math"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gmargari/wumpus-sub004/internal/iter"
	"github.com/gmargari/wumpus-sub004/internal/ondisk"
	"github.com/gmargari/wumpus-sub004/pkg/options"
	"github.com/gmargari/wumpus-sub004/pkg/seginfo"
	"github.com/gmargari/wumpus-sub004/pkg/werrors"
)

// flushLocked runs the configured UPDATE_STRATEGY flush policy (spec §4.7).
// Called with m.mu held.
func (m *Manager) flushLocked() error {
	switch m.opts.UpdateStrategy {
	case options.UpdateStrategyImmediateMerge:
		return m.mergeLocked(immediateMergeSlots(m.partitions))
	case options.UpdateStrategySqrtMerge:
		return m.sqrtMergeLocked()
	default: // UpdateStrategyLogMerge
		return m.logMergeLocked()
	}
}

// immediateMergeSlots is every currently live partition slot, in ascending
// (oldest-first) order, for the immediate-merge policy: "merge accumulator
// ∪ all partitions → single new partition; drop old."
func immediateMergeSlots(partitions map[int]*partition) []int {
	slots := make([]int, 0, len(partitions))
	for s := range partitions {
		slots = append(slots, s)
	}
	sort.Ints(slots)
	return slots
}

// logMergeLocked implements "find the smallest free slot i with
// partition[0..i-1] all populated; merge those plus accumulator →
// partition[i]."
func (m *Manager) logMergeLocked() error {
	occupied := m.sortedSlots()
	target, ok := seginfo.FirstFreeSlot(occupied, options.DefaultMaxCompactIndexCount)
	if !ok {
		return m.mergeLocked(occupied)
	}

	var contiguous []int
	for _, s := range occupied {
		if s < target {
			contiguous = append(contiguous, s)
		}
	}
	return m.mergeIntoLocked(contiguous, target)
}

// sqrtMergeLocked implements "compare accumulator+smallest-partition size to
// √(largest-partition size); produce 1-2 partitions."
func (m *Manager) sqrtMergeLocked() error {
	if len(m.partitions) == 0 {
		slot, ok := seginfo.FirstFreeSlot(nil, options.DefaultMaxCompactIndexCount)
		if !ok {
			return werrors.NewStorageError(nil, werrors.ErrorCodeInternal, "no free partition slot available")
		}
		return m.mergeIntoLocked(nil, slot)
	}

	var smallest, largest *partition
	for _, p := range m.partitions {
		if smallest == nil || p.size < smallest.size {
			smallest = p
		}
		if largest == nil || p.size > largest.size {
			largest = p
		}
	}

	threshold := math.Sqrt(float64(largest.size))
	accumSize := float64(m.accumulator.MemoryConsumed())

	if accumSize+float64(smallest.size) <= threshold {
		return m.mergeIntoLocked([]int{smallest.slot}, smallest.slot)
	}

	occupied := m.sortedSlots()
	slot, ok := seginfo.FirstFreeSlot(occupied, options.DefaultMaxCompactIndexCount)
	if !ok {
		return m.mergeIntoLocked(occupied, occupied[0])
	}
	return m.mergeIntoLocked(nil, slot)
}

// mergeLocked merges slots plus the accumulator into the first of slots (or
// the first free slot if slots is empty).
func (m *Manager) mergeLocked(slots []int) error {
	if len(slots) == 0 {
		slot, ok := seginfo.FirstFreeSlot(m.sortedSlots(), options.DefaultMaxCompactIndexCount)
		if !ok {
			return werrors.NewStorageError(nil, werrors.ErrorCodeInternal, "no free partition slot available")
		}
		return m.mergeIntoLocked(nil, slot)
	}
	return m.mergeIntoLocked(slots, slots[0])
}

// mergeIntoLocked merges every partition named by sourceSlots, in
// oldest-first order, together with the accumulator's current contents,
// via Merger.MergeWithLongTarget (so any term that has grown past
// LongListThreshold is routed to the in-place index instead of the new
// partition), writes the result to targetSlot, and removes the merged
// source partitions.
func (m *Manager) mergeIntoLocked(sourceSlots []int, targetSlot int) error {
	start := time.Now()
	mode := modeFor(m.opts.CompressionMode)

	// Each source partition's dictionary scan is independent of the others,
	// so materializing the per-partition term/postings slices (the only
	// CPU-bound step before the sequential tournament merge) runs
	// concurrently via errgroup.
	sources := make([][]iter.TermPostings, len(sourceSlots))
	g, _ := errgroup.WithContext(context.Background())
	for i, slot := range sourceSlots {
		i, slot := i, slot
		g.Go(func() error {
			p := m.partitions[slot]
			terms := p.idx.Terms()
			tp := make([]iter.TermPostings, 0, len(terms))
			for _, t := range terms {
				postings, ok := p.idx.GetPostings(t)
				if !ok {
					continue
				}
				tp = append(tp, iter.TermPostings{Term: t, Postings: postings, Mode: mode})
			}
			sources[i] = tp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	children := make([]iter.Iterator, 0, len(sourceSlots)+1)
	for _, tp := range sources {
		children = append(children, iter.NewSource(tp))
	}

	flushed := m.accumulator.Flush()
	accumTP := make([]iter.TermPostings, 0, len(flushed))
	for _, f := range flushed {
		accumTP = append(accumTP, iter.TermPostings{Term: f.Term, Postings: f.Postings, Mode: mode})
	}
	children = append(children, iter.NewSource(accumTP))

	multi := iter.NewMultipleIndexIterator(children)
	sink := iter.NewTermSink()
	merger := iter.NewMerger()
	if err := merger.MergeWithLongTarget(sink, m.inplace, multi, int64(m.opts.LongListThreshold)); err != nil {
		return err
	}

	data, err := ondisk.WriteV2(sink.Terms(), mode)
	if err != nil {
		return err
	}

	path := partitionPath(m.opts, targetSlot)
	if err := writePartitionAtomic(path, data); err != nil {
		return err
	}

	for _, slot := range sourceSlots {
		if slot == targetSlot {
			continue
		}
		old := m.partitions[slot]
		if err := old.close(); err != nil {
			m.log.Warnw("failed to unmap merged partition file", "path", old.path, "error", err)
		}
		if err := os.Remove(old.path); err != nil && !os.IsNotExist(err) {
			m.log.Warnw("failed to remove merged partition file", "path", old.path, "error", err)
		}
		delete(m.partitions, slot)
	}

	// targetSlot itself may already hold a mapped partition (immediate merge
	// and sqrtMergeLocked fold a source slot into itself, and so does
	// logMergeLocked when no slot is free), which the loop above skips closing
	// since it isn't being removed from m.partitions. Close it here, right
	// before its *partition is replaced, so its mmap/fd is never leaked.
	if old, ok := m.partitions[targetSlot]; ok {
		if err := old.close(); err != nil {
			m.log.Warnw("failed to unmap superseded partition file", "path", old.path, "error", err)
		}
	}

	if err := m.openPartition(targetSlot, path, mode); err != nil {
		return err
	}

	m.lastMergeDuration = time.Since(start)
	m.log.Infow("Merge completed",
		"targetSlot", targetSlot, "sourceSlots", sourceSlots,
		"terms", len(sink.Terms()), "duration", m.lastMergeDuration)
	return nil
}

// partialFlushLocked implements the partial-flush memory-relief path: every
// term whose accumulator footprint is >= pfThreshold is flushed directly
// into the in-place index. Returns true if at least 15% of memory was
// freed, in which case the full merge this AddPosting call would otherwise
// have triggered is skipped (spec §4.7).
func (m *Manager) partialFlushLocked() bool {
	if m.lastMergeDuration <= 0 {
		return false
	}

	before := m.accumulator.MemoryConsumed()
	realMem := before
	pfThreshold := int64(float64(realMem) * float64(30*time.Millisecond) / float64(m.lastMergeDuration))
	if pfThreshold <= 0 {
		return false
	}

	mode := modeFor(m.opts.CompressionMode)
	terms := m.accumulator.ExtractAbove(pfThreshold)
	for _, t := range terms {
		if err := m.inplace.AddPostings(t.Term, t.Postings, mode); err != nil {
			m.log.Warnw("partial flush failed to write term to in-place index", "term", t.Term, "error", err)
			continue
		}
		m.inplace.SetAppearsInIndex(t.Term, true)
	}
	if err := m.inplace.FinishUpdate(); err != nil {
		m.log.Warnw("partial flush finish failed", "error", err)
	}

	after := m.accumulator.MemoryConsumed()
	if before == 0 {
		return false
	}
	freedFraction := float64(before-after) / float64(before)
	return freedFraction >= 0.15
}
