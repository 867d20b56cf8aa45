package hybrid

import (
	"context"
	stdErrors "errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/edsrzf/mmap-go"
	"go.uber.org/multierr"

	"github.com/gmargari/wumpus-sub004/internal/accum"
	"github.com/gmargari/wumpus-sub004/internal/inplace"
	"github.com/gmargari/wumpus-sub004/internal/ondisk"
	"github.com/gmargari/wumpus-sub004/pkg/codec"
	"github.com/gmargari/wumpus-sub004/pkg/filesys"
	"github.com/gmargari/wumpus-sub004/pkg/options"
	"github.com/gmargari/wumpus-sub004/pkg/seginfo"
	"github.com/gmargari/wumpus-sub004/pkg/werrors"
)

var ErrManagerClosed = stdErrors.New("operation failed: cannot access closed hybrid manager")

const termMapFileName = "index.long.list"

// New bootstraps a Manager: it creates the accumulator and in-place index,
// then recovers any existing partitions under
// Options.DataDir/SegmentOptions.Directory by scanning the directory,
// discovering the live slot set, and opening each one in place rather than
// rotating to a fresh segment.
func New(ctx context.Context, config *Config) (*Manager, error) {
	if config == nil || config.Logger == nil || config.Options == nil {
		return nil, werrors.NewValidationError(
			nil, werrors.ErrorCodeInvalidInput, "hybrid manager configuration is required",
		).WithField("config")
	}
	opts := config.Options

	config.Logger.Infow("Initializing hybrid manager", "dataDir", opts.DataDir, "updateStrategy", opts.UpdateStrategy)

	segmentDir := filepath.Join(opts.DataDir, opts.SegmentOptions.Directory)
	if err := filesys.CreateDir(segmentDir, 0755, true); err != nil {
		return nil, werrors.NewStorageError(err, werrors.ErrorCodeIO, "failed to create partition directory").
			WithPath(segmentDir)
	}

	accumulator, err := accum.New(ctx, &accum.Config{
		Logger:          config.Logger,
		AppendResetMode: opts.AppendResetMode,
		StemmingLevel:   opts.StemmingLevel,
		Stemmer:         config.Stemmer,
	})
	if err != nil {
		return nil, err
	}

	ip, err := inplace.New(ctx, &inplace.Config{Logger: config.Logger, GrowthMode: inplace.GrowthRelocate})
	if err != nil {
		return nil, err
	}
	if err := ip.LoadTermMap(filepath.Join(opts.DataDir, termMapFileName)); err != nil {
		return nil, err
	}

	m := &Manager{
		log:         config.Logger,
		opts:        opts,
		accumulator: accumulator,
		inplace:     ip,
		partitions:  make(map[int]*partition),
	}

	slots, err := seginfo.ListPartitions(opts.DataDir, opts.SegmentOptions.Directory, opts.SegmentOptions.Prefix)
	if err != nil {
		return nil, werrors.NewStorageError(err, werrors.ErrorCodeIO, "failed to discover existing partitions")
	}
	mode := modeFor(opts.CompressionMode)
	for _, slot := range slots {
		path := partitionPath(opts, slot)
		if err := m.openPartition(slot, path, mode); err != nil {
			return nil, err
		}
	}

	config.Logger.Infow("Hybrid manager initialized", "partitions", len(m.partitions))
	return m, nil
}

// Close flushes the accumulator (if it holds any postings) through an
// immediate merge, persists the in-place term map, and releases every
// subsystem. CAS-guarded like the teacher's Engine.Close.
func (m *Manager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return ErrManagerClosed
	}

	m.mu.Lock()
	if m.accumulator.TermCount() > 0 {
		if err := m.mergeLocked(immediateMergeSlots(m.partitions)); err != nil {
			m.mu.Unlock()
			return err
		}
	}
	m.mu.Unlock()

	if err := m.inplace.SaveTermMap(filepath.Join(m.opts.DataDir, termMapFileName)); err != nil {
		return err
	}

	m.log.Infow("Closing hybrid manager", "partitions", len(m.partitions))
	err := multierr.Append(m.accumulator.Close(), m.inplace.Close())
	for _, p := range m.partitions {
		err = multierr.Append(err, p.close())
	}
	return err
}

// AddPosting appends one (term, posting) pair to the accumulator, and
// triggers a flush per Options.UpdateStrategy once the accumulator's
// memory footprint reaches MaxUpdateSpace.
func (m *Manager) AddPosting(term string, posting int64) error {
	if m.closed.Load() {
		return ErrManagerClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.accumulator.AddPosting(term, posting); err != nil {
		return err
	}
	return m.maybeFlushLocked()
}

// OpenDocument starts a document-level TF-accumulation window at docStart
// (spec §4.3), for callers indexing whole files as GCL documents.
func (m *Manager) OpenDocument(docStart int64) error {
	if m.closed.Load() {
		return ErrManagerClosed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accumulator.OpenDocument(docStart)
}

// CloseDocument ends the current document-level TF window at docEnd,
// flushing one document-level posting per term seen since OpenDocument, then
// checks the same flush trigger AddPosting does.
func (m *Manager) CloseDocument(docEnd int64) error {
	if m.closed.Load() {
		return ErrManagerClosed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.accumulator.CloseDocument(docEnd); err != nil {
		return err
	}
	return m.maybeFlushLocked()
}

// Flush forces an immediate merge of the accumulator and every live
// partition into one, bypassing Options.UpdateStrategy (the "sync" update
// sub-operation: make every pending addition queryable right away).
func (m *Manager) Flush() error {
	if m.closed.Load() {
		return ErrManagerClosed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.accumulator.TermCount() == 0 && len(m.partitions) <= 1 {
		return nil
	}
	return m.mergeLocked(immediateMergeSlots(m.partitions))
}

// maybeFlushLocked triggers the configured flush policy once the
// accumulator's memory footprint reaches MaxUpdateSpace. Caller must hold m.mu.
func (m *Manager) maybeFlushLocked() error {
	if uint64(m.accumulator.MemoryConsumed()) < m.opts.MaxUpdateSpace {
		return nil
	}
	if m.opts.PartialFlush == options.PartialFlushAuto {
		if m.partialFlushLocked() {
			return nil
		}
	}
	return m.flushLocked()
}

// modeFor maps the configured compression mode to the codec package's
// wire-level Mode byte.
func modeFor(c options.CompressionMode) codec.Mode {
	switch c {
	case options.CompressionGamma:
		return codec.ModeGamma
	case options.CompressionNone:
		return codec.ModeNull
	default:
		return codec.ModeVByte
	}
}

func partitionPath(opts *options.Options, slot int) string {
	name := seginfo.GenerateName(slot, opts.SegmentOptions.Prefix)
	return filepath.Join(opts.DataDir, opts.SegmentOptions.Directory, name)
}

// openPartition loads a partition's wire bytes and opens a V2Index over
// them. When Options.AllIndicesInMemory is set it maps the file read-only
// instead of copying it onto the heap (spec §3's "shared read-only memory
// region (when the partition is memory-resident)"); the map is released by
// partition.close when the partition is superseded by a merge or the
// Manager shuts down.
func (m *Manager) openPartition(slot int, path string, mode codec.Mode) error {
	var data []byte
	var mapped mmap.MMap
	var file *os.File

	if m.opts.AllIndicesInMemory {
		f, err := os.Open(path)
		if err != nil {
			return werrors.NewStorageError(err, werrors.ErrorCodeIO, "failed to open partition file").WithPath(path)
		}
		mp, err := mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return werrors.NewStorageError(err, werrors.ErrorCodeIO, "failed to memory-map partition file").WithPath(path)
		}
		data, mapped, file = mp, mp, f
	} else {
		d, err := filesys.ReadFile(path)
		if err != nil {
			return werrors.NewStorageError(err, werrors.ErrorCodeIO, "failed to read partition file").WithPath(path)
		}
		data = d
	}

	idx, err := ondisk.OpenV2(data, mode)
	if err != nil {
		if mapped != nil {
			mapped.Unmap()
			file.Close()
		}
		return werrors.NewStorageError(err, werrors.ErrorCodeSegmentCorrupted, "failed to open partition").WithPath(path)
	}
	m.partitions[slot] = &partition{
		slot: slot, path: path, idx: idx, size: int64(len(data)),
		mapped: mapped, file: file,
	}
	return nil
}

// writePartitionAtomic writes data to a temp file and renames it into
// place, so a crash mid-write never leaves a half-written partition visible
// (spec's "index partitions are created by flushes/merges and destroyed
// atomically by rename-over or unlink after the successor exists").
func writePartitionAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := filesys.WriteFile(tmp, 0644, data); err != nil {
		return werrors.NewStorageError(err, werrors.ErrorCodeIO, "failed to write partition temp file").WithPath(tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return werrors.NewStorageError(err, werrors.ErrorCodeIO, "failed to rename partition into place").WithPath(path)
	}
	return nil
}

// sortedSlots returns every live partition slot in ascending numeric order.
func (m *Manager) sortedSlots() []int {
	slots := make([]int, 0, len(m.partitions))
	for s := range m.partitions {
		slots = append(slots, s)
	}
	sort.Ints(slots)
	return slots
}
