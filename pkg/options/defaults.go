package options

import "time"

// UpdateStrategy selects the HybridManager flush policy (spec §4.7).
type UpdateStrategy string

const (
	UpdateStrategyImmediateMerge UpdateStrategy = "immediate_merge"
	UpdateStrategyLogMerge       UpdateStrategy = "log_merge"
	UpdateStrategySqrtMerge      UpdateStrategy = "sqrt_merge"
)

// PartialFlushMode controls whether the HybridManager ever diverts
// long-list terms into the in-place index instead of a full merge.
type PartialFlushMode string

const (
	PartialFlushAuto PartialFlushMode = "auto"
	PartialFlushOff  PartialFlushMode = "off"
)

// CompressionMode selects the posting codec (spec §4.1).
type CompressionMode string

const (
	CompressionVByte CompressionMode = "vbyte"
	CompressionGamma CompressionMode = "gamma"
	CompressionNone  CompressionMode = "none"
)

const (
	// DefaultDataDir is the base directory where wumpus stores its partitions
	// and the in-place index's term map (index.long.list).
	DefaultDataDir = "/var/lib/wumpusdb"

	// DefaultCompactInterval is the default Options.CompactInterval. No
	// component reads that option; no background merges are scheduled.
	DefaultCompactInterval = time.Hour * 5

	MinSegmentSize     uint64 = 512 * 1024 * 1024
	MaxSegmentSize     uint64 = 4 * 1024 * 1024 * 1024
	DefaultSegmentSize uint64 = 1 * 1024 * 1024 * 1024

	DefaultSegmentDirectory = "/partitions"
	DefaultSegmentPrefix    = "index.short"

	// DefaultMaxUpdateSpace is the accumulator memory ceiling (MAX_UPDATE_SPACE)
	// that triggers a flush decision.
	DefaultMaxUpdateSpace uint64 = 256 * 1024 * 1024

	// DefaultLongListThreshold (LONG_LIST_THRESHOLD) is the byte size above
	// which a term's postings are routed to the in-place index instead of a
	// short-list partition.
	DefaultLongListThreshold uint64 = 1 * 1024 * 1024

	// DefaultMaxCompactIndexCount bounds the number of live V1/V2 partitions
	// (MAX_COMPACTINDEX_COUNT); slot 999 is reserved per spec §6.
	DefaultMaxCompactIndexCount = 64

	// DefaultStemmingLevel: 0 = off, 1 = stem query terms only, 2 = stem at
	// index time and query time.
	DefaultStemmingLevel = 0
)

var defaultOptions = Options{
	DataDir:            DefaultDataDir,
	CompactInterval:    DefaultCompactInterval,
	UpdateStrategy:     UpdateStrategyLogMerge,
	PartialFlush:       PartialFlushAuto,
	CompressionMode:    CompressionVByte,
	MaxUpdateSpace:     DefaultMaxUpdateSpace,
	LongListThreshold:  DefaultLongListThreshold,
	StemmingLevel:      DefaultStemmingLevel,
	ReadOnly:           false,
	AllIndicesInMemory: false,
	AppendResetMode:    false,
	SegmentOptions: &segmentOptions{
		Size:      DefaultSegmentSize,
		Prefix:    DefaultSegmentPrefix,
		Directory: DefaultSegmentDirectory,
	},
}

// NewDefaultOptions returns a copy of the baseline configuration.
func NewDefaultOptions() Options {
	cp := defaultOptions
	segCopy := *defaultOptions.SegmentOptions
	cp.SegmentOptions = &segCopy
	return cp
}
