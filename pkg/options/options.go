// Package options provides data structures and functions for configuring
// wumpus. It defines the parameters that control storage behavior,
// compression, flush policy, and query-time stemming, following the
// teacher's functional-options pattern (OptionFunc/With*) grown to cover
// the key/value configuration file described in spec.md §6.
package options

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// segmentOptions defines configurable parameters for each on-disk partition.
type segmentOptions struct {
	// Size is a configured partition size bound. No component reads it;
	// partitions are not rotated by size.
	Size uint64 `json:"maxSegmentSize"`
	// Directory is where partition files are stored, relative to DataDir.
	Directory string `json:"directory"`
	// Prefix is the filename prefix ("index.short" produces index.short.NNN).
	Prefix string `json:"prefix"`
}

// Options defines the configuration parameters for a wumpus instance.
type Options struct {
	DataDir         string        `json:"dataDir"`
	CompactInterval time.Duration `json:"compactInterval"`

	SegmentOptions *segmentOptions `json:"segmentOptions"`

	UpdateStrategy    UpdateStrategy   `json:"updateStrategy"`
	PartialFlush      PartialFlushMode `json:"partialFlush"`
	CompressionMode   CompressionMode  `json:"compressionMode"`
	MaxUpdateSpace    uint64           `json:"maxUpdateSpace"`
	LongListThreshold uint64           `json:"longListThreshold"`
	StemmingLevel     int              `json:"stemmingLevel"`

	ReadOnly           bool `json:"readOnly"`
	AllIndicesInMemory bool `json:"allIndicesInMemory"`

	// AppendResetMode enables the optional SUPPORT_APPEND_TAIT behavior
	// (spec §9 open question): when an incoming posting is less than the
	// previous one, insert a reset marker instead of rejecting the add.
	AppendResetMode bool `json:"appendResetMode"`
}

// OptionFunc is a function type that modifies the wumpus configuration.
type OptionFunc func(*Options)

func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		*o = opts
	}
}

func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

func WithCompactInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.CompactInterval = interval
		}
	}
}

func WithSegmentDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.SegmentOptions.Directory = directory
		}
	}
}

func WithSegmentPrefix(prefix string) OptionFunc {
	return func(o *Options) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" {
			o.SegmentOptions.Prefix = prefix
		}
	}
}

func WithSegmentSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > MinSegmentSize && size < MaxSegmentSize {
			o.SegmentOptions.Size = size
		}
	}
}

func WithUpdateStrategy(strategy UpdateStrategy) OptionFunc {
	return func(o *Options) {
		switch strategy {
		case UpdateStrategyImmediateMerge, UpdateStrategyLogMerge, UpdateStrategySqrtMerge:
			o.UpdateStrategy = strategy
		}
	}
}

func WithPartialFlush(mode PartialFlushMode) OptionFunc {
	return func(o *Options) {
		switch mode {
		case PartialFlushAuto, PartialFlushOff:
			o.PartialFlush = mode
		}
	}
}

func WithCompressionMode(mode CompressionMode) OptionFunc {
	return func(o *Options) {
		switch mode {
		case CompressionVByte, CompressionGamma, CompressionNone:
			o.CompressionMode = mode
		}
	}
}

func WithMaxUpdateSpace(bytes uint64) OptionFunc {
	return func(o *Options) {
		if bytes > 0 {
			o.MaxUpdateSpace = bytes
		}
	}
}

func WithLongListThreshold(bytes uint64) OptionFunc {
	return func(o *Options) {
		if bytes > 0 {
			o.LongListThreshold = bytes
		}
	}
}

func WithStemmingLevel(level int) OptionFunc {
	return func(o *Options) {
		if level >= 0 && level <= 2 {
			o.StemmingLevel = level
		}
	}
}

func WithReadOnly(readOnly bool) OptionFunc {
	return func(o *Options) { o.ReadOnly = readOnly }
}

func WithAllIndicesInMemory(inMemory bool) OptionFunc {
	return func(o *Options) { o.AllIndicesInMemory = inMemory }
}

func WithAppendResetMode(enabled bool) OptionFunc {
	return func(o *Options) { o.AppendResetMode = enabled }
}

// WithOptions replaces the configuration wholesale with one already
// assembled by LoadFromEnv/LoadFromFile, so a CLI can apply a loaded config
// file through the same functional-options chain pkg/wumpus.NewInstance
// expects rather than re-deriving it field by field.
func WithOptions(loaded *Options) OptionFunc {
	return func(o *Options) {
		if loaded != nil {
			*o = *loaded
		}
	}
}

// LoadFromEnv reads a key/value configuration file from the path named by
// envVar (spec §6: "configuration is a key/value file whose path comes from
// an environment variable"). Lines are KEY=VALUE; blank lines and lines
// starting with '#' are ignored. Unrecognized keys are skipped rather than
// rejected, so forward-compatible config files don't break older binaries.
func LoadFromEnv(envVar string) (*Options, error) {
	path := os.Getenv(envVar)
	if path == "" {
		opts := NewDefaultOptions()
		return &opts, nil
	}
	return LoadFromFile(path)
}

// LoadFromFile parses the key/value config file at path on top of the
// default options.
func LoadFromFile(path string) (*Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()

	opts := NewDefaultOptions()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		applyKey(&opts, strings.TrimSpace(key), strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return &opts, nil
}

func applyKey(o *Options, key, value string) {
	switch key {
	case "READ_ONLY":
		o.ReadOnly = value == "true" || value == "1"
	case "ALL_INDICES_IN_MEMORY":
		o.AllIndicesInMemory = value == "true" || value == "1"
	case "INDEX_COMPRESSION_MODE":
		WithCompressionMode(CompressionMode(value))(o)
	case "MAX_UPDATE_SPACE":
		if n, err := strconv.ParseUint(value, 10, 64); err == nil {
			WithMaxUpdateSpace(n)(o)
		}
	case "UPDATE_STRATEGY":
		WithUpdateStrategy(UpdateStrategy(value))(o)
	case "PARTIAL_FLUSH":
		WithPartialFlush(PartialFlushMode(value))(o)
	case "LONG_LIST_THRESHOLD":
		if n, err := strconv.ParseUint(value, 10, 64); err == nil {
			WithLongListThreshold(n)(o)
		}
	case "STEMMING_LEVEL":
		if n, err := strconv.Atoi(value); err == nil {
			WithStemmingLevel(n)(o)
		}
	}
}
