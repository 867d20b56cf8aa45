// Package ondisk implements wumpus's two wire-compatible on-disk inverted
// file formats (spec.md C4): V1 (fixed-size descriptor table, binary
// search + block scan) and V2 (front-coded dictionary, inline PLSH
// segments, sync-point marker for O(1) seek to a multi-segment term's
// trailer).
//
// Grounded on the teacher's internal/storage/storage.go (segment rotation,
// O_CREATE|O_RDWR|O_APPEND, fixed write cache, size tracking) for the
// writer's buffered-append machinery, and pkg/seginfo/seginfo.go for
// partition naming; wire layout grounded on
// other_examples/b46453ca_rpcpool-yellowstone-faithful__compactindexsized-compactindex.go.go
// (varint-framed records + descriptor table) and
// other_examples/b9e883f3_google-codesearch__index-read.go.go (dictionary +
// positional seek).
package ondisk

import "github.com/gmargari/wumpus-sub004/pkg/codec"

// IndexBlockSize is the whole-block boundary each V1 index block starts on.
const IndexBlockSize = 64 * 1024

// MaxSegmentSize bounds how many postings a single PLSH segment holds
// before a term's list is split across multiple segments.
const MaxSegmentSize = 1 << 16

// DictionaryGroupSize is how many consecutive V2 dictionary entries share
// one in-RAM group-leader binary-search anchor.
const DictionaryGroupSize = 64

// descriptorSize is the fixed V1 descriptor table entry size: firstTerm
// (truncated to descriptorTermPrefixLen = 16 bytes, NUL-padded) + blockStart
// (int64) + blockEnd (int64), i.e. 16+8+8 = 32 bytes.
const descriptorSize = 32
const descriptorTermPrefixLen = 16

// guardianTerm is the sentinel appended at close so binary search always
// brackets a real lookup (spec §4.4 "sentinel guardian term").
var guardianTerm = string([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}) + "\x00"

// TermPostings is one term's full posting list as handed to a writer; ps
// must already be in lexicographic term order across calls.
type TermPostings struct {
	Term     string
	Postings []int64
}

// segmentOf splits postings into chunks of at most MaxSegmentSize entries
// so no single PLSH segment exceeds the wire format's size cap.
func segmentOf(postings []int64, mode codec.Mode) [][]byte {
	if len(postings) == 0 {
		return [][]byte{codec.BuildSegment(mode, nil)}
	}
	var segs [][]byte
	for i := 0; i < len(postings); i += MaxSegmentSize {
		end := i + MaxSegmentSize
		if end > len(postings) {
			end = len(postings)
		}
		segs = append(segs, codec.BuildSegment(mode, postings[i:end]))
	}
	return segs
}
