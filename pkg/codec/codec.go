// Package codec implements wumpus's posting and segment-header compressors
// (spec.md C1): delta + variable-byte encoding, gamma encoding, and the
// PLSH (posting-list-segment-header) codec used by every on-disk format.
//
// Grounded on other_examples/b46453ca_rpcpool-yellowstone-faithful__compactindexsized-compactindex.go.go
// (varint-framed compact records) and other_examples/b9e883f3_google-codesearch__index-read.go.go
// (delta-coded posting streams decoded with a manual continuation-bit loop).
// No third-party library in the pack implements integer-sequence coding of
// this exact bit-exact wire shape, so this is a justified stdlib-only
// (encoding/binary, math/bits) component — see DESIGN.md.
package codec

import (
	"github.com/gmargari/wumpus-sub004/pkg/werrors"
)

// Mode identifies which codec produced a compressed byte stream. Every
// compressed stream is prefixed with a single mode byte so a reader can
// reject streams compressed with an unexpected mode without guessing.
type Mode byte

const (
	ModeVByte Mode = 0
	ModeGamma Mode = 1
	ModeNull  Mode = 2 // uncompressed, fixed 8-byte little-endian ints; debugging only.
)

func (m Mode) String() string {
	switch m {
	case ModeVByte:
		return "vbyte"
	case ModeGamma:
		return "gamma"
	case ModeNull:
		return "null"
	default:
		return "unknown"
	}
}

// Compress encodes a strictly increasing sequence of postings as deltas in
// the given mode, prefixed by the mode byte. Returns the encoded bytes.
func Compress(mode Mode, postings []int64) []byte {
	switch mode {
	case ModeGamma:
		return compressGamma(postings)
	case ModeNull:
		return compressNull(postings)
	default:
		return compressVByte(postings)
	}
}

// Decompress decodes a compressed stream produced by Compress, checking that
// its leading mode byte matches expectedMode. n bounds how many postings to
// decode (the segment's PostingCount); pass -1 to decode until the buffer is
// exhausted.
func Decompress(expectedMode Mode, data []byte, n int) ([]int64, error) {
	if len(data) == 0 {
		return nil, werrors.NewCompressionError(nil, werrors.ErrorCodeTruncatedStream, "empty compressed stream").
			WithMode(expectedMode.String())
	}
	got := Mode(data[0])
	if got != expectedMode {
		return nil, werrors.NewModeMismatchError(expectedMode.String(), got.String())
	}
	body := data[1:]
	switch got {
	case ModeGamma:
		return decompressGamma(body, n)
	case ModeNull:
		return decompressNull(body, n)
	default:
		return decompressVByte(body, n)
	}
}
