package codec

import (
	"encoding/binary"

	"github.com/gmargari/wumpus-sub004/pkg/werrors"
)

// PLSH (posting-list segment header) is the fixed-size descriptor prefixing
// every compressed posting segment in the in-place index and in the on-disk
// V1/V2 formats (the accumulator's chunks do not use it): how many postings the segment holds, the first
// and last posting values (used for wildcard/skip scans without decoding the
// body), the compressed byte length, and the codec mode that produced it.
type PLSH struct {
	PostingCount int32
	FirstPosting int64
	LastPosting  int64
	ByteLength   int32
	Mode         Mode
}

// PLSHSize is the encoded size of a PLSH header in bytes:
// 4 (count) + 8 (first) + 8 (last) + 4 (length) + 1 (mode).
const PLSHSize = 4 + 8 + 8 + 4 + 1

// EncodePLSH serializes h into a fixed PLSHSize-byte buffer.
func EncodePLSH(h PLSH) []byte {
	buf := make([]byte, PLSHSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.PostingCount))
	binary.LittleEndian.PutUint64(buf[4:12], uint64(h.FirstPosting))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(h.LastPosting))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(h.ByteLength))
	buf[24] = byte(h.Mode)
	return buf
}

// DecodePLSH parses a PLSH header from the front of data.
func DecodePLSH(data []byte) (PLSH, error) {
	if len(data) < PLSHSize {
		return PLSH{}, werrors.NewCompressionError(nil, werrors.ErrorCodeTruncatedStream, "posting list segment header truncated").
			WithStreamLen(len(data))
	}
	return PLSH{
		PostingCount: int32(binary.LittleEndian.Uint32(data[0:4])),
		FirstPosting: int64(binary.LittleEndian.Uint64(data[4:12])),
		LastPosting:  int64(binary.LittleEndian.Uint64(data[12:20])),
		ByteLength:   int32(binary.LittleEndian.Uint32(data[20:24])),
		Mode:         Mode(data[24]),
	}, nil
}

// BuildSegment compresses postings with mode and wraps them with a PLSH
// header describing the resulting stream, returning the full encoded segment
// (header followed by body).
func BuildSegment(mode Mode, postings []int64) []byte {
	body := Compress(mode, postings)
	h := PLSH{
		PostingCount: int32(len(postings)),
		Mode:         mode,
	}
	if len(postings) > 0 {
		h.FirstPosting = postings[0]
		h.LastPosting = postings[len(postings)-1]
	}
	h.ByteLength = int32(len(body))
	return append(EncodePLSH(h), body...)
}

// ReadSegment parses a segment produced by BuildSegment, returning its
// header and decoded postings.
func ReadSegment(data []byte) (PLSH, []int64, error) {
	h, err := DecodePLSH(data)
	if err != nil {
		return PLSH{}, nil, err
	}
	rest := data[PLSHSize:]
	if int32(len(rest)) < h.ByteLength {
		return PLSH{}, nil, werrors.NewCompressionError(nil, werrors.ErrorCodeTruncatedStream, "posting list segment body truncated").
			WithStreamLen(len(rest))
	}
	postings, err := Decompress(h.Mode, rest[:h.ByteLength], int(h.PostingCount))
	if err != nil {
		return PLSH{}, nil, err
	}
	return h, postings, nil
}
