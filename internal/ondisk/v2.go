package ondisk

import (
	"bytes"
	"encoding/binary"

	"github.com/gmargari/wumpus-sub004/pkg/codec"
	"github.com/gmargari/wumpus-sub004/pkg/werrors"
)

// v2Signature is the 22-byte magic prefix of every V2 file (spec §4.4).
var v2Signature = []byte("Wumpus:CompactIndex2\x00\x1a")

const (
	contMore byte = 255
	contLast byte = 0
)

// v2Header is the fixed trailer summarizing the file's contents, read
// first so the reader knows where the front-coded dictionary begins.
type v2Header struct {
	listCount               int32
	termCount                int32
	postingCount             int64
	descriptorCount          int32
	compressedDescriptorSize int32
	dictionaryOffset         int64
}

const v2HeaderSize = 4 + 4 + 8 + 4 + 4 + 8

// WriteV2 serializes terms into wumpus's V2 on-disk format: inline
// compressed PLSH segments in the postings area, a sync-point marker for
// multi-segment terms, and a trailing front-coded dictionary.
func WriteV2(terms []TermPostings, mode codec.Mode) ([]byte, error) {
	if err := assertMonotonic(terms); err != nil {
		return nil, err
	}

	buf := append([]byte{}, v2Signature...)

	type dictEntry struct {
		term   string
		offset int64
	}
	dict := make([]dictEntry, 0, len(terms))

	var totalPostings int64
	var descriptorCount int32

	for _, t := range terms {
		offset := int64(len(buf))
		dict = append(dict, dictEntry{term: t.Term, offset: offset})

		segs := segmentOf(t.Postings, mode)
		descriptorCount += int32(len(segs))
		totalPostings += int64(len(t.Postings))

		markerPatchAt := -1
		for i, seg := range segs {
			if i == len(segs)-1 {
				buf = append(buf, contLast)
			} else {
				buf = append(buf, contMore)
			}
			if i == 1 {
				markerPatchAt = len(buf)
				buf = append(buf, make([]byte, 8)...) // reserved sync-point marker
			}
			buf = append(buf, seg...)
		}

		if len(segs) > 1 {
			trailerOffset := int64(len(buf))
			for _, seg := range segs {
				h, err := codec.DecodePLSH(seg)
				if err != nil {
					return nil, err
				}
				buf = append(buf, codec.EncodePLSH(h)...)
			}
			binary.LittleEndian.PutUint64(buf[markerPatchAt:markerPatchAt+8], uint64(trailerOffset))
		}
	}

	dictionaryOffset := int64(len(buf))

	var prevTerm string
	for _, e := range dict {
		commonLen := commonPrefixLen(prevTerm, e.term)
		buf = append(buf, byte(commonLen))
		suffix := e.term[commonLen:]
		buf = append(buf, byte(len(suffix)))
		buf = append(buf, suffix...)
		buf = appendVByteInt(buf, uint64(e.offset))
		prevTerm = e.term
	}

	header := v2Header{
		listCount:                int32(len(terms)),
		termCount:                int32(len(terms)),
		postingCount:             totalPostings,
		descriptorCount:          descriptorCount,
		compressedDescriptorSize: int32(dictionaryOffset),
		dictionaryOffset:         dictionaryOffset,
	}
	buf = appendV2Header(buf, header)

	return buf, nil
}

func appendV2Header(buf []byte, h v2Header) []byte {
	tmp := make([]byte, v2HeaderSize)
	binary.LittleEndian.PutUint32(tmp[0:4], uint32(h.listCount))
	binary.LittleEndian.PutUint32(tmp[4:8], uint32(h.termCount))
	binary.LittleEndian.PutUint64(tmp[8:16], uint64(h.postingCount))
	binary.LittleEndian.PutUint32(tmp[16:20], uint32(h.descriptorCount))
	binary.LittleEndian.PutUint32(tmp[20:24], uint32(h.compressedDescriptorSize))
	binary.LittleEndian.PutUint64(tmp[24:32], uint64(h.dictionaryOffset))
	return append(buf, tmp...)
}

func appendVByteInt(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v&0x7f)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n > 255 {
		n = 255
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// V2Index is a read-only view over a V2-format byte slice, with the
// front-coded dictionary fully decoded into RAM for group-leader lookup.
type V2Index struct {
	data   []byte
	mode   codec.Mode
	header v2Header

	terms        []string
	offsets      []int64
	groupLeaders []int // index into terms/offsets of every DictionaryGroupSize-th entry
}

// OpenV2 parses the signature, header, and dictionary of a V2-format buffer.
func OpenV2(data []byte, mode codec.Mode) (*V2Index, error) {
	if len(data) < len(v2Signature)+v2HeaderSize {
		return nil, werrors.NewStorageError(nil, werrors.ErrorCodeSegmentCorrupted, "v2 index truncated")
	}
	if !bytes.Equal(data[:len(v2Signature)], v2Signature) {
		return nil, werrors.NewStorageError(nil, werrors.ErrorCodeSegmentCorrupted, "v2 index signature mismatch")
	}

	footer := data[len(data)-v2HeaderSize:]
	h := v2Header{
		listCount:                int32(binary.LittleEndian.Uint32(footer[0:4])),
		termCount:                int32(binary.LittleEndian.Uint32(footer[4:8])),
		postingCount:             int64(binary.LittleEndian.Uint64(footer[8:16])),
		descriptorCount:          int32(binary.LittleEndian.Uint32(footer[16:20])),
		compressedDescriptorSize: int32(binary.LittleEndian.Uint32(footer[20:24])),
		dictionaryOffset:         int64(binary.LittleEndian.Uint64(footer[24:32])),
	}

	idx := &V2Index{data: data, mode: mode, header: h}
	dictEnd := len(data) - v2HeaderSize
	pos := int(h.dictionaryOffset)
	var prevTerm string
	for i := 0; pos < dictEnd; i++ {
		commonLen := int(data[pos])
		suffixLen := int(data[pos+1])
		pos += 2
		suffix := string(data[pos : pos+suffixLen])
		pos += suffixLen
		term := prevTerm[:commonLen] + suffix
		offset, n := decodeVByteInt(data[pos:])
		pos += n

		idx.terms = append(idx.terms, term)
		idx.offsets = append(idx.offsets, int64(offset))
		if i%DictionaryGroupSize == 0 {
			idx.groupLeaders = append(idx.groupLeaders, i)
		}
		prevTerm = term
	}

	return idx, nil
}

func decodeVByteInt(buf []byte) (uint64, int) {
	var v uint64
	var shift uint
	n := 0
	for n < len(buf) {
		b := buf[n]
		v |= uint64(b&0x7f) << shift
		n++
		if b&0x80 == 0 {
			return v, n
		}
		shift += 7
	}
	return 0, 0
}

// GetPostings looks up term via binary search over the group-leader array,
// a sequential scan within the matched group, then a positional seek into
// the postings area and, for multi-segment terms, a jump via the
// sync-point marker straight to the PLSH trailer.
func (idx *V2Index) GetPostings(term string) ([]int64, bool) {
	groupIdx := upperBoundGroup(idx, term) - 1
	if groupIdx < 0 {
		groupIdx = 0
	}
	start := 0
	if groupIdx < len(idx.groupLeaders) {
		start = idx.groupLeaders[groupIdx]
	}
	end := len(idx.terms)
	if groupIdx+1 < len(idx.groupLeaders) {
		end = idx.groupLeaders[groupIdx+1]
	}

	for i := start; i < end; i++ {
		if idx.terms[i] != term {
			continue
		}
		return idx.readPostingsAt(idx.offsets[i])
	}
	return nil, false
}

func upperBoundGroup(idx *V2Index, term string) int {
	lo, hi := 0, len(idx.groupLeaders)
	for lo < hi {
		mid := (lo + hi) / 2
		if idx.terms[idx.groupLeaders[mid]] <= term {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// readPostingsAt reads every segment of a term's posting list starting at
// offset. The sync-point marker reserved after the second segment lets a
// reader jump straight to the PLSH trailer instead of re-scanning segment
// bodies to enumerate headers (spec §4.4); since this reader already walks
// every segment sequentially to decode postings, the marker bytes are
// simply skipped rather than followed.
func (idx *V2Index) readPostingsAt(offset int64) ([]int64, bool) {
	pos := int(offset)
	data := idx.data

	var postings []int64

	flag := data[pos]
	pos++
	segIdx := 0
	for {
		if segIdx == 1 {
			pos += 8 // skip the reserved sync-point marker
		}

		h, err := codec.DecodePLSH(data[pos:])
		if err != nil {
			return nil, false
		}
		segBody := data[pos : pos+codec.PLSHSize+int(h.ByteLength)]
		_, ps, err := codec.ReadSegment(segBody)
		if err != nil {
			return nil, false
		}
		postings = append(postings, ps...)
		pos += codec.PLSHSize + int(h.ByteLength)

		if flag == contLast {
			break
		}
		if pos >= len(data) {
			break
		}
		flag = data[pos]
		pos++
		segIdx++
	}
	return postings, true
}

// Terms returns every term in the dictionary, in on-disk (sorted) order.
func (idx *V2Index) Terms() []string {
	return idx.terms
}
