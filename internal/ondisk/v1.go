package ondisk

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/gmargari/wumpus-sub004/pkg/codec"
	"github.com/gmargari/wumpus-sub004/pkg/werrors"
)

// v1Footer is a fixed 16-byte trailer at EOF so a reader can locate the
// descriptor table without scanning the file: magic, block count, then the
// descriptor table's byte offset.
const v1FooterSize = 4 + 4 + 8

var v1Magic = [4]byte{'W', 'P', 'V', '1'}

type v1Descriptor struct {
	firstTerm  string // truncated to descriptorTermPrefixLen
	blockStart int64
	blockEnd   int64
}

// WriteV1 serializes terms (already in lexicographic order) into the V1
// on-disk format: index blocks strictly on IndexBlockSize boundaries,
// followed by a fixed-size descriptor table, followed by a footer.
func WriteV1(terms []TermPostings, mode codec.Mode) ([]byte, error) {
	if err := assertMonotonic(terms); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	var descriptors []v1Descriptor

	blockStart := int64(0)
	var block bytes.Buffer
	var blockFirstTerm string

	flushBlock := func() {
		if block.Len() == 0 {
			return
		}
		pad := IndexBlockSize - (block.Len() % IndexBlockSize)
		if pad == IndexBlockSize {
			pad = 0
		}
		block.Write(make([]byte, pad))
		descriptors = append(descriptors, v1Descriptor{
			firstTerm:  blockFirstTerm,
			blockStart: blockStart,
			blockEnd:   blockStart + int64(block.Len()),
		})
		out.Write(block.Bytes())
		blockStart += int64(block.Len())
		block.Reset()
	}

	appendTerm := func(term string, postings []int64) {
		record := encodeV1Record(term, postings, mode)
		if block.Len() > 0 && block.Len()+len(record) > IndexBlockSize {
			flushBlock()
		}
		if block.Len() == 0 {
			blockFirstTerm = term
		}
		block.Write(record)
	}

	for _, t := range terms {
		appendTerm(t.Term, t.Postings)
	}
	appendTerm(guardianTerm, nil)
	flushBlock()

	descTableOffset := int64(out.Len())
	for _, d := range descriptors {
		out.Write(encodeV1Descriptor(d))
	}

	footer := make([]byte, v1FooterSize)
	copy(footer[0:4], v1Magic[:])
	binary.LittleEndian.PutUint32(footer[4:8], uint32(len(descriptors)))
	binary.LittleEndian.PutUint64(footer[8:16], uint64(descTableOffset))
	out.Write(footer)

	return out.Bytes(), nil
}

func encodeV1Record(term string, postings []int64, mode codec.Mode) []byte {
	var buf bytes.Buffer
	buf.WriteString(term)
	buf.WriteByte(0)

	segs := segmentOf(postings, mode)
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(segs)))
	buf.Write(countBuf[:])
	for _, s := range segs {
		buf.Write(s)
	}
	return buf.Bytes()
}

func encodeV1Descriptor(d v1Descriptor) []byte {
	buf := make([]byte, descriptorSize)
	prefix := d.firstTerm
	if len(prefix) > descriptorTermPrefixLen {
		prefix = prefix[:descriptorTermPrefixLen]
	}
	copy(buf, prefix)
	binary.LittleEndian.PutUint64(buf[descriptorTermPrefixLen:descriptorTermPrefixLen+8], uint64(d.blockStart))
	binary.LittleEndian.PutUint64(buf[descriptorTermPrefixLen+8:descriptorTermPrefixLen+16], uint64(d.blockEnd))
	return buf
}

func decodeV1Descriptor(buf []byte) v1Descriptor {
	prefixRaw := buf[:descriptorTermPrefixLen]
	end := bytes.IndexByte(prefixRaw, 0)
	var prefix string
	if end < 0 {
		prefix = string(prefixRaw)
	} else {
		prefix = string(prefixRaw[:end])
	}
	return v1Descriptor{
		firstTerm:  prefix,
		blockStart: int64(binary.LittleEndian.Uint64(buf[descriptorTermPrefixLen : descriptorTermPrefixLen+8])),
		blockEnd:   int64(binary.LittleEndian.Uint64(buf[descriptorTermPrefixLen+8 : descriptorTermPrefixLen+16])),
	}
}

func assertMonotonic(terms []TermPostings) error {
	for i := 1; i < len(terms); i++ {
		if terms[i].Term <= terms[i-1].Term {
			return werrors.NewIndexError(nil, werrors.ErrorCodeIndexCorrupted, "writer received non-monotonic term order").
				WithTerm(terms[i].Term).WithOperation("WriteV1")
		}
	}
	return nil
}

// V1Index is a read-only view over a V1-format byte slice.
type V1Index struct {
	data        []byte
	mode        codec.Mode
	descriptors []v1Descriptor
}

// OpenV1 parses the footer and descriptor table of a V1-format buffer.
func OpenV1(data []byte, mode codec.Mode) (*V1Index, error) {
	if len(data) < v1FooterSize {
		return nil, werrors.NewStorageError(nil, werrors.ErrorCodeSegmentCorrupted, "v1 index truncated")
	}
	footer := data[len(data)-v1FooterSize:]
	if !bytes.Equal(footer[0:4], v1Magic[:]) {
		return nil, werrors.NewStorageError(nil, werrors.ErrorCodeSegmentCorrupted, "v1 index magic mismatch")
	}
	blockCount := binary.LittleEndian.Uint32(footer[4:8])
	descOffset := int64(binary.LittleEndian.Uint64(footer[8:16]))

	descs := make([]v1Descriptor, 0, blockCount)
	pos := descOffset
	for i := uint32(0); i < blockCount; i++ {
		descs = append(descs, decodeV1Descriptor(data[pos:pos+descriptorSize]))
		pos += descriptorSize
	}

	return &V1Index{data: data, mode: mode, descriptors: descs}, nil
}

// GetPostings looks up term via binary search over the descriptor table
// followed by a linear scan of the located block (spec §4.4 "Lookup is
// binary search over descriptors, then linear scan of the block").
func (idx *V1Index) GetPostings(term string) ([]int64, bool) {
	n := len(idx.descriptors)
	trunc := term
	if len(trunc) > descriptorTermPrefixLen {
		trunc = trunc[:descriptorTermPrefixLen]
	}
	blockIdx := sort.Search(n, func(i int) bool {
		return idx.descriptors[i].firstTerm > trunc
	}) - 1
	if blockIdx < 0 {
		return nil, false
	}

	// firstTerm is truncated to descriptorTermPrefixLen bytes, so two
	// adjacent blocks can carry an identical descriptor key; the binary
	// search above can only land on one of them. Walk backward over every
	// block tied with that key until the prefix changes, scanning each in
	// turn, since only the block's real (untruncated) contents disambiguate.
	tie := idx.descriptors[blockIdx].firstTerm
	for i := blockIdx; i >= 0 && idx.descriptors[i].firstTerm == tie; i-- {
		if postings, ok := idx.scanBlock(i, term); ok {
			return postings, true
		}
	}
	return nil, false
}

// scanBlock linearly scans block i's term entries for an exact match.
func (idx *V1Index) scanBlock(i int, term string) ([]int64, bool) {
	d := idx.descriptors[i]
	block := idx.data[d.blockStart:d.blockEnd]

	pos := 0
	for pos < len(block) {
		nameEnd := bytes.IndexByte(block[pos:], 0)
		if nameEnd < 0 {
			break
		}
		name := string(block[pos : pos+nameEnd])
		pos += nameEnd + 1
		if pos+4 > len(block) {
			break
		}
		segCount := int(binary.LittleEndian.Uint32(block[pos : pos+4]))
		pos += 4

		var allPostings []int64
		matched := name == term
		for s := 0; s < segCount; s++ {
			h, err := codec.DecodePLSH(block[pos:])
			if err != nil {
				return nil, false
			}
			segLen := codec.PLSHSize + int(h.ByteLength)
			if matched {
				_, postings, err := codec.ReadSegment(block[pos : pos+segLen])
				if err != nil {
					return nil, false
				}
				allPostings = append(allPostings, postings...)
			}
			pos += segLen
		}
		if matched {
			return allPostings, true
		}
		if name > term {
			return nil, false
		}
	}
	return nil, false
}

// Terms returns every term stored in the index, in on-disk order, for
// wildcard scans and iteration (spec §4.4 getPostingsForWildcard).
func (idx *V1Index) Terms() []string {
	var out []string
	for _, d := range idx.descriptors {
		block := idx.data[d.blockStart:d.blockEnd]
		pos := 0
		for pos < len(block) {
			nameEnd := bytes.IndexByte(block[pos:], 0)
			if nameEnd < 0 {
				break
			}
			name := string(block[pos : pos+nameEnd])
			pos += nameEnd + 1
			if pos+4 > len(block) {
				break
			}
			segCount := int(binary.LittleEndian.Uint32(block[pos : pos+4]))
			pos += 4
			if name == guardianTerm {
				break
			}
			out = append(out, name)
			for s := 0; s < segCount; s++ {
				h, err := codec.DecodePLSH(block[pos:])
				if err != nil {
					return out
				}
				pos += codec.PLSHSize + int(h.ByteLength)
			}
		}
	}
	return out
}
