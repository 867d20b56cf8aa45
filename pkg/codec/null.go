package codec

import "encoding/binary"

// Null codec: fixed 8-byte little-endian absolute postings, no delta, no
// compression. Used by ModeNull, wumpus's debug/verification codec (spec
// §4.1: "an uncompressed debugging mode that stores postings verbatim").

func compressNull(postings []int64) []byte {
	out := make([]byte, 1+len(postings)*8)
	out[0] = byte(ModeNull)
	for i, p := range postings {
		binary.LittleEndian.PutUint64(out[1+i*8:], uint64(p))
	}
	return out
}

func decompressNull(data []byte, n int) ([]int64, error) {
	count := len(data) / 8
	if n >= 0 && n < count {
		count = n
	}
	result := make([]int64, count)
	for i := 0; i < count; i++ {
		result[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return result, nil
}
