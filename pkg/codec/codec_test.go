package codec

import (
	"reflect"
	"testing"
)

func TestVByteRoundTrip(t *testing.T) {
	postings := []int64{3, 3, 10, 10_000, 10_000_001}
	encoded := Compress(ModeVByte, postings)
	decoded, err := Decompress(ModeVByte, encoded, len(postings))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decoded, postings) {
		t.Fatalf("got %v, want %v", decoded, postings)
	}
}

func TestGammaRoundTrip(t *testing.T) {
	postings := []int64{0, 0, 1, 2, 5, 5, 1000, 1_000_000}
	encoded := Compress(ModeGamma, postings)
	decoded, err := Decompress(ModeGamma, encoded, len(postings))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decoded, postings) {
		t.Fatalf("got %v, want %v", decoded, postings)
	}
}

func TestNullRoundTrip(t *testing.T) {
	postings := []int64{42, 99, 100_000_000}
	encoded := Compress(ModeNull, postings)
	decoded, err := Decompress(ModeNull, encoded, len(postings))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(decoded, postings) {
		t.Fatalf("got %v, want %v", decoded, postings)
	}
}

func TestDecompressRejectsModeMismatch(t *testing.T) {
	encoded := Compress(ModeVByte, []int64{1, 2, 3})
	_, err := Decompress(ModeGamma, encoded, -1)
	if err == nil {
		t.Fatal("expected mode mismatch error")
	}
}

func TestDecompressEmptyStream(t *testing.T) {
	_, err := Decompress(ModeVByte, nil, -1)
	if err == nil {
		t.Fatal("expected error for empty stream")
	}
}

func TestPLSHSegmentRoundTrip(t *testing.T) {
	postings := []int64{5, 8, 8, 400, 4000}
	seg := BuildSegment(ModeVByte, postings)

	h, decoded, err := ReadSegment(seg)
	if err != nil {
		t.Fatal(err)
	}
	if h.PostingCount != int32(len(postings)) {
		t.Fatalf("unexpected posting count: %d", h.PostingCount)
	}
	if h.FirstPosting != postings[0] || h.LastPosting != postings[len(postings)-1] {
		t.Fatalf("unexpected first/last posting: %d/%d", h.FirstPosting, h.LastPosting)
	}
	if !reflect.DeepEqual(decoded, postings) {
		t.Fatalf("got %v, want %v", decoded, postings)
	}
}

func TestPLSHEmptySegment(t *testing.T) {
	seg := BuildSegment(ModeGamma, nil)
	h, decoded, err := ReadSegment(seg)
	if err != nil {
		t.Fatal(err)
	}
	if h.PostingCount != 0 || len(decoded) != 0 {
		t.Fatalf("expected empty segment, got count=%d decoded=%v", h.PostingCount, decoded)
	}
}
