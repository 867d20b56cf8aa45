package ondisk

import (
	"reflect"
	"testing"

	"github.com/gmargari/wumpus-sub004/pkg/codec"
)

func TestV2WriteReadRoundTrip(t *testing.T) {
	terms := []TermPostings{
		{Term: "apple", Postings: []int64{1, 5, 20}},
		{Term: "banana", Postings: []int64{2, 3, 3000}},
		{Term: "cherry", Postings: []int64{9999}},
	}

	data, err := WriteV2(terms, codec.ModeVByte)
	if err != nil {
		t.Fatal(err)
	}

	idx, err := OpenV2(data, codec.ModeVByte)
	if err != nil {
		t.Fatal(err)
	}

	for _, term := range terms {
		got, ok := idx.GetPostings(term.Term)
		if !ok {
			t.Fatalf("term %q not found", term.Term)
		}
		if !reflect.DeepEqual(got, term.Postings) {
			t.Fatalf("term %q: got %v, want %v", term.Term, got, term.Postings)
		}
	}

	if _, ok := idx.GetPostings("missing"); ok {
		t.Fatal("expected missing term to not be found")
	}
}

func TestV2MultiSegmentTerm(t *testing.T) {
	postings := make([]int64, 2*MaxSegmentSize+10)
	for i := range postings {
		postings[i] = int64(i)
	}
	terms := []TermPostings{{Term: "huge", Postings: postings}}

	data, err := WriteV2(terms, codec.ModeVByte)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := OpenV2(data, codec.ModeVByte)
	if err != nil {
		t.Fatal(err)
	}

	got, ok := idx.GetPostings("huge")
	if !ok {
		t.Fatal("expected multi-segment term to be found")
	}
	if !reflect.DeepEqual(got, postings) {
		t.Fatalf("multi-segment round trip mismatch: got %d postings, want %d", len(got), len(postings))
	}
}

func TestV2SignatureRejection(t *testing.T) {
	_, err := OpenV2([]byte("not a wumpus index file at all, much too short"), codec.ModeVByte)
	if err == nil {
		t.Fatal("expected signature mismatch error")
	}
}
