package ondisk

import (
	"testing"

	"github.com/gmargari/wumpus-sub004/pkg/codec"
)

func TestGetPostingsForWildcard(t *testing.T) {
	terms := []TermPostings{
		{Term: "run", Postings: []int64{1}},
		{Term: "runner", Postings: []int64{2}},
		{Term: "running", Postings: []int64{3}},
		{Term: "walk", Postings: []int64{4}},
	}
	data, err := WriteV1(terms, codec.ModeVByte)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := OpenV1(data, codec.ModeVByte)
	if err != nil {
		t.Fatal(err)
	}

	matches, err := GetPostingsForWildcard(idx, "run*", nil, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches for run*, got %v", matches)
	}
	if _, ok := matches["walk"]; ok {
		t.Fatal("walk should not match run*")
	}
}

func TestGetPostingsForWildcardRejectsShortPrefix(t *testing.T) {
	idx, err := OpenV1(mustWriteEmptyV1(t), codec.ModeVByte)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := GetPostingsForWildcard(idx, "r*", nil, "", false); err == nil {
		t.Fatal("expected error for prefix shorter than MinWildcardPrefixLen")
	}
}

func mustWriteEmptyV1(t *testing.T) []byte {
	t.Helper()
	data, err := WriteV1(nil, codec.ModeVByte)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
