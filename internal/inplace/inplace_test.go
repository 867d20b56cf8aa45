package inplace

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/gmargari/wumpus-sub004/pkg/codec"
	"github.com/gmargari/wumpus-sub004/pkg/wlog"
)

func newTestIndex(t *testing.T, mode GrowthMode) *InPlaceIndex {
	t.Helper()
	idx, err := New(context.Background(), &Config{Logger: wlog.NewNop(), GrowthMode: mode})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestAddPostingsAndGetRoundTrip(t *testing.T) {
	idx := newTestIndex(t, GrowthRelocate)

	if err := idx.AddPostings("term", []int64{1, 2, 3}, codec.ModeVByte); err != nil {
		t.Fatal(err)
	}
	if err := idx.FinishUpdate(); err != nil {
		t.Fatal(err)
	}

	got, ok := idx.GetPostings("term")
	if !ok {
		t.Fatal("expected term to be found")
	}
	if !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Fatalf("got %v", got)
	}
}

func TestAddPostingsGrowsRunViaRelocate(t *testing.T) {
	idx := newTestIndex(t, GrowthRelocate)

	var all []int64
	for i := 0; i < 50; i++ {
		batch := make([]int64, 200)
		for j := range batch {
			batch[j] = int64(i*200 + j)
		}
		all = append(all, batch...)
		if err := idx.AddPostings("big", batch, codec.ModeVByte); err != nil {
			t.Fatal(err)
		}
	}
	if err := idx.FinishUpdate(); err != nil {
		t.Fatal(err)
	}

	got, ok := idx.GetPostings("big")
	if !ok {
		t.Fatal("expected term to be found")
	}
	if len(got) != len(all) {
		t.Fatalf("got %d postings, want %d", len(got), len(all))
	}
}

func TestAddPostingsChainGrowth(t *testing.T) {
	idx := newTestIndex(t, GrowthChain)

	var all []int64
	for i := 0; i < 30; i++ {
		batch := make([]int64, 300)
		for j := range batch {
			batch[j] = int64(i*300 + j)
		}
		all = append(all, batch...)
		if err := idx.AddPostings("chained", batch, codec.ModeVByte); err != nil {
			t.Fatal(err)
		}
	}
	if err := idx.FinishUpdate(); err != nil {
		t.Fatal(err)
	}

	got, ok := idx.GetPostings("chained")
	if !ok {
		t.Fatal("expected term to be found")
	}
	if len(got) != len(all) {
		t.Fatalf("got %d postings, want %d", len(got), len(all))
	}
}

func TestSwitchingTermsFlushesPrevious(t *testing.T) {
	idx := newTestIndex(t, GrowthRelocate)

	if err := idx.AddPostings("a", []int64{1}, codec.ModeVByte); err != nil {
		t.Fatal(err)
	}
	if err := idx.AddPostings("b", []int64{2}, codec.ModeVByte); err != nil {
		t.Fatal(err)
	}
	if err := idx.FinishUpdate(); err != nil {
		t.Fatal(err)
	}

	if _, ok := idx.GetPostings("a"); !ok {
		t.Fatal("expected 'a' to be flushed when writer switched to 'b'")
	}
	if _, ok := idx.GetPostings("b"); !ok {
		t.Fatal("expected 'b' to be flushed")
	}
}

func TestTermMapSaveAndLoad(t *testing.T) {
	idx := newTestIndex(t, GrowthRelocate)
	if err := idx.AddPostings("present", []int64{1}, codec.ModeVByte); err != nil {
		t.Fatal(err)
	}
	if err := idx.FinishUpdate(); err != nil {
		t.Fatal(err)
	}
	idx.SetAppearsInIndex("present", true)

	path := filepath.Join(t.TempDir(), "index.long.list")
	if err := idx.SaveTermMap(path); err != nil {
		t.Fatal(err)
	}

	idx2 := newTestIndex(t, GrowthRelocate)
	if err := idx2.LoadTermMap(path); err != nil {
		t.Fatal(err)
	}
	if !idx2.AppearsInIndex("present") {
		t.Fatal("expected loaded term map to report appearsInIndex=true")
	}
}
