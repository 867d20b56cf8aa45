package iter

import (
	"reflect"
	"testing"

	"github.com/gmargari/wumpus-sub004/internal/extent"
	"github.com/gmargari/wumpus-sub004/pkg/codec"
)

func TestMultipleIndexIteratorMergesAndTieBreaks(t *testing.T) {
	a := NewSource([]TermPostings{
		{Term: "cat", Postings: []int64{1, 5}, Mode: codec.ModeVByte},
		{Term: "dog", Postings: []int64{3}, Mode: codec.ModeVByte},
	})
	b := NewSource([]TermPostings{
		{Term: "cat", Postings: []int64{2, 9}, Mode: codec.ModeVByte},
		{Term: "fox", Postings: []int64{4}, Mode: codec.ModeVByte},
	})

	m := NewMultipleIndexIterator([]Iterator{a, b})

	tp, ok := m.NextTermPostings()
	if !ok || tp.Term != "cat" {
		t.Fatalf("expected cat first, got %+v ok=%v", tp, ok)
	}
	// Publication order: a (older) contributes before b.
	if !reflect.DeepEqual(tp.Postings, []int64{1, 5, 2, 9}) {
		t.Fatalf("unexpected merged postings: %v", tp.Postings)
	}

	tp, ok = m.NextTermPostings()
	if !ok || tp.Term != "dog" {
		t.Fatalf("expected dog second, got %+v ok=%v", tp, ok)
	}

	tp, ok = m.NextTermPostings()
	if !ok || tp.Term != "fox" {
		t.Fatalf("expected fox third, got %+v ok=%v", tp, ok)
	}

	if m.HasNext() {
		t.Fatal("expected exhausted iterator")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestMergeIndicesNoGC(t *testing.T) {
	src := NewSource([]TermPostings{
		{Term: "alpha", Postings: []int64{1, 2, 3}, Mode: codec.ModeVByte},
		{Term: "beta", Postings: []int64{10}, Mode: codec.ModeGamma},
	})

	sink := NewTermSink()
	if err := NewMerger().MergeIndices(sink, src, nil); err != nil {
		t.Fatal(err)
	}

	got := sink.Terms()
	if len(got) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(got))
	}
	if got[0].Term != "alpha" || !reflect.DeepEqual(got[0].Postings, []int64{1, 2, 3}) {
		t.Fatalf("unexpected first term: %+v", got[0])
	}
	if got[1].Term != "beta" || got[1].Mode != codec.ModeGamma {
		t.Fatalf("unexpected second term: %+v", got[1])
	}
}

func TestMergeIndicesWithGC(t *testing.T) {
	// Only postings in [0,5] and [100,105] are visible — models removing a
	// partition whose documents occupied [6,99].
	visible := extent.NewOr([]extent.List{
		extent.NewSingleton(0, 5),
		extent.NewSingleton(100, 105),
	})

	src := NewSource([]TermPostings{
		{Term: "alpha", Postings: []int64{1, 50, 101}, Mode: codec.ModeVByte},
		{Term: "beta", Postings: []int64{60, 70}, Mode: codec.ModeVByte},
	})

	sink := NewTermSink()
	if err := NewMerger().MergeIndices(sink, src, visible); err != nil {
		t.Fatal(err)
	}

	got := sink.Terms()
	if len(got) != 1 {
		t.Fatalf("expected only 'alpha' to survive GC filtering, got %+v", got)
	}
	if got[0].Term != "alpha" || !reflect.DeepEqual(got[0].Postings, []int64{1, 101}) {
		t.Fatalf("unexpected GC-filtered postings: %+v", got[0])
	}
}

type fakeLongTarget struct {
	postings  map[string][]int64
	appears   map[string]bool
	finishErr error
}

func newFakeLongTarget() *fakeLongTarget {
	return &fakeLongTarget{postings: make(map[string][]int64), appears: make(map[string]bool)}
}

func (f *fakeLongTarget) AddPostings(term string, postings []int64, mode codec.Mode) error {
	f.postings[term] = append(f.postings[term], postings...)
	return nil
}
func (f *fakeLongTarget) FinishUpdate() error                    { return f.finishErr }
func (f *fakeLongTarget) AppearsInIndex(term string) bool        { return f.appears[term] }
func (f *fakeLongTarget) SetAppearsInIndex(term string, ok bool) { f.appears[term] = ok }

func TestMergeWithLongTargetRoutesByThreshold(t *testing.T) {
	src := NewSource([]TermPostings{
		{Term: "short", Postings: []int64{1, 2}, Mode: codec.ModeVByte},
		{Term: "long", Postings: make([]int64, 100), Mode: codec.ModeVByte},
	})

	short := NewTermSink()
	long := newFakeLongTarget()

	if err := NewMerger().MergeWithLongTarget(short, long, src, 200); err != nil {
		t.Fatal(err)
	}

	shortTerms := short.Terms()
	if len(shortTerms) != 1 || shortTerms[0].Term != "short" {
		t.Fatalf("expected only 'short' routed to short target, got %+v", shortTerms)
	}
	if _, ok := long.postings["long"]; !ok {
		t.Fatal("expected 'long' routed to long target")
	}
	if !long.AppearsInIndex("long") {
		t.Fatal("expected appearsInIndex set for long-routed term")
	}
}

func TestMergeWithLongTargetKeepsExistingLongTermsLong(t *testing.T) {
	src := NewSource([]TermPostings{
		{Term: "sticky", Postings: []int64{1}, Mode: codec.ModeVByte},
	})

	short := NewTermSink()
	long := newFakeLongTarget()
	long.SetAppearsInIndex("sticky", true)

	if err := NewMerger().MergeWithLongTarget(short, long, src, 1<<30); err != nil {
		t.Fatal(err)
	}

	if len(short.Terms()) != 0 {
		t.Fatalf("expected nothing routed to short target, got %+v", short.Terms())
	}
	if _, ok := long.postings["sticky"]; !ok {
		t.Fatal("expected 'sticky' to stay routed to long target since appearsInIndex was already set")
	}
}
