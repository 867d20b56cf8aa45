package accum

import (
	"context"
	"testing"

	"github.com/gmargari/wumpus-sub004/pkg/wlog"
)

func newTestAccumulator(t *testing.T) *Accumulator {
	t.Helper()
	a, err := New(context.Background(), &Config{Logger: wlog.NewNop()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestAddPostingAndFlushRoundTrip(t *testing.T) {
	a := newTestAccumulator(t)

	postings := map[string][]int64{
		"alpha": {1, 5, 100, 250},
		"beta":  {2, 3},
		"gamma": {9999},
	}
	for term, ps := range postings {
		for _, p := range ps {
			if err := a.AddPosting(term, p); err != nil {
				t.Fatalf("AddPosting(%s, %d): %v", term, p, err)
			}
		}
	}

	flushed := a.Flush()
	got := make(map[string][]int64, len(flushed))
	for _, f := range flushed {
		got[f.Term] = f.Postings
	}

	for term, want := range postings {
		have, ok := got[term]
		if !ok {
			t.Fatalf("term %q missing from flush", term)
		}
		if len(have) != len(want) {
			t.Fatalf("term %q: got %v, want %v", term, have, want)
		}
		for i := range want {
			if have[i] != want[i] {
				t.Fatalf("term %q[%d]: got %d, want %d", term, i, have[i], want[i])
			}
		}
	}
}

func TestFlushIsLexicographicallySorted(t *testing.T) {
	a := newTestAccumulator(t)
	terms := []string{"zebra", "apple", "mango", "banana"}
	for _, term := range terms {
		if err := a.AddPosting(term, 1); err != nil {
			t.Fatal(err)
		}
	}

	flushed := a.Flush()
	for i := 1; i < len(flushed); i++ {
		if flushed[i-1].Term >= flushed[i].Term {
			t.Fatalf("flush not sorted: %q >= %q", flushed[i-1].Term, flushed[i].Term)
		}
	}
}

func TestAddPostingManyForcesChunkGrowth(t *testing.T) {
	a := newTestAccumulator(t)
	const n = 5000
	for i := int64(0); i < n; i++ {
		if err := a.AddPosting("hot", i*3); err != nil {
			t.Fatalf("AddPosting: %v", err)
		}
	}

	flushed := a.Flush()
	if len(flushed) != 1 {
		t.Fatalf("expected 1 term, got %d", len(flushed))
	}
	if len(flushed[0].Postings) != n {
		t.Fatalf("expected %d postings, got %d", n, len(flushed[0].Postings))
	}
	for i, p := range flushed[0].Postings {
		if p != int64(i)*3 {
			t.Fatalf("posting[%d] = %d, want %d", i, p, int64(i)*3)
		}
	}
}

func TestNonMonotonicPostingRejectedByDefault(t *testing.T) {
	a := newTestAccumulator(t)
	if err := a.AddPosting("term", 10); err != nil {
		t.Fatal(err)
	}
	if err := a.AddPosting("term", 5); err == nil {
		t.Fatal("expected error for non-monotonic posting")
	}
}

func TestAppendResetModeAllowsNonMonotonic(t *testing.T) {
	a, err := New(context.Background(), &Config{Logger: wlog.NewNop(), AppendResetMode: true})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if err := a.AddPosting("term", 10); err != nil {
		t.Fatal(err)
	}
	if err := a.AddPosting("term", 5); err != nil {
		t.Fatalf("expected reset mode to accept smaller posting: %v", err)
	}
}

func TestDocumentLevelWindow(t *testing.T) {
	a := newTestAccumulator(t)

	if err := a.OpenDocument(1000); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := a.AddPosting("word", int64(1001+i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := a.CloseDocument(1010); err != nil {
		t.Fatal(err)
	}

	flushed := a.Flush()
	var found bool
	for _, f := range flushed {
		if f.Term != "word" {
			continue
		}
		found = true
		// Last posting in the chain is the document-level TF posting.
		docStart, tf := DecodeDocLevelPosting(f.Postings[len(f.Postings)-1])
		if docStart != 1000 {
			t.Fatalf("expected docStart 1000, got %d", docStart)
		}
		if tf != 5 {
			t.Fatalf("expected tf 5, got %d", tf)
		}
	}
	if !found {
		t.Fatal("expected term 'word' in flush output")
	}
}

func TestClearReleasesHighFrequencyTerms(t *testing.T) {
	a := newTestAccumulator(t)
	for i := int64(0); i < 200; i++ {
		if err := a.AddPosting("frequent", i); err != nil {
			t.Fatal(err)
		}
	}
	if err := a.AddPosting("rare", 1); err != nil {
		t.Fatal(err)
	}

	a.Clear(100)

	flushed := a.Flush()
	for _, f := range flushed {
		if f.Term == "frequent" {
			t.Fatal("expected 'frequent' to be cleared")
		}
	}
	if len(flushed) != 1 || flushed[0].Term != "rare" {
		t.Fatalf("expected only 'rare' to survive, got %v", flushed)
	}
}

func TestRecompactPreservesPostings(t *testing.T) {
	a := newTestAccumulator(t)
	for i := int64(0); i < 1000; i++ {
		if err := a.AddPosting("a", i); err != nil {
			t.Fatal(err)
		}
		if err := a.AddPosting("b", i*2); err != nil {
			t.Fatal(err)
		}
	}

	a.Recompact()

	flushed := a.Flush()
	for _, f := range flushed {
		if len(f.Postings) != 1000 {
			t.Fatalf("term %q: expected 1000 postings after recompact, got %d", f.Term, len(f.Postings))
		}
	}
}

type fakeStemmer struct{}

func (fakeStemmer) Stem(term string) (string, bool) {
	if len(term) > 3 {
		return term[:len(term)-1], true
	}
	return term, false
}

func TestStemmingIndexesStemForm(t *testing.T) {
	a, err := New(context.Background(), &Config{
		Logger:        wlog.NewNop(),
		StemmingLevel: 2,
		Stemmer:       fakeStemmer{},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if err := a.AddPosting("running", 1); err != nil {
		t.Fatal(err)
	}

	flushed := a.Flush()
	var sawStem bool
	for _, f := range flushed {
		if f.Term == "runnin$" {
			sawStem = true
		}
	}
	if !sawStem {
		t.Fatalf("expected stemmed form to be indexed, got %v", flushed)
	}
}

func TestGetPostingsReadsWithoutDraining(t *testing.T) {
	a := newTestAccumulator(t)

	for _, p := range []int64{1, 2, 3} {
		if err := a.AddPosting("term", p); err != nil {
			t.Fatal(err)
		}
	}

	got, ok := a.GetPostings("term")
	if !ok {
		t.Fatal("expected term to be found")
	}
	if len(got) != 3 || got[2] != 3 {
		t.Fatalf("unexpected postings: %v", got)
	}

	// A second read must see the same data: GetPostings must not consume it.
	got2, ok := a.GetPostings("term")
	if !ok || len(got2) != 3 {
		t.Fatalf("expected repeatable read, got %v ok=%v", got2, ok)
	}

	if _, ok := a.GetPostings("missing"); ok {
		t.Fatal("expected missing term to report not found")
	}
}

func TestExtractAboveRemovesOnlyHeavyTerms(t *testing.T) {
	a := newTestAccumulator(t)

	for i := int64(0); i < 50; i++ {
		if err := a.AddPosting("heavy", i); err != nil {
			t.Fatal(err)
		}
	}
	if err := a.AddPosting("light", 1); err != nil {
		t.Fatal(err)
	}

	extracted := a.ExtractAbove(50)
	if len(extracted) != 1 || extracted[0].Term != "heavy" {
		t.Fatalf("expected only 'heavy' extracted, got %+v", extracted)
	}
	if len(extracted[0].Postings) != 50 {
		t.Fatalf("expected 50 postings extracted, got %d", len(extracted[0].Postings))
	}

	if _, ok := a.GetPostings("heavy"); ok {
		t.Fatal("expected 'heavy' to be gone from the accumulator")
	}
	if _, ok := a.GetPostings("light"); !ok {
		t.Fatal("expected 'light' to remain in the accumulator")
	}
}
