package query

import (
	"context"
	"strings"
	"testing"

	"github.com/gmargari/wumpus-sub004/internal/accum"
)

type fakeSource struct {
	postings map[string][]int64
}

func newFakeSource() *fakeSource { return &fakeSource{postings: map[string][]int64{}} }

func (f *fakeSource) GetUpdates(term string) ([]int64, error) {
	return f.postings[term], nil
}

func (f *fakeSource) MatchingTerms(prefix string) ([]string, error) {
	var out []string
	for t := range f.postings {
		if strings.HasPrefix(t, prefix) {
			out = append(out, t)
		}
	}
	return out, nil
}

func TestParseLineBasic(t *testing.T) {
	p, err := ParseLine(`@gcl[count=5,verbose] "a"`)
	if err != nil {
		t.Fatal(err)
	}
	if p.Command != "gcl" {
		t.Fatalf("expected command gcl, got %q", p.Command)
	}
	if p.Body != `"a"` {
		t.Fatalf("unexpected body %q", p.Body)
	}
	if p.Modifiers.Int("count", 0) != 5 {
		t.Fatalf("expected count=5, got %d", p.Modifiers.Int("count", 0))
	}
	if !p.Modifiers.Bool("verbose", false) {
		t.Fatal("expected verbose=true")
	}
}

func TestParseLineRejectsMissingAt(t *testing.T) {
	if _, err := ParseLine("gcl \"a\""); err == nil {
		t.Fatal("expected syntax error for missing '@'")
	}
}

func TestParseLineUpdateSubOp(t *testing.T) {
	p, err := ParseLine("@update addfile /tmp/doc.txt")
	if err != nil {
		t.Fatal(err)
	}
	if p.SubOp != "addfile" {
		t.Fatalf("expected subOp addfile, got %q", p.SubOp)
	}
	if p.Body != "/tmp/doc.txt" {
		t.Fatalf("unexpected body %q", p.Body)
	}
}

func TestGCLEvaluateSingleTerm(t *testing.T) {
	src := newFakeSource()
	src.postings["a"] = []int64{101, 103}

	eval := NewEvaluator(src, nil, false)
	list, err := eval.Evaluate(`"a"`)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := list.FirstStartGeq(0)
	if !ok || e.Start != 101 {
		t.Fatalf("unexpected first match: %+v ok=%v", e, ok)
	}
}

func TestGCLEvaluateAnd(t *testing.T) {
	src := newFakeSource()
	src.postings["a"] = []int64{1, 5, 10}
	src.postings["b"] = []int64{5, 6, 10, 11}

	eval := NewEvaluator(src, nil, false)
	list, err := eval.Evaluate(`"a" AND "b"`)
	if err != nil {
		t.Fatal(err)
	}
	var got []int64
	pos := int64(0)
	for {
		e, ok := list.FirstStartGeq(pos)
		if !ok {
			break
		}
		got = append(got, e.Start)
		pos = e.Start + 1
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 AND matches, got %v", got)
	}
}

func TestGCLEvaluateContainer(t *testing.T) {
	src := newFakeSource()
	src.postings["<doc>"] = []int64{100, 200}
	src.postings["</doc>"] = []int64{150, 250}

	eval := NewEvaluator(src, nil, false)
	list, err := eval.Evaluate(`"<doc>".."</doc>"`)
	if err != nil {
		t.Fatal(err)
	}
	e, ok := list.FirstStartGeq(0)
	if !ok || e.Start != 100 || e.End != 150 {
		t.Fatalf("unexpected first document extent: %+v ok=%v", e, ok)
	}
}

func TestGCLEvaluateWildcard(t *testing.T) {
	src := newFakeSource()
	src.postings["cat"] = []int64{1}
	src.postings["car"] = []int64{2}
	src.postings["dog"] = []int64{3}

	eval := NewEvaluator(src, nil, false)
	list, err := eval.Evaluate(`"ca*"`)
	if err != nil {
		t.Fatal(err)
	}
	var got []int64
	pos := int64(0)
	for {
		e, ok := list.FirstStartGeq(pos)
		if !ok {
			break
		}
		got = append(got, e.Start)
		pos = e.Start + 1
	}
	if len(got) != 2 {
		t.Fatalf("expected wildcard to match cat+car, got %v", got)
	}
}

type stemmer struct{}

func (stemmer) Stem(term string) (string, bool) {
	if term == "running" {
		return "run", true
	}
	return term, false
}

func TestGCLEvaluateStemmingOrsStemForm(t *testing.T) {
	src := newFakeSource()
	src.postings["running"] = []int64{1}
	src.postings["run$"] = []int64{50}

	eval := NewEvaluator(src, stemmer{}, true)
	list, err := eval.Evaluate(`"running"`)
	if err != nil {
		t.Fatal(err)
	}
	var got []int64
	pos := int64(0)
	for {
		e, ok := list.FirstStartGeq(pos)
		if !ok {
			break
		}
		got = append(got, e.Start)
		pos = e.Start + 1
	}
	if len(got) != 2 {
		t.Fatalf("expected both surface and stem postings, got %v", got)
	}
}

func encodeDoc(docStart int64, tf int) int64 {
	return docStart<<accum.DocLevelMaxTF | int64(tf)
}

func TestBM25RankerPrefersHigherTF(t *testing.T) {
	src := newFakeSource()
	// Five same-length documents; term "a" appears in only two of them
	// (df=2 out of n=5), which keeps IDF positive, while their differing
	// TF (1 vs 5) should decide the ranking between those two.
	starts := []int64{0, 100, 200, 300, 400}
	ends := []int64{50, 150, 250, 350, 450}
	src.postings["<doc>"] = starts
	src.postings["</doc>"] = ends
	src.postings["a"] = []int64{encodeDoc(0, 1), encodeDoc(400, 5)}

	eval := NewEvaluator(src, nil, false)
	container, err := eval.Evaluate(`"<doc>".."</doc>"`)
	if err != nil {
		t.Fatal(err)
	}

	ranker := NewBM25Ranker(src)
	scored, err := ranker.Rank(container, []string{"a"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(scored) != 2 {
		t.Fatalf("expected 2 scored docs, got %d", len(scored))
	}
	if scored[0].Start != 400 {
		t.Fatalf("expected higher-TF document first, got %+v", scored[0])
	}
	if scored[0].Score <= scored[1].Score {
		t.Fatalf("expected strictly decreasing scores, got %v vs %v", scored[0].Score, scored[1].Score)
	}
}

func TestQueryStateMachine(t *testing.T) {
	src := newFakeSource()
	src.postings["a"] = []int64{1, 2}

	q := New("Q1", "run1", &Config{Source: src})
	if q.State() != StateCreated {
		t.Fatalf("expected CREATED, got %v", q.State())
	}
	if err := q.Parse(`@gcl[count=5] "a"`); err != nil {
		t.Fatal(err)
	}
	if q.State() != StateParsed {
		t.Fatalf("expected PARSED, got %v", q.State())
	}
	if err := q.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if q.State() != StateDone {
		t.Fatalf("expected DONE, got %v", q.State())
	}
	if len(q.Lines()) != 2 {
		t.Fatalf("expected 2 result lines, got %v", q.Lines())
	}
}

func TestQueryRunRejectsUnparsed(t *testing.T) {
	q := New("Q1", "run1", &Config{Source: newFakeSource()})
	if err := q.Run(context.Background()); err == nil {
		t.Fatal("expected error running an unparsed query")
	}
}

func TestQueryUnknownCommandRejectedAtParse(t *testing.T) {
	q := New("Q1", "run1", &Config{Source: newFakeSource()})
	if err := q.Parse(`@frobnicate "a"`); err == nil {
		t.Fatal("expected unknown-command error")
	}
}

func TestBM25CommandEndToEnd(t *testing.T) {
	src := newFakeSource()
	src.postings["<doc>"] = []int64{0, 100, 200}
	src.postings["</doc>"] = []int64{50, 150, 250}
	src.postings["a"] = []int64{encodeDoc(0, 3)}

	q := New("Q1", "run1", &Config{Source: src})
	if err := q.Parse(`@bm25[count=5] "<doc>".."</doc>" by "a"`); err != nil {
		t.Fatal(err)
	}
	if err := q.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(q.Lines()) != 1 {
		t.Fatalf("expected 1 result line, got %v", q.Lines())
	}
	parts := strings.Fields(q.Lines()[0])
	if len(parts) != 6 || parts[0] != "Q1" || parts[1] != "Q0" || parts[5] != "run1" {
		t.Fatalf("unexpected result line format: %q", q.Lines()[0])
	}
}

func TestQAPIsRegisteredButUnsupported(t *testing.T) {
	q := New("Q1", "run1", &Config{Source: newFakeSource()})
	if err := q.Parse(`@qap "a"`); err != nil {
		t.Fatal(err)
	}
	if err := q.Run(context.Background()); err == nil {
		t.Fatal("expected unsupported-command error")
	}
}
