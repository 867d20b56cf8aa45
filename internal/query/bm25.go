package query

import (
	"container/heap"
	"math"
	"sort"

	"github.com/gmargari/wumpus-sub004/internal/accum"
	"github.com/gmargari/wumpus-sub004/internal/extent"
)

// DefaultK1 and DefaultB are Okapi BM25's standard term-frequency
// saturation and length-normalization constants (spec §4.8).
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// ScoredDoc is one BM25 result: a container extent (typically a
// <doc>..</doc> region) together with its aggregate score.
type ScoredDoc struct {
	extent.Extent
	Score float64
}

// BM25Ranker scores container extents (documents) against a weighted set of
// scoring terms using Okapi BM25.
type BM25Ranker struct {
	source PostingsSource
	K1, B  float64
}

func NewBM25Ranker(source PostingsSource) *BM25Ranker {
	return &BM25Ranker{source: source, K1: DefaultK1, B: DefaultB}
}

// Rank scores every extent in container against terms and returns the top
// count results, in decreasing score order, ties broken by ascending
// document-start offset (spec §4.8: "Aggregation uses a min-heap of fixed
// capacity count. Ties broken by document id order.").
//
// Term postings are fetched via source.GetUpdates and decoded with
// accum.DecodeDocLevelPosting, which assumes every posting returned for a
// scoring term is a document-level (docStart, tf) pair rather than a raw
// token offset — true for terms added through Accumulator.OpenDocument/
// CloseDocument, the intended scoring-term ingestion path. A term queried
// for ranking purposes that was never indexed inside a document window
// would decode into nonsensical (docStart, tf) pairs; this is a known
// narrowing of the general "postings" contract to the BM25 use case.
func (r *BM25Ranker) Rank(container extent.List, terms []string, count int) ([]ScoredDoc, error) {
	docs := collectExtents(container)
	if len(docs) == 0 || len(terms) == 0 || count <= 0 {
		return nil, nil
	}

	docIndex := make(map[int64]int, len(docs))
	var totalLen int64
	for i, d := range docs {
		docIndex[d.Start] = i
		totalLen += d.End - d.Start + 1
	}
	avgDocLen := float64(totalLen) / float64(len(docs))
	n := int64(len(docs))

	scores := make([]float64, len(docs))
	for _, term := range terms {
		postings, err := r.source.GetUpdates(term)
		if err != nil {
			continue
		}

		type hit struct {
			docIdx int
			tf     int
		}
		var hits []hit
		for _, p := range postings {
			docStart, tf := accum.DecodeDocLevelPosting(p)
			idx, ok := docIndex[docStart]
			if !ok {
				continue
			}
			hits = append(hits, hit{docIdx: idx, tf: tf})
		}
		if len(hits) == 0 {
			continue
		}

		df := int64(len(hits))
		idf := math.Log((float64(n-df) + 0.5) / (float64(df) + 0.5))
		if idf < 0 {
			idf = 0
		}

		for _, h := range hits {
			d := docs[h.docIdx]
			docLen := float64(d.End - d.Start + 1)
			tf := float64(h.tf)
			norm := r.K1 * (1 - r.B + r.B*docLen/avgDocLen)
			scores[h.docIdx] += idf * (tf * (r.K1 + 1)) / (tf + norm)
		}
	}

	return topK(docs, scores, count), nil
}

func collectExtents(l extent.List) []extent.Extent {
	var out []extent.Extent
	pos := int64(0)
	for {
		e, ok := l.FirstStartGeq(pos)
		if !ok {
			break
		}
		out = append(out, e)
		pos = e.Start + 1
	}
	return out
}

// scoreHeap is a bounded min-heap over (extent, score), keeping the count
// highest-scoring documents seen so far.
type scoreHeap []ScoredDoc

func (h scoreHeap) Len() int { return len(h) }
func (h scoreHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Start > h[j].Start // among equal scores the highest docid is the heap's min, so it is evicted first
}
func (h scoreHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *scoreHeap) Push(x any)        { *h = append(*h, x.(ScoredDoc)) }
func (h *scoreHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func topK(docs []extent.Extent, scores []float64, count int) []ScoredDoc {
	h := &scoreHeap{}
	heap.Init(h)
	for i, d := range docs {
		if scores[i] <= 0 {
			continue
		}
		sd := ScoredDoc{Extent: d, Score: scores[i]}
		if h.Len() < count {
			heap.Push(h, sd)
			continue
		}
		if (*h)[0].Score < sd.Score || ((*h)[0].Score == sd.Score && (*h)[0].Start > sd.Start) {
			heap.Pop(h)
			heap.Push(h, sd)
		}
	}

	out := make([]ScoredDoc, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(ScoredDoc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Start < out[j].Start
	})
	return out
}
