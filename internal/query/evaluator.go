package query

import (
	"sort"
	"strings"

	"github.com/gmargari/wumpus-sub004/internal/extent"
)

// Evaluator resolves GCL term literals against a PostingsSource, honoring
// wildcard expansion ("abc*") and the optional stemming modifier.
type Evaluator struct {
	source   PostingsSource
	stemmer  Stemmer
	stemming bool
}

func NewEvaluator(source PostingsSource, stemmer Stemmer, stemming bool) *Evaluator {
	return &Evaluator{source: source, stemmer: stemmer, stemming: stemming}
}

// Evaluate parses and evaluates a GCL body, returning the resulting extent
// list (spec §4.8: "the evaluator walks the syntactic tree once and yields
// an extent list").
func (e *Evaluator) Evaluate(body string) (extent.List, error) {
	return parseGCL(body, e.resolveTerm)
}

func (e *Evaluator) resolveTerm(term string) (extent.List, error) {
	if strings.HasSuffix(term, "*") {
		return e.resolveWildcard(strings.TrimSuffix(term, "*"))
	}

	lists := []extent.List{e.fetch(term)}
	if e.stemming && e.stemmer != nil {
		if stem, ok := e.stemmer.Stem(term); ok {
			lists = append(lists, e.fetch(stem+"$"))
		}
	}
	return extent.NewOr(lists), nil
}

// resolveWildcard implements invariant 7: getPostings("abc*") is the
// ordered OR of getPostings(t) for every indexed t with prefix "abc".
func (e *Evaluator) resolveWildcard(prefix string) (extent.List, error) {
	terms, err := e.source.MatchingTerms(prefix)
	if err != nil {
		return nil, err
	}
	sort.Strings(terms)

	lists := make([]extent.List, 0, len(terms))
	for _, t := range terms {
		lists = append(lists, e.fetch(t))
	}
	return extent.NewOr(lists), nil
}

func (e *Evaluator) fetch(term string) extent.List {
	postings, err := e.source.GetUpdates(term)
	if err != nil || len(postings) == 0 {
		return extent.Empty{}
	}
	return extent.NewPostings(postings)
}
