// Package stem adapts the Porter2 stemmer to wumpus's accum.Stemmer and
// query-time stemming contracts. Grounded on standardbeagle-lci's go.mod,
// which pulls in github.com/surgebase/porter2 for the same purpose
// (reducing index terms to a common stem form).
package stem

import "github.com/surgebase/porter2"

// Porter2Stemmer is the default Stemmer implementation, used at both index
// time (accum.Config.Stemmer) and query time (spec §4.8's stemming level 1
// "stem query terms only").
type Porter2Stemmer struct{}

// New returns a ready-to-use Porter2-backed stemmer.
func New() Porter2Stemmer {
	return Porter2Stemmer{}
}

// Stem reduces term to its Porter2 stem form. ok is false when the stem is
// identical to the input (nothing useful to index separately).
func (Porter2Stemmer) Stem(term string) (string, bool) {
	stemmed := porter2.Stem(term)
	return stemmed, stemmed != term
}
