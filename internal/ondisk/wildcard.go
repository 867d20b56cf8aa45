package ondisk

import (
	"path"
	"strings"

	"github.com/gmargari/wumpus-sub004/pkg/werrors"
)

// MinWildcardPrefixLen is the minimum literal prefix length a wildcard
// pattern must supply so the scan doesn't degrade to a full dictionary
// walk (spec §4.4).
const MinWildcardPrefixLen = 2

// MinDocLevelWildcardPrefixLen is the stricter minimum required for
// document-level term wildcards, which are far more numerous.
const MinDocLevelWildcardPrefixLen = 5

// Index is the common read surface both V1Index and V2Index satisfy,
// letting GetPostingsForWildcard work against either format.
type Index interface {
	GetPostings(term string) ([]int64, bool)
	Terms() []string
}

// Stemmer optionally verifies that a candidate wildcard match's stem
// equals the caller-supplied stem form (spec §4.4
// "optionally verifying that the stemmer maps it to the given stem").
type Stemmer interface {
	Stem(term string) (string, bool)
}

// GetPostingsForWildcard walks idx's dictionary sequentially starting from
// the first term sharing pattern's literal prefix, matching each candidate
// with shell-style wildcard semantics, optionally filtering by stem.
func GetPostingsForWildcard(idx Index, pattern string, stemmer Stemmer, wantStem string, docLevel bool) (map[string][]int64, error) {
	prefix := literalPrefix(pattern)
	minLen := MinWildcardPrefixLen
	if docLevel {
		minLen = MinDocLevelWildcardPrefixLen
	}
	if len(prefix) < minLen {
		return nil, werrors.NewQueryError(nil, werrors.ErrorCodeSyntaxError, "wildcard pattern prefix too short").
			WithBody(pattern)
	}

	result := make(map[string][]int64)
	for _, term := range idx.Terms() {
		if !strings.HasPrefix(term, prefix) {
			// the dictionary is sorted, so once a term sorts past every
			// possible string sharing this literal prefix, stop scanning.
			if term > prefix {
				break
			}
			continue
		}
		matched, err := path.Match(pattern, term)
		if err != nil || !matched {
			continue
		}
		if stemmer != nil && wantStem != "" {
			stem, _ := stemmer.Stem(term)
			if stem != wantStem {
				continue
			}
		}
		postings, ok := idx.GetPostings(term)
		if ok {
			result[term] = postings
		}
	}
	return result, nil
}

// literalPrefix returns the longest prefix of pattern containing no
// wildcard metacharacters.
func literalPrefix(pattern string) string {
	for i, r := range pattern {
		if r == '*' || r == '?' || r == '[' {
			return pattern[:i]
		}
	}
	return pattern
}
