package hybrid

import "strings"

// GetUpdates implements spec §4.7's query-time fan-out: consult the
// in-place index first; if it returns any postings, the contiguous-update
// invariant means no short partition can hold anything older that matters
// for this term, so short partitions are skipped entirely; otherwise every
// short partition is consulted newest-first. The accumulator, as the most
// recent source, is always appended last. The result is concatenated in
// that order, which is exactly the publication order MultipleIndexIterator
// itself would visit these sources in, so the combined list stays
// monotonic.
func (m *Manager) GetUpdates(term string) ([]int64, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []int64

	if inPlace, ok := m.inplace.GetPostings(term); ok && len(inPlace) > 0 {
		out = append(out, inPlace...)
	} else {
		for _, slot := range newestFirst(m.sortedSlots()) {
			p := m.partitions[slot]
			if postings, ok := p.idx.GetPostings(term); ok {
				out = append(out, postings...)
			}
		}
	}

	if postings, ok := m.accumulator.GetPostings(term); ok {
		out = append(out, postings...)
	}

	return out, nil
}

// MatchingTerms returns every distinct term, across the accumulator, the
// in-place index, and every partition's dictionary, that starts with
// prefix. Used by the query engine's "abc*" wildcard expansion (spec
// invariant 7).
func (m *Manager) MatchingTerms(prefix string) ([]string, error) {
	if m.closed.Load() {
		return nil, ErrManagerClosed
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	add := func(terms []string) {
		for _, t := range terms {
			if strings.HasPrefix(t, prefix) {
				seen[t] = struct{}{}
			}
		}
	}

	add(m.accumulator.Terms())
	add(m.inplace.Terms())
	for _, p := range m.partitions {
		add(p.idx.Terms())
	}

	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	return out, nil
}

// newestFirst reverses an ascending slot list, since higher slot numbers
// are always the more recently written partition under every flush policy
// this manager implements.
func newestFirst(ascending []int) []int {
	out := make([]int, len(ascending))
	for i, s := range ascending {
		out[len(ascending)-1-i] = s
	}
	return out
}
