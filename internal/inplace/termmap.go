package inplace

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/gmargari/wumpus-sub004/pkg/werrors"
)

// SaveTermMap persists the {term, appearsInIndex} bitmask as a plain text
// list, one entry per line, reloaded at startup (spec §4.5 "Term map is
// persisted as a simple text list").
func (idx *InPlaceIndex) SaveTermMap(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return werrors.NewStorageError(err, werrors.ErrorCodeIO, "failed to create term map file").WithPath(path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for term := range idx.terms {
		appears := 0
		if idx.appearsInIndex[term] {
			appears = 1
		}
		if _, err := fmt.Fprintf(w, "%s %d\n", term, appears); err != nil {
			return werrors.NewStorageError(err, werrors.ErrorCodeIO, "failed to write term map entry").WithPath(path)
		}
	}
	return w.Flush()
}

// LoadTermMap reads a term map previously written by SaveTermMap,
// populating idx.appearsInIndex. It does not recreate term descriptors: the
// block store is held only in memory, so postings written to it before a
// restart are not restored.
func (idx *InPlaceIndex) LoadTermMap(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return werrors.NewStorageError(err, werrors.ErrorCodeIO, "failed to open term map file").WithPath(path)
	}
	defer f.Close()

	idx.mu.Lock()
	defer idx.mu.Unlock()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		term, flag, found := strings.Cut(line, " ")
		if !found {
			continue
		}
		idx.appearsInIndex[term] = flag == "1"
	}
	return scanner.Err()
}
