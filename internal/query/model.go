// Package query implements wumpus's query engine (spec.md C8): a parser for
// the "@cmd[modifiers] body" command line, a GCL expression evaluator built
// on internal/extent, a BM25 ranker, and the per-query CREATED -> PARSED ->
// EXECUTING -> DONE state machine.
//
// Grounded on original_source/query/query.h, which defines the command
// taxonomy (gcl, bm25/okapi, qap, rank, update, misc, get, synonyms, help)
// and the standard modifier set (count, id, filename, docid, verbose,
// stemming, add=, addget=, getannotation) reused here as commandTable and
// Modifiers respectively. The §9 redesign note replacing fork-per-query
// cancellation with a cooperative token is realized with context.Context.
package query

import (
	"strconv"

	"github.com/gmargari/wumpus-sub004/internal/extent"
)

// Command is one of the closed set of registered query command types.
type Command string

const (
	CommandGCL       Command = "gcl"
	CommandBM25      Command = "bm25"
	CommandOkapi     Command = "okapi" // alias for bm25, per query.h's abbreviation comment
	CommandQAP       Command = "qap"
	CommandRank      Command = "rank"
	CommandUpdate    Command = "update"
	CommandMisc      Command = "misc"
	CommandGet       Command = "get"
	CommandSynonyms  Command = "synonyms"
	CommandHelp      Command = "help"
)

// UpdateOp is one of the update command's sub-operations.
type UpdateOp string

const (
	UpdateAddFile     UpdateOp = "addfile"
	UpdateRemoveFile  UpdateOp = "removefile"
	UpdateRename      UpdateOp = "rename"
	UpdateSync        UpdateOp = "sync"
	UpdateUpdateAttr  UpdateOp = "updateattr"
)

// State is a query's position in its CREATED -> PARSED -> EXECUTING -> DONE
// lifecycle (spec §4.8).
type State int

const (
	StateCreated State = iota
	StateParsed
	StateExecuting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateParsed:
		return "PARSED"
	case StateExecuting:
		return "EXECUTING"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Default modifier values, mirroring Query::DEFAULT_COUNT and friends.
const (
	DefaultCount = 20
	MaxCount     = 50000000
	MaxQueryLen  = 8192
)

// Modifiers is the bracketed `[name=value,name]` modifier map attached to a
// command, plus the standard accessors Query::processModifiers exposes to
// every subclass.
type Modifiers struct {
	raw map[string]string
}

func newModifiers(raw map[string]string) Modifiers {
	if raw == nil {
		raw = map[string]string{}
	}
	return Modifiers{raw: raw}
}

// Bool returns the modifier's boolean value. A bare modifier name with no
// "=value" (e.g. "[verbose]") counts as true.
func (m Modifiers) Bool(name string, def bool) bool {
	v, ok := m.raw[name]
	if !ok {
		return def
	}
	if v == "" {
		return true
	}
	return v == "true" || v == "1"
}

func (m Modifiers) String(name, def string) string {
	if v, ok := m.raw[name]; ok {
		return v
	}
	return def
}

func (m Modifiers) Int(name string, def int) int {
	v, ok := m.raw[name]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (m Modifiers) Float(name string, def float64) float64 {
	v, ok := m.raw[name]
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Standard modifiers, resolved once per query (spec §4.8's "count, id,
// filename, docid, verbose, stemming, add=, addget=, getannotation").
type StandardModifiers struct {
	Count          int
	PrintID        bool
	PrintFileName  bool
	PrintDocID     bool
	Verbose        bool
	Stemming       bool
	Add            string
	AddGet         string
	GetAnnotation  bool
}

func resolveStandardModifiers(m Modifiers) StandardModifiers {
	count := m.Int("count", DefaultCount)
	if count < 0 {
		count = 0
	}
	if count > MaxCount {
		count = MaxCount
	}
	return StandardModifiers{
		Count:         count,
		PrintID:       m.Bool("id", false),
		PrintFileName: m.Bool("filename", false),
		PrintDocID:    m.Bool("docid", false),
		Verbose:       m.Bool("verbose", false),
		Stemming:      m.Bool("stemming", false),
		Add:           m.String("add", ""),
		AddGet:        m.String("addget", ""),
		GetAnnotation: m.Bool("getannotation", false),
	}
}

// PostingsSource is the subset of hybrid.Manager the query engine consumes.
// Kept as a narrow interface (rather than importing internal/hybrid
// directly) so the evaluator/ranker can be tested against fakes without
// standing up a full Manager.
type PostingsSource interface {
	GetUpdates(term string) ([]int64, error)
	MatchingTerms(prefix string) ([]string, error)
}

// Stemmer reduces a surface term to its stem form, mirroring
// internal/accum.Stemmer so the same implementation serves both index-time
// and query-time stemming.
type Stemmer interface {
	Stem(term string) (stem string, ok bool)
}

// ResultLine is one emitted response line: a GCL extent (optionally scored)
// plus whatever enrichments the standard modifiers requested.
type ResultLine struct {
	Extent     extent.Extent
	Score      float64
	DocID      string
	FileName   string
	Annotation string
}
