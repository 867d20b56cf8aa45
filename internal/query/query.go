package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/gmargari/wumpus-sub004/internal/extent"
	"github.com/gmargari/wumpus-sub004/pkg/werrors"
)

// UpdateHandler performs the mutating sub-operations of the "update"
// command. Tokenizing file contents into postings is an out-of-scope
// collaborator per spec.md §1 (no tokenizer is specified); a concrete
// implementation lives at the pkg/wumpus facade, which owns both the
// hybrid.Manager and the tokenizer.
type UpdateHandler interface {
	AddFile(ctx context.Context, path string) error
	RemoveFile(ctx context.Context, path string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	Sync(ctx context.Context) error
	UpdateAttr(ctx context.Context, path, attr, value string) error
}

// MiscHandler answers the informational "misc" sub-queries (query.h's
// miscquery.cpp: file count, index size, and similar status lines).
type MiscHandler interface {
	Describe(ctx context.Context, what string) (string, error)
}

// FileGetter streams the contents of a file for the "get" command
// (query.h's `@getfile path`).
type FileGetter interface {
	GetFile(ctx context.Context, path string) ([]byte, string, error) // content, MIME type
}

// Config wires a Query's collaborators. Only the fields a given command
// needs must be non-nil; GCL/BM25/rank only need Source (and Stemmer, if
// the stemming modifier is used).
type Config struct {
	Source  PostingsSource
	Stemmer Stemmer
	Update  UpdateHandler
	Misc    MiscHandler
	Files   FileGetter
}

// Query is one parsed command, tracked through its CREATED -> PARSED ->
// EXECUTING -> DONE lifecycle (spec §4.8).
type Query struct {
	id     string
	runID  string
	config *Config

	state   atomic.Int32
	parsed  *ParsedLine
	std     StandardModifiers
	lines   []string
	err     error
}

// New creates a query in state CREATED for the given raw command line.
func New(id, runID string, config *Config) *Query {
	q := &Query{id: id, runID: runID, config: config}
	q.state.Store(int32(StateCreated))
	return q
}

func (q *Query) State() State { return State(q.state.Load()) }

// Parse transitions CREATED -> PARSED, validating the command line and
// resolving standard modifiers.
func (q *Query) Parse(line string) error {
	if q.State() != StateCreated {
		return werrors.NewQueryError(nil, werrors.ErrorCodeInternal, "query already parsed")
	}
	parsed, err := ParseLine(line)
	if err != nil {
		return err
	}
	if _, ok := commandTable[Command(parsed.Command)]; !ok {
		return werrors.NewUnknownCommandError(parsed.Command)
	}
	q.parsed = parsed
	q.std = resolveStandardModifiers(parsed.Modifiers)
	q.state.Store(int32(StateParsed))
	return nil
}

// Run transitions PARSED -> EXECUTING -> DONE, dispatching to the command
// table and collecting response lines. Cancellation propagates from ctx
// (spec §5's "cooperative cancellation token" redesign, replacing
// fork-per-query): a cancelled context aborts mid-evaluation and Run
// returns ctx.Err() without mutating q.lines further.
func (q *Query) Run(ctx context.Context) error {
	if q.State() != StateParsed {
		return werrors.NewQueryError(nil, werrors.ErrorCodeInternal, "query not parsed")
	}
	q.state.Store(int32(StateExecuting))
	defer q.state.Store(int32(StateDone))

	handler, ok := commandTable[Command(q.parsed.Command)]
	if !ok {
		q.err = werrors.NewUnknownCommandError(q.parsed.Command)
		return q.err
	}

	lines, err := handler(ctx, q)
	if err != nil {
		q.err = err
		return err
	}
	if ctx.Err() != nil {
		q.err = werrors.NewCancelledError(q.parsed.Command)
		return q.err
	}

	q.lines = lines
	return nil
}

// Lines returns the response lines produced by Run, available once
// State() == StateDone and Run returned nil.
func (q *Query) Lines() []string { return q.lines }

// Err returns the error Run failed with, if any.
func (q *Query) Err() error { return q.err }

type commandHandler func(ctx context.Context, q *Query) ([]string, error)

// commandTable is the closed set of registered query command types (spec
// §4.8 / query.h's REGISTER_QUERY_CLASS taxonomy). qap and synonyms are
// registered but unimplemented: original_source's qap/synonym logic
// depends on out-of-scope collaborators (stemmer dictionaries, thesaurus
// files) that spec.md does not name.
var commandTable = map[Command]commandHandler{
	CommandGCL:      runGCL,
	CommandBM25:     runRank,
	CommandOkapi:    runRank,
	CommandRank:     runRank,
	CommandUpdate:   runUpdate,
	CommandMisc:     runMisc,
	CommandGet:      runGet,
	CommandSynonyms: unsupported,
	CommandQAP:      unsupported,
	CommandHelp:     runHelp,
}

func unsupported(_ context.Context, q *Query) ([]string, error) {
	return nil, werrors.NewQueryError(nil, werrors.ErrorCodeUnsupportedCommand, "command not implemented").
		WithCommand(q.parsed.Command)
}

func runGCL(ctx context.Context, q *Query) ([]string, error) {
	eval := NewEvaluator(q.config.Source, q.config.Stemmer, q.std.Stemming)
	list, err := eval.Evaluate(q.parsed.Body)
	if err != nil {
		return nil, err
	}

	var lines []string
	pos := int64(0)
	for len(lines) < q.std.Count {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e, ok := list.FirstStartGeq(pos)
		if !ok {
			break
		}
		lines = append(lines, formatExtentLine(e, q.std))
		pos = e.Start + 1
	}
	return lines, nil
}

func runRank(ctx context.Context, q *Query) ([]string, error) {
	container, scoringTerms, err := parseRankBody(q.parsed.Body)
	if err != nil {
		return nil, err
	}

	eval := NewEvaluator(q.config.Source, q.config.Stemmer, q.std.Stemming)
	docs, err := eval.Evaluate(container)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	ranker := NewBM25Ranker(q.config.Source)
	if k1 := q.parsed.Modifiers.Float("k1", 0); k1 > 0 {
		ranker.K1 = k1
	}
	if b := q.parsed.Modifiers.Float("b", -1); b >= 0 {
		ranker.B = b
	}

	scored, err := ranker.Rank(docs, scoringTerms, q.std.Count)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(scored))
	for rank, sd := range scored {
		docID := strconv.FormatInt(sd.Start, 10)
		lines = append(lines, fmt.Sprintf("%s Q0 %s %d %.6f %s", q.id, docID, rank+1, sd.Score, q.runID))
	}
	return lines, nil
}

// parseRankBody splits a rank/bm25/okapi body of the form
// `"<doc>".."</doc>" by term1 term2 ...` into its container expression and
// scoring terms, per query.h's documented okapi/qap abbreviations.
func parseRankBody(body string) (container string, terms []string, err error) {
	idx := strings.LastIndex(body, " by ")
	if idx < 0 {
		return "", nil, werrors.NewQueryError(nil, werrors.ErrorCodeSyntaxError, "expected '... by term term ...'")
	}
	container = strings.TrimSpace(body[:idx])
	rest := strings.TrimSpace(body[idx+len(" by "):])
	for _, w := range strings.Fields(rest) {
		terms = append(terms, strings.Trim(w, `"`))
	}
	if len(terms) == 0 {
		return "", nil, werrors.NewQueryError(nil, werrors.ErrorCodeSyntaxError, "no scoring terms given")
	}
	return container, terms, nil
}

func runUpdate(ctx context.Context, q *Query) ([]string, error) {
	if q.config.Update == nil {
		return nil, werrors.NewQueryError(nil, werrors.ErrorCodeReadOnly, "no update handler configured")
	}
	switch UpdateOp(q.parsed.SubOp) {
	case UpdateAddFile:
		return nil, q.config.Update.AddFile(ctx, q.parsed.Body)
	case UpdateRemoveFile:
		return nil, q.config.Update.RemoveFile(ctx, q.parsed.Body)
	case UpdateRename:
		parts := strings.Fields(q.parsed.Body)
		if len(parts) != 2 {
			return nil, werrors.NewQueryError(nil, werrors.ErrorCodeSyntaxError, "expected 'rename old new'")
		}
		return nil, q.config.Update.Rename(ctx, parts[0], parts[1])
	case UpdateSync:
		return nil, q.config.Update.Sync(ctx)
	case UpdateUpdateAttr:
		parts := strings.Fields(q.parsed.Body)
		if len(parts) != 3 {
			return nil, werrors.NewQueryError(nil, werrors.ErrorCodeSyntaxError, "expected 'updateattr path attr value'")
		}
		return nil, q.config.Update.UpdateAttr(ctx, parts[0], parts[1], parts[2])
	default:
		return nil, werrors.NewQueryError(nil, werrors.ErrorCodeSyntaxError, "unknown update sub-operation").
			WithDetail("subOp", q.parsed.SubOp)
	}
}

func runMisc(ctx context.Context, q *Query) ([]string, error) {
	if q.config.Misc == nil {
		return nil, werrors.NewQueryError(nil, werrors.ErrorCodeInternal, "no misc handler configured")
	}
	line, err := q.config.Misc.Describe(ctx, q.parsed.Body)
	if err != nil {
		return nil, err
	}
	return []string{line}, nil
}

func runGet(ctx context.Context, q *Query) ([]string, error) {
	if q.config.Files == nil {
		return nil, werrors.NewQueryError(nil, werrors.ErrorCodeInternal, "no file getter configured")
	}
	content, mimeType, err := q.config.Files.GetFile(ctx, q.parsed.Body)
	if err != nil {
		return nil, err
	}
	return []string{mimeType, strconv.Itoa(len(content)), string(content)}, nil
}

func runHelp(_ context.Context, q *Query) ([]string, error) {
	if q.parsed.Body == "" {
		names := make([]string, 0, len(commandTable))
		for cmd := range commandTable {
			names = append(names, string(cmd))
		}
		return []string{strings.Join(names, " ")}, nil
	}
	if _, ok := commandTable[Command(q.parsed.Body)]; !ok {
		return nil, werrors.NewUnknownCommandError(q.parsed.Body)
	}
	return []string{"help: " + q.parsed.Body}, nil
}

func formatExtentLine(e extent.Extent, std StandardModifiers) string {
	line := fmt.Sprintf("%d %d", e.Start, e.End)
	if std.PrintDocID {
		line += " docid=" + strconv.FormatInt(e.Start, 10)
	}
	return line
}
