// Package wumpus is the public facade for the index/retrieval core: it
// wires the hybrid manager (internal/hybrid, C7) and the query engine
// (internal/query, C8) together behind one instance, the way
// pkg/ignite.Instance wrapped internal/engine.Engine.
package wumpus

import (
	"context"
	stdErrors "errors"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"github.com/gmargari/wumpus-sub004/internal/hybrid"
	"github.com/gmargari/wumpus-sub004/internal/query"
	"github.com/gmargari/wumpus-sub004/internal/stem"
	"github.com/gmargari/wumpus-sub004/pkg/options"
	"github.com/gmargari/wumpus-sub004/pkg/werrors"
	"github.com/gmargari/wumpus-sub004/pkg/wlog"
)

// ErrInstanceClosed is returned when attempting to perform operations on a
// closed Instance.
var ErrInstanceClosed = stdErrors.New("operation failed: cannot access closed wumpus instance")

// fileRecord tracks the extent a file was indexed under, so RemoveFile,
// Rename, and UpdateAttr have something to key off of.
type fileRecord struct {
	start, end int64
	attrs      map[string]string
}

// Instance is the primary entry point for indexing and querying a wumpus
// collection: it owns the hybrid manager, assigns the monotonically
// increasing document-position space every AddFile call consumes, and
// implements the query engine's UpdateHandler/MiscHandler/FileGetter
// collaborator interfaces.
type Instance struct {
	manager *hybrid.Manager
	options *options.Options
	config  *query.Config

	posMu   sync.Mutex
	nextPos int64

	filesMu sync.RWMutex
	files   map[string]fileRecord

	closed atomic.Bool
}

// NewInstance creates and initializes a wumpus Instance, applying any
// functional options on top of the defaults (mirrors pkg/ignite.NewInstance's
// `NewInstance(ctx, service string, opts ...options.OptionFunc)` contract).
func NewInstance(ctx context.Context, service string, opts ...options.OptionFunc) (*Instance, error) {
	log := wlog.New(service)

	defaultOpts := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&defaultOpts)
	}

	stemmer := stem.New()
	manager, err := hybrid.New(ctx, &hybrid.Config{Logger: log, Options: &defaultOpts, Stemmer: stemmer})
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		manager: manager,
		options: &defaultOpts,
		files:   make(map[string]fileRecord),
	}
	inst.config = &query.Config{
		Source:  manager,
		Stemmer: stemmer,
		Update:  inst,
		Misc:    inst,
		Files:   inst,
	}
	return inst, nil
}

// Query parses and runs one "@cmd[mods] body" command line, returning its
// response lines.
func (inst *Instance) Query(ctx context.Context, id, runID, line string) ([]string, error) {
	if inst.closed.Load() {
		return nil, ErrInstanceClosed
	}
	q := query.New(id, runID, inst.config)
	if err := q.Parse(line); err != nil {
		return nil, err
	}
	if err := q.Run(ctx); err != nil {
		return nil, err
	}
	return q.Lines(), nil
}

// Serve accepts connections on ln and runs the client wire protocol (spec
// §6) on each, one worker goroutine per connection, until ctx is cancelled
// or ln.Accept fails. Each connection gets its own query.Connection and
// runID (the connection's remote address, stable for the life of the
// connection and unique across concurrently connected clients).
func (inst *Instance) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return werrors.NewStorageError(err, werrors.ErrorCodeIO, "failed to accept connection")
		}
		go func(c net.Conn) {
			defer c.Close()
			qc := query.NewConnection(c, inst.config, c.RemoteAddr().String())
			_ = qc.Serve(ctx)
		}(conn)
	}
}

// AddFile tokenizes path's contents and indexes it as one GCL document,
// bracketed by a <doc>/</doc> pair so GCL's container operator and the BM25
// ranker (internal/query) can address it.
func (inst *Instance) AddFile(ctx context.Context, path string) error {
	if inst.closed.Load() {
		return ErrInstanceClosed
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return werrors.NewStorageError(err, werrors.ErrorCodeNoSuchFile, "failed to read file").WithPath(path)
	}
	tokens := tokenize(data)

	docStart, docEnd := inst.reserveDocument(len(tokens))
	if err := inst.manager.OpenDocument(docStart); err != nil {
		return err
	}
	pos := docStart + 1
	var addErr error
	for _, tok := range tokens {
		if addErr = inst.manager.AddPosting(tok, pos); addErr != nil {
			break
		}
		pos++
	}
	// CloseDocument always runs, even after a mid-loop AddPosting failure,
	// so the accumulator's document window never stays open across AddFile
	// calls (OpenDocument unconditionally resets it on the next file,
	// silently dropping whatever the previous, unclosed window held).
	if err := inst.manager.CloseDocument(docEnd); err != nil {
		if addErr == nil {
			addErr = err
		}
	}
	if addErr != nil {
		return addErr
	}

	inst.filesMu.Lock()
	inst.files[path] = fileRecord{start: docStart, end: docEnd}
	inst.filesMu.Unlock()
	return nil
}

// reserveDocument atomically carves out a contiguous [docStart, docEnd]
// position range for a tokenCount-token document, so concurrent AddFile
// calls never hand out overlapping positions.
func (inst *Instance) reserveDocument(tokenCount int) (docStart, docEnd int64) {
	inst.posMu.Lock()
	defer inst.posMu.Unlock()
	docStart = inst.nextPos
	docEnd = docStart + int64(tokenCount) + 1
	inst.nextPos = docEnd + 1
	return docStart, docEnd
}

// RemoveFile drops path's bookkeeping entry only. Its postings remain in
// the index and stay queryable: merges (hybrid's mergeIntoLocked) do not
// filter postings against the set of live documents, so no later merge
// removes them either.
func (inst *Instance) RemoveFile(ctx context.Context, path string) error {
	inst.filesMu.Lock()
	defer inst.filesMu.Unlock()
	if _, ok := inst.files[path]; !ok {
		return werrors.NewQueryError(nil, werrors.ErrorCodeSyntaxError, "no such indexed file").WithDetail("path", path)
	}
	delete(inst.files, path)
	return nil
}

// Rename moves a file's bookkeeping entry from oldPath to newPath without
// touching its postings.
func (inst *Instance) Rename(ctx context.Context, oldPath, newPath string) error {
	inst.filesMu.Lock()
	defer inst.filesMu.Unlock()
	rec, ok := inst.files[oldPath]
	if !ok {
		return werrors.NewQueryError(nil, werrors.ErrorCodeSyntaxError, "no such indexed file").WithDetail("path", oldPath)
	}
	delete(inst.files, oldPath)
	inst.files[newPath] = rec
	return nil
}

// Sync forces every pending addition through an immediate merge, so it's
// queryable without waiting on Options.UpdateStrategy's normal trigger.
func (inst *Instance) Sync(ctx context.Context) error {
	return inst.manager.Flush()
}

// UpdateAttr attaches an arbitrary (attr, value) pair to an indexed file.
func (inst *Instance) UpdateAttr(ctx context.Context, path, attr, value string) error {
	inst.filesMu.Lock()
	defer inst.filesMu.Unlock()
	rec, ok := inst.files[path]
	if !ok {
		return werrors.NewQueryError(nil, werrors.ErrorCodeSyntaxError, "no such indexed file").WithDetail("path", path)
	}
	if rec.attrs == nil {
		rec.attrs = make(map[string]string)
	}
	rec.attrs[attr] = value
	inst.files[path] = rec
	return nil
}

// Describe answers a "misc" query. The only question currently understood
// is the indexed file count; anything else is an unsupported-command error.
func (inst *Instance) Describe(ctx context.Context, what string) (string, error) {
	switch what {
	case "", "files":
		inst.filesMu.RLock()
		n := len(inst.files)
		inst.filesMu.RUnlock()
		return "files=" + strconv.Itoa(n), nil
	default:
		return "", werrors.NewQueryError(nil, werrors.ErrorCodeUnsupportedCommand, "unknown misc query").WithDetail("what", what)
	}
}

// GetFile streams path's raw contents for the "get" command.
func (inst *Instance) GetFile(ctx context.Context, path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", werrors.NewStorageError(err, werrors.ErrorCodeNoSuchFile, "failed to read file").WithPath(path)
	}
	return data, http.DetectContentType(data), nil
}

// Close flushes any pending additions and releases the hybrid manager and
// every subsystem beneath it. CAS-guarded like the teacher's Engine.Close.
func (inst *Instance) Close() error {
	if !inst.closed.CompareAndSwap(false, true) {
		return ErrInstanceClosed
	}
	return inst.manager.Close()
}

// tokenize splits raw file content into lowercase alphanumeric terms,
// grounded on tokenize_trec_document.cpp's "extract tokens ... optionally
// stem" shape (stemming itself happens index-side, via accum.Config.Stemmer).
func tokenize(data []byte) []string {
	fields := strings.FieldsFunc(string(data), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}
