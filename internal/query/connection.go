package query

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/gmargari/wumpus-sub004/pkg/werrors"
)

// Connection serves the client wire protocol (spec §6: line-oriented,
// "@cmd[mods] body", a response of zero or more data lines followed by a
// terminator line "@<code>-<message>") over any io.ReadWriter, so the
// protocol is exercised in tests without a real socket; cmd/wumpusd's serve
// command is the thin net.Listener wrapper around it.
type Connection struct {
	rw     io.ReadWriter
	config *Config
	runID  string
	nextID int64
}

// NewConnection creates a Connection bound to rw. runID tags every query
// this connection runs (the "Q0 ... runID" trailer rank lines carry).
func NewConnection(rw io.ReadWriter, config *Config, runID string) *Connection {
	return &Connection{rw: rw, config: config, runID: runID}
}

// Serve reads commands line by line until "@quit"/"@exit" or EOF, writing
// one response per command. Oversize lines get "@1-Query too long." and the
// connection continues (spec §6).
func (c *Connection) Serve(ctx context.Context) error {
	fmt.Fprintln(c.rw, "@0-wumpus ready.")

	scanner := bufio.NewScanner(c.rw)
	// The scan buffer is sized generously past MaxQueryLen so an oversize
	// line is still read in full and rejected by the check below with
	// "Query too long.", rather than failing the scan itself.
	scanner.Buffer(make([]byte, 0, 4096), MaxQueryLen*2)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "@quit" || line == "@exit" {
			fmt.Fprintln(c.rw, "@0-bye.")
			return nil
		}
		if len(line) > MaxQueryLen {
			fmt.Fprintln(c.rw, "@1-Query too long.")
			continue
		}
		// @login/@whoami/@nofork are special commands (spec §6) outside the
		// regular command table; the credential store and per-connection
		// fork policy they'd normally govern are out-of-scope collaborators,
		// so they're acknowledged without being checked against anything.
		switch {
		case strings.HasPrefix(line, "@login "):
			fmt.Fprintln(c.rw, "@0-logged in.")
			continue
		case line == "@whoami":
			fmt.Fprintln(c.rw, "anonymous")
			fmt.Fprintln(c.rw, "@0-ok.")
			continue
		case line == "@nofork":
			fmt.Fprintln(c.rw, "@0-ok.")
			continue
		}
		c.handle(ctx, line)
	}
	return scanner.Err()
}

func (c *Connection) handle(ctx context.Context, line string) {
	id := strconv.FormatInt(atomic.AddInt64(&c.nextID, 1), 10)
	q := New(id, c.runID, c.config)

	if err := q.Parse(line); err != nil {
		c.writeError(err)
		return
	}
	if err := q.Run(ctx); err != nil {
		c.writeError(err)
		return
	}
	for _, l := range q.Lines() {
		fmt.Fprintln(c.rw, l)
	}
	fmt.Fprintln(c.rw, "@0-ok.")
}

func (c *Connection) writeError(err error) {
	fmt.Fprintf(c.rw, "@%d-%s\n", wireCode(werrors.GetErrorCode(err)), err.Error())
}

// wireCode maps pkg/werrors's string error codes onto the small numeric
// codes spec §6's terminator line uses (0 success, >0 error kind), following
// §7's error taxonomy table order.
func wireCode(ec werrors.ErrorCode) int {
	switch ec {
	case werrors.ErrorCodeSyntaxError, werrors.ErrorCodeUnknownCommand, werrors.ErrorCodeUnsupportedCommand, werrors.ErrorCodeQueryTooLong:
		return 1
	case werrors.ErrorCodeAccessDenied:
		return 2
	case werrors.ErrorCodeNoSuchFile:
		return 3
	case werrors.ErrorCodeFileTooLarge:
		return 4
	case werrors.ErrorCodeReadOnly:
		return 5
	case werrors.ErrorCodeCancelled:
		return 7
	default:
		return 6 // InternalError
	}
}
