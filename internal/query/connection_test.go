package query

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"
)

type loopback struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (l *loopback) Read(p []byte) (int, error)  { return l.in.Read(p) }
func (l *loopback) Write(p []byte) (int, error) { return l.out.Write(p) }

func newLoopback(script string) *loopback {
	return &loopback{in: bytes.NewBufferString(script), out: &bytes.Buffer{}}
}

func TestConnectionServeRunsGCLQuery(t *testing.T) {
	source := newFakeSource()
	source.postings["hello"] = []int64{1, 2, 3}

	lb := newLoopback("@gcl \"hello\"\n@quit\n")
	conn := NewConnection(lb, &Config{Source: source}, "run0")
	if err := conn.Serve(context.Background()); err != nil {
		t.Fatal(err)
	}

	lines := splitLines(t, lb.out.String())
	if lines[0] != "@0-wumpus ready." {
		t.Fatalf("expected welcome line, got %q", lines[0])
	}
	if !containsLine(lines, "1 1") {
		t.Fatalf("expected a result line for posting 1, got %v", lines)
	}
	if lines[len(lines)-1] != "@0-bye." {
		t.Fatalf("expected bye terminator, got %q", lines[len(lines)-1])
	}
}

func TestConnectionServeReportsUnknownCommand(t *testing.T) {
	lb := newLoopback("@bogus body\n@quit\n")
	conn := NewConnection(lb, &Config{Source: newFakeSource()}, "run0")
	if err := conn.Serve(context.Background()); err != nil {
		t.Fatal(err)
	}

	lines := splitLines(t, lb.out.String())
	if !containsPrefix(lines, "@1-") {
		t.Fatalf("expected a @1- error terminator for an unknown command, got %v", lines)
	}
}

func TestConnectionServeOversizeLine(t *testing.T) {
	long := strings.Repeat("a", MaxQueryLen+10)
	lb := newLoopback("@gcl " + long + "\n@quit\n")
	conn := NewConnection(lb, &Config{Source: newFakeSource()}, "run0")
	if err := conn.Serve(context.Background()); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(lb.out.String(), "@1-Query too long.") {
		t.Fatalf("expected oversize-line rejection, got %q", lb.out.String())
	}
}

func TestConnectionServeHandlesLoginAsNoOp(t *testing.T) {
	lb := newLoopback("@login alice secret\n@quit\n")
	conn := NewConnection(lb, &Config{Source: newFakeSource()}, "run0")
	if err := conn.Serve(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(lb.out.String(), "@0-logged in.") {
		t.Fatalf("expected login acknowledgement, got %q", lb.out.String())
	}
}

func splitLines(t *testing.T, s string) []string {
	t.Helper()
	var out []string
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}

func containsLine(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}

func containsPrefix(lines []string, prefix string) bool {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}
