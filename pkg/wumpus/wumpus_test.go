package wumpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gmargari/wumpus-sub004/pkg/options"
)

func newTestInstance(t *testing.T) *Instance {
	t.Helper()
	inst, err := NewInstance(context.Background(), "wumpus-test",
		options.WithDataDir(t.TempDir()),
		options.WithUpdateStrategy(options.UpdateStrategyImmediateMerge),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = inst.Close() })
	return inst
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAddFileAndQueryBM25(t *testing.T) {
	inst := newTestInstance(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeTempFile(t, dir, "a.txt", "the quick brown fox jumps over the lazy dog")
	if err := inst.AddFile(ctx, path); err != nil {
		t.Fatal(err)
	}

	lines, err := inst.Query(ctx, "1", "run0", `@bm25 "<doc>".."</doc>" by fox dog`)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) == 0 {
		t.Fatal("expected at least one ranked result")
	}
	if !strings.Contains(lines[0], "run0") {
		t.Fatalf("expected run tag in result line, got %q", lines[0])
	}
}

func TestAddFileAndQueryGCL(t *testing.T) {
	inst := newTestInstance(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeTempFile(t, dir, "a.txt", "alpha beta gamma")
	if err := inst.AddFile(ctx, path); err != nil {
		t.Fatal(err)
	}

	lines, err := inst.Query(ctx, "1", "run0", `@gcl "beta"`)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected exactly one occurrence of 'beta', got %v", lines)
	}
}

func TestRemoveFileDropsBookkeepingOnly(t *testing.T) {
	inst := newTestInstance(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeTempFile(t, dir, "a.txt", "one two three")
	if err := inst.AddFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if err := inst.RemoveFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if err := inst.RemoveFile(ctx, path); err == nil {
		t.Fatal("expected error removing an already-removed file")
	}
}

func TestRenameMovesBookkeeping(t *testing.T) {
	inst := newTestInstance(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeTempFile(t, dir, "a.txt", "one two three")
	if err := inst.AddFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	newPath := filepath.Join(dir, "b.txt")
	if err := inst.Rename(ctx, path, newPath); err != nil {
		t.Fatal(err)
	}
	if err := inst.UpdateAttr(ctx, newPath, "lang", "en"); err != nil {
		t.Fatal(err)
	}
	if err := inst.UpdateAttr(ctx, path, "lang", "en"); err == nil {
		t.Fatal("expected error updating attr on the stale (pre-rename) path")
	}
}

func TestDescribeReportsFileCount(t *testing.T) {
	inst := newTestInstance(t)
	ctx := context.Background()
	dir := t.TempDir()

	for i := 0; i < 3; i++ {
		path := writeTempFile(t, dir, "f"+string(rune('a'+i))+".txt", "some words here")
		if err := inst.AddFile(ctx, path); err != nil {
			t.Fatal(err)
		}
	}

	got, err := inst.Describe(ctx, "files")
	if err != nil {
		t.Fatal(err)
	}
	if got != "files=3" {
		t.Fatalf("expected files=3, got %q", got)
	}

	if _, err := inst.Describe(ctx, "bogus"); err == nil {
		t.Fatal("expected error for an unsupported misc query")
	}
}

func TestGetFileStreamsContentAndMIMEType(t *testing.T) {
	inst := newTestInstance(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := writeTempFile(t, dir, "a.txt", "hello world")
	data, mimeType, err := inst.GetFile(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world" {
		t.Fatalf("unexpected content %q", data)
	}
	if !strings.HasPrefix(mimeType, "text/plain") {
		t.Fatalf("expected text/plain MIME type, got %q", mimeType)
	}
}

func TestCloseIsGuardedAgainstDoubleClose(t *testing.T) {
	inst := newTestInstance(t)
	if err := inst.Close(); err != nil {
		t.Fatal(err)
	}
	if err := inst.Close(); err == nil {
		t.Fatal("expected error on second Close")
	}
	if _, err := inst.Query(context.Background(), "1", "r", `@gcl "x"`); err == nil {
		t.Fatal("expected error querying a closed instance")
	}
}

func TestTokenizeLowercasesAndSplitsOnNonAlphanumeric(t *testing.T) {
	got := tokenize([]byte("Hello, World! 123-456"))
	want := []string{"hello", "world", "123", "456"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
