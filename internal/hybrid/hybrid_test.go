package hybrid

import (
	"context"
	"testing"

	"github.com/gmargari/wumpus-sub004/pkg/options"
	"github.com/gmargari/wumpus-sub004/pkg/wlog"
)

func newTestManager(t *testing.T, mutate func(*options.Options)) *Manager {
	t.Helper()

	opts := options.NewDefaultOptions()
	opts.DataDir = t.TempDir()
	opts.MaxUpdateSpace = 1 << 30 // effectively disabled unless the test lowers it
	if mutate != nil {
		mutate(&opts)
	}

	m, err := New(context.Background(), &Config{Logger: wlog.NewNop(), Options: &opts})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestAddPostingAndGetUpdatesFromAccumulator(t *testing.T) {
	m := newTestManager(t, nil)

	for _, p := range []int64{1, 2, 3} {
		if err := m.AddPosting("term", p); err != nil {
			t.Fatal(err)
		}
	}

	got, err := m.GetUpdates("term")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 postings, got %v", got)
	}
}

func TestAddPostingTriggersImmediateMergeAndSurvivesAcrossFlush(t *testing.T) {
	m := newTestManager(t, func(o *options.Options) {
		o.UpdateStrategy = options.UpdateStrategyImmediateMerge
		o.MaxUpdateSpace = 1 // force a flush on the very first AddPosting growth
		o.PartialFlush = options.PartialFlushOff
	})

	if err := m.AddPosting("alpha", 1); err != nil {
		t.Fatal(err)
	}
	if err := m.AddPosting("alpha", 2); err != nil {
		t.Fatal(err)
	}

	got, err := m.GetUpdates("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected postings to survive the merge in order, got %v", got)
	}
	if len(m.partitions) == 0 {
		t.Fatal("expected at least one on-disk partition after the forced flush")
	}
}

func TestManagerRecoversPartitionsAcrossReopen(t *testing.T) {
	dataDir := t.TempDir()

	build := func(o *options.Options) { o.DataDir = dataDir }
	m := newTestManager(t, build)

	if err := m.AddPosting("durable", 7); err != nil {
		t.Fatal(err)
	}
	m.mu.Lock()
	err := m.mergeLocked(immediateMergeSlots(m.partitions))
	m.mu.Unlock()
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	m2 := newTestManager(t, build)
	got, err := m2.GetUpdates("durable")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("expected recovered partition to serve 'durable', got %v", got)
	}
}

func TestGetUpdatesInPlaceBeforeAccumulator(t *testing.T) {
	m := newTestManager(t, nil)

	if err := m.inplace.AddPostings("hot", []int64{100, 200}, modeFor(m.opts.CompressionMode)); err != nil {
		t.Fatal(err)
	}
	if err := m.inplace.FinishUpdate(); err != nil {
		t.Fatal(err)
	}
	m.inplace.SetAppearsInIndex("hot", true)

	// Also add the term to the accumulator; the in-place result must still
	// come first in the concatenation (it is consulted first, then the
	// accumulator is appended last).
	if err := m.AddPosting("hot", 300); err != nil {
		t.Fatal(err)
	}

	got, err := m.GetUpdates("hot")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 100 || got[1] != 200 || got[2] != 300 {
		t.Fatalf("expected in-place postings before accumulator postings, got %v", got)
	}
}
