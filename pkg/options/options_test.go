package options

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWithSegmentSizeRejectsOutOfRange(t *testing.T) {
	opts := NewDefaultOptions()
	before := opts.SegmentOptions.Size
	WithSegmentSize(1)(&opts)
	if opts.SegmentOptions.Size != before {
		t.Fatalf("expected out-of-range segment size to be ignored, got %d", opts.SegmentOptions.Size)
	}
	WithSegmentSize(2 * 1024 * 1024 * 1024)(&opts)
	if opts.SegmentOptions.Size != 2*1024*1024*1024 {
		t.Fatalf("expected valid segment size to apply")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wumpus.conf")
	content := "# comment\nMAX_UPDATE_SPACE=1048576\nUPDATE_STRATEGY=sqrt_merge\nREAD_ONLY=true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := LoadFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if opts.MaxUpdateSpace != 1048576 {
		t.Fatalf("unexpected MaxUpdateSpace: %d", opts.MaxUpdateSpace)
	}
	if opts.UpdateStrategy != UpdateStrategySqrtMerge {
		t.Fatalf("unexpected UpdateStrategy: %v", opts.UpdateStrategy)
	}
	if !opts.ReadOnly {
		t.Fatalf("expected ReadOnly to be true")
	}
}

func TestLoadFromEnvDefaultsWhenUnset(t *testing.T) {
	os.Unsetenv("WUMPUS_CONFIG_TEST_UNSET")
	opts, err := LoadFromEnv("WUMPUS_CONFIG_TEST_UNSET")
	if err != nil {
		t.Fatal(err)
	}
	if opts.DataDir != DefaultDataDir {
		t.Fatalf("expected default data dir, got %q", opts.DataDir)
	}
}
