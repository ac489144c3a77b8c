package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPort(t *testing.T) {
	t.Setenv("TEST_PORT", "70000")
	if _, err := Port("TEST_PORT", "8080"); err == nil {
		t.Fatal("expected error for out of range port")
	}
	t.Setenv("TEST_PORT", "")
	p, err := Port("TEST_PORT", "8080")
	if err != nil || p != "8080" {
		t.Fatalf("expected fallback 8080, got %q (%v)", p, err)
	}
}

func TestTypedHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "12")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_DUR", "1500ms")
	t.Setenv("TEST_LIST", " a, ,b ,")

	if n, err := Int("TEST_INT", 1); err != nil || n != 12 {
		t.Fatalf("Int: got %d (%v)", n, err)
	}
	if b, err := Bool("TEST_BOOL", true); err != nil || b {
		t.Fatalf("Bool: got %v (%v)", b, err)
	}
	if d, err := Duration("TEST_DUR", time.Second); err != nil || d != 1500*time.Millisecond {
		t.Fatalf("Duration: got %v (%v)", d, err)
	}
	list := List("TEST_LIST")
	if len(list) != 2 || list[0] != "a" || list[1] != "b" {
		t.Fatalf("List: got %v", list)
	}

	t.Setenv("TEST_INT", "twelve")
	if _, err := Int("TEST_INT", 1); err == nil {
		t.Fatal("expected error for non-numeric int")
	}
	t.Setenv("TEST_DUR", "-1s")
	if _, err := Duration("TEST_DUR", time.Second); err == nil {
		t.Fatal("expected error for negative duration")
	}
}

func TestLoadKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CFG_FROM_FILE=file\nCFG_PRESET=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CFG_PRESET", "process")
	t.Setenv("CFG_FROM_FILE", "")
	os.Unsetenv("CFG_FROM_FILE")

	if err := Load(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := os.Getenv("CFG_FROM_FILE"); got != "file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("CFG_PRESET"); got != "process" {
		t.Fatalf("expected process value to win, got %q", got)
	}
}
