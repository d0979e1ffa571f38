package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ReportsMatchingFilesOnce(t *testing.T) {
	dir := t.TempDir()

	got := make(chan []string, 4)
	w, err := New("*.py", func(paths []string) { got <- paths }, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Watch(dir); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	w.Start(context.Background())
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "test_a.py"), []byte("pass"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case paths := <-got:
		if len(paths) != 1 {
			t.Fatalf("expected one settled path, got %v", paths)
		}
		if filepath.Base(paths[0]) != "test_a.py" {
			t.Fatalf("unexpected path %q", paths[0])
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := New("", func([]string) {})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w.Start(context.Background())
	w.Stop()
	w.Stop()
}
