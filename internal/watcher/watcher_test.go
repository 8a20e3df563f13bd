package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) record(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) waitFor(t *testing.T, n int, timeout time.Duration) []string {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if got := r.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	got := r.snapshot()
	t.Fatalf("timed out waiting for %d callbacks, got %d: %v", n, len(got), got)
	return nil
}

func TestWatcherReportsNewFile(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	w := NewDropWatcher(dir, nil, rec.record, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "bulletin.txt")
	if err := os.WriteFile(path, []byte("notice text"), 0644); err != nil {
		t.Fatal(err)
	}

	got := rec.waitFor(t, 1, 3*time.Second)
	if got[0] != path {
		t.Errorf("expected %s, got %s", path, got[0])
	}
}

func TestWatcherDebouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	w := NewDropWatcher(dir, nil, rec.record, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "policy.json")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("partial write"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec.waitFor(t, 1, 3*time.Second)
	// Give any extra (wrongly undebounced) callbacks time to fire.
	time.Sleep(300 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 1 {
		t.Errorf("expected a single debounced callback, got %d", len(got))
	}
}

func TestWatcherFiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	w := NewDropWatcher(dir, []string{".json", "txt"}, rec.record, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "skip.tmp"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	match := filepath.Join(dir, "keep.json")
	if err := os.WriteFile(match, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	got := rec.waitFor(t, 1, 3*time.Second)
	for _, p := range got {
		if p != match {
			t.Errorf("unexpected callback for %s", p)
		}
	}
}

func TestWatcherCreatesMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "drop")
	w := NewDropWatcher(root, nil, func(string) {})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if _, err := os.Stat(root); err != nil {
		t.Errorf("expected drop directory to be created: %v", err)
	}
}

func TestSyncExisting(t *testing.T) {
	dir := t.TempDir()
	pre := filepath.Join(dir, "existing.txt")
	if err := os.WriteFile(pre, []byte("already here"), 0644); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	w := NewDropWatcher(dir, nil, rec.record)
	w.SyncExisting()

	got := rec.snapshot()
	if len(got) != 1 || got[0] != pre {
		t.Errorf("expected existing file to be reported, got %v", got)
	}
}
