package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type changeRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *changeRecorder) record(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *changeRecorder) wait(t *testing.T, want int) []string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		n := len(r.paths)
		paths := append([]string(nil), r.paths...)
		r.mu.Unlock()
		if n >= want {
			return paths
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d change(s)", want)
	return nil
}

func TestRun_StopsOnCancel(t *testing.T) {
	w := New([]string{t.TempDir()}, func(string) {})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_ReportsSupportedFileChanges(t *testing.T) {
	dir := t.TempDir()
	rec := &changeRecorder{}
	w := New([]string{dir}, rec.record, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(200 * time.Millisecond)

	target := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(target, []byte("watched content"), 0600); err != nil {
		t.Fatal(err)
	}
	// Unsupported extensions never reach the callback.
	if err := os.WriteFile(filepath.Join(dir, "skip.bin"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	paths := rec.wait(t, 1)
	for _, p := range paths {
		if filepath.Base(p) != "note.txt" {
			t.Errorf("unexpected change reported: %s", p)
		}
	}
}

func TestRun_DebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &changeRecorder{}
	w := New([]string{dir}, rec.record, WithDebounce(250*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(200 * time.Millisecond)

	target := filepath.Join(dir, "busy.md")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte("revision"), 0600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	paths := rec.wait(t, 1)
	// All writes landed within one debounce window.
	if len(paths) != 1 {
		t.Errorf("got %d callbacks, want 1", len(paths))
	}
}
