// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// collector records handled paths for assertions.
type collector struct {
	mu    sync.Mutex
	paths []string
}

func (c *collector) handle(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

// waitFor polls until cond is true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func newTestWatcher(t *testing.T, dir string, c *collector) *Watcher {
	t.Helper()
	w, err := New(dir, "*.json", 20*time.Millisecond, c.handle, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestNewRejectsMissingDir(t *testing.T) {
	var c collector
	if _, err := New(filepath.Join(t.TempDir(), "missing"), "*.json", 0, c.handle, nil); err == nil {
		t.Error("New() accepted a missing directory")
	}
}

func TestNewRequiresHandler(t *testing.T) {
	if _, err := New(t.TempDir(), "*.json", 0, nil, nil); err == nil {
		t.Error("New() accepted a nil handler")
	}
}

func TestDroppedFileIsHandled(t *testing.T) {
	dir := t.TempDir()
	var c collector
	w := newTestWatcher(t, dir, &c)
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	path := filepath.Join(dir, "shaft.json")
	if err := os.WriteFile(path, []byte(`{"surfaces":{}}`), 0644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return len(c.snapshot()) == 1 }) {
		t.Fatalf("handler calls = %d, want 1", len(c.snapshot()))
	}
	if got := c.snapshot()[0]; got != path {
		t.Errorf("handled path = %q, want %q", got, path)
	}
}

func TestNonMatchingFileIgnored(t *testing.T) {
	dir := t.TempDir()
	var c collector
	w := newTestWatcher(t, dir, &c)
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0644)
	os.WriteFile(filepath.Join(dir, "part.json"), []byte("{}"), 0644)

	if !waitFor(t, 2*time.Second, func() bool { return len(c.snapshot()) >= 1 }) {
		t.Fatal("matching file never handled")
	}
	for _, p := range c.snapshot() {
		if filepath.Ext(p) != ".json" {
			t.Errorf("non-matching file handled: %q", p)
		}
	}
}

func TestRepeatedWritesSettleOnce(t *testing.T) {
	dir := t.TempDir()
	var c collector
	w := newTestWatcher(t, dir, &c)
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	path := filepath.Join(dir, "growing.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	// Writes inside the settle window must coalesce to a single delivery.
	for i := 0; i < 5; i++ {
		f.WriteString(`{"chunk":true}`)
		f.Sync()
		time.Sleep(2 * time.Millisecond)
	}
	f.Close()

	if !waitFor(t, 2*time.Second, func() bool { return len(c.snapshot()) >= 1 }) {
		t.Fatal("settled file never handled")
	}
	// Allow the settle window to fully pass, then check for duplicates.
	time.Sleep(100 * time.Millisecond)
	if got := len(c.snapshot()); got != 1 {
		t.Errorf("handler calls = %d, want 1", got)
	}
}

func TestExistingFilesQueuedOnStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preexisting.json")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	var c collector
	w := newTestWatcher(t, dir, &c)
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return len(c.snapshot()) == 1 }) {
		t.Fatalf("pre-existing file not handled, calls = %d", len(c.snapshot()))
	}
}

func TestRemovedFileNotHandled(t *testing.T) {
	dir := t.TempDir()
	var c collector

	w, err := New(dir, "*.json", 150*time.Millisecond, c.handle, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	path := filepath.Join(dir, "fleeting.json")
	os.WriteFile(path, []byte("{}"), 0644)
	time.Sleep(20 * time.Millisecond)
	os.Remove(path)

	time.Sleep(400 * time.Millisecond)
	if got := len(c.snapshot()); got != 0 {
		t.Errorf("removed file was handled %d times", got)
	}
}
