// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch monitors a drop directory for feature-summary files and
// hands settled files to an analysis callback. Geometry extraction runs in
// a separate tool that writes summary JSON into the watched directory; the
// settle delay keeps half-written files out of the pipeline.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettleDelay is how long a file must be quiet before analysis.
const DefaultSettleDelay = 500 * time.Millisecond

// Handler is called once per settled file.
type Handler func(path string)

// =============================================================================
// DROP-DIRECTORY WATCHER
// =============================================================================

// Watcher watches a single directory for new summary files.
type Watcher struct {
	dir     string
	pattern string
	settle  time.Duration
	handler Handler
	log     *zap.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]time.Time // file path -> last change time
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a watcher for dir. Files whose base name matches pattern
// (a filepath.Match pattern, e.g. "*.json") are reported to handler after
// they have been quiet for settle.
func New(dir, pattern string, settle time.Duration, handler Handler, log *zap.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, fmt.Errorf("watch: handler is required")
	}
	if pattern == "" {
		pattern = "*.json"
	}
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	if log == nil {
		log = zap.NewNop()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		dir:     dir,
		pattern: pattern,
		settle:  settle,
		handler: handler,
		log:     log.Named("watch"),
		watcher: fsw,
		pending: make(map[string]time.Time),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins watching. Files already present in the directory are queued
// too, so parts dropped before startup are not missed.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", w.dir, err)
	}
	now := time.Now()
	w.mu.Lock()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if w.matches(path) {
			w.pending[path] = now
		}
	}
	w.mu.Unlock()

	go w.processEvents()
	go w.processPending()

	w.log.Info("watching drop directory",
		zap.String("dir", w.dir),
		zap.String("pattern", w.pattern),
		zap.Duration("settle", w.settle))
	return nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

// matches reports whether the file's base name matches the watch pattern.
func (w *Watcher) matches(path string) bool {
	ok, err := filepath.Match(w.pattern, filepath.Base(path))
	return err == nil && ok
}

// processEvents folds filesystem events into the pending set.
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(event.Name) {
				continue
			}

			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				w.mu.Lock()
				w.pending[event.Name] = time.Now()
				w.mu.Unlock()

			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.mu.Lock()
				delete(w.pending, event.Name)
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

// processPending hands over files that have been quiet for the settle delay.
func (w *Watcher) processPending() {
	ticker := time.NewTicker(w.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()

			w.mu.Lock()
			var settled []string
			for path, changeTime := range w.pending {
				if now.Sub(changeTime) >= w.settle {
					settled = append(settled, path)
					delete(w.pending, path)
				}
			}
			w.mu.Unlock()

			for _, path := range settled {
				if _, err := os.Stat(path); err != nil {
					continue // removed while settling
				}
				w.log.Info("file settled", zap.String("path", path))
				w.handler(path)
			}
		}
	}
}

// pollInterval checks the pending set a few times per settle window.
func (w *Watcher) pollInterval() time.Duration {
	interval := w.settle / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	if interval > 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	return interval
}
