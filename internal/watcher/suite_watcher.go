// Package watcher implements the --watch flag: debounced monitoring of a
// suite directory's markdown files, re-running the affected suite on
// every settled change.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/JustGoscha/zentest/internal/logging"
)

// SuiteWatcher monitors a directory of markdown suite files and calls
// its change callback, once per settled file, after the debounce window.
type SuiteWatcher struct {
	rootDir  string
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu           sync.RWMutex
	isWatching   bool
	pendingFiles map[string]time.Time

	onSuiteChanged func(path string) error
}

// Config configures the watcher's debounce window.
type Config struct {
	DebounceMS int
}

// DefaultConfig returns the standard 500ms debounce window.
func DefaultConfig() Config {
	return Config{DebounceMS: 500}
}

// New returns a SuiteWatcher rooted at rootDir. Call Run to start it.
func New(rootDir string, config Config) (*SuiteWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if config.DebounceMS <= 0 {
		config.DebounceMS = 500
	}
	return &SuiteWatcher{
		rootDir:      rootDir,
		watcher:      fsw,
		debounce:     time.Duration(config.DebounceMS) * time.Millisecond,
		pendingFiles: make(map[string]time.Time),
	}, nil
}

// SetChangeCallback sets the function invoked once per settled suite
// file change, with its absolute path.
func (w *SuiteWatcher) SetChangeCallback(callback func(path string) error) {
	w.onSuiteChanged = callback
}

// Run watches rootDir until ctx is cancelled or an unrecoverable watcher
// error occurs.
func (w *SuiteWatcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.isWatching {
		w.mu.Unlock()
		return fmt.Errorf("watcher is already running")
	}
	w.isWatching = true
	w.mu.Unlock()

	if err := w.addWatchPaths(); err != nil {
		return fmt.Errorf("failed to add watch paths: %w", err)
	}

	debounceTicker := time.NewTicker(w.debounce)
	defer debounceTicker.Stop()

	logging.Info("watching %s for suite changes (debounce: %s)", w.rootDir, w.debounce)

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if w.shouldIgnoreEvent(event) {
				continue
			}
			w.mu.Lock()
			w.pendingFiles[event.Name] = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logging.Warn("file watcher error: %v", err)

		case <-debounceTicker.C:
			w.processPendingFiles()
		}
	}
}

// Stop closes the underlying fsnotify watcher.
func (w *SuiteWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isWatching {
		w.watcher.Close()
		w.isWatching = false
	}
}

// IsWatching reports whether Run is currently active.
func (w *SuiteWatcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isWatching
}

func (w *SuiteWatcher) addWatchPaths() error {
	if err := w.watcher.Add(w.rootDir); err != nil {
		return err
	}
	return filepath.Walk(w.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if strings.HasPrefix(filepath.Base(path), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logging.Warn("could not watch directory %s: %v", path, err)
		}
		return nil
	})
}

func (w *SuiteWatcher) shouldIgnoreEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Write == 0 && event.Op&fsnotify.Create == 0 {
		return true
	}
	return !isSuiteFile(event.Name)
}

func isSuiteFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}

func (w *SuiteWatcher) processPendingFiles() {
	ready := w.drainReady(time.Now())
	for _, file := range ready {
		logging.Info("suite file changed: %s", file)
		if w.onSuiteChanged == nil {
			continue
		}
		if err := w.onSuiteChanged(file); err != nil {
			logging.Error("suite watch callback failed for %s: %v", file, err)
		}
	}
}

// drainReady removes and returns every pending file whose last event is
// at least w.debounce old as of now. Split out from processPendingFiles
// so the debounce policy is testable without real timers.
func (w *SuiteWatcher) drainReady(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	threshold := now.Add(-w.debounce)
	var ready []string
	for file, ts := range w.pendingFiles {
		if ts.Before(threshold) {
			ready = append(ready, file)
			delete(w.pendingFiles, file)
		}
	}
	return ready
}

// GetPendingFiles returns a snapshot of files awaiting debounce.
func (w *SuiteWatcher) GetPendingFiles() map[string]time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	result := make(map[string]time.Time, len(w.pendingFiles))
	for k, v := range w.pendingFiles {
		result[k] = v
	}
	return result
}
