// Package watcher provides fsnotify-based file system watching with
// per-path debouncing, invoking a handler once a changed path's writes have
// gone quiet.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"codegraph/internal/logging"
)

// coalesceWindow is the per-path debounce window spec §5 calls for.
const coalesceWindow = 500 * time.Millisecond

// stabilityPoll is how long the watcher waits between two stat() calls
// before deciding a file has finished being written.
const stabilityPoll = 75 * time.Millisecond

// ChangeHandler is invoked once per settled path change.
type ChangeHandler func(path string)

// Config contains watcher configuration.
type Config struct {
	IgnorePatterns []string
}

// DefaultConfig returns the default watcher configuration.
func DefaultConfig() Config {
	return Config{
		IgnorePatterns: []string{
			"*.log", "*.tmp", "*.swp",
			"node_modules/**", ".git/**", "vendor/**",
			"__pycache__/**", "dist/**", "build/**", "target/**",
			".code-graph/**",
		},
	}
}

// Watcher watches a project root for file changes and debounces per path.
type Watcher struct {
	root    string
	config  Config
	logger  *logging.Logger
	handler ChangeHandler

	fsw *fsnotify.Watcher

	mu         sync.Mutex
	debouncers map[string]*Debouncer

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher rooted at root.
func New(root string, config Config, logger *logging.Logger, handler ChangeHandler) *Watcher {
	return &Watcher{
		root:       root,
		config:     config,
		logger:     logger,
		handler:    handler,
		debouncers: make(map[string]*Debouncer),
		done:       make(chan struct{}),
	}
}

// Start begins watching the project root, recursively registering every
// directory that isn't ignored.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	w.fsw = fsw

	err = filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != w.root && w.IsIgnored(path) {
			return filepath.SkipDir
		}
		if addErr := fsw.Add(path); addErr != nil {
			w.logger.Warn("failed to watch directory", map[string]interface{}{
				"path": path, "error": addErr.Error(),
			})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking project root: %w", err)
	}

	w.wg.Add(1)
	go w.loop()

	w.logger.Info("file watcher started", map[string]interface{}{"root": w.root})
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	close(w.done)
	if w.fsw != nil {
		_ = w.fsw.Close()
	}
	w.wg.Wait()

	w.mu.Lock()
	for _, d := range w.debouncers {
		d.Cancel()
	}
	w.mu.Unlock()

	w.logger.Info("file watcher stopped", nil)
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", map[string]interface{}{"error": err.Error()})
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.IsIgnored(event.Name) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.IsIgnored(event.Name) {
				_ = w.fsw.Add(event.Name)
			}
			return
		}
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	w.debounceFor(event.Name).Trigger(func() {
		w.settle(event.Name)
	})
}

// settle waits for the path's size to stop changing (write-finish
// stability) before invoking the handler. A missing file is reported
// immediately: deletion has no "finish writing" to wait for.
func (w *Watcher) settle(path string) {
	for {
		info, err := os.Stat(path)
		if err != nil {
			break
		}
		size := info.Size()
		time.Sleep(stabilityPoll)
		info2, err2 := os.Stat(path)
		if err2 != nil || info2.Size() == size {
			break
		}
	}

	if w.handler != nil {
		w.handler(path)
	}
}

func (w *Watcher) debounceFor(path string) *Debouncer {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, ok := w.debouncers[path]
	if !ok {
		d = NewDebouncer(coalesceWindow)
		w.debouncers[path] = d
	}
	return d
}

// IsIgnored reports whether path matches one of the watcher's ignore globs.
func (w *Watcher) IsIgnored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range w.config.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
		if strings.Contains(pattern, "**") {
			parts := strings.SplitN(pattern, "**", 2)
			prefix := strings.TrimSuffix(parts[0], "/")
			suffix := strings.TrimPrefix(parts[1], "/")
			if (prefix == "" || strings.HasPrefix(rel, prefix)) &&
				(suffix == "" || strings.HasSuffix(rel, suffix) || strings.Contains(rel, "/"+suffix)) {
				return true
			}
		}
	}
	return false
}
