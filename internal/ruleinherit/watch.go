package ruleinherit

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// CacheInvalidator is the subset of CacheTier that a Watcher needs, to avoid
// an import cycle back to the cache package.
type CacheInvalidator interface {
	InvalidateTag(tag string) int
}

// Watcher watches a rules directory tree for changes and invalidates the
// "rule" cache tag so the next load re-parses from disk. Bursts of events
// are debounced by debounceWindow.
type Watcher struct {
	rulesDir string
	cache    CacheInvalidator
	logger   *log.Logger

	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	debounce time.Time
}

// NewWatcher creates a Watcher rooted at rulesDir. logger may be nil, in
// which case events are not logged.
func NewWatcher(rulesDir string, cache CacheInvalidator, logger *log.Logger) *Watcher {
	return &Watcher{rulesDir: rulesDir, cache: cache, logger: logger}
}

// Start begins watching rulesDir (and its subdirectories) in a background
// goroutine that runs until ctx is cancelled, and returns at once. Returns
// an error only if the fsnotify watcher cannot be created.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fw

	if err := filepath.Walk(w.rulesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			_ = fw.Add(path)
		}
		return nil
	}); err != nil {
		w.log("watch setup: %v", err)
	}

	go w.loop(ctx)
	return nil
}

const debounceWindow = 500 * time.Millisecond

func (w *Watcher) loop(ctx context.Context) {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if strings.HasPrefix(filepath.Base(event.Name), ".") {
				continue
			}

			w.mu.Lock()
			if time.Since(w.debounce) < debounceWindow {
				w.mu.Unlock()
				continue
			}
			w.debounce = time.Now()
			w.mu.Unlock()

			n := w.cache.InvalidateTag("rule")
			w.log("invalidated %d rule cache entries after change to %s", n, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log("watch error: %v", err)
		}
	}
}

func (w *Watcher) log(format string, args ...any) {
	if w.logger != nil {
		w.logger.Printf("rule watcher: "+format, args...)
	}
}


