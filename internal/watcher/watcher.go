// Package watcher observes a corpus root for Markdown changes,
// debounces bursts, invalidates caches and re-emits typed events.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docdex/internal/core/domain"
	"github.com/custodia-labs/docdex/internal/corpus"
	"github.com/custodia-labs/docdex/internal/facts"
	"github.com/custodia-labs/docdex/internal/logger"
	"github.com/custodia-labs/docdex/internal/search/querycache"
)

// DefaultDebounce is how long a path must stay quiet before its change
// is processed.
const DefaultDebounce = 1000 * time.Millisecond

// ignoredDirs are never watched.
var ignoredDirs = map[string]bool{"node_modules": true, ".git": true, "build": true}

// Config configures a watcher.
type Config struct {
	// Root is the corpus root to observe.
	Root string

	// Debounce overrides the per-path quiet period.
	Debounce time.Duration

	// OnReindex runs after caches are invalidated for a change. It may
	// be slow; it is invoked on its own goroutine.
	OnReindex func(relFile string)

	// OnEvent receives every typed event the watcher emits.
	OnEvent func(domain.DocEvent)
}

// Watcher observes a corpus root. Create with New, release with Stop.
type Watcher struct {
	cfg        Config
	index      *corpus.IndexCache
	factCache  *facts.Cache
	queryCache *querycache.Cache
	fs         *fsnotify.Watcher

	mu       sync.Mutex
	timers   map[string]*time.Timer
	pending  map[string]domain.DocEventKind
	stopped  bool
	doneOnce sync.Once
	done     chan struct{}
}

// New creates and starts a watcher over cfg.Root.
func New(cfg Config, index *corpus.IndexCache, factCache *facts.Cache, queryCache *querycache.Cache) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		cfg:        cfg,
		index:      index,
		factCache:  factCache,
		queryCache: queryCache,
		fs:         fs,
		timers:     make(map[string]*time.Timer),
		pending:    make(map[string]domain.DocEventKind),
		done:       make(chan struct{}),
	}

	if err := w.watchTree(cfg.Root); err != nil {
		fs.Close()
		return nil, err
	}

	go w.loop()
	logger.Info("Watching %s for Markdown changes", cfg.Root)
	return w, nil
}

// Stop cancels pending timers and releases the underlying watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
		delete(w.pending, path)
	}
	w.mu.Unlock()

	err := w.fs.Close()
	w.doneOnce.Do(func() { close(w.done) })
	return err
}

// Done closes when the watcher's event loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) loop() {
	defer w.doneOnce.Do(func() { close(w.done) })

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			// Watcher errors never terminate the process.
			logger.Error("Watcher error: %v", err)
			w.emit(domain.DocEvent{Kind: domain.EventError, Err: err})
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	base := filepath.Base(event.Name)

	// Newly created directories join the watch set.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !skipDir(base) {
				_ = w.watchTree(event.Name)
			}
			return
		}
	}

	if !strings.HasSuffix(base, ".md") || ignoredPath(event.Name) {
		return
	}

	var kind domain.DocEventKind
	switch {
	case event.Op.Has(fsnotify.Create):
		kind = domain.EventDocIndexed
	case event.Op.Has(fsnotify.Write):
		kind = domain.EventDocUpdated
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		kind = domain.EventDocRemoved
	default:
		return
	}

	w.debounce(event.Name, kind)
}

// debounce starts or resets the per-path timer; the change is processed
// once the path stays quiet for the configured period.
func (w *Watcher) debounce(path string, kind domain.DocEventKind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
		// The first event of a burst names the change: a create
		// followed by writes is still an add.
		kind = w.pending[path]
	}
	w.pending[path] = kind
	w.timers[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		settled := w.pending[path]
		delete(w.timers, path)
		delete(w.pending, path)
		stopped := w.stopped
		w.mu.Unlock()
		if stopped {
			return
		}
		w.fire(path, settled)
	})
}

// fire invalidates caches for the change and notifies listeners.
func (w *Watcher) fire(path string, kind domain.DocEventKind) {
	logger.Debug("Change settled: %s (%s)", path, kind)

	if fingerprint, ok := w.index.CachedFingerprint(w.cfg.Root); ok {
		w.queryCache.InvalidateFingerprint(fingerprint)
	}
	w.index.Invalidate(w.cfg.Root)
	w.factCache.Invalidate(w.cfg.Root)

	if w.cfg.OnReindex != nil {
		rel, err := filepath.Rel(w.cfg.Root, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		go w.cfg.OnReindex(filepath.ToSlash(rel))
	}

	w.emit(domain.DocEvent{Kind: kind, Path: path})
	w.emit(domain.DocEvent{Kind: domain.EventReindexTriggered, Path: w.cfg.Root})
}

func (w *Watcher) emit(event domain.DocEvent) {
	if w.cfg.OnEvent != nil {
		w.cfg.OnEvent(event)
	}
}

// watchTree adds dir and every non-ignored subdirectory to the watch
// set.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Watch skip %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if path != dir && skipDir(base) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			logger.Warn("Watch add %s: %v", path, err)
		}
		return nil
	})
}

func skipDir(base string) bool {
	return ignoredDirs[base] || strings.HasPrefix(base, ".")
}

func ignoredPath(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if ignoredDirs[part] {
			return true
		}
	}
	return false
}
