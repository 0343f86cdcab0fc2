package workspace

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dusk-indust/archgraph/internal/logging"
)

// gitTriggers are the files under .git whose writes change the change sets.
var gitTriggers = map[string]bool{"index": true, "HEAD": true}

// ChangeHandler receives one debounced batch of workspace-relative paths.
type ChangeHandler func(paths []string)

// Watcher recursively watches the non-ignored directories of a workspace and
// reports debounced batches of changed paths. The handler is called from a
// single goroutine.
type Watcher struct {
	disc     *Discoverer
	fsw      *fsnotify.Watcher
	handler  ChangeHandler
	debounce time.Duration
	logger   *slog.Logger

	changes  chan string
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	started bool
}

// NewWatcher creates a watcher over disc's root. Call Start to begin.
func NewWatcher(disc *Discoverer, debounce time.Duration, handler ChangeHandler, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{
		disc:     disc,
		fsw:      fsw,
		handler:  handler,
		debounce: debounce,
		logger:   logging.OrDefault(logger),
		changes:  make(chan string, 1024),
		done:     make(chan struct{}),
	}, nil
}

// Start adds the watches and spawns the event and debounce goroutines. Both
// exit on Stop or when ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	if err := w.addRecursive(w.disc.Root()); err != nil {
		return err
	}
	gitDir := filepath.Join(w.disc.Root(), ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		if err := w.fsw.Add(gitDir); err != nil {
			w.logger.Warn("cannot watch git metadata", "path", gitDir, "error", err)
		}
	}

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop releases the underlying watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsw.Close()
	})
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.disc.Rel(p); ok && w.disc.Ignored(rel, true) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// relevant maps an fsnotify event to a workspace-relative path, or "" when
// the event should not trigger a rebuild.
func (w *Watcher) relevant(ev fsnotify.Event) string {
	rel, ok := w.disc.Rel(ev.Name)
	if !ok {
		return ""
	}
	if dir, base := path.Split(rel); dir == ".git/" {
		if gitTriggers[base] {
			return rel
		}
		return ""
	}

	isDir := false
	if info, err := os.Stat(ev.Name); err == nil {
		isDir = info.IsDir()
	}
	if w.disc.Ignored(rel, isDir) {
		return ""
	}
	if isDir {
		if ev.Has(fsnotify.Create) {
			if err := w.addRecursive(ev.Name); err != nil {
				w.logger.Warn("cannot watch new directory", "path", rel, "error", err)
			}
		}
		return rel
	}
	if _, known := KindOf(rel); known {
		return rel
	}
	// A removed or renamed directory no longer stats as one.
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		if path.Ext(rel) == "" {
			return rel
		}
	}
	return ""
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			rel := w.relevant(ev)
			if rel == "" {
				continue
			}
			select {
			case w.changes <- rel:
			default:
				w.logger.Debug("watch buffer full, dropping event", "path", rel)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	pending := make(map[string]bool)
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(pending) > 0 && w.handler != nil {
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			w.handler(batch)
		}
		clear(pending)
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case rel := <-w.changes:
			pending[rel] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer, timerC = nil, nil
			flush()
		}
	}
}
