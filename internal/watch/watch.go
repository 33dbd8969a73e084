// Package watch re-runs a check when workspace manifests change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	// DefaultDebounce batches the burst of events an editor or package
	// manager produces for a single save.
	DefaultDebounce = 300 * time.Millisecond

	manifestName = "package.json"
)

// ChangeFunc is called with the manifests that changed since the last call.
// It returns the directories to watch from then on; nil keeps the current set.
type ChangeFunc func(ctx context.Context, changed []string) []string

// Watcher watches workspace directories for package.json writes.
type Watcher struct {
	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration
	onChange ChangeFunc
	watched  map[string]bool
	pending  map[string]time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

type Option func(*Watcher)

func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func New(onChange ChangeFunc, opts ...Option) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		logger:   zap.NewNop(),
		debounce: DefaultDebounce,
		onChange: onChange,
		watched:  make(map[string]bool),
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch replaces the watched set with dirs.
func (w *Watcher) Watch(dirs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	want := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		want[filepath.Clean(d)] = true
	}
	for d := range w.watched {
		if want[d] {
			continue
		}
		if err := w.fsw.Remove(d); err != nil {
			w.logger.Debug("unwatch failed", zap.String("dir", d), zap.Error(err))
		}
		delete(w.watched, d)
	}
	for d := range want {
		if w.watched[d] {
			continue
		}
		if err := w.fsw.Add(d); err != nil {
			return fmt.Errorf("watching %s: %w", d, err)
		}
		w.watched[d] = true
	}
	return nil
}

// Watched returns the watched directories, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.watched))
	for d := range w.watched {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Start runs the event loop in a goroutine until ctx is canceled or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)
}

// Done is closed when the event loop exits.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

// Stop ends the event loop, waits for it and releases the file watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		select {
		case <-w.stopCh:
		default:
			close(w.stopCh)
		}
		<-w.doneCh
	}
	return w.fsw.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		case now := <-ticker.C:
			if changed := w.due(now); len(changed) > 0 {
				w.logger.Debug("manifests changed", zap.Strings("paths", changed))
				if dirs := w.onChange(ctx, changed); dirs != nil {
					if err := w.Watch(dirs); err != nil {
						w.logger.Warn("updating watched directories", zap.Error(err))
					}
				}
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Base(ev.Name) != manifestName {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return
	}
	w.mu.Lock()
	w.pending[ev.Name] = time.Now()
	w.mu.Unlock()
}

// due drains the pending set once every path has been quiet for the
// debounce interval.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	for _, last := range w.pending {
		if now.Sub(last) < w.debounce {
			return nil
		}
	}
	out := make([]string, 0, len(w.pending))
	for p := range w.pending {
		out = append(out, p)
	}
	sort.Strings(out)
	w.pending = make(map[string]time.Time)
	return out
}
