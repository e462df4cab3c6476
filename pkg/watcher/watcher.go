// Package watcher reports changes to a snapshot file so the graph can be
// reloaded. It uses fsnotify on the containing directory and falls back to
// stat polling when fsnotify is unavailable or CHAINVIEW_FORCE_POLL is set.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// sidecarSuffixes are SQLite files that change alongside the database.
var sidecarSuffixes = []string{"", "-wal"}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets how long writes must be quiet before Changed fires.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) { w.debounceDuration = d }
}

// WithPollInterval sets the stat interval used in polling mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithOnError sets the callback for watch errors, including removal of the
// snapshot file.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll skips fsnotify.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// stamp identifies one version of the snapshot file. The zero stamp means
// the file does not exist.
type stamp struct {
	mtime time.Time
	size  int64
}

func statStamp(path string) (stamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}, err
	}
	return stamp{mtime: info.ModTime(), size: info.Size()}, nil
}

func (s stamp) exists() bool { return !s.mtime.IsZero() }

// newer reports whether s describes a later write than prev.
func (s stamp) newer(prev stamp) bool {
	return s.mtime.After(prev.mtime) || s.size != prev.size
}

// Watcher monitors a snapshot file for changes.
type Watcher struct {
	path             string
	debounceDuration time.Duration
	pollInterval     time.Duration
	onError          func(error)
	forcePoll        bool

	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	polling   bool
	last      stamp

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// New creates a watcher for the file at path. Nothing is watched until Start.
func New(path string, opts ...Option) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:             absPath,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onError:          func(error) {},
		changeCh:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	// A snapshot that does not exist yet is reported on its first write.
	last, err := statStamp(w.path)
	if os.IsPermission(err) {
		return ErrPermission
	}
	w.last = last

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.polling = w.forcePoll || envBool("CHAINVIEW_FORCE_POLL")

	if !w.polling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			err = fsw.Add(filepath.Dir(w.path))
			if err != nil {
				fsw.Close()
			}
		}
		if err != nil {
			w.polling = true
		} else {
			w.fsWatcher = fsw
			go w.watchEvents(fsw)
		}
	}
	if w.polling {
		go w.watchPolling()
	}

	w.started = true
	return nil
}

// Stop stops watching. The Changed channel is left open so a receiver
// blocked on it is not woken spuriously.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	w.cancel()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed receives once per debounced burst of changes. Bursts that arrive
// while a previous notification is unread are coalesced into it.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Path returns the watched file path.
func (w *Watcher) Path() string {
	return w.path
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func (w *Watcher) isTarget(name string) bool {
	base := filepath.Base(w.path)
	got := filepath.Base(name)
	for _, suffix := range sidecarSuffixes {
		if got == base+suffix {
			return true
		}
	}
	return false
}

func (w *Watcher) watchEvents(fsw *fsnotify.Watcher) {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.isTarget(event.Name) {
				continue
			}
			switch {
			case event.Op&fsnotify.Remove != 0 && event.Name == w.path:
				w.onError(ErrFileRemoved)
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(w.notifyChange)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	cur, err := statStamp(w.path)

	w.mu.Lock()
	prev := w.last
	if err == nil && cur.newer(prev) {
		w.last = cur
	}
	w.mu.Unlock()

	switch {
	case err == nil:
		if cur.newer(prev) {
			w.debouncer.Trigger(w.notifyChange)
		}
	case os.IsNotExist(err):
		if prev.exists() {
			w.onError(ErrFileRemoved)
		}
	case os.IsPermission(err):
		w.onError(ErrPermission)
	default:
		w.onError(err)
	}
}

func (w *Watcher) notifyChange() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()
	if !started {
		return
	}

	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
