package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Loader loads options from a file and optionally watches it for
// changes, reloading and notifying subscribers.
type Loader struct {
	path     string
	mu       sync.RWMutex
	opts     *Options
	watcher  *fsnotify.Watcher
	onChange []func(*Options)
	ctx      context.Context
	cancel   context.CancelFunc
	errChan  chan error
}

// NewLoader creates a loader for the options file at path.
func NewLoader(path string) *Loader {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		path:    path,
		ctx:     ctx,
		cancel:  cancel,
		errChan: make(chan error, 1),
	}
}

// Load reads and validates the options file.
func (l *Loader) Load() (*Options, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	opts, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	l.opts = opts
	return opts, nil
}

// Options returns the most recently loaded options.
func (l *Loader) Options() *Options {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.opts
}

// OnChange registers a callback invoked with the new options after each
// successful reload.
func (l *Loader) OnChange(fn func(*Options)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Errors exposes reload failures. The channel is never closed and drops
// errors when full.
func (l *Loader) Errors() <-chan error {
	return l.errChan
}

// Watch starts watching the options file for changes. The directory is
// watched rather than the file so editor rename-and-replace saves are
// seen.
func (l *Loader) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	l.watcher = watcher

	go l.watchLoop()
	return nil
}

// Close stops watching.
func (l *Loader) Close() error {
	l.cancel()
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}

func (l *Loader) watchLoop() {
	// Debounce so one editor save does not trigger several reloads.
	const debounceDelay = 100 * time.Millisecond
	var debounceTimer *time.Timer

	for {
		select {
		case <-l.ctx.Done():
			return

		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(l.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, l.reload)

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.reportError(err)
		}
	}
}

func (l *Loader) reload() {
	opts, err := Load(l.path)
	if err != nil {
		l.reportError(fmt.Errorf("reload config: %w", err))
		return
	}

	l.mu.Lock()
	l.opts = opts
	callbacks := make([]func(*Options), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()

	for _, fn := range callbacks {
		fn(opts)
	}
}

func (l *Loader) reportError(err error) {
	select {
	case l.errChan <- err:
	default:
	}
}
