package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change is emitted by Watch when the database files change on disk.
type Change struct {
	// Removed is set when the database file itself was removed or renamed away.
	Removed bool
}

// Watch streams database changes until ctx is cancelled, including writes made by
// other processes. Bursts are coalesced. The channel is closed when ctx is done or the
// watcher fails.
func (s Store) Watch(ctx context.Context) (<-chan Change, error) {
	if err := s.Ensure(); err != nil {
		return nil, fmt.Errorf("store: ensure dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	if err := watcher.Add(s.Dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("store: watch %s: %w", s.Dir, err)
	}

	out := make(chan Change, 8)
	go func() {
		var (
			mu     sync.Mutex
			closed bool
		)
		defer func() {
			mu.Lock()
			closed = true
			close(out)
			mu.Unlock()
		}()
		defer watcher.Close()

		// send may run on the throttle's timer goroutine after the loop exits.
		send := func(c Change) {
			mu.Lock()
			defer mu.Unlock()
			if closed {
				return
			}
			select {
			case out <- c:
			default:
				// Consumer is behind; it reloads the whole snapshot anyway.
			}
		}
		throttle := newChangeThrottle(100 * time.Millisecond)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				throttle.Enqueue(Change{}, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isDBFile(evt.Name) {
					continue
				}
				removed := filepath.Base(evt.Name) == dbFileName &&
					(evt.Op&fsnotify.Remove == fsnotify.Remove || evt.Op&fsnotify.Rename == fsnotify.Rename)
				throttle.Enqueue(Change{Removed: removed}, send)
			}
		}
	}()
	return out, nil
}

func isDBFile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), dbFileName)
}

// changeThrottle coalesces a burst of file events into one Change. A removal anywhere
// in the burst wins.
type changeThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending *Change
	delay   time.Duration
}

func newChangeThrottle(delay time.Duration) *changeThrottle {
	return &changeThrottle{delay: delay}
}

func (t *changeThrottle) Enqueue(c Change, send func(Change)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil {
		t.pending = &Change{}
	}
	t.pending.Removed = t.pending.Removed || c.Removed
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() { t.flush(send) })
	}
}

func (t *changeThrottle) flush(send func(Change)) {
	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.timer = nil
	t.mu.Unlock()
	if pending != nil {
		send(*pending)
	}
}

func (t *changeThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
