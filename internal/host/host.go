package host

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"

	"school-schedule/internal/model"
	"school-schedule/internal/mutate"
	"school-schedule/internal/store"
)

// Update is one push to subscribers: either a fresh snapshot or the reason none is
// available.
type Update struct {
	Snapshot model.Snapshot
	Err      error
}

// Host applies commands to the store and pushes snapshots to subscribers. It is safe
// for concurrent use.
type Host struct {
	store store.Store
	log   *slog.Logger

	// order is held from a store read or write until its result is published, so
	// subscribers never see an older snapshot after a newer one.
	order sync.Mutex

	mu      sync.Mutex
	last    model.Snapshot
	lastErr error
	have    bool
	subs    map[chan Update]struct{}
}

func New(st store.Store, log *slog.Logger) *Host {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Host{store: st, log: log, subs: map[chan Update]struct{}{}}
}

func (h *Host) Store() store.Store { return h.store }

// Dispatch applies one command and publishes the resulting snapshot.
func (h *Host) Dispatch(ctx context.Context, cmd model.Command) error {
	_, _, err := h.Apply(ctx, cmd)
	return err
}

// Apply is Dispatch for callers that want the new state and a summary back.
func (h *Host) Apply(ctx context.Context, cmd model.Command) (model.Snapshot, mutate.Result, error) {
	if strings.TrimSpace(cmd.ID) == "" {
		cmd.ID = uuid.NewString()
	}
	h.order.Lock()
	defer h.order.Unlock()
	snap, res, err := h.store.Apply(ctx, cmd)
	if err != nil {
		h.log.Warn("command_rejected", "op", cmd.Op, "child", cmd.Subject(), "id", cmd.ID, "err", err)
		return model.Snapshot{}, mutate.Result{}, err
	}
	h.log.Info("command_applied", "op", cmd.Op, "child", cmd.Subject(), "id", cmd.ID, "summary", res.Summary)
	h.publish(Update{Snapshot: snap})
	return snap, res, nil
}

// Snapshot loads the current state, creating an empty store on first use.
func (h *Host) Snapshot(ctx context.Context) (model.Snapshot, error) {
	return h.store.Load(ctx)
}

// Existing loads the current state without creating the store. It returns
// store.ErrMissing when there is none.
func (h *Host) Existing(ctx context.Context) (model.Snapshot, error) {
	return h.store.LoadExisting(ctx)
}

// Subscribe returns a channel that always holds the latest update. The current state
// is delivered first when one is known.
func (h *Host) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	if h.have || h.lastErr != nil {
		ch <- Update{Snapshot: h.last, Err: h.lastErr}
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Refresh reloads the store and publishes the result. A missing database is published
// as an error update.
func (h *Host) Refresh(ctx context.Context) {
	h.order.Lock()
	defer h.order.Unlock()
	snap, err := h.store.LoadExisting(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrMissing) {
			h.log.Error("snapshot_load_failed", "err", err)
		}
		h.publish(Update{Err: err})
		return
	}
	h.publish(Update{Snapshot: snap})
}

// Run watches the store for changes made by any process and publishes them until ctx
// is cancelled.
func (h *Host) Run(ctx context.Context) error {
	changes, err := h.store.Watch(ctx)
	if err != nil {
		return err
	}
	h.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("host: store watch stopped")
			}
			if c.Removed {
				h.log.Warn("store_removed", "dir", h.store.Dir)
			}
			h.Refresh(ctx)
		}
	}
}

func (h *Host) publish(u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if u.Err == nil {
		if h.have && h.lastErr == nil && reflect.DeepEqual(h.last, u.Snapshot) {
			return
		}
		h.last, h.have, h.lastErr = u.Snapshot, true, nil
	} else {
		if h.lastErr != nil && h.lastErr.Error() == u.Err.Error() {
			return
		}
		h.lastErr = u.Err
	}

	for ch := range h.subs {
		// Replace a stale pending update so slow readers only see the newest one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- u:
		default:
		}
	}
}
