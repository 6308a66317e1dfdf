package panel

import "time"

const (
	DefaultQuietWindow     = 2 * time.Second
	DefaultFilePickerGrace = 300 * time.Millisecond
)

type GuardState string

const (
	GuardIdle        GuardState = "idle"
	GuardInteracting GuardState = "interacting"
	GuardFilePicker  GuardState = "file_picker"
)

// Guard decides whether an external refresh may re-render now or must wait until the
// user goes quiet. It holds no timers; callers pass the current time and poll
// Deadline to know when to call Advance again.
type Guard struct {
	quiet time.Duration
	grace time.Duration

	quietUntil    time.Time
	filePicker    bool
	pickerCloseAt time.Time
	pending       bool
}

type GuardOpts struct {
	// Quiet is how long after the last focus/key/pointer event the user still counts
	// as interacting.
	Quiet time.Duration
	// Grace is how long after the window regains focus an open file picker is assumed
	// cancelled.
	Grace time.Duration
}

func NewGuard(opts GuardOpts) *Guard {
	quiet := opts.Quiet
	if quiet <= 0 {
		quiet = DefaultQuietWindow
	}
	grace := opts.Grace
	if grace <= 0 {
		grace = DefaultFilePickerGrace
	}
	return &Guard{quiet: quiet, grace: grace}
}

// Touch records focus, key or pointer activity and re-arms the quiet window.
func (g *Guard) Touch(now time.Time) {
	g.quietUntil = now.Add(g.quiet)
}

func (g *Guard) OpenFilePicker() {
	g.filePicker = true
	g.pickerCloseAt = time.Time{}
}

// FilePickerClosed clears the picker flag after an explicit selection.
func (g *Guard) FilePickerClosed() {
	g.filePicker = false
	g.pickerCloseAt = time.Time{}
}

// WindowFocused arms the grace window that treats an open picker as cancelled. Pickers
// report no cancel event, so this is a best-effort guess.
func (g *Guard) WindowFocused(now time.Time) {
	if g.filePicker && g.pickerCloseAt.IsZero() {
		g.pickerCloseAt = now.Add(g.grace)
	}
}

func (g *Guard) expire(now time.Time) {
	if !g.quietUntil.IsZero() && !now.Before(g.quietUntil) {
		g.quietUntil = time.Time{}
	}
	if g.filePicker && !g.pickerCloseAt.IsZero() && !now.Before(g.pickerCloseAt) {
		g.filePicker = false
		g.pickerCloseAt = time.Time{}
	}
}

func (g *Guard) State(now time.Time) GuardState {
	g.expire(now)
	switch {
	case g.filePicker:
		return GuardFilePicker
	case !g.quietUntil.IsZero():
		return GuardInteracting
	default:
		return GuardIdle
	}
}

// Blocking reports whether refreshes must be deferred at now.
func (g *Guard) Blocking(now time.Time) bool {
	return g.State(now) != GuardIdle
}

// Offer reports whether a refresh arriving at now may reconcile immediately. When it
// may not, the refresh is remembered as pending.
func (g *Guard) Offer(now time.Time) bool {
	if g.Blocking(now) {
		g.pending = true
		return false
	}
	return true
}

// Advance reports true exactly once per quiet period in which refreshes were
// deferred, as soon as the guard is idle again.
func (g *Guard) Advance(now time.Time) bool {
	if g.Blocking(now) || !g.pending {
		return false
	}
	g.pending = false
	return true
}

// Deadline is the next instant at which the guard state may change on its own.
func (g *Guard) Deadline() (time.Time, bool) {
	if g.filePicker {
		if g.pickerCloseAt.IsZero() {
			return time.Time{}, false
		}
		// Both must clear before the guard is idle.
		if g.pickerCloseAt.After(g.quietUntil) {
			return g.pickerCloseAt, true
		}
	}
	return g.quietUntil, !g.quietUntil.IsZero()
}

func (g *Guard) Pending() bool { return g.pending }

// Clear drops a pending refresh. User actions reconcile synchronously, which makes any
// deferred refresh redundant.
func (g *Guard) Clear() { g.pending = false }
