package panel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"school-schedule/internal/model"
	"school-schedule/internal/mutate"
)

const (
	DefaultSettleDelay = 300 * time.Millisecond
	DefaultFlashTTL    = 5 * time.Second
)

// Dispatcher applies one command on the host. A successful return does not imply the
// refreshed snapshot has been delivered yet.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd model.Command) error
}

type Options struct {
	QuietWindow     time.Duration
	FilePickerGrace time.Duration
	// SettleDelay is how long to wait for the host's refresh after a command before
	// releasing the next queued one anyway.
	SettleDelay time.Duration
	FlashTTL    time.Duration
	Now         func() time.Time
}

type FlashKind string

const (
	FlashInfo  FlashKind = "info"
	FlashError FlashKind = "error"
)

// Flash is a transient message that dismisses itself at Until.
type Flash struct {
	Kind  FlashKind
	Text  string
	Until time.Time
}

// Confirm is a destructive command waiting for a yes/no answer.
type Confirm struct {
	Prompt  string
	Command model.Command
}

// intent produces a command from the working snapshot at release time. ok=false means
// the intent became a no-op and is skipped.
type intent func(snap model.Snapshot) (cmd model.Command, ok bool)

func constant(cmd model.Command) intent {
	return func(model.Snapshot) (model.Command, bool) { return cmd, true }
}

// Controller owns the panel's selection, interaction guard, latest snapshot and
// outbound command queue. It is driven from a single event loop and is not safe for
// concurrent use.
type Controller struct {
	opts  Options
	guard *Guard

	sel  Selection
	snap model.Snapshot
	have bool

	unavailable error

	queue    []intent
	inflight bool
	// sent holds released commands not yet known to be in snap. Later intents resolve
	// against snap with these replayed on top.
	sent       []model.Command
	refreshDue bool
	settleAt   time.Time

	flash   *Flash
	confirm *Confirm

	view    View
	renders int
}

func NewController(opts Options) *Controller {
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.FlashTTL <= 0 {
		opts.FlashTTL = DefaultFlashTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Controller{
		opts:  opts,
		guard: NewGuard(GuardOpts{Quiet: opts.QuietWindow, Grace: opts.FilePickerGrace}),
		sel:   NewSelection(),
	}
	c.reconcile()
	return c
}

func (c *Controller) now() time.Time { return c.opts.Now() }

// reconcile resolves the selection against the latest snapshot and rebuilds the
// current tab body.
func (c *Controller) reconcile() {
	if c.have {
		c.sel = c.sel.Resolve(c.snap)
	}
	v := Render(c.snap, c.have && c.unavailable == nil, c.sel, c.now())
	if c.unavailable != nil {
		v.Loading = false
		v.Missing = c.unavailable.Error()
	}
	c.view = v
	c.renders++
}

// userAction finishes a user-initiated transition: it always reconciles and makes any
// deferred refresh redundant.
func (c *Controller) userAction() {
	c.guard.Clear()
	c.reconcile()
}

// View returns the last reconciled body with live chrome.
func (c *Controller) View() View {
	v := c.view
	if c.flash != nil && c.now().Before(c.flash.Until) {
		f := *c.flash
		v.Flash = &f
	}
	if c.confirm != nil {
		cf := *c.confirm
		v.Confirm = &cf
	}
	v.Busy = c.Busy()
	return v
}

func (c *Controller) Selection() Selection { return c.sel }

// Snapshot returns the latest snapshot received, which may be newer than what View
// shows.
func (c *Controller) Snapshot() (model.Snapshot, bool) { return c.snap, c.have }

// Renders counts reconciliations since construction.
func (c *Controller) Renders() int { return c.renders }

func (c *Controller) Busy() bool { return c.inflight || len(c.queue) > 0 }

func (c *Controller) Guard() GuardState { return c.guard.State(c.now()) }

// ApplySnapshot records a host snapshot. It reconciles at once when the user is idle
// or when the snapshot is the refresh for the core's own command; otherwise it is
// deferred until the guard goes idle. Reports whether it reconciled.
func (c *Controller) ApplySnapshot(snap model.Snapshot) bool {
	snap.Normalize()
	c.snap = snap
	c.have = true
	c.unavailable = nil
	if !c.inflight {
		c.sent = nil
	}

	if c.refreshDue {
		c.refreshDue = false
		c.settleAt = time.Time{}
		c.userAction()
		return true
	}
	if c.guard.Offer(c.now()) {
		c.reconcile()
		return true
	}
	return false
}

// SourceUnavailable switches every tab to a persistent error view. The next
// ApplySnapshot clears it.
func (c *Controller) SourceUnavailable(err error) {
	if err == nil {
		err = ErrUnavailable
	}
	c.unavailable = err
	c.sel.Edit = nil
	c.confirm = nil
	c.queue = nil
	c.sent = nil
	c.guard.Clear()
	c.reconcile()
}

// Tick advances time-driven state: flash expiry, settle delay and deferred
// reconciliation. Reports whether the view changed.
func (c *Controller) Tick() bool {
	now := c.now()
	changed := false
	if c.flash != nil && !now.Before(c.flash.Until) {
		c.flash = nil
		changed = true
	}
	if c.refreshDue && !c.inflight && !c.settleAt.IsZero() && !now.Before(c.settleAt) {
		c.refreshDue = false
		c.settleAt = time.Time{}
		c.userAction()
		return true
	}
	if c.guard.Advance(now) {
		c.reconcile()
		return true
	}
	return changed
}

// Deadline is the next instant at which Tick may have work to do.
func (c *Controller) Deadline() (time.Time, bool) {
	var next time.Time
	consider := func(t time.Time) {
		if t.IsZero() {
			return
		}
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	if c.flash != nil {
		consider(c.flash.Until)
	}
	if c.refreshDue && !c.inflight {
		consider(c.settleAt)
	}
	if c.guard.Pending() {
		if d, ok := c.guard.Deadline(); ok {
			consider(d)
		}
	}
	return next, !next.IsZero()
}

// NextCommand releases the next queued command. At most one command is in flight, and
// the next is held until the previous one's refresh arrived or the settle delay
// passed.
func (c *Controller) NextCommand() (model.Command, bool) {
	if c.inflight {
		return model.Command{}, false
	}
	if c.refreshDue {
		if c.settleAt.IsZero() || c.now().Before(c.settleAt) {
			return model.Command{}, false
		}
		c.refreshDue = false
		c.settleAt = time.Time{}
	}
	if len(c.queue) == 0 {
		return model.Command{}, false
	}
	work := c.working()
	for len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]
		cmd, ok := next(work)
		if !ok {
			continue
		}
		c.inflight = true
		c.refreshDue = true
		c.sent = append(c.sent, cmd)
		return cmd, true
	}
	return model.Command{}, false
}

// working is snap with every sent command replayed on top. A command that does not
// apply (already reflected, or overtaken by another writer) is skipped.
func (c *Controller) working() model.Snapshot {
	if len(c.sent) == 0 {
		return c.snap
	}
	work := c.snap.Clone()
	for _, cmd := range c.sent {
		next := work.Clone()
		if _, err := mutate.Apply(&next, cmd); err == nil {
			work = next
		}
	}
	return work
}

// CommandDone reports the outcome of the in-flight command. Failures surface as a
// flash; optimistic local state is not rolled back.
func (c *Controller) CommandDone(err error) {
	if !c.inflight {
		return
	}
	c.inflight = false
	if c.refreshDue {
		c.settleAt = c.now().Add(c.opts.SettleDelay)
	}
	if err != nil {
		if n := len(c.sent); n > 0 {
			c.sent = c.sent[:n-1]
		}
		c.setFlash(FlashError, err.Error())
	}
}

// Touch records focus, key or pointer activity on the panel.
func (c *Controller) Touch() { c.guard.Touch(c.now()) }

func (c *Controller) OpenFilePicker() { c.guard.OpenFilePicker() }

func (c *Controller) FilePickerClosed() { c.guard.FilePickerClosed() }

func (c *Controller) WindowFocused() { c.guard.WindowFocused(c.now()) }

// Notify shows a transient message, e.g. a surface-side failure such as an image
// upload error.
func (c *Controller) Notify(kind FlashKind, text string) {
	c.setFlash(kind, text)
}

func (c *Controller) setFlash(kind FlashKind, text string) {
	c.flash = &Flash{Kind: kind, Text: text, Until: c.now().Add(c.opts.FlashTTL)}
}

func (c *Controller) reject(err *ValidationError) error {
	c.setFlash(FlashError, err.Message)
	return err
}

func (c *Controller) editable() error {
	if c.unavailable != nil || !c.have {
		return ErrUnavailable
	}
	return nil
}

func (c *Controller) enqueue(in intent) {
	c.queue = append(c.queue, in)
}

// Navigation.

func (c *Controller) SelectTab(t Tab) {
	c.sel = c.sel.WithTab(t)
	c.userAction()
}

func (c *Controller) SelectChild(name string) {
	c.sel = c.sel.WithChild(name)
	c.userAction()
}

func (c *Controller) SelectDay(d model.Weekday) {
	c.sel = c.sel.WithDay(d)
	c.userAction()
}

// Children.

func (c *Controller) AddChild(name string) error {
	if err := c.editable(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return c.reject(invalid("name", "please enter a name"))
	}
	if name == SharedPool {
		return c.reject(invalid("name", fmt.Sprintf("%q is reserved for the shared library", SharedPool)))
	}
	c.enqueue(constant(model.AddChild(name)))
	c.userAction()
	return nil
}

func (c *Controller) RequestRemoveChild(name string) error {
	if err := c.editable(); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return c.reject(invalid("name", "select a child first"))
	}
	c.confirm = &Confirm{
		Prompt:  fmt.Sprintf("Remove %s and all their items and schedules?", name),
		Command: model.RemoveChild(name),
	}
	c.userAction()
	return nil
}

// Items.

// itemOwner is the pool item management acts on: the selected child, or the shared
// library.
func (c *Controller) itemOwner() string {
	if c.sel.Child != SharedPool && c.snap.HasChild(c.sel.Child) {
		return c.sel.Child
	}
	return SharedPool
}

// AddItem adds an item to the selected pool. The ID is generated when the command is
// released so that queued adds see each other's IDs.
func (c *Controller) AddItem(name, image string) error {
	if err := c.editable(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return c.reject(invalid("item_name", "please enter an item name"))
	}
	image = strings.TrimSpace(image)
	owner := c.itemOwner()
	c.enqueue(func(snap model.Snapshot) (model.Command, bool) {
		if owner != SharedPool && !snap.HasChild(owner) {
			return model.Command{}, false
		}
		id := GenerateItemID(name, ExistingIDs(snap, owner))
		if owner == SharedPool {
			return model.AddLibraryItem(id, name, image), true
		}
		return model.AddItem(owner, id, name, image), true
	})
	c.userAction()
	return nil
}

func (c *Controller) RequestRemoveItem(itemID string) error {
	if err := c.editable(); err != nil {
		return err
	}
	if strings.TrimSpace(itemID) == "" {
		return c.reject(invalid("item_id", "select an item first"))
	}
	owner := c.itemOwner()
	label := itemID
	for _, it := range PoolItems(c.snap, owner) {
		if it.ID == itemID {
			label = it.Name
			break
		}
	}
	if owner == SharedPool {
		c.confirm = &Confirm{
			Prompt:  fmt.Sprintf("Remove %s from the shared library?", label),
			Command: model.RemoveLibraryItem(itemID),
		}
	} else {
		c.confirm = &Confirm{
			Prompt:  fmt.Sprintf("Remove %s from %s?", label, owner),
			Command: model.RemoveItem(owner, itemID),
		}
	}
	c.userAction()
	return nil
}

// Weekly schedule.

func (c *Controller) scheduleChild() (string, error) {
	if err := c.editable(); err != nil {
		return "", err
	}
	if c.sel.Child == "" || c.sel.Child == SharedPool || !c.snap.HasChild(c.sel.Child) {
		return "", c.reject(invalid("child", "select a child first"))
	}
	return c.sel.Child, nil
}

// ScheduleItem puts itemID on the selected child's list for the selected day. The new
// list is computed from the working snapshot when the command is released, and stale
// IDs already on the list are dropped from it.
func (c *Controller) ScheduleItem(itemID string) error {
	return c.toggle(itemID, appendUnique)
}

func (c *Controller) UnscheduleItem(itemID string) error {
	return c.toggle(itemID, removeID)
}

func (c *Controller) toggle(itemID string, apply func([]string, string) []string) error {
	child, err := c.scheduleChild()
	if err != nil {
		return err
	}
	if strings.TrimSpace(itemID) == "" {
		return c.reject(invalid("item_id", "select an item first"))
	}
	day := c.sel.Day
	c.enqueue(func(snap model.Snapshot) (model.Command, bool) {
		ch, ok := snap.FindChild(child)
		if !ok {
			return model.Command{}, false
		}
		cur := ch.WeeklySchedule[day]
		next := liveIDs(snap, child, apply(cur, itemID))
		if sameIDs(liveIDs(snap, child, cur), next) {
			return model.Command{}, false
		}
		return model.SetWeeklySchedule(child, day, next), true
	})
	c.userAction()
	return nil
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Exceptions.

func (c *Controller) StartException(date string) error {
	child, err := c.scheduleChild()
	if err != nil {
		return err
	}
	e, err := StartException(c.snap, child, date)
	if err != nil {
		if ve, ok := err.(*ValidationError); ok {
			return c.reject(ve)
		}
		return err
	}
	c.sel = c.sel.WithEdit(e)
	c.userAction()
	return nil
}

func (c *Controller) openEdit() (*ExceptionEdit, error) {
	if err := c.editable(); err != nil {
		return nil, err
	}
	if c.sel.Edit == nil {
		return nil, c.reject(invalid("date", "no exception is being edited"))
	}
	return c.sel.Edit, nil
}

func (c *Controller) ChangeExceptionDate(date string) error {
	e, err := c.openEdit()
	if err != nil {
		return err
	}
	next, err := e.ChangeDate(c.snap, date)
	if err != nil {
		if ve, ok := err.(*ValidationError); ok {
			return c.reject(ve)
		}
		return err
	}
	c.sel = c.sel.WithEdit(next)
	c.userAction()
	return nil
}

func (c *Controller) AddExceptionItem(itemID string) error {
	e, err := c.openEdit()
	if err != nil {
		return err
	}
	c.sel = c.sel.WithEdit(e.Add(itemID))
	c.userAction()
	return nil
}

func (c *Controller) RemoveExceptionItem(itemID string) error {
	e, err := c.openEdit()
	if err != nil {
		return err
	}
	c.sel = c.sel.WithEdit(e.Remove(itemID))
	c.userAction()
	return nil
}

// SaveException queues add_exception for the working copy and closes the edit
// without waiting for the host.
func (c *Controller) SaveException() error {
	e, err := c.openEdit()
	if err != nil {
		return err
	}
	edit := *e
	c.enqueue(func(snap model.Snapshot) (model.Command, bool) {
		if !snap.HasChild(edit.Child) {
			return model.Command{}, false
		}
		return edit.Command(snap), true
	})
	c.sel = c.sel.WithEdit(nil)
	c.userAction()
	return nil
}

// CancelException discards the working copy. No command is issued.
func (c *Controller) CancelException() {
	c.sel = c.sel.WithEdit(nil)
	c.userAction()
}

func (c *Controller) RequestRemoveException(date string) error {
	child, err := c.scheduleChild()
	if err != nil {
		return err
	}
	if _, err := model.ParseDate(date); err != nil {
		return c.reject(invalid("date", err.Error()))
	}
	c.confirm = &Confirm{
		Prompt:  fmt.Sprintf("Remove the exception for %s on %s?", child, date),
		Command: model.RemoveException(child, date),
	}
	c.userAction()
	return nil
}

// Confirmation.

func (c *Controller) Pending() (Confirm, bool) {
	if c.confirm == nil {
		return Confirm{}, false
	}
	return *c.confirm, true
}

// Confirm queues the pending destructive command.
func (c *Controller) Confirm() {
	if c.confirm == nil {
		return
	}
	cmd := c.confirm.Command
	c.confirm = nil
	if c.editable() == nil {
		c.enqueue(constant(cmd))
	}
	c.userAction()
}

// Decline drops the pending confirmation. Nothing else changes.
func (c *Controller) Decline() {
	if c.confirm == nil {
		return
	}
	c.confirm = nil
	c.userAction()
}
