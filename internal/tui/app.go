package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"

	"school-schedule/internal/host"
	"school-schedule/internal/model"
	"school-schedule/internal/panel"
)

// imageStore turns what the user typed into a stored image reference and tells the
// renderer whether a reference still resolves.
type imageStore interface {
	Import(ref string) (string, error)
	Resolves(ref string) bool
}

type updateMsg struct {
	u  host.Update
	ok bool
}

type commandDoneMsg struct{ err error }

type tickMsg struct{ seq int }

type appModel struct {
	ctx     context.Context
	ctrl    *panel.Controller
	disp    panel.Dispatcher
	updates <-chan host.Update
	images  imageStore
	now     func() time.Time
	tick    func(d time.Duration, msg tea.Msg) tea.Cmd

	width  int
	height int

	// cursor indexes the focused list; pane picks the left (0) or right (1) list on
	// split views.
	cursor int
	pane   int

	modal        *inputModal
	confirmFocus confirmFocus

	// browser is the image file picker opened from the add-item modal; browseDir is
	// where it starts next time.
	browser   *filepicker.Model
	browseDir string

	// tickSeq drops ticks scheduled before the latest deadline.
	tickSeq int
}

func newAppModel(ctx context.Context, ctrl *panel.Controller, disp panel.Dispatcher, updates <-chan host.Update, img imageStore, now func() time.Time) appModel {
	if now == nil {
		now = time.Now
	}
	return appModel{
		ctx:     ctx,
		ctrl:    ctrl,
		disp:    disp,
		updates: updates,
		images:  img,
		now:     now,
		tick: func(d time.Duration, msg tea.Msg) tea.Cmd {
			return tea.Tick(d, func(time.Time) tea.Msg { return msg })
		},
	}
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.waitUpdate(), m.pump())
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.FocusMsg:
		m.ctrl.WindowFocused()

	case updateMsg:
		switch {
		case !msg.ok:
			m.updates = nil
		case msg.u.Err != nil:
			m.ctrl.SourceUnavailable(msg.u.Err)
		default:
			m.ctrl.ApplySnapshot(msg.u.Snapshot)
		}
		cmd = m.waitUpdate()

	case commandDoneMsg:
		m.ctrl.CommandDone(msg.err)

	case tickMsg:
		if msg.seq != m.tickSeq {
			return m, nil
		}
		m.ctrl.Tick()

	case tea.KeyMsg:
		m, cmd = m.handleKey(msg)

	default:
		if m.browser != nil {
			m, cmd = m.updateBrowser(msg)
		}
	}

	m.clampCursor()
	return m, tea.Batch(cmd, m.pump(), m.nextTick())
}

// waitUpdate blocks on the host feed for the next snapshot.
func (m appModel) waitUpdate() tea.Cmd {
	ch := m.updates
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-ch
		return updateMsg{u: u, ok: ok}
	}
}

// pump releases the next queued command, if the controller allows one now.
func (m appModel) pump() tea.Cmd {
	cmd, ok := m.ctrl.NextCommand()
	if !ok {
		return nil
	}
	ctx, disp := m.ctx, m.disp
	return func() tea.Msg {
		return commandDoneMsg{err: disp.Dispatch(ctx, cmd)}
	}
}

func (m *appModel) nextTick() tea.Cmd {
	at, ok := m.ctrl.Deadline()
	if !ok {
		return nil
	}
	wait := at.Sub(m.now())
	if wait < 5*time.Millisecond {
		wait = 5 * time.Millisecond
	}
	m.tickSeq++
	return m.tick(wait, tickMsg{seq: m.tickSeq})
}

// rowCount is the length of the list the cursor moves in.
func (m appModel) rowCount() int {
	v := m.ctrl.View()
	switch {
	case v.ChildrenBody != nil:
		return len(v.ChildrenBody.Rows)
	case v.ItemsBody != nil:
		return len(v.ItemsBody.Items)
	case v.ScheduleBody != nil:
		if m.pane == 0 {
			return len(v.ScheduleBody.Scheduled)
		}
		return len(v.ScheduleBody.Available)
	case v.ExceptionsBody != nil:
		if e := v.ExceptionsBody.Edit; e != nil {
			if m.pane == 0 {
				return len(e.Selected)
			}
			return len(e.Available)
		}
		return len(v.ExceptionsBody.Upcoming)
	}
	return 0
}

func (m *appModel) clampCursor() {
	n := m.rowCount()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// splitView reports whether the current tab shows two lists side by side.
func (m appModel) splitView() bool {
	v := m.ctrl.View()
	return v.ScheduleBody != nil || (v.ExceptionsBody != nil && v.ExceptionsBody.Edit != nil)
}

func (m appModel) today() string {
	return model.FormatDate(m.now())
}
