package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"school-schedule/internal/model"
	"school-schedule/internal/panel"
)

type keyMap struct {
	Quit      key.Binding
	Tab1      key.Binding
	Tab2      key.Binding
	Tab3      key.Binding
	Tab4      key.Binding
	PrevChild key.Binding
	NextChild key.Binding
	PrevDay   key.Binding
	NextDay   key.Binding
	Up        key.Binding
	Down      key.Binding
	Pane      key.Binding
	Activate  key.Binding
	Add       key.Binding
	AddImage  key.Binding
	Remove    key.Binding
	Exception key.Binding
	Date      key.Binding
	Save      key.Binding
	Cancel    key.Binding
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Tab1:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1-4", "tabs")),
	Tab2:      key.NewBinding(key.WithKeys("2")),
	Tab3:      key.NewBinding(key.WithKeys("3")),
	Tab4:      key.NewBinding(key.WithKeys("4")),
	PrevChild: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "child")),
	NextChild: key.NewBinding(key.WithKeys("right", "l")),
	PrevDay:   key.NewBinding(key.WithKeys("["), key.WithHelp("[/]", "day")),
	NextDay:   key.NewBinding(key.WithKeys("]")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "move")),
	Down:      key.NewBinding(key.WithKeys("down", "j")),
	Pane:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "pane")),
	Activate:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "toggle")),
	Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	AddImage:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "add with image")),
	Remove:    key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
	Exception: key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "exception")),
	Date:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "date")),
	Save:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
	Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	m.ctrl.Touch()

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.browser != nil {
		return m.updateBrowser(msg)
	}
	if m.modal != nil {
		return m.updateModal(msg)
	}
	if _, ok := m.ctrl.Pending(); ok {
		return m.updateConfirm(msg), nil
	}

	v := m.ctrl.View()
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Tab1):
		m.selectTab(panel.TabChildren)
	case key.Matches(msg, keys.Tab2):
		m.selectTab(panel.TabItems)
	case key.Matches(msg, keys.Tab3):
		m.selectTab(panel.TabSchedule)
	case key.Matches(msg, keys.Tab4):
		m.selectTab(panel.TabExceptions)
	case key.Matches(msg, keys.PrevChild):
		m.cycleChild(v, -1)
	case key.Matches(msg, keys.NextChild):
		m.cycleChild(v, 1)
	case key.Matches(msg, keys.PrevDay):
		m.cycleDay(v, -1)
	case key.Matches(msg, keys.NextDay):
		m.cycleDay(v, 1)
	case key.Matches(msg, keys.Up):
		m.cursor--
	case key.Matches(msg, keys.Down):
		m.cursor++
	case key.Matches(msg, keys.Pane):
		if m.splitView() {
			m.pane = 1 - m.pane
			m.cursor = 0
		}
	case key.Matches(msg, keys.Activate):
		m.activate(v)
	case key.Matches(msg, keys.Add):
		m.add(v, false)
	case key.Matches(msg, keys.AddImage):
		m.add(v, true)
	case key.Matches(msg, keys.Remove):
		m.remove(v)
	case key.Matches(msg, keys.Exception):
		if v.ExceptionsBody != nil && v.ExceptionsBody.Edit == nil {
			m.openModal(inputStartException, m.today())
		}
	case key.Matches(msg, keys.Date):
		if e := editBody(v); e != nil {
			m.openModal(inputChangeDate, e.Date)
		}
	case key.Matches(msg, keys.Save):
		if editBody(v) != nil {
			m.report(m.ctrl.SaveException())
			m.pane, m.cursor = 0, 0
		}
	case key.Matches(msg, keys.Cancel):
		if editBody(v) != nil {
			m.ctrl.CancelException()
			m.pane, m.cursor = 0, 0
		}
	}
	return m, nil
}

func editBody(v panel.View) *panel.EditBody {
	if v.ExceptionsBody == nil {
		return nil
	}
	return v.ExceptionsBody.Edit
}

// report surfaces errors the controller does not flash itself.
func (m appModel) report(err error) {
	if err == nil || panel.IsValidation(err) {
		return
	}
	if errors.Is(err, panel.ErrUnavailable) {
		m.ctrl.Notify(panel.FlashError, "Schedule data is unavailable")
		return
	}
	m.ctrl.Notify(panel.FlashError, err.Error())
}

func (m *appModel) selectTab(t panel.Tab) {
	m.ctrl.SelectTab(t)
	m.pane, m.cursor = 0, 0
}

func (m *appModel) cycleChild(v panel.View, delta int) {
	names := v.Children
	if v.ItemsBody != nil {
		names = v.ItemsBody.Owners
	}
	if len(names) == 0 {
		return
	}
	i := indexOf(names, v.Child)
	if i < 0 {
		i = 0
	} else {
		i = (i + delta + len(names)) % len(names)
	}
	m.ctrl.SelectChild(names[i])
	m.pane, m.cursor = 0, 0
}

func (m *appModel) cycleDay(v panel.View, delta int) {
	if v.ScheduleBody == nil {
		return
	}
	days := make([]string, len(model.Weekdays))
	for i, d := range model.Weekdays {
		days[i] = string(d)
	}
	i := indexOf(days, string(v.Day))
	if i < 0 {
		i = 0
	}
	m.ctrl.SelectDay(model.Weekdays[(i+delta+len(days))%len(days)])
	m.cursor = 0
}

func indexOf(list []string, s string) int {
	for i, x := range list {
		if x == s {
			return i
		}
	}
	return -1
}

func itemAt(items []model.Item, i int) (model.Item, bool) {
	if i < 0 || i >= len(items) {
		return model.Item{}, false
	}
	return items[i], true
}

func (m *appModel) activate(v panel.View) {
	switch {
	case v.ChildrenBody != nil:
		if m.cursor < len(v.ChildrenBody.Rows) {
			m.ctrl.SelectChild(v.ChildrenBody.Rows[m.cursor].Name)
			m.selectTab(panel.TabSchedule)
		}
	case v.ScheduleBody != nil:
		if m.pane == 0 {
			if it, ok := itemAt(v.ScheduleBody.Scheduled, m.cursor); ok {
				m.report(m.ctrl.UnscheduleItem(it.ID))
			}
		} else if it, ok := itemAt(v.ScheduleBody.Available, m.cursor); ok {
			m.report(m.ctrl.ScheduleItem(it.ID))
		}
	case v.ExceptionsBody != nil:
		e := v.ExceptionsBody.Edit
		if e == nil {
			if m.cursor < len(v.ExceptionsBody.Upcoming) {
				m.report(m.ctrl.StartException(v.ExceptionsBody.Upcoming[m.cursor].Date))
				m.pane, m.cursor = 0, 0
			}
			return
		}
		if m.pane == 0 {
			if it, ok := itemAt(e.Selected, m.cursor); ok {
				m.report(m.ctrl.RemoveExceptionItem(it.ID))
			}
		} else if it, ok := itemAt(e.Available, m.cursor); ok {
			m.report(m.ctrl.AddExceptionItem(it.ID))
		}
	}
}

func (m *appModel) add(v panel.View, withImage bool) {
	switch {
	case v.ChildrenBody != nil && !withImage:
		m.openModal(inputAddChild, "")
	case v.ItemsBody != nil:
		m.openModal(inputAddItem, "")
		if withImage {
			m.modal.setFocus(1)
			m.ctrl.OpenFilePicker()
		}
	case v.ExceptionsBody != nil && v.ExceptionsBody.Edit == nil && !withImage:
		m.openModal(inputStartException, m.today())
	}
}

func (m *appModel) remove(v panel.View) {
	switch {
	case v.ChildrenBody != nil:
		if m.cursor < len(v.ChildrenBody.Rows) {
			m.report(m.ctrl.RequestRemoveChild(v.ChildrenBody.Rows[m.cursor].Name))
		}
	case v.ItemsBody != nil:
		if it, ok := itemAt(v.ItemsBody.Items, m.cursor); ok {
			m.report(m.ctrl.RequestRemoveItem(it.ID))
		}
	case v.ExceptionsBody != nil && v.ExceptionsBody.Edit == nil:
		if m.cursor < len(v.ExceptionsBody.Upcoming) {
			m.report(m.ctrl.RequestRemoveException(v.ExceptionsBody.Upcoming[m.cursor].Date))
		}
	default:
		return
	}
	m.confirmFocus = confirmFocusConfirm
}

func (m *appModel) openModal(p inputPurpose, value string) {
	m.modal = newInputModal(p, value)
}

func (m *appModel) closeModal() {
	if m.modal != nil && m.modal.imageFocused() {
		m.ctrl.FilePickerClosed()
	}
	m.modal = nil
	m.browser = nil
}

func (m appModel) updateConfirm(msg tea.KeyMsg) appModel {
	switch msg.String() {
	case "y", "Y":
		m.ctrl.Confirm()
	case "n", "N", "esc", "q":
		m.ctrl.Decline()
	case "tab", "shift+tab", "left", "right", "h", "l":
		if m.confirmFocus == confirmFocusConfirm {
			m.confirmFocus = confirmFocusCancel
		} else {
			m.confirmFocus = confirmFocusConfirm
		}
	case "enter", " ":
		if m.confirmFocus == confirmFocusConfirm {
			m.ctrl.Confirm()
		} else {
			m.ctrl.Decline()
		}
	}
	return m
}

func (m appModel) updateModal(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeModal()
		return m, nil
	case "tab", "shift+tab", "down", "up":
		if len(m.modal.fields) > 1 {
			wasImage := m.modal.imageFocused()
			step := 1
			if msg.String() == "shift+tab" || msg.String() == "up" {
				step = -1
			}
			m.modal.setFocus(m.modal.focus + step)
			switch isImage := m.modal.imageFocused(); {
			case isImage && !wasImage:
				m.ctrl.OpenFilePicker()
			case wasImage && !isImage:
				m.ctrl.FilePickerClosed()
			}
		}
		return m, nil
	case "enter":
		m.submitModal()
		return m, nil
	case "ctrl+o":
		if m.modal.imageFocused() {
			return m, m.openBrowser()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.modal.fields[m.modal.focus], cmd = m.modal.fields[m.modal.focus].Update(msg)
	return m, cmd
}

// submitModal applies the form. The modal stays open when the input is rejected so the
// user can correct it.
func (m *appModel) submitModal() {
	md := m.modal
	var err error
	switch md.purpose {
	case inputAddChild:
		err = m.ctrl.AddChild(md.value(0))
	case inputAddItem:
		image := md.value(1)
		if image != "" && m.images != nil {
			image, err = m.images.Import(image)
			if err != nil {
				m.ctrl.Notify(panel.FlashError, "Image upload failed: "+err.Error())
				return
			}
		}
		err = m.ctrl.AddItem(md.value(0), image)
	case inputStartException:
		err = m.ctrl.StartException(md.value(0))
		m.pane, m.cursor = 0, 0
	case inputChangeDate:
		err = m.ctrl.ChangeExceptionDate(md.value(0))
	}
	if err != nil {
		m.report(err)
		return
	}
	m.closeModal()
}
