package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"school-schedule/internal/model"
	"school-schedule/internal/panel"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

func (m appModel) View() string {
	w, h := m.width, m.height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	v := m.ctrl.View()

	header := m.renderTabs(v, w)
	chips := m.renderChips(v)
	footer := m.renderFooter(v, w)

	top := header
	if chips != "" {
		top += "\n" + chips
	}
	bodyH := h - lipgloss.Height(top) - lipgloss.Height(footer) - 1
	if bodyH < 1 {
		bodyH = 1
	}
	body := m.renderBody(v, w, bodyH)
	screen := top + "\n\n" + normalizePane(body, w, bodyH-1) + "\n" + footer

	switch {
	case m.browser != nil:
		return overlay(m.renderBrowser(w), w, h)
	case m.modal != nil:
		return overlay(m.modal.view(w), w, h)
	case v.Confirm != nil:
		return overlay(renderConfirmModal(w, "Please confirm", v.Confirm.Prompt, "Remove", "Cancel", m.confirmFocus), w, h)
	}
	return screen
}

func overlay(box string, w, h int) string {
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "))
}

func (m appModel) renderTabs(v panel.View, width int) string {
	parts := make([]string, 0, len(panel.Tabs)+1)
	for i, t := range panel.Tabs {
		parts = append(parts, styleTab(t == v.Tab).Render(fmt.Sprintf("%d %s", i+1, t.Title())))
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if v.Busy {
		line += styleMuted().Render("  saving…")
	}
	return normalizePane(line, width, 1)
}

// renderChips draws the child (or pool) selector and, on the schedule tab, the day.
func (m appModel) renderChips(v panel.View) string {
	var names []string
	switch {
	case v.ItemsBody != nil:
		names = v.ItemsBody.Owners
	case v.ScheduleBody != nil, v.ExceptionsBody != nil:
		names = v.Children
	default:
		return ""
	}
	var parts []string
	for _, n := range names {
		parts = append(parts, styleChip(n == v.Child).Render(n))
	}
	line := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if v.ScheduleBody != nil {
		line += "\n" + styleMuted().Render("Day: ") + styleHeading().Render(v.Day.Title())
	}
	return line
}

func (m appModel) renderBody(v panel.View, w, h int) string {
	switch {
	case v.Missing != "":
		return styleFlash(true).Render("Schedule data unavailable: "+v.Missing) + "\n\n" +
			styleMuted().Render("Editing is disabled until the data file is back.")
	case v.Loading:
		return styleMuted().Render("Loading…")
	case v.ChildrenBody != nil:
		return m.renderChildren(v.ChildrenBody)
	case v.ItemsBody != nil:
		return m.renderItems(v.ItemsBody)
	case v.ScheduleBody != nil:
		b := v.ScheduleBody
		if b.Child == "" {
			return styleMuted().Render("Add a child first (tab 1).")
		}
		left := m.renderList(fmt.Sprintf("%s on %s", b.Child, b.Day.Title()), b.Scheduled, m.pane == 0, "Nothing scheduled.")
		right := m.renderList("Available", b.Available, m.pane == 1, "No items. Add some on the Items tab.")
		return splitPanes(left, right, w, h)
	case v.ExceptionsBody != nil:
		return m.renderExceptions(v.ExceptionsBody, w, h)
	}
	return ""
}

func (m appModel) renderChildren(b *panel.ChildrenBody) string {
	if len(b.Rows) == 0 {
		return styleMuted().Render("No children yet. Press a to add one.")
	}
	lines := []string{styleHeading().Render("Children")}
	for i, r := range b.Rows {
		text := fmt.Sprintf("%s  %s", r.Name, styleMuted().Render(fmt.Sprintf("%d items, %d exceptions", r.ItemCount, r.Exceptions)))
		lines = append(lines, m.row(i, true, text))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) renderItems(b *panel.ItemsBody) string {
	title := "Items for " + b.Owner
	if b.Owner == panel.SharedPool {
		title = "Shared items"
	}
	return m.renderList(title, b.Items, true, "No items. Press a to add one.")
}

func (m appModel) renderList(title string, items []model.Item, focused bool, empty string) string {
	lines := []string{styleHeading().Render(title)}
	if len(items) == 0 {
		lines = append(lines, styleMuted().Render(empty))
	}
	for i, it := range items {
		lines = append(lines, m.row(i, focused, m.itemLabel(it)))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) itemLabel(it model.Item) string {
	ref := panel.ImageRef(it)
	switch {
	case ref == panel.PlaceholderImage:
		return glyphPlaceholder() + " " + it.Name
	case m.images != nil && !m.images.Resolves(ref):
		return glyphPlaceholder() + " " + it.Name + styleMuted().Render("  (image missing)")
	default:
		return glyphImage() + " " + it.Name
	}
}

func (m appModel) row(i int, focused bool, text string) string {
	selected := focused && i == m.cursor
	prefix := "  "
	if selected {
		prefix = glyphCursor() + " "
	}
	return styleRow(selected).Render(prefix + text)
}

func (m appModel) renderExceptions(b *panel.ExceptionsBody, w, h int) string {
	if b.Child == "" {
		return styleMuted().Render("Add a child first (tab 1).")
	}
	if e := b.Edit; e != nil {
		state := "new"
		if e.Committed {
			state = "saved"
		}
		head := styleHeading().Render(fmt.Sprintf("%s, %s %s", b.Child, e.Weekday.Title(), e.Date)) +
			styleMuted().Render(" ("+state+")")
		left := m.renderList("Bring", e.Selected, m.pane == 0, "Day off (nothing to bring).")
		right := m.renderList("Available", e.Available, m.pane == 1, "No items.")
		return head + "\n" + splitPanes(left, right, w, h-1)
	}

	lines := []string{styleHeading().Render("Upcoming exceptions for " + b.Child)}
	if len(b.Upcoming) == 0 {
		lines = append(lines, styleMuted().Render("None. Press e to add one."))
	}
	for i, u := range b.Upcoming {
		var detail string
		if u.DayOff {
			detail = styleDayOff().Render("day off")
		} else {
			names := make([]string, 0, len(u.Items))
			for _, it := range u.Items {
				names = append(names, it.Name)
			}
			detail = styleMuted().Render(strings.Join(names, ", "))
		}
		lines = append(lines, m.row(i, true, fmt.Sprintf("%s %-9s  %s", u.Date, u.Weekday.Title(), detail)))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) renderFooter(v panel.View, width int) string {
	if v.Flash != nil {
		return normalizePane(styleFlash(v.Flash.Kind == panel.FlashError).Render(v.Flash.Text), width, 1)
	}
	h := help.New()
	h.Width = width
	return h.ShortHelpView(m.helpBindings(v))
}

func (m appModel) helpBindings(v panel.View) []key.Binding {
	b := []key.Binding{keys.Tab1}
	switch {
	case v.ChildrenBody != nil:
		b = append(b, keys.Up, withHelp(keys.Activate, "enter", "schedule"), keys.Add, keys.Remove)
	case v.ItemsBody != nil:
		b = append(b, keys.PrevChild, keys.Up, keys.Add, keys.AddImage, keys.Remove)
	case v.ScheduleBody != nil:
		b = append(b, keys.PrevChild, keys.PrevDay, keys.Pane, keys.Activate)
	case v.ExceptionsBody != nil && v.ExceptionsBody.Edit != nil:
		b = append(b, keys.Pane, keys.Activate, keys.Date, keys.Save, keys.Cancel)
	case v.ExceptionsBody != nil:
		b = append(b, keys.PrevChild, withHelp(keys.Activate, "enter", "edit"), keys.Exception, keys.Remove)
	}
	return append(b, keys.Quit)
}

func withHelp(b key.Binding, k, desc string) key.Binding {
	b.SetHelp(k, desc)
	return b
}
