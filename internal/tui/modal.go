package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

type inputPurpose int

const (
	inputAddChild inputPurpose = iota
	inputAddItem
	inputStartException
	inputChangeDate
)

// inputModal is a small form of one or two text fields.
type inputModal struct {
	purpose inputPurpose
	title   string
	labels  []string
	fields  []textinput.Model
	focus   int
}

func newTextField(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 40
	return ti
}

func newInputModal(purpose inputPurpose, value string) *inputModal {
	m := &inputModal{purpose: purpose}
	switch purpose {
	case inputAddChild:
		m.title = "Add child"
		m.labels = []string{"Name"}
		m.fields = []textinput.Model{newTextField("Name", 80)}
	case inputAddItem:
		m.title = "Add item"
		m.labels = []string{"Name", "Image (file path or URL, optional)"}
		m.fields = []textinput.Model{newTextField("Item name", 120), newTextField("~/Pictures/gym-bag.png", 1024)}
	case inputStartException:
		m.title = "Exception date"
		m.labels = []string{"Date (YYYY-MM-DD)"}
		m.fields = []textinput.Model{newTextField("YYYY-MM-DD", 10)}
	case inputChangeDate:
		m.title = "Change exception date"
		m.labels = []string{"Date (YYYY-MM-DD)"}
		m.fields = []textinput.Model{newTextField("YYYY-MM-DD", 10)}
	}
	m.fields[0].SetValue(value)
	m.fields[0].CursorEnd()
	m.fields[0].Focus()
	return m
}

func (m *inputModal) value(i int) string {
	if i < 0 || i >= len(m.fields) {
		return ""
	}
	return strings.TrimSpace(m.fields[i].Value())
}

func (m *inputModal) setFocus(i int) {
	if len(m.fields) == 0 {
		return
	}
	i = (i + len(m.fields)) % len(m.fields)
	for j := range m.fields {
		if j == i {
			m.fields[j].Focus()
		} else {
			m.fields[j].Blur()
		}
	}
	m.focus = i
}

// imageFocused reports whether the user is choosing an image file.
func (m *inputModal) imageFocused() bool {
	return m.purpose == inputAddItem && m.focus == 1
}

func (m *inputModal) view(width int) string {
	bodyW := modalBodyWidth(width)
	var lines []string
	for i := range m.fields {
		lines = append(lines, styleMuted().Render(m.labels[i]))
		lines = append(lines, renderInputLine(bodyW, m.fields[i].View(), i == m.focus))
		lines = append(lines, "")
	}
	help := "enter: save   esc: cancel"
	if len(m.fields) > 1 {
		help = "tab: next field   " + help
	}
	if m.imageFocused() {
		help = "ctrl+o: browse   " + help
	}
	lines = append(lines, styleMuted().Width(bodyW).Render(help))
	return renderModalBox(width, m.title, strings.Join(lines, "\n"))
}

func modalBodyWidth(width int) int {
	w := width - 12
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}

func renderModalBox(width int, title, content string) string {
	bodyW := modalBodyWidth(width)
	header := lipgloss.NewStyle().Bold(true).Width(bodyW).Render(title)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Background(colorModalBg).
		Padding(0, 1).
		Render(header + "\n\n" + content)
}
