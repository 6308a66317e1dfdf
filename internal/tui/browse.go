package tui

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"school-schedule/internal/images"
	"school-schedule/internal/panel"
)

func browseHeight(screenH int) int {
	h := screenH - 14
	if h < 5 {
		h = 5
	}
	if h > 18 {
		h = 18
	}
	return h
}

// browseTypes is images.Allowed in both cases; the picker matches suffixes exactly.
func browseTypes() []string {
	out := make([]string, 0, 2*len(images.Allowed))
	for _, ext := range images.Allowed {
		out = append(out, ext, strings.ToUpper(ext))
	}
	return out
}

// openBrowser shows a file picker that fills the add-item image field.
func (m *appModel) openBrowser() tea.Cmd {
	fp := filepicker.New()
	fp.AllowedTypes = browseTypes()
	fp.FileAllowed = true
	fp.DirAllowed = false
	fp.ShowPermissions = false
	fp.ShowSize = true
	fp.AutoHeight = false
	fp.Height = browseHeight(m.height)
	fp.Cursor = glyphCursor()
	// esc closes the picker instead of going up a directory.
	fp.KeyMap.Back = key.NewBinding(key.WithKeys("h", "backspace", "left"), key.WithHelp("h", "up"))

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(colorAccent)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(colorAccent)
	fp.Styles.DisabledFile = styleMuted()
	fp.Styles.DisabledSelected = styleMuted()
	fp.Styles.FileSize = styleMuted().Width(fp.Styles.FileSize.GetWidth()).Align(lipgloss.Right)

	dir := strings.TrimSpace(m.browseDir)
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = home
		} else {
			dir = "."
		}
	}
	fp.CurrentDirectory = dir

	m.browser = &fp
	return fp.Init()
}

func (m appModel) updateBrowser(msg tea.Msg) (appModel, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "esc" || k.String() == "ctrl+g") {
		m.browser = nil
		return m, nil
	}

	fp, cmd := m.browser.Update(msg)
	m.browser = &fp

	if ok, path := fp.DidSelectFile(msg); ok {
		m.browseDir = filepath.Dir(path)
		m.browser = nil
		if m.modal != nil && m.modal.purpose == inputAddItem {
			m.modal.fields[1].SetValue(path)
			m.modal.fields[1].CursorEnd()
			m.modal.setFocus(0)
		}
		// Choosing a file is the explicit end of picking.
		m.ctrl.FilePickerClosed()
		return m, cmd
	}
	if ok, path := fp.DidSelectDisabledFile(msg); ok {
		m.ctrl.Notify(panel.FlashError, filepath.Base(path)+" is not an image ("+strings.Join(images.Allowed, " ")+")")
	}
	return m, cmd
}

func (m appModel) renderBrowser(width int) string {
	bodyW := modalBodyWidth(width)
	dir := styleMuted().Width(bodyW).Render(m.browser.CurrentDirectory)
	help := styleMuted().Width(bodyW).Render("enter: choose   h/backspace: up   l/right: open dir   esc: back")
	body := dir + "\n\n" + m.browser.View() + "\n" + help
	if fl := m.ctrl.View().Flash; fl != nil {
		body += "\n" + styleFlash(fl.Kind == panel.FlashError).Width(bodyW).Render(fl.Text)
	}
	return renderModalBox(width, "Choose image", body)
}
