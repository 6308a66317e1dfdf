package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"school-schedule/internal/host"
	"school-schedule/internal/panel"
)

type Options struct {
	Panel  panel.Options
	Images imageStore
}

// Run opens the panel on h until the user quits or ctx is cancelled. It keeps the host
// watching the store for changes from other processes while it runs.
func Run(ctx context.Context, h *host.Host, opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()
	applyGlyphPreference()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = h.Run(ctx) }()

	updates, unsubscribe := h.Subscribe()
	defer unsubscribe()

	ctrl := panel.NewController(opts.Panel)
	m := newAppModel(ctx, ctrl, h, updates, opts.Images, opts.Panel.Now)
	_, err := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
