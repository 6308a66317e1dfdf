package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to exactly width columns (ANSI-aware) and height lines, so
// panes line up when joined with lipgloss.JoinHorizontal.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}

	for i, ln := range lines {
		w := xansi.StringWidth(ln)
		if w > width {
			switch {
			case width <= 0:
				ln = ""
			case width == 1:
				ln = xansi.Cut(ln, 0, 1)
			default:
				ln = xansi.Cut(ln, 0, width-1) + "…"
			}
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}

// splitPanes renders left and right side by side, each normalized to half the width.
func splitPanes(left, right string, width, height int) string {
	lw := width / 2
	rw := width - lw - 1
	if rw < 0 {
		rw = 0
	}
	l := normalizePane(left, lw, height)
	r := normalizePane(right, rw, height)
	ll := strings.Split(l, "\n")
	rl := strings.Split(r, "\n")
	out := make([]string, len(ll))
	for i := range ll {
		out[i] = ll[i] + " " + rl[i]
	}
	return strings.Join(out, "\n")
}
