package format

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"school-schedule/internal/panel"
)

// SummaryMarkdown renders a day summary as markdown: one heading per child with a
// checklist of items.
func SummaryMarkdown(s panel.Summary) string {
	var b strings.Builder
	when := "Today"
	if s.Tomorrow {
		when = "Tomorrow"
	}
	fmt.Fprintf(&b, "# %s: %s %s\n\n", when, s.Weekday.Title(), s.Date)
	if len(s.Children) == 0 {
		b.WriteString("_No children yet._\n")
		return b.String()
	}
	for _, c := range s.Children {
		fmt.Fprintf(&b, "## %s\n\n", c.Name)
		switch {
		case c.DayOff:
			b.WriteString("_Day off._\n\n")
			continue
		case len(c.Items) == 0:
			b.WriteString("_Nothing to bring._\n\n")
			continue
		}
		for _, it := range c.Items {
			fmt.Fprintf(&b, "- [ ] %s\n", it.Name)
		}
		if c.Exception {
			b.WriteString("\n_Special schedule._\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

var (
	mdMu        sync.Mutex
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// RenderMarkdown renders md for a terminal. style is a glamour standard style name
// ("dark", "light", "notty"); on failure the source is returned unchanged.
func RenderMarkdown(md string, style string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}
	if style == "" {
		style = "dark"
	}

	key := fmt.Sprintf("%s:%d", style, width)
	mdMu.Lock()
	defer mdMu.Unlock()
	r := mdRenderers[key]
	if r == nil {
		// A fixed style avoids WithAutoStyle's terminal background query.
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
