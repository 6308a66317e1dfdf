package tui

import (
	"os"
	"strings"
	"sync"
)

// Some terminal fonts render emoji and arrows poorly. SCHOOL_SCHEDULE_TUI_GLYPHS=ascii
// swaps them for plain text.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SCHOOL_SCHEDULE_TUI_GLYPHS"))) {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	default:
		// Unknown value: ignore.
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

func glyphCursor() string {
	if glyphs() == glyphSetASCII {
		return ">"
	}
	return "▸"
}

// glyphImage marks an item whose picture resolves.
func glyphImage() string {
	if glyphs() == glyphSetASCII {
		return "[img]"
	}
	return "🖼"
}

// glyphPlaceholder marks an item without a usable picture.
func glyphPlaceholder() string {
	if glyphs() == glyphSetASCII {
		return "[ ]"
	}
	return "📦"
}
