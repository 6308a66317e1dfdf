package panel

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	idWhitespace = regexp.MustCompile(`[\s\p{Z}\x{FEFF}]+`)
	idDisallowed = regexp.MustCompile(`[^a-z0-9_]`)
)

// GenerateItemID derives a slug for a new item from its display name, unique among
// existing. The result always matches ^[a-z][a-z0-9_]*$.
//
// Callers must reject empty or whitespace-only names first.
func GenerateItemID(name string, existing []string) string {
	taken := make(map[string]bool, len(existing))
	for _, id := range existing {
		taken[id] = true
	}

	base := strings.ToLower(strings.TrimSpace(name))
	base = idWhitespace.ReplaceAllString(base, "_")
	base = idDisallowed.ReplaceAllString(base, "")

	if base == "" {
		// Nothing survived stripping (e.g. "!!!"): number the bare prefix.
		for n := 1; ; n++ {
			candidate := "item_" + strconv.Itoa(n)
			if !taken[candidate] {
				return candidate
			}
		}
	}
	if base[0] < 'a' || base[0] > 'z' {
		base = "item_" + base
	}
	if !taken[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "_" + strconv.Itoa(n)
		if !taken[candidate] {
			return candidate
		}
	}
}
