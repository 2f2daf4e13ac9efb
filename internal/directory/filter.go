package directory

import (
	"sort"
	"strings"
)

// Departments returns the sorted, de-duplicated, non-empty departments in entries.
func Departments(entries []EnrichedEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		d := strings.TrimSpace(e.Department)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Filter keeps entries whose display name contains search (case-insensitive) and,
// when department is non-empty, whose department matches exactly. Order is kept.
func Filter(entries []EnrichedEntry, search, department string) []EnrichedEntry {
	needle := strings.ToLower(strings.TrimSpace(search))
	department = strings.TrimSpace(department)

	out := make([]EnrichedEntry, 0, len(entries))
	for _, e := range entries {
		if needle != "" && !strings.Contains(strings.ToLower(e.DisplayName), needle) {
			continue
		}
		if department != "" && e.Department != department {
			continue
		}
		out = append(out, e)
	}
	return out
}
