package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Namer assigns collision-free local filenames to media entries.
//
// The stem is the entry ID and the extension comes from the media kind, so
// identical inputs always produce identical filenames across runs. That
// determinism is what makes the download manager's skip-on-exists logic
// correct.
//
// Entry IDs are already unique in a deduplicated manifest; if a name is
// somehow issued twice anyway, the Namer disambiguates with a numeric
// suffix rather than silently overwriting.
//
// Example:
//
//	namer := model.NewNamer()
//	name := namer.NameFor(entry) // "OlxzhFkv.jpg"
type Namer struct {
	used map[string]struct{}
}

// NewNamer creates a Namer with an empty name registry.
func NewNamer() *Namer {
	return &Namer{used: make(map[string]struct{})}
}

// NameFor returns the local filename for the entry.
func (n *Namer) NameFor(entry MediaEntry) string {
	stem := sanitizeFileName(entry.ID)
	if stem == "" {
		stem = "item"
	}
	ext := entry.Kind.Extension()

	name := stem + ext
	for i := 2; ; i++ {
		if _, taken := n.used[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}

	n.used[name] = struct{}{}
	return name
}

// sanitizeFileName removes or replaces characters that are invalid in file names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars) are replaced with underscore
//   - Trailing dots are removed (Windows limitation)
//   - Multiple whitespace is collapsed to single space
//   - Trailing whitespace is removed
func sanitizeFileName(name string) string {
	// Replace invalid path/file characters
	invalidChars := regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	name = invalidChars.ReplaceAllString(name, "_")

	// Remove trailing dots
	name = regexp.MustCompile(`\.+$`).ReplaceAllString(name, "")

	// Replace multiple whitespace with single space
	name = regexp.MustCompile(`\s+`).ReplaceAllString(name, " ")

	// Remove trailing whitespace
	name = strings.TrimRight(name, " ")

	return name
}
