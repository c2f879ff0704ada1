package vault

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// splitFrontmatter returns the raw YAML between the two --- marker lines and
// the body that follows. found is false when the note has no header block.
func splitFrontmatter(text string) (header, body string, found bool) {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != "---" {
		return "", text, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), true
		}
	}
	return "", text, false
}

// parseHeader parses the frontmatter block into a key-value map of scalars
// and sequences. A malformed header yields an empty map and ok=false; the
// caller continues with the note body.
func parseHeader(raw string) (map[string]any, bool) {
	out := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return out, true
	}
	if err := yaml.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]any{}, false
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, true
}
