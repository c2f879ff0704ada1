package vault

import (
	"regexp"
	"strings"
)

// tagPattern matches inline #tags. A leading '#' followed by a space is a
// markdown heading, not a tag.
var tagPattern = regexp.MustCompile(`(?:^|\s)#([A-Za-z][\w/-]*)`)

// wikiLinkPattern matches [[Target]], [[Target#Heading]], [[Target|Display]].
// Only the target note name is captured.
var wikiLinkPattern = regexp.MustCompile(`\[\[([^\]#|]+)(?:#[^\]|]*)?(?:\|[^\]]*)?\]\]`)

// attachmentPattern matches embedded attachments ![alt](target).
var attachmentPattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)

// scanTags extracts deduplicated inline tags, without the '#' prefix.
func scanTags(body string) []string {
	matches := tagPattern.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var tags []string
	for _, m := range matches {
		t := m[1]
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}

// scanLinks extracts outgoing [[wikilink]] targets in document order.
func scanLinks(body string) []string {
	matches := wikiLinkPattern.FindAllStringSubmatch(body, -1)
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		links = append(links, strings.TrimSpace(m[1]))
	}
	return links
}

// scanAttachments extracts ![alt](target) reference targets.
func scanAttachments(body string) []string {
	matches := attachmentPattern.FindAllStringSubmatch(body, -1)
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, strings.TrimSpace(m[1]))
	}
	return refs
}

// countWords counts whitespace-separated tokens.
func countWords(text string) int {
	return len(strings.Fields(text))
}
