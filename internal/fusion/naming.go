package fusion

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jagoff/obsidian-para/internal/domain"
)

// Folder-name length bounds after normalization.
const (
	folderNameMinLen = 3
	folderNameMaxLen = 50
)

const hostileChars = `/\:*?"<>|`

var (
	trailingSuffixPattern = regexp.MustCompile(`([_ ]\d+)$`)
	headingPattern        = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	inlineTagPattern      = regexp.MustCompile(`#[\w/-]+`)
	dailyNamePattern      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	titleCaser = cases.Title(language.English)
)

// ValidateFolderName checks a candidate against the naming rules: length
// bounds, no filesystem-hostile or control characters, single line, and no
// trailing numeric suffix.
func ValidateFolderName(name string) error {
	if strings.ContainsAny(name, hostileChars) {
		return fmt.Errorf("folder name %q contains filesystem-hostile characters", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("folder name %q contains control characters", name)
		}
	}
	if strings.ContainsAny(name, "\n\r") {
		return fmt.Errorf("folder name %q spans multiple lines", name)
	}
	n := len([]rune(name))
	if n < folderNameMinLen || n > folderNameMaxLen {
		return fmt.Errorf("folder name %q length %d outside [%d, %d]", name, n, folderNameMinLen, folderNameMaxLen)
	}
	if trailingSuffixPattern.MatchString(name) {
		return fmt.Errorf("folder name %q ends with a numeric suffix", name)
	}
	return nil
}

// NormalizeFolderName cleans a candidate: tags and quotes stripped, hostile
// characters removed, whitespace collapsed, title-cased, length-capped.
func NormalizeFolderName(name string) string {
	s := inlineTagPattern.ReplaceAllString(name, "")
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(hostileChars, r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.Trim(s, `"'`)
	s = strings.Join(strings.Fields(s), " ")
	s = titleCaser.String(s)
	if runes := []rune(s); len(runes) > folderNameMaxLen {
		s = strings.TrimSpace(string(runes[:folderNameMaxLen]))
	}
	// The system never emits conflict suffixes; strip any inherited ones.
	s = trailingSuffixPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// categoryFallbackNames close the derivation chain when a note offers no
// usable title.
var categoryFallbackNames = map[domain.Category]string{
	domain.CategoryProjects:  "New Project",
	domain.CategoryAreas:     "New Area",
	domain.CategoryResources: "New Resource",
	domain.CategoryArchive:   "Archived Notes",
}

// DeriveFolderName builds a folder name from note content: first heading,
// then first non-empty non-header line, then the note's file name, then the
// category keyword. Daily notes group under a shared folder.
func DeriveFolderName(note *domain.Note, category domain.Category) string {
	if dailyNamePattern.MatchString(note.Name) {
		return "Daily Notes"
	}

	if m := headingPattern.FindStringSubmatch(note.Body); m != nil {
		if name := NormalizeFolderName(m[1]); ValidateFolderName(name) == nil {
			return name
		}
	}

	for _, line := range strings.Split(note.Body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		trimmed = stripListMarkers(trimmed)
		if name := NormalizeFolderName(firstWords(trimmed, 4)); ValidateFolderName(name) == nil {
			return name
		}
		break
	}

	// A note title is better than a generic keyword when it validates.
	if name := NormalizeFolderName(note.Name); ValidateFolderName(name) == nil {
		return name
	}
	return categoryFallbackNames[category]
}

// ChooseFolderName prefers the LLM suggestion when the winning category is
// the LLM's and the suggestion passes validation; otherwise derives from
// content.
func ChooseFolderName(note *domain.Note, winner domain.Category, llmCategory domain.Category, llmFolder string) string {
	if llmFolder != "" && winner == llmCategory && ValidateFolderName(llmFolder) == nil {
		if name := NormalizeFolderName(llmFolder); ValidateFolderName(name) == nil {
			return name
		}
	}
	return DeriveFolderName(note, winner)
}

var listMarkerPattern = regexp.MustCompile(`^(?:[-*+]|\d+\.)\s+(?:\[.\]\s*)?`)

// stripListMarkers drops a leading bullet or task checkbox so list-first
// notes still derive readable names.
func stripListMarkers(s string) string {
	return listMarkerPattern.ReplaceAllString(s, "")
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}
