// Package feature derives the classification feature vector for a note.
// Extraction is pure over note content and filesystem timestamps.
package feature

import (
	"regexp"
	"strings"
	"time"

	"github.com/jagoff/obsidian-para/internal/domain"
)

// Recency thresholds, in days.
const (
	veryRecentDays = 7
	recentDays     = 30
	moderateDays   = 90
	oldDays        = 365
)

var (
	todoPattern = regexp.MustCompile(`(?m)(-\s\[\s\]|TODO:|(?:^|\s)#todo\b)`)

	isoDatePattern   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	slashDatePattern = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	monthDatePattern = regexp.MustCompile(`\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b`)

	headerLinePattern    = regexp.MustCompile(`(?m)^#{1,6}\s`)
	listLinePattern      = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s`)
	codeFencePattern     = regexp.MustCompile("(?m)^```")
	tableRowPattern      = regexp.MustCompile(`(?m)^\|.*\|\s*$`)
	quoteLinePattern     = regexp.MustCompile(`(?m)^>\s?`)
	emphasisPattern      = regexp.MustCompile(`(\*\*[^*\n]+\*\*|\*[^*\n]+\*|__[^_\n]+__|_[^_\n]+_)`)
	strikethroughPattern = regexp.MustCompile(`~~[^~\n]+~~`)
	footnotePattern      = regexp.MustCompile(`\[\^[^\]]+\]`)
)

// directiveVocabulary is the keyword set a user directive is matched against.
var directiveVocabulary = []string{"project", "area", "resource", "archive", "inbox", "urgent", "priority"}

// Extract computes the feature vector for one note. Deterministic: the same
// content and mtime produce the same vector.
func Extract(note *domain.Note, directive string, now time.Time) *domain.FeatureVector {
	body := note.Text
	todoCount := len(todoPattern.FindAllString(body, -1))
	linkCount := len(note.Links)

	f := &domain.FeatureVector{
		NoteID:      note.ID,
		ContentHash: domain.ContentHash(note.Text),

		WordCount:      note.WordCount,
		TodoCount:      todoCount,
		LinkCount:      linkCount,
		HasTodos:       todoCount > 0,
		HasDates:       hasDates(body),
		HasLinks:       linkCount > 0,
		HasAttachments: len(note.Attachments) > 0,

		ObsidianTags: note.Tags,
		GenericTags:  note.HeaderList("tags"),
		Header:       note.Header,

		Recency:           recencyOf(note.AgeAt(now)),
		ContentPatterns:   contentPatterns(body),
		DirectiveKeywords: directiveKeywords(directive),
	}

	wc := f.WordCount
	if wc < 1 {
		wc = 1
	}
	f.InfoDensity = float64(f.LinkCount+f.TodoCount) / float64(wc)
	return f
}

func hasDates(body string) bool {
	return isoDatePattern.MatchString(body) ||
		slashDatePattern.MatchString(body) ||
		monthDatePattern.MatchString(body)
}

func recencyOf(age time.Duration) domain.Recency {
	days := age.Hours() / 24
	switch {
	case days < veryRecentDays:
		return domain.RecencyVeryRecent
	case days < recentDays:
		return domain.RecencyRecent
	case days < moderateDays:
		return domain.RecencyModerate
	case days < oldDays:
		return domain.RecencyOld
	default:
		return domain.RecencyVeryOld
	}
}

func contentPatterns(body string) []domain.ContentPattern {
	var out []domain.ContentPattern
	add := func(p domain.ContentPattern, present bool) {
		if present {
			out = append(out, p)
		}
	}
	add(domain.PatternHeaders, headerLinePattern.MatchString(body))
	add(domain.PatternLists, listLinePattern.MatchString(body))
	add(domain.PatternCode, codeFencePattern.MatchString(body))
	add(domain.PatternTables, tableRowPattern.MatchString(body))
	add(domain.PatternQuotes, quoteLinePattern.MatchString(body))
	add(domain.PatternEmphasis, emphasisPattern.MatchString(body))
	add(domain.PatternStrikethrough, strikethroughPattern.MatchString(body))
	add(domain.PatternFootnotes, footnotePattern.MatchString(body))
	return out
}

// directiveKeywords intersects the free-text directive with the recognized
// vocabulary. Matching is word-based and case-insensitive.
func directiveKeywords(directive string) []string {
	if directive == "" {
		return nil
	}
	words := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(directive)) {
		words[strings.Trim(w, ".,!?;:")] = struct{}{}
	}
	var out []string
	for _, kw := range directiveVocabulary {
		if _, ok := words[kw]; ok {
			out = append(out, kw)
			continue
		}
		// Plural and adjective forms still signal the keyword.
		for w := range words {
			if strings.HasPrefix(w, kw) {
				out = append(out, kw)
				break
			}
		}
	}
	return out
}
