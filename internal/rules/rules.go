// Package rules evaluates deterministic predicates over a note's feature
// vector, emitting weighted category votes for decision fusion.
package rules

import (
	"regexp"
	"strings"

	"github.com/jagoff/obsidian-para/internal/domain"
)

// StrongVoteWeight marks a vote that triggers the rule-weight boost in fusion.
const StrongVoteWeight = 0.9

// Vote is one rule's opinion: a category, a weight in [0,1], and a rationale
// suitable for the decision reasoning string.
type Vote struct {
	Category  domain.Category
	Weight    float64
	Rationale string
}

// Strong reports whether this vote triggers the strong-rule weight boost.
func (v Vote) Strong() bool { return v.Weight >= StrongVoteWeight }

type rule func(*domain.Note, *domain.FeatureVector) []Vote

var allRules = []rule{
	explicitTagRule,
	activeTaskRule,
	referenceMaterialRule,
	completedStatusRule,
	emptyDailyNoteRule,
}

// Evaluate runs every rule and collects the votes. Emission order carries no
// meaning; fusion aggregates per category.
func Evaluate(note *domain.Note, f *domain.FeatureVector) []Vote {
	var votes []Vote
	for _, r := range allRules {
		votes = append(votes, r(note, f)...)
	}
	return votes
}

// categoryTags maps explicit tags to their categories.
var categoryTags = map[string]domain.Category{
	"project":  domain.CategoryProjects,
	"area":     domain.CategoryAreas,
	"resource": domain.CategoryResources,
	"archive":  domain.CategoryArchive,
	"inbox":    domain.CategoryInbox,
}

// explicitTagRule: a #project/#area/#resource/#archive/#inbox tag is a strong
// vote for that category.
func explicitTagRule(_ *domain.Note, f *domain.FeatureVector) []Vote {
	var votes []Vote
	for tag, cat := range categoryTags {
		if f.HasTag(tag) {
			votes = append(votes, Vote{
				Category:  cat,
				Weight:    StrongVoteWeight,
				Rationale: "explicit #" + tag + " tag",
			})
		}
	}
	return votes
}

// activeTaskRule: open todos plus dates in a recently modified note signal an
// active project.
func activeTaskRule(_ *domain.Note, f *domain.FeatureVector) []Vote {
	recent := f.Recency == domain.RecencyVeryRecent || f.Recency == domain.RecencyRecent
	if f.HasTodos && f.HasDates && recent {
		return []Vote{{
			Category:  domain.CategoryProjects,
			Weight:    0.6,
			Rationale: "open todos with dates, recently modified",
		}}
	}
	return nil
}

// referenceMaterialRule: heavy outgoing linking or structured content (tables,
// code blocks) signals reference material.
func referenceMaterialRule(_ *domain.Note, f *domain.FeatureVector) []Vote {
	var votes []Vote
	if f.LinkCount > 5 {
		votes = append(votes, Vote{
			Category:  domain.CategoryResources,
			Weight:    0.5,
			Rationale: "many outgoing links",
		})
	}
	if f.HasPattern(domain.PatternTables) || f.HasPattern(domain.PatternCode) {
		votes = append(votes, Vote{
			Category:  domain.CategoryResources,
			Weight:    0.5,
			Rationale: "structured content (tables or code)",
		})
	}
	return votes
}

// completedStatuses are the header values that mark a note as finished.
var completedStatuses = map[string]struct{}{
	"done": {}, "archived": {}, "completed": {},
}

// completedStatusRule: a past-tense completion marker in the header is a
// strong Archive vote.
func completedStatusRule(note *domain.Note, _ *domain.FeatureVector) []Vote {
	status, ok := note.HeaderString("status")
	if !ok {
		return nil
	}
	if _, done := completedStatuses[strings.ToLower(strings.TrimSpace(status))]; done {
		return []Vote{{
			Category:  domain.CategoryArchive,
			Weight:    StrongVoteWeight,
			Rationale: "header status: " + status,
		}}
	}
	return nil
}

var dailyNamePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// emptyDailyNoteRule: a daily-style filename with a near-empty body is a
// strong Archive vote.
func emptyDailyNoteRule(note *domain.Note, _ *domain.FeatureVector) []Vote {
	if !dailyNamePattern.MatchString(note.Name) {
		return nil
	}
	if nonWhitespaceLen(note.Body) < 10 {
		return []Vote{{
			Category:  domain.CategoryArchive,
			Weight:    StrongVoteWeight,
			Rationale: "empty daily note",
		}}
	}
	return nil
}

func nonWhitespaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !strings.ContainsRune(" \t\n\r", r) {
			n++
		}
	}
	return n
}
