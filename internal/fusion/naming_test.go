package fusion

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagoff/obsidian-para/internal/domain"
)

func TestValidateFolderName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"Draft App Ideas", true},
		{"Go", false},            // too short
		{"Budget Plans_2", false}, // trailing underscore suffix
		{"Budget Plans 3", false}, // trailing space suffix
		{"bad/name", false},
		{`quo"ted`, false},
		{"two\nlines here", false},
		{string(make([]rune, 60)), false},
	}
	for _, tt := range tests {
		err := ValidateFolderName(tt.name)
		if tt.ok {
			assert.NoError(t, err, tt.name)
		} else {
			assert.Error(t, err, tt.name)
		}
	}
}

func TestNormalizeFolderName(t *testing.T) {
	assert.Equal(t, "Draft App", NormalizeFolderName(`  "draft   app" #wip `))
	assert.Equal(t, "Notes On Testing", NormalizeFolderName("notes on testing"))
	assert.Equal(t, "Budget Plans", NormalizeFolderName("Budget Plans_2"))
	assert.NotContains(t, NormalizeFolderName(`a/b\c:d`), "/")
}

// Emitted names never end in a numeric suffix; conflicts are resolved by
// consolidation, not renaming.
func TestDerivedNamesNeverCarryNumericSuffix(t *testing.T) {
	suffix := regexp.MustCompile(`[_ ]\d+$`)
	bodies := []string{
		"# Project Plan 2\ntext",
		"# Roadmap_3\ntext",
		"no heading, just a first line 7\n",
	}
	for _, body := range bodies {
		note := &domain.Note{Name: "note", Body: body}
		name := DeriveFolderName(note, domain.CategoryProjects)
		require.NoError(t, ValidateFolderName(name), name)
		assert.False(t, suffix.MatchString(name), name)
	}
}

func TestDeriveFolderNameChain(t *testing.T) {
	// First heading wins.
	note := &domain.Note{Name: "todo-draft-app", Body: "# Draft App Plan\n\n- [ ] things\n"}
	assert.Equal(t, "Draft App Plan", DeriveFolderName(note, domain.CategoryProjects))

	// No heading: first non-empty line.
	note = &domain.Note{Name: "misc", Body: "\nsome opening words here and more\n"}
	assert.Equal(t, "Some Opening Words Here", DeriveFolderName(note, domain.CategoryProjects))

	// Empty body: the note title.
	note = &domain.Note{Name: "meeting notes", Body: ""}
	assert.Equal(t, "Meeting Notes", DeriveFolderName(note, domain.CategoryProjects))

	// Nothing usable: category keyword.
	note = &domain.Note{Name: "x", Body: ""}
	assert.Equal(t, "New Project", DeriveFolderName(note, domain.CategoryProjects))
	assert.Equal(t, "Archived Notes", DeriveFolderName(note, domain.CategoryArchive))
}

func TestDailyNotesShareAFolder(t *testing.T) {
	note := &domain.Note{Name: "2024-11-03", Body: ""}
	assert.Equal(t, "Daily Notes", DeriveFolderName(note, domain.CategoryArchive))
}

func TestChooseFolderNamePrefersValidLLMSuggestion(t *testing.T) {
	note := &domain.Note{Name: "n", Body: "# Content Title Here\n"}

	// Winner matches the LLM category and the suggestion validates.
	got := ChooseFolderName(note, domain.CategoryProjects, domain.CategoryProjects, "App Launch Plan")
	assert.Equal(t, "App Launch Plan", got)

	// Winner disagrees with the LLM: content derivation wins.
	got = ChooseFolderName(note, domain.CategoryResources, domain.CategoryProjects, "App Launch Plan")
	assert.Equal(t, "Content Title Here", got)

	// Hostile suggestion falls back to derivation.
	got = ChooseFolderName(note, domain.CategoryProjects, domain.CategoryProjects, "bad|name")
	assert.Equal(t, "Content Title Here", got)
}
