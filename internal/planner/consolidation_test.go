package planner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagoff/obsidian-para/internal/domain"
)

func TestConsolidationKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Budget Plans", "budget plans"},
		{"Budget Plans_2", "budget plans"},
		{"Budget Plans 3", "budget plans"},
		{"Budget Plans Related", "budget plans"},
		{"  Budget   PLANS ", "budget plans"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, consolidationKey(tt.in), tt.in)
	}
}

func TestBuildConsolidationMergesSiblingsIntoLargest(t *testing.T) {
	f := newFixture(t)
	f.vault.Note("01-Projects/Budget Plans/a.md", "a\n")
	f.vault.Note("01-Projects/Budget Plans/b.md", "b\n")
	f.vault.Note("01-Projects/Budget Plans_2/c.md", "c\n")
	f.vault.Note("01-Projects/Budget Plans Related/d.md", "d\n")
	f.vault.Note("01-Projects/Unrelated Work/e.md", "e\n")

	plan, err := f.planner.BuildConsolidation(domain.CategoryProjects, false, false)
	require.NoError(t, err)

	require.Len(t, plan.Moves, 2)
	for _, m := range plan.Moves {
		assert.Equal(t, "Budget Plans", m.FolderName)
		assert.Equal(t, filepath.Join(f.vault.Root, "01-Projects", "Budget Plans", filepath.Base(m.FromPath)), m.ToPath)
		assert.NotContains(t, m.FromPath, "Unrelated Work")
	}
}

func TestBuildConsolidationSkipsExcludedFolders(t *testing.T) {
	f := newFixture(t)
	f.vault.Note("01-Projects/Budget Plans/a.md", "a\n")
	f.vault.Note("01-Projects/Budget Plans_2/b.md", "b\n")
	f.excluder.prefixes = []string{filepath.Join(f.vault.Root, "01-Projects", "Budget Plans_2")}

	plan, err := f.planner.BuildConsolidation(domain.CategoryProjects, false, false)
	require.NoError(t, err)
	assert.Empty(t, plan.Moves)
}

func TestBuildConsolidationExecuteNeedsExclusions(t *testing.T) {
	f := newFixture(t)
	_, err := f.planner.BuildConsolidation(domain.CategoryProjects, true, false)
	assert.Error(t, err)

	_, err = f.planner.BuildConsolidation(domain.CategoryProjects, true, true)
	assert.NoError(t, err)
}
