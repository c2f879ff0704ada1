package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/testutil"
)

func sampleDecision(id, noteID string, at time.Time) *domain.DecisionRecord {
	return &domain.DecisionRecord{
		ID:            id,
		NoteID:        noteID,
		Timestamp:     at,
		Category:      domain.CategoryProjects,
		FolderName:    "Draft App Plan",
		Confidence:    0.82,
		Method:        domain.MethodConsensus,
		SemanticScore: 0.8,
		LLMScore:      0.9,
		RuleScore:     0.9,
		Weights:       domain.FusionWeights{Semantic: 0.5, LLM: 0.3, Rule: 0.2},
		Reasoning:     "method: consensus",
		FactorsApplied: map[string]string{
			"strong_rule": "+0.20 rule",
		},
	}
}

// Decision rows are append-only: everything but feedback survives unchanged.
func TestDecisionAppendAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteDecisionRepo(db)
	ctx := context.Background()

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	want := sampleDecision("d1", "n1", at)
	require.NoError(t, repo.Append(ctx, want))

	got, err := repo.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, want.NoteID, got.NoteID)
	assert.Equal(t, want.Category, got.Category)
	assert.Equal(t, want.Method, got.Method)
	assert.Equal(t, want.Weights, got.Weights)
	assert.Equal(t, want.FactorsApplied, got.FactorsApplied)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
	assert.Nil(t, got.Feedback)
}

func TestDecisionSetFeedbackIsOnlyMutation(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteDecisionRepo(db)
	ctx := context.Background()

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Append(ctx, sampleDecision("d1", "n1", at)))

	fb := &domain.Feedback{
		Action:      domain.FeedbackCorrected,
		CorrectedTo: domain.CategoryResources,
		At:          time.Now().UTC(),
	}
	require.NoError(t, repo.SetFeedback(ctx, "d1", fb))

	got, err := repo.Get(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, got.Feedback)
	assert.Equal(t, domain.FeedbackCorrected, got.Feedback.Action)
	assert.Equal(t, domain.CategoryResources, got.Feedback.CorrectedTo)
	// The immutable fields stay put.
	assert.Equal(t, domain.CategoryProjects, got.Category)
	assert.Equal(t, 0.82, got.Confidence)

	assert.ErrorIs(t, repo.SetFeedback(ctx, "missing", fb), ErrNotFound)
}

func TestDecisionListRecentNewestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteDecisionRepo(db)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		d := sampleDecision(string(rune('a'+i)), "n1", base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Append(ctx, d))
	}

	recent, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "e", recent[0].ID)
	assert.Equal(t, "c", recent[2].ID)

	latest, err := repo.LatestByNote(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "e", latest.ID)

	all, err := repo.ListByNote(ctx, "n1")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}
