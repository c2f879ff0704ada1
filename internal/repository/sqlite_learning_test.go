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

func TestFeedbackAppendAndList(t *testing.T) {
	db := testutil.NewTestDB(t)
	decisions := NewSQLiteDecisionRepo(db)
	repo := NewSQLiteFeedbackRepo(db)
	ctx := context.Background()

	require.NoError(t, decisions.Append(ctx, sampleDecision("d1", "n1", time.Now().UTC())))

	rec := &domain.FeedbackRecord{
		ID:         "f1",
		DecisionID: "d1",
		Action:     domain.FeedbackCorrected,
		Correction: domain.CategoryResources,
		Notes:      "actually reference material",
		At:         time.Now().UTC(),
	}
	require.NoError(t, repo.Append(ctx, rec))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.CategoryResources, got[0].Correction)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLearningSnapshotsOrderedForSlope(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteLearningSnapshotRepo(db)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Append(ctx, &domain.LearningSnapshot{
			ID:           string(rune('a' + i)),
			At:           base.AddDate(0, 0, i),
			AccuracyRate: float64(i) / 10,
		}))
	}

	recent, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	// Oldest-first within the newest window.
	assert.Equal(t, "b", recent[0].ID)
	assert.Equal(t, "d", recent[2].ID)
}

func TestPolicyDefaultsAndRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLitePolicyRepo(db)
	ctx := context.Background()

	// Unwritten policy loads as the baseline.
	p, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPolicy().BaseWeights, p.BaseWeights)
	assert.Zero(t, p.WeightNudges)

	p.WeightNudges = domain.FusionWeights{Rule: -0.05}
	p.PreferredFolders = map[domain.Category][]string{
		domain.CategoryProjects: {"Draft App Plan"},
	}
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.WeightNudges, got.WeightNudges)
	assert.Equal(t, p.PreferredFolders, got.PreferredFolders)
}

func TestFolderFeedbackRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteFolderFeedbackRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, &domain.FolderCreationFeedback{
		ID:         "ff1",
		FolderName: "Draft App Plan",
		Category:   domain.CategoryProjects,
		Tags:       []string{"project"},
		Patterns:   []string{"headers"},
		UserAction: domain.FeedbackAccepted,
		At:         time.Now().UTC(),
	}))

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"project"}, got[0].Tags)
	assert.Equal(t, domain.FeedbackAccepted, got[0].UserAction)
}
