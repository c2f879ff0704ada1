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

func TestIndexUpsertRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteIndexRepo(db)
	ctx := context.Background()

	entry := &IndexEntry{
		NoteID:      "abc123",
		Embedding:   []float32{0.1, -0.5, 1.25},
		ContentHash: "hash1",
		Path:        "/vault/00-Inbox/note.md",
		Title:       "note",
		Category:    domain.CategoryInbox,
		WordCount:   42,
	}
	require.NoError(t, repo.Upsert(ctx, entry))

	got, err := repo.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, entry.Embedding, got.Embedding)
	assert.Equal(t, domain.CategoryInbox, got.Category)
	assert.Equal(t, 42, got.WordCount)
	assert.False(t, got.LastUpdated.IsZero())
	assert.False(t, got.FirstSeen.IsZero())
	assert.True(t, got.HasEmbedding())
}

func TestIndexUpsertRefreshesButKeepsFirstSeen(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteIndexRepo(db)
	ctx := context.Background()

	first := &IndexEntry{
		NoteID:    "n1",
		Path:      "/vault/00-Inbox/a.md",
		Category:  domain.CategoryInbox,
		FirstSeen: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Upsert(ctx, first))

	updated := &IndexEntry{
		NoteID:    "n1",
		Embedding: []float32{1, 2},
		Path:      "/vault/01-Projects/App/a.md",
		Category:  domain.CategoryProjects,
		FirstSeen: first.FirstSeen,
	}
	require.NoError(t, repo.Upsert(ctx, updated))

	got, err := repo.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryProjects, got.Category)
	assert.Equal(t, first.FirstSeen, got.FirstSeen)
}

func TestIndexNullEmbeddingAndReembedFlag(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteIndexRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &IndexEntry{
		NoteID:       "pending",
		Path:         "/vault/00-Inbox/p.md",
		Category:     domain.CategoryInbox,
		NeedsReembed: true,
	}))
	require.NoError(t, repo.Upsert(ctx, &IndexEntry{
		NoteID:    "done",
		Embedding: []float32{1},
		Path:      "/vault/00-Inbox/d.md",
		Category:  domain.CategoryInbox,
	}))

	pending, err := repo.ListNeedingReembed(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "pending", pending[0].NoteID)
	assert.False(t, pending[0].HasEmbedding())
}

func TestIndexCategoryDistributionAndCount(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteIndexRepo(db)
	ctx := context.Background()

	for i, cat := range []domain.Category{
		domain.CategoryProjects, domain.CategoryProjects, domain.CategoryResources,
	} {
		require.NoError(t, repo.Upsert(ctx, &IndexEntry{
			NoteID:   string(rune('a' + i)),
			Path:     "/vault/x.md",
			Category: cat,
		}))
	}

	dist, err := repo.CategoryDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dist[domain.CategoryProjects])
	assert.Equal(t, 1, dist[domain.CategoryResources])

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestIndexDeleteAndNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteIndexRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &IndexEntry{
		NoteID: "gone", Path: "/vault/g.md", Category: domain.CategoryInbox,
	}))
	require.NoError(t, repo.Delete(ctx, "gone"))

	_, err := repo.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVectorBlobRoundTrip(t *testing.T) {
	vec := []float32{0, -1.5, 3.25, 1e-7}
	assert.Equal(t, vec, blobToVector(vectorToBlob(vec)))
	assert.Nil(t, vectorToBlob(nil))
	assert.Nil(t, blobToVector(nil))
	assert.Nil(t, blobToVector([]byte{1, 2, 3})) // not a multiple of 4
}
