package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/embedding"
	"github.com/jagoff/obsidian-para/internal/repository"
	"github.com/jagoff/obsidian-para/internal/testutil"
)

func newTestIndex(t *testing.T, embedder embedding.Embedder) (*Index, *repository.SQLiteIndexRepo) {
	t.Helper()
	db := testutil.NewTestDB(t)
	repo := repository.NewSQLiteIndexRepo(db)
	return New(repo, embedder), repo
}

func seedEntry(t *testing.T, repo *repository.SQLiteIndexRepo, id string, vec []float32, cat domain.Category) {
	t.Helper()
	require.NoError(t, repo.Upsert(context.Background(), &repository.IndexEntry{
		NoteID:    id,
		Embedding: vec,
		Path:      "/vault/" + id + ".md",
		Category:  cat,
	}))
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0, CosineDistance([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 1, CosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, 2, CosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 1.0, CosineDistance([]float32{0, 0}, []float32{1, 0}))
}

func TestKNNOrdersByDistance(t *testing.T) {
	ix, repo := newTestIndex(t, testutil.NewFakeEmbedder())
	ctx := context.Background()

	seedEntry(t, repo, "close", []float32{1, 0.1}, domain.CategoryProjects)
	seedEntry(t, repo, "closer", []float32{1, 0.01}, domain.CategoryProjects)
	seedEntry(t, repo, "far", []float32{-1, 0}, domain.CategoryArchive)

	neighbors, err := ix.KNN(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, "closer", neighbors[0].NoteID)
	assert.Equal(t, "close", neighbors[1].NoteID)
}

func TestKNNSkipsNullAndMismatchedEmbeddings(t *testing.T) {
	ix, repo := newTestIndex(t, testutil.NewFakeEmbedder())
	ctx := context.Background()

	seedEntry(t, repo, "good", []float32{1, 0}, domain.CategoryAreas)
	seedEntry(t, repo, "null", nil, domain.CategoryAreas)
	seedEntry(t, repo, "odd-dim", []float32{1, 0, 0}, domain.CategoryAreas)

	neighbors, err := ix.KNN(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "good", neighbors[0].NoteID)
}

func TestCategoryOfNeighbors(t *testing.T) {
	ix, repo := newTestIndex(t, testutil.NewFakeEmbedder())
	ctx := context.Background()

	seedEntry(t, repo, "p1", []float32{1, 0}, domain.CategoryProjects)
	seedEntry(t, repo, "p2", []float32{1, 0.05}, domain.CategoryProjects)
	seedEntry(t, repo, "r1", []float32{0.9, 0.1}, domain.CategoryResources)

	counts, err := ix.CategoryOfNeighbors(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.CategoryProjects])
	assert.Equal(t, 1, counts[domain.CategoryResources])
}

func TestUpsertDegradesWhenEmbedderUnavailable(t *testing.T) {
	fake := testutil.NewFakeEmbedder()
	fake.Fail = true
	ix, repo := newTestIndex(t, fake)
	ctx := context.Background()

	note := &domain.Note{ID: "n1", Path: "/vault/00-Inbox/n.md", Name: "n", Text: "body"}
	err := ix.Upsert(ctx, note, domain.CategoryInbox, "")
	assert.ErrorIs(t, err, embedding.ErrUnavailable)

	// The entry exists with a null embedding, flagged for re-embedding.
	entry, getErr := repo.Get(ctx, "n1")
	require.NoError(t, getErr)
	assert.False(t, entry.HasEmbedding())
	assert.True(t, entry.NeedsReembed)
}

func TestUpsertStoresEmbedding(t *testing.T) {
	ix, repo := newTestIndex(t, testutil.NewFakeEmbedder())
	ctx := context.Background()

	note := &domain.Note{ID: "n1", Path: "/vault/00-Inbox/n.md", Name: "n", Text: "body", WordCount: 1}
	require.NoError(t, ix.Upsert(ctx, note, domain.CategoryProjects, "Draft App Plan"))

	entry, err := repo.Get(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, entry.HasEmbedding())
	assert.Equal(t, domain.CategoryProjects, entry.Category)
	assert.Equal(t, "Draft App Plan", entry.FolderName)
	assert.False(t, entry.NeedsReembed)
}

func TestKNNTieBreaksTowardRecentUpdate(t *testing.T) {
	ix, repo := newTestIndex(t, testutil.NewFakeEmbedder())
	ctx := context.Background()

	seedEntry(t, repo, "older", []float32{1, 0}, domain.CategoryAreas)
	time.Sleep(5 * time.Millisecond)
	seedEntry(t, repo, "newer", []float32{1, 0}, domain.CategoryAreas)

	neighbors, err := ix.KNN(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, "newer", neighbors[0].NoteID)
}
