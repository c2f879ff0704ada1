// Package index maintains the semantic index: each note's embedding and the
// category it was last assigned, queryable by nearest neighbor.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/embedding"
	"github.com/jagoff/obsidian-para/internal/repository"
)

// Neighbor is one k-NN result.
type Neighbor struct {
	NoteID   string
	Distance float64
	Category domain.Category
}

// Index is the semantic index service. Reads may run concurrently; writes
// are serialized by the index directory lock held by the session.
type Index struct {
	repo     repository.IndexRepo
	embedder embedding.Embedder
}

// New builds an Index over a repository and an embedder.
func New(repo repository.IndexRepo, embedder embedding.Embedder) *Index {
	return &Index{repo: repo, embedder: embedder}
}

// Upsert embeds the note and stores (or refreshes) its index entry with the
// assigned category. When the embedder is unavailable, the entry is stored
// with a null embedding and flagged for re-embedding on the next run.
func (ix *Index) Upsert(ctx context.Context, note *domain.Note, category domain.Category, folderName string) error {
	entry := &repository.IndexEntry{
		NoteID:      note.ID,
		ContentHash: domain.ContentHash(note.Text),
		Path:        note.Path,
		Title:       note.Name,
		Category:    category,
		FolderName:  folderName,
		WordCount:   note.WordCount,
	}

	vec, err := ix.embedder.Embed(ctx, note.Text)
	switch {
	case err == nil:
		entry.Embedding = vec
	case errors.Is(err, embedding.ErrUnavailable):
		entry.NeedsReembed = true
	default:
		return fmt.Errorf("embedding note %s: %w", note.ID, err)
	}

	if err := ix.repo.Upsert(ctx, entry); err != nil {
		return err
	}
	if entry.NeedsReembed {
		return embedding.ErrUnavailable
	}
	return nil
}

// Delete removes a note from the index.
func (ix *Index) Delete(ctx context.Context, noteID string) error {
	return ix.repo.Delete(ctx, noteID)
}

// Get returns the entry for a note id, or repository.ErrNotFound.
func (ix *Index) Get(ctx context.Context, noteID string) (*repository.IndexEntry, error) {
	return ix.repo.Get(ctx, noteID)
}

// Embed exposes the underlying embedder for query vectors.
func (ix *Index) Embed(ctx context.Context, text string) ([]float32, error) {
	return ix.embedder.Embed(ctx, text)
}

// KNN returns the k nearest indexed notes by cosine distance. Entries with
// null embeddings are skipped. Distance ties break toward the more recently
// updated entry.
func (ix *Index) KNN(ctx context.Context, query []float32, k int) ([]Neighbor, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}
	entries, err := ix.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	type scored struct {
		entry *repository.IndexEntry
		dist  float64
	}
	var candidates []scored
	for _, e := range entries {
		if !e.HasEmbedding() || len(e.Embedding) != len(query) {
			continue
		}
		candidates = append(candidates, scored{entry: e, dist: CosineDistance(query, e.Embedding)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		if !candidates[i].entry.LastUpdated.Equal(candidates[j].entry.LastUpdated) {
			return candidates[i].entry.LastUpdated.After(candidates[j].entry.LastUpdated)
		}
		return strings.Compare(candidates[i].entry.NoteID, candidates[j].entry.NoteID) < 0
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]Neighbor, len(candidates))
	for i, c := range candidates {
		out[i] = Neighbor{NoteID: c.entry.NoteID, Distance: c.dist, Category: c.entry.Category}
	}
	return out, nil
}

// CategoryOfNeighbors returns the category counts among the k nearest
// neighbors of the query vector.
func (ix *Index) CategoryOfNeighbors(ctx context.Context, query []float32, k int) (map[domain.Category]int, error) {
	neighbors, err := ix.KNN(ctx, query, k)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.Category]int)
	for _, n := range neighbors {
		counts[n.Category]++
	}
	return counts, nil
}

// CategoryDistribution returns category counts over the whole index.
func (ix *Index) CategoryDistribution(ctx context.Context) (map[domain.Category]int, error) {
	return ix.repo.CategoryDistribution(ctx)
}

// Count reports how many notes are indexed.
func (ix *Index) Count(ctx context.Context) (int, error) {
	return ix.repo.Count(ctx)
}

// CosineDistance is 1 - cosine similarity. Zero-magnitude vectors are
// maximally distant.
func CosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return 1 - sim
}
