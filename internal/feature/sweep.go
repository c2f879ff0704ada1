package feature

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jagoff/obsidian-para/internal/domain"
)

// ExtractAll computes feature vectors for a batch of notes in parallel,
// bounded by CPU count. Extraction is pure, so this phase is safe to fan out.
// Results are returned in input order. Cancellation aborts between notes.
func ExtractAll(ctx context.Context, cache *Cache, notes []*domain.Note, directive string, now time.Time) ([]*domain.FeatureVector, error) {
	vectors := make([]*domain.FeatureVector, len(notes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, note := range notes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.Go(func() error {
			hash := domain.ContentHash(note.Text)
			if cache != nil {
				if v, ok := cache.Get(note.ID, hash); ok {
					vectors[i] = v
					return nil
				}
			}
			v := Extract(note, directive, now)
			if cache != nil {
				cache.Put(v)
			}
			vectors[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
