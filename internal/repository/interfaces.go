// Package repository provides SQLite-backed persistence for the semantic
// index and the learning store.
package repository

import (
	"context"
	"time"

	"github.com/jagoff/obsidian-para/internal/domain"
)

// IndexEntry is one row of the semantic index: a note's embedding plus the
// metadata and category it was last assigned.
type IndexEntry struct {
	NoteID       string
	Embedding    []float32 // nil when the embedder was unavailable
	ContentHash  string
	Path         string
	Title        string
	Category     domain.Category
	FolderName   string
	WordCount    int
	NeedsReembed bool
	FirstSeen    time.Time
	LastUpdated  time.Time
}

// HasEmbedding reports whether the entry carries a usable vector.
func (e *IndexEntry) HasEmbedding() bool { return len(e.Embedding) > 0 }

type IndexRepo interface {
	Upsert(ctx context.Context, e *IndexEntry) error
	Get(ctx context.Context, noteID string) (*IndexEntry, error)
	Delete(ctx context.Context, noteID string) error
	// List returns every entry; embeddings included. The k-NN scan runs
	// over this in process.
	List(ctx context.Context) ([]*IndexEntry, error)
	ListNeedingReembed(ctx context.Context) ([]*IndexEntry, error)
	CategoryDistribution(ctx context.Context) (map[domain.Category]int, error)
	Count(ctx context.Context) (int, error)
}

type DecisionRepo interface {
	Append(ctx context.Context, d *domain.DecisionRecord) error
	Get(ctx context.Context, id string) (*domain.DecisionRecord, error)
	// ListRecent returns the newest n decisions, newest first.
	ListRecent(ctx context.Context, n int) ([]*domain.DecisionRecord, error)
	ListByNote(ctx context.Context, noteID string) ([]*domain.DecisionRecord, error)
	LatestByNote(ctx context.Context, noteID string) (*domain.DecisionRecord, error)
	// SetFeedback writes the single mutable field of a decision record.
	SetFeedback(ctx context.Context, id string, fb *domain.Feedback) error
	Count(ctx context.Context) (int, error)
}

type FeedbackRepo interface {
	Append(ctx context.Context, f *domain.FeedbackRecord) error
	List(ctx context.Context) ([]*domain.FeedbackRecord, error)
	Count(ctx context.Context) (int, error)
}

type FolderFeedbackRepo interface {
	Append(ctx context.Context, f *domain.FolderCreationFeedback) error
	List(ctx context.Context) ([]*domain.FolderCreationFeedback, error)
}

type LearningSnapshotRepo interface {
	Append(ctx context.Context, s *domain.LearningSnapshot) error
	// ListRecent returns the newest n snapshots, oldest first, so velocity
	// fits a slope over time order.
	ListRecent(ctx context.Context, n int) ([]*domain.LearningSnapshot, error)
	List(ctx context.Context) ([]*domain.LearningSnapshot, error)
}

type PolicyRepo interface {
	Save(ctx context.Context, p *domain.PolicySnapshot) error
	// Load returns the saved policy, or the default baseline when none
	// has been written yet.
	Load(ctx context.Context) (*domain.PolicySnapshot, error)
}
