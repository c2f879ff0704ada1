// Package service is the use-case layer: the programmatic operations the
// CLI collaborator invokes. Services return data structures and structured
// errors; rendering is the adapter's job.
package service

import (
	"context"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/planner"
)

type PlanService interface {
	// Plan builds a move plan for the scope. Simulation unless req.Execute.
	Plan(ctx context.Context, req planner.Request) (*planner.Result, error)
	// Consolidate builds the opt-in folder-merge plan variant.
	Consolidate(ctx context.Context, category domain.Category, execute bool) (*domain.MovePlan, error)
}

type ExecuteService interface {
	Execute(ctx context.Context, plan *domain.MovePlan) (*contract.ExecutionReport, error)
}

type ReindexService interface {
	Reindex(ctx context.Context, scope domain.PlanScope) (*contract.ReindexReport, error)
}

type SnapshotService interface {
	Create(ctx context.Context, reason string) (string, error)
	Restore(ctx context.Context, id string) (*contract.RestoreReport, error)
	List(ctx context.Context) ([]*domain.SnapshotManifest, error)
	Prune(ctx context.Context, keep int) (int, error)
}

type ExclusionService interface {
	Add(ctx context.Context, path, reason string) error
	Remove(ctx context.Context, path string) error
	Clear(ctx context.Context) error
	List(ctx context.Context) ([]domain.ExclusionEntry, error)
	// Suggest lists candidate subtrees worth excluding without adding them.
	Suggest(ctx context.Context) ([]string, error)
}

type LearningService interface {
	Status(ctx context.Context) (*contract.LearningStatus, error)
	Suggestions(ctx context.Context) ([]contract.Suggestion, error)
	Feedback(ctx context.Context, decisionID string, action domain.FeedbackAction, correction domain.Category, notes string) error
	Export(ctx context.Context, includeEmbeddings bool) (*contract.KnowledgeExport, error)
	Import(ctx context.Context, doc *contract.KnowledgeExport) error
}
