package service

import (
	"context"
	"time"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/learning"
	"github.com/jagoff/obsidian-para/internal/repository"
)

type learningService struct {
	store    *learning.Store
	index    repository.IndexRepo
	observer UseCaseObserver
}

// NewLearningService wires learning status, feedback, and knowledge
// export/import.
func NewLearningService(store *learning.Store, index repository.IndexRepo, observer UseCaseObserver) LearningService {
	if observer == nil {
		observer = NoopUseCaseObserver{}
	}
	return &learningService{store: store, index: index, observer: observer}
}

func (s *learningService) Status(ctx context.Context) (*contract.LearningStatus, error) {
	return s.store.Status(ctx)
}

func (s *learningService) Suggestions(ctx context.Context) ([]contract.Suggestion, error) {
	return s.store.Suggestions(ctx)
}

func (s *learningService) Feedback(ctx context.Context, decisionID string, action domain.FeedbackAction, correction domain.Category, notes string) error {
	started := time.Now()
	err := s.store.RecordFeedback(ctx, decisionID, action, correction, notes)
	observe(ctx, s.observer, "learning_feedback",
		map[string]any{"decision_id": decisionID, "action": string(action)}, started, err)
	return err
}

func (s *learningService) Export(ctx context.Context, includeEmbeddings bool) (*contract.KnowledgeExport, error) {
	started := time.Now()
	var indexRepo repository.IndexRepo
	if includeEmbeddings {
		indexRepo = s.index
	}
	doc, err := s.store.Export(ctx, indexRepo)
	fields := map[string]any{"embeddings": includeEmbeddings}
	if doc != nil {
		fields["decisions"] = len(doc.Decisions)
	}
	observe(ctx, s.observer, "learning_export", fields, started, err)
	return doc, err
}

func (s *learningService) Import(ctx context.Context, doc *contract.KnowledgeExport) error {
	started := time.Now()
	err := s.store.Import(ctx, doc)
	observe(ctx, s.observer, "learning_import", map[string]any{"decisions": len(doc.Decisions)}, started, err)
	return err
}
