package learning

import (
	"context"
	"fmt"
	"time"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/repository"
)

// Export serializes the learning store into a single versioned document.
// Embeddings are included only when an index repo is provided.
func (s *Store) Export(ctx context.Context, indexRepo repository.IndexRepo) (*contract.KnowledgeExport, error) {
	decisions, err := s.decisions.ListRecent(ctx, s.historyN)
	if err != nil {
		return nil, err
	}
	feedback, err := s.feedback.List(ctx)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.snapshots.List(ctx)
	if err != nil {
		return nil, err
	}
	patterns, err := s.FolderPatterns(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := s.policy.Load(ctx)
	if err != nil {
		return nil, err
	}

	doc := &contract.KnowledgeExport{
		SchemaVersion: contract.KnowledgeSchemaVersion,
		ExportedAt:    time.Now().UTC(),
		Patterns:      patterns,
		Policy:        *policy,
	}
	for _, d := range decisions {
		doc.Decisions = append(doc.Decisions, *d)
	}
	for _, f := range feedback {
		doc.Feedback = append(doc.Feedback, *f)
	}
	for _, m := range snapshots {
		doc.Metrics = append(doc.Metrics, *m)
	}

	if indexRepo != nil {
		entries, err := indexRepo.List(ctx)
		if err != nil {
			return nil, err
		}
		doc.Embeddings = make(map[string][]float32, len(entries))
		for _, e := range entries {
			if e.HasEmbedding() {
				doc.Embeddings[e.NoteID] = e.Embedding
			}
		}
	}
	return doc, nil
}

// Import loads an exported document into this store. The schema version
// must match; decisions and feedback are appended, the policy replaced.
func (s *Store) Import(ctx context.Context, doc *contract.KnowledgeExport) error {
	if doc.SchemaVersion != contract.KnowledgeSchemaVersion {
		return contract.Integrity(
			fmt.Sprintf("knowledge document schema %q, expected %q", doc.SchemaVersion, contract.KnowledgeSchemaVersion),
			nil,
			"re-export from a matching version")
	}

	for i := range doc.Decisions {
		if err := s.decisions.Append(ctx, &doc.Decisions[i]); err != nil {
			return fmt.Errorf("importing decision %s: %w", doc.Decisions[i].ID, err)
		}
	}
	for i := range doc.Feedback {
		if err := s.feedback.Append(ctx, &doc.Feedback[i]); err != nil {
			return fmt.Errorf("importing feedback %s: %w", doc.Feedback[i].ID, err)
		}
	}
	for i := range doc.Metrics {
		if err := s.snapshots.Append(ctx, &doc.Metrics[i]); err != nil {
			return fmt.Errorf("importing learning snapshot %s: %w", doc.Metrics[i].ID, err)
		}
	}
	if err := s.policy.Save(ctx, &doc.Policy); err != nil {
		return fmt.Errorf("importing policy: %w", err)
	}
	return nil
}
