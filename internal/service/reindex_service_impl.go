package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/index"
	"github.com/jagoff/obsidian-para/internal/repository"
	"github.com/jagoff/obsidian-para/internal/vault"
)

type reindexService struct {
	session  *Session
	reader   *vault.Reader
	index    *index.Index
	repo     repository.IndexRepo
	observer UseCaseObserver
}

// NewReindexService wires the index rebuild use case.
func NewReindexService(session *Session, reader *vault.Reader, ix *index.Index, repo repository.IndexRepo, observer UseCaseObserver) ReindexService {
	if observer == nil {
		observer = NoopUseCaseObserver{}
	}
	return &reindexService{session: session, reader: reader, index: ix, repo: repo, observer: observer}
}

// Reindex sweeps the vault: embeds unseen or changed notes, retries entries
// flagged for re-embedding, and drops orphans whose files disappeared.
func (s *reindexService) Reindex(ctx context.Context, scope domain.PlanScope) (*contract.ReindexReport, error) {
	started := time.Now()
	report, err := s.reindex(ctx, scope)

	fields := map[string]any{"scope": string(scope)}
	if report != nil {
		fields["scanned"] = report.Scanned
		fields["embedded"] = report.Embedded
		fields["removed"] = report.Removed
	}
	observe(ctx, s.observer, "reindex", fields, started, err)
	return report, err
}

func (s *reindexService) reindex(ctx context.Context, scope domain.PlanScope) (*contract.ReindexReport, error) {
	report := &contract.ReindexReport{Scope: scope}

	notes, err := s.reader.List(s.session.VaultPath(), false)
	if err != nil {
		return nil, contract.Data("listing vault notes", err)
	}

	inScope := func(n *domain.Note) bool {
		switch scope {
		case domain.ScopeInbox:
			return n.Category == domain.CategoryInbox
		case domain.ScopeArchive:
			return n.Category == domain.CategoryArchive
		default:
			return n.Category != domain.CategoryUnknown
		}
	}

	seen := make(map[string]struct{}, len(notes))
	for _, note := range notes {
		if err := ctx.Err(); err != nil {
			return report, contract.ErrCancelled
		}
		seen[note.ID] = struct{}{}
		if !inScope(note) {
			continue
		}
		report.Scanned++

		entry, err := s.repo.Get(ctx, note.ID)
		fresh := err == nil &&
			entry.ContentHash == domain.ContentHash(note.Text) &&
			entry.HasEmbedding() && !entry.NeedsReembed
		if fresh {
			report.Skipped++
			continue
		}

		reembed := err == nil && (entry.NeedsReembed || !entry.HasEmbedding())
		if upErr := s.index.Upsert(ctx, note, note.Category, note.FolderName); upErr != nil {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("embedding %s failed; flagged for re-embed", note.Path))
			continue
		}
		if reembed {
			report.Reembedded++
		} else {
			report.Embedded++
		}
	}

	// Orphans: index entries whose file disappeared.
	entries, err := s.repo.List(ctx)
	if err != nil {
		return report, contract.Integrity("semantic index unreadable", err, "delete the index directory and reindex")
	}
	for _, e := range entries {
		if _, ok := seen[e.NoteID]; ok {
			continue
		}
		if _, statErr := os.Stat(e.Path); os.IsNotExist(statErr) {
			if err := s.repo.Delete(ctx, e.NoteID); err == nil {
				report.Removed++
			}
		}
	}
	return report, nil
}
