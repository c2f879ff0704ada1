package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/repository"
	"github.com/jagoff/obsidian-para/internal/snapshot"
)

type snapshotService struct {
	session  *Session
	store    *snapshot.Store
	repo     repository.IndexRepo
	observer UseCaseObserver
}

// NewSnapshotService wires snapshot creation, restore, listing, and pruning.
func NewSnapshotService(session *Session, store *snapshot.Store, repo repository.IndexRepo, observer UseCaseObserver) SnapshotService {
	if observer == nil {
		observer = NoopUseCaseObserver{}
	}
	return &snapshotService{session: session, store: store, repo: repo, observer: observer}
}

func (s *snapshotService) Create(ctx context.Context, reason string) (string, error) {
	started := time.Now()
	manifest, err := s.store.Create(ctx, s.session.VaultPath(), reason)
	id := ""
	if manifest != nil {
		id = manifest.ID
	}
	observe(ctx, s.observer, "snapshot_create", map[string]any{"id": id, "reason": reason}, started, err)
	if err != nil {
		if ctx.Err() != nil {
			return "", contract.ErrCancelled
		}
		return "", contract.Transient("creating snapshot", err)
	}
	return id, nil
}

// Restore copies the snapshot tree back over the vault and invalidates every
// index entry whose path is under the vault; the next sweep re-upserts them.
func (s *snapshotService) Restore(ctx context.Context, id string) (*contract.RestoreReport, error) {
	started := time.Now()
	report, err := s.restore(ctx, id)
	fields := map[string]any{"id": id}
	if report != nil {
		fields["files"] = report.FilesRestored
	}
	observe(ctx, s.observer, "snapshot_restore", fields, started, err)
	return report, err
}

func (s *snapshotService) restore(ctx context.Context, id string) (*contract.RestoreReport, error) {
	files, bytes, err := s.store.Restore(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return nil, contract.ErrCancelled
		}
		return nil, contract.Data("restoring snapshot "+id, err)
	}

	report := &contract.RestoreReport{
		SnapshotID:    id,
		FilesRestored: files,
		BytesRestored: bytes,
	}

	vaultPrefix := s.session.VaultPath() + string(filepath.Separator)
	entries, err := s.repo.List(ctx)
	if err != nil {
		return report, contract.Integrity("semantic index unreadable after restore", err, "run reindex")
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Path, vaultPrefix) {
			continue
		}
		if delErr := s.repo.Delete(ctx, e.NoteID); delErr == nil {
			report.InvalidatedNoteIDs = append(report.InvalidatedNoteIDs, e.NoteID)
		}
	}
	return report, nil
}

func (s *snapshotService) List(ctx context.Context) ([]*domain.SnapshotManifest, error) {
	manifests, err := s.store.List()
	if err != nil {
		return nil, contract.Data("listing snapshots", err)
	}
	return manifests, nil
}

func (s *snapshotService) Prune(ctx context.Context, keep int) (int, error) {
	started := time.Now()
	removed, err := s.store.Prune(keep)
	observe(ctx, s.observer, "snapshot_prune", map[string]any{"keep": keep, "removed": removed}, started, err)
	if err != nil {
		return removed, contract.Data("pruning snapshots", err)
	}
	return removed, nil
}
