package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/domain"
)

type exclusionService struct {
	session  *Session
	observer UseCaseObserver
}

// NewExclusionService wires registry maintenance.
func NewExclusionService(session *Session, observer UseCaseObserver) ExclusionService {
	if observer == nil {
		observer = NoopUseCaseObserver{}
	}
	return &exclusionService{session: session, observer: observer}
}

func (s *exclusionService) Add(ctx context.Context, path, reason string) error {
	started := time.Now()
	err := s.session.Exclusions.Add(path, reason)
	observe(ctx, s.observer, "exclusions_add", map[string]any{"path": path}, started, err)
	if err != nil {
		return contract.Data("adding exclusion", err)
	}
	return nil
}

func (s *exclusionService) Remove(ctx context.Context, path string) error {
	started := time.Now()
	err := s.session.Exclusions.Remove(path)
	observe(ctx, s.observer, "exclusions_remove", map[string]any{"path": path}, started, err)
	if err != nil {
		return contract.Data("removing exclusion", err)
	}
	return nil
}

func (s *exclusionService) Clear(ctx context.Context) error {
	started := time.Now()
	err := s.session.Exclusions.Clear()
	observe(ctx, s.observer, "exclusions_clear", nil, started, err)
	if err != nil {
		return contract.Data("clearing exclusions", err)
	}
	return nil
}

func (s *exclusionService) List(ctx context.Context) ([]domain.ExclusionEntry, error) {
	return s.session.Exclusions.List(), nil
}

// suggestionFolderNames are directory names conventionally holding material
// the classifier should leave alone.
var suggestionFolderNames = map[string]struct{}{
	"templates": {}, "template": {}, "attachments": {}, "assets": {}, "files": {},
}

// Suggest lists candidate subtrees worth excluding, without adding them.
func (s *exclusionService) Suggest(ctx context.Context) ([]string, error) {
	var out []string
	root := s.session.VaultPath()
	for _, cat := range []domain.Category{
		domain.CategoryInbox, domain.CategoryProjects, domain.CategoryAreas,
		domain.CategoryResources, domain.CategoryArchive,
	} {
		dir := filepath.Join(root, cat.Folder())
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			name := strings.ToLower(e.Name())
			if _, ok := suggestionFolderNames[name]; ok {
				candidate := filepath.Join(dir, e.Name())
				if !s.session.Exclusions.Contains(candidate) {
					out = append(out, candidate)
				}
			}
		}
	}
	return out, nil
}
