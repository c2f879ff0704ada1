package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jagoff/obsidian-para/internal/domain"
)

// VaultBuilder assembles a throwaway PARA vault under t.TempDir().
type VaultBuilder struct {
	t    *testing.T
	Root string
}

// NewVault creates a vault skeleton with the five PARA folders.
func NewVault(t *testing.T) *VaultBuilder {
	t.Helper()
	root := t.TempDir()
	for _, cat := range []domain.Category{
		domain.CategoryInbox, domain.CategoryProjects, domain.CategoryAreas,
		domain.CategoryResources, domain.CategoryArchive,
	} {
		if err := os.MkdirAll(filepath.Join(root, cat.Folder()), 0o755); err != nil {
			t.Fatalf("creating vault folder: %v", err)
		}
	}
	return &VaultBuilder{t: t, Root: root}
}

// Note writes a note file at relPath (relative to the vault root) and
// returns its absolute path.
func (b *VaultBuilder) Note(relPath, content string) string {
	b.t.Helper()
	path := filepath.Join(b.Root, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		b.t.Fatalf("creating note directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		b.t.Fatalf("writing note: %v", err)
	}
	return path
}

// NoteWithAge writes a note and backdates its modification time.
func (b *VaultBuilder) NoteWithAge(relPath, content string, age time.Duration) string {
	b.t.Helper()
	path := b.Note(relPath, content)
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		b.t.Fatalf("backdating note: %v", err)
	}
	return path
}
