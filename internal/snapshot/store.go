// Package snapshot keeps content-preserving copies of the vault, addressable
// by "<timestamp>_<reason>" ids. The executor depends on one existing before
// any move.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jagoff/obsidian-para/internal/domain"
)

const manifestFile = "manifest.json"

// ErrNotFound is returned for unknown snapshot ids.
var ErrNotFound = errors.New("snapshot not found")

// Excluder filters subtrees that are never copied into a snapshot.
type Excluder interface {
	Contains(path string) bool
}

// Store owns the snapshot directory.
type Store struct {
	root     string
	excluder Excluder
}

// NewStore creates a Store rooted at dir. excluder may be nil.
func NewStore(dir string, excluder Excluder) *Store {
	return &Store{root: dir, excluder: excluder}
}

var reasonSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// idFor builds the stable snapshot id for a creation time and reason tag.
func idFor(at time.Time, reason string) string {
	tag := reasonSanitizer.ReplaceAllString(strings.TrimSpace(reason), "-")
	tag = strings.Trim(tag, "-")
	if tag == "" {
		tag = "manual"
	}
	return at.UTC().Format("20060102T150405") + "_" + tag
}

// Create copies the vault tree (excluding hidden directories and excluded
// subtrees) into a new snapshot and writes its manifest. Cancellable
// between files; a cancelled snapshot is removed.
func (s *Store) Create(ctx context.Context, vaultPath, reason string) (*domain.SnapshotManifest, error) {
	now := time.Now()
	id := idFor(now, reason)
	dest := filepath.Join(s.root, id)
	treeDest := filepath.Join(dest, "tree")

	if err := os.MkdirAll(treeDest, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}

	var fileCount int
	var sizeBytes int64

	err := filepath.WalkDir(vaultPath, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(vaultPath, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != vaultPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if s.excluder != nil && s.excluder.Contains(path) {
				return filepath.SkipDir
			}
			if rel == "." {
				return nil
			}
			return os.MkdirAll(filepath.Join(treeDest, rel), 0o755)
		}
		if s.excluder != nil && s.excluder.Contains(path) {
			return nil
		}

		n, err := copyFile(path, filepath.Join(treeDest, rel))
		if err != nil {
			return err
		}
		fileCount++
		sizeBytes += n
		return nil
	})
	if err != nil {
		_ = os.RemoveAll(dest)
		return nil, fmt.Errorf("copying vault tree: %w", err)
	}

	manifest := &domain.SnapshotManifest{
		ID:              id,
		CreatedAt:       now.UTC(),
		Reason:          reason,
		FileCount:       fileCount,
		SizeBytes:       sizeBytes,
		SourceVaultPath: vaultPath,
	}
	if err := s.writeManifest(dest, manifest); err != nil {
		_ = os.RemoveAll(dest)
		return nil, err
	}
	return manifest, nil
}

// Restore copies a snapshot's tree back to the source vault path. Returns
// the number of files and bytes restored.
func (s *Store) Restore(ctx context.Context, id string) (int, int64, error) {
	manifest, err := s.Get(id)
	if err != nil {
		return 0, 0, err
	}
	treeSrc := filepath.Join(s.root, id, "tree")

	var files int
	var bytes int64
	err = filepath.WalkDir(treeSrc, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(treeSrc, path)
		if err != nil {
			return err
		}
		target := filepath.Join(manifest.SourceVaultPath, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		n, err := copyFile(path, target)
		if err != nil {
			return err
		}
		files++
		bytes += n
		return nil
	})
	if err != nil {
		return files, bytes, fmt.Errorf("restoring snapshot %s: %w", id, err)
	}
	return files, bytes, nil
}

// Get loads one manifest by id.
func (s *Store) Get(id string) (*domain.SnapshotManifest, error) {
	data, err := os.ReadFile(filepath.Join(s.root, id, manifestFile))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest for %s: %w", id, err)
	}
	var m domain.SnapshotManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest for %s: %w", id, err)
	}
	return &m, nil
}

// List returns every manifest, newest first.
func (s *Store) List() ([]*domain.SnapshotManifest, error) {
	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	var out []*domain.SnapshotManifest
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m, err := s.Get(e.Name())
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Prune deletes all but the newest keep snapshots. Never automatic; only an
// explicit operation calls this.
func (s *Store) Prune(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	manifests, err := s.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for i := keep; i < len(manifests); i++ {
		if err := os.RemoveAll(filepath.Join(s.root, manifests[i].ID)); err != nil {
			return removed, fmt.Errorf("pruning snapshot %s: %w", manifests[i].ID, err)
		}
		removed++
	}
	return removed, nil
}

func (s *Store) writeManifest(dest string, m *domain.SnapshotManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dest, manifestFile), data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

func copyFile(src, dst string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("copying %s: %w", src, err)
	}
	return n, nil
}
