// Package vault enumerates and parses the notes of a PARA vault.
package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jagoff/obsidian-para/internal/domain"
)

// Excluder answers whether a path falls under an excluded subtree.
type Excluder interface {
	Contains(path string) bool
}

// Reader walks a vault root and yields parsed notes.
type Reader struct {
	// Extensions is the note-extension set; defaults to {".md"}.
	Extensions []string
	// Excluder filters excluded subtrees; nil excludes nothing.
	Excluder Excluder
	// Warn receives unreadable-file and malformed-header events. The walk
	// continues past them. Nil discards.
	Warn func(path string, err error)
}

// NewReader builds a Reader with the given note extensions.
func NewReader(extensions []string, excluder Excluder) *Reader {
	if len(extensions) == 0 {
		extensions = []string{".md"}
	}
	return &Reader{Extensions: extensions, Excluder: excluder}
}

// Walk enumerates notes under root in lexical order, invoking fn for each.
// Hidden directories are never traversed. Excluded subtrees are skipped at
// the directory-listing level unless includeExcluded is set. Unreadable
// files are warned and skipped. fn returning an error stops the walk.
func (r *Reader) Walk(root string, includeExcluded bool, fn func(*domain.Note) error) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving vault root: %w", err)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			r.warn(path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if !includeExcluded && r.excluded(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if !r.noteExtension(path) {
			return nil
		}
		if !includeExcluded && r.excluded(path) {
			return nil
		}

		note, err := r.ReadNote(root, path)
		if err != nil {
			r.warn(path, err)
			return nil
		}
		return fn(note)
	})
}

// List buffers a full walk. Callers needing two passes use this.
func (r *Reader) List(root string, includeExcluded bool) ([]*domain.Note, error) {
	var notes []*domain.Note
	err := r.Walk(root, includeExcluded, func(n *domain.Note) error {
		notes = append(notes, n)
		return nil
	})
	return notes, err
}

// ReadNote reads and parses one note file under root.
func (r *Reader) ReadNote(root, path string) (*domain.Note, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	text := string(data)

	rawHeader, body, hasHeader := splitFrontmatter(text)
	header := map[string]any{}
	if hasHeader {
		var ok bool
		header, ok = parseHeader(rawHeader)
		if !ok {
			r.warn(path, fmt.Errorf("malformed metadata header"))
		}
	}

	category, folder := locate(root, path)
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	// Creation time is not portably available; modification time is the
	// lower bound the recency features rely on.
	return &domain.Note{
		ID:          domain.NoteID(path),
		Path:        path,
		Name:        name,
		Text:        text,
		Body:        body,
		Header:      header,
		Tags:        scanTags(body),
		Links:       scanLinks(body),
		Attachments: scanAttachments(body),
		WordCount:   countWords(body),
		CreatedAt:   info.ModTime(),
		ModifiedAt:  info.ModTime(),
		Category:    category,
		FolderName:  folder,
	}, nil
}

// locate derives (category, folder name) from a note's position under root.
// The folder name is the first-level directory under the category root, or
// empty for notes directly in a category folder.
func locate(root, path string) (domain.Category, string) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return domain.CategoryUnknown, ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return domain.CategoryUnknown, ""
	}
	category := domain.CategoryForFolder(parts[0])
	if len(parts) == 2 {
		return category, ""
	}
	return category, parts[1]
}

func (r *Reader) noteExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range r.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func (r *Reader) excluded(path string) bool {
	return r.Excluder != nil && r.Excluder.Contains(path)
}

func (r *Reader) warn(path string, err error) {
	if r.Warn != nil {
		r.Warn(path, err)
	}
}
