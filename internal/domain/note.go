package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Note is a single plain-text file observed in the vault. Identity is the
// stable hash of its absolute path; content identity is the content hash.
type Note struct {
	ID          string
	Path        string // absolute
	Name        string // filename without extension
	Text        string         // raw file content
	Body        string         // content with the metadata header stripped
	Header      map[string]any // parsed frontmatter; empty map when absent or malformed
	Tags        []string       // inline #tags, deduplicated, without '#'
	Links       []string       // [[wikilink]] targets
	Attachments []string       // ![alt](target) targets
	WordCount   int
	CreatedAt   time.Time
	ModifiedAt  time.Time
	Category    Category // derived from filesystem location
	FolderName  string   // immediate parent under the category root; "" at category root
}

// NoteID derives the stable identity for a note at the given absolute path.
func NoteID(absPath string) string {
	sum := sha256.Sum256([]byte(absPath))
	return hex.EncodeToString(sum[:])[:16]
}

// ContentHash hashes note text for cache keys and re-embed detection.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}

// HeaderString returns a scalar header value as a string, if present.
func (n *Note) HeaderString(key string) (string, bool) {
	v, ok := n.Header[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// HeaderList returns a header value as a string list. Scalars are wrapped.
func (n *Note) HeaderList(key string) []string {
	v, ok := n.Header[key]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	default:
		return nil
	}
}

// AgeAt returns the note's modification age at the given instant.
func (n *Note) AgeAt(now time.Time) time.Duration {
	return now.Sub(n.ModifiedAt)
}
