package feature

import (
	"sync"

	"github.com/jagoff/obsidian-para/internal/domain"
)

// Cache memoizes feature vectors by note id + content hash. A content change
// produces a new hash and so invalidates the cached vector.
type Cache struct {
	mu      sync.RWMutex
	vectors map[string]*domain.FeatureVector // note id -> vector
}

// NewCache returns an empty feature cache.
func NewCache() *Cache {
	return &Cache{vectors: make(map[string]*domain.FeatureVector)}
}

// Get returns the cached vector when its content hash still matches.
func (c *Cache) Get(noteID, contentHash string) (*domain.FeatureVector, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vectors[noteID]
	if !ok || v.ContentHash != contentHash {
		return nil, false
	}
	return v, true
}

// Put stores a vector, replacing any stale entry for the note.
func (c *Cache) Put(v *domain.FeatureVector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vectors[v.NoteID] = v
}
