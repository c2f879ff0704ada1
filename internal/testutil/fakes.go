package testutil

import (
	"context"
	"crypto/sha256"
	"strings"
	"sync/atomic"

	"github.com/jagoff/obsidian-para/internal/embedding"
	"github.com/jagoff/obsidian-para/internal/llm"
)

// FakeEmbedder derives deterministic vectors from a SHA-256 hash of the
// text (or of its KeyFn key), without a model. Texts with the same key get
// identical vectors; different keys give unrelated vectors.
type FakeEmbedder struct {
	Dim int
	// Fail makes every call return embedding.ErrUnavailable.
	Fail bool
	// Calls counts invocations.
	Calls atomic.Int64
	// KeyFn maps text to a similarity key; nil hashes the whole text.
	KeyFn func(text string) string
}

// NewFakeEmbedder returns a deterministic 8-dimension fake.
func NewFakeEmbedder() *FakeEmbedder {
	return &FakeEmbedder{Dim: 8}
}

func (f *FakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.Calls.Add(1)
	if f.Fail {
		return nil, embedding.ErrUnavailable
	}
	key := text
	if f.KeyFn != nil {
		key = f.KeyFn(text)
	}
	sum := sha256.Sum256([]byte(key))
	vec := make([]float32, f.Dim)
	for i := range vec {
		vec[i] = float32(sum[i%len(sum)])/255 - 0.5
	}
	return vec, nil
}

// FakeClassifier returns a scripted classification.
type FakeClassifier struct {
	Result *llm.Classification
	Err    error
	Calls  atomic.Int64
	// ByContent overrides Result for texts containing the key substring.
	ByContent map[string]*llm.Classification
}

func (f *FakeClassifier) Classify(_ context.Context, noteContent, _ string, _ llm.TaskType) (*llm.Classification, error) {
	f.Calls.Add(1)
	if f.Err != nil {
		return nil, f.Err
	}
	for key, result := range f.ByContent {
		if key != "" && strings.Contains(noteContent, key) {
			return result, nil
		}
	}
	return f.Result, nil
}
