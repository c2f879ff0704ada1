package learning

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/repository"
)

// Export then import into an empty store reproduces the derived metrics.
func TestKnowledgeRoundTripPreservesMetrics(t *testing.T) {
	src := newStores(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		cat := domain.ClassifiableCategories[i%4]
		src.appendDecision(t, fmt.Sprintf("d%d", i), cat, domain.MethodSemanticWeighted, 0.5+float64(i)*0.05)
	}
	require.NoError(t, src.store.RecordFeedback(ctx, "d0", domain.FeedbackAccepted, "", ""))
	require.NoError(t, src.store.RecordFeedback(ctx, "d1", domain.FeedbackCorrected, domain.CategoryArchive, ""))
	_, err := src.store.TakeSnapshot(ctx)
	require.NoError(t, err)

	doc, err := src.store.Export(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, contract.KnowledgeSchemaVersion, doc.SchemaVersion)

	// Serialize through JSON, as the CLI does.
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	var decoded contract.KnowledgeExport
	require.NoError(t, json.Unmarshal(data, &decoded))

	dst := newStores(t)
	require.NoError(t, dst.store.Import(ctx, &decoded))

	srcStatus, err := src.store.Status(ctx)
	require.NoError(t, err)
	dstStatus, err := dst.store.Status(ctx)
	require.NoError(t, err)

	assert.Equal(t, srcStatus.TotalClassifications, dstStatus.TotalClassifications)
	assert.InDelta(t, srcStatus.AccuracyRate, dstStatus.AccuracyRate, 1e-9)
	assert.InDelta(t, srcStatus.ConfidenceCorrelation, dstStatus.ConfidenceCorrelation, 1e-9)
	assert.InDelta(t, srcStatus.CategoryBalance, dstStatus.CategoryBalance, 1e-9)
	assert.InDelta(t, srcStatus.SemanticCoherence, dstStatus.SemanticCoherence, 1e-9)
	assert.InDelta(t, srcStatus.ImprovementScore, dstStatus.ImprovementScore, 1e-9)
}

func TestExportIncludesEmbeddingsWhenAsked(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	require.NoError(t, s.index.Upsert(ctx, &repository.IndexEntry{
		NoteID:    "n1",
		Embedding: []float32{0.5, -0.5},
		Path:      "/vault/n1.md",
		Category:  domain.CategoryProjects,
	}))
	require.NoError(t, s.index.Upsert(ctx, &repository.IndexEntry{
		NoteID:   "null-entry",
		Path:     "/vault/n2.md",
		Category: domain.CategoryProjects,
	}))

	doc, err := s.store.Export(ctx, s.index)
	require.NoError(t, err)
	require.Contains(t, doc.Embeddings, "n1")
	assert.NotContains(t, doc.Embeddings, "null-entry")

	doc, err = s.store.Export(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, doc.Embeddings)
}

func TestImportRejectsSchemaMismatch(t *testing.T) {
	s := newStores(t)
	err := s.store.Import(context.Background(), &contract.KnowledgeExport{SchemaVersion: "99"})
	require.Error(t, err)
	assert.True(t, contract.IsKind(err, contract.KindIntegrity))
}
