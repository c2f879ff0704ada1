package contract

import (
	"time"

	"github.com/jagoff/obsidian-para/internal/domain"
)

// LearningStatus is the on-demand view of the learning store's derived metrics.
type LearningStatus struct {
	TotalClassifications  int
	FeedbackCount         int
	AccuracyRate          float64
	ConfidenceCorrelation float64
	CategoryBalance       float64
	SemanticCoherence     float64
	UserSatisfaction      float64
	LearningVelocity      float64
	ImprovementScore      float64
	CategoryDistribution  map[domain.Category]int
	FolderPatterns        []domain.FolderPattern
	Policy                domain.PolicySnapshot
}

// Suggestion is one actionable hint derived from learning metrics.
type Suggestion struct {
	Code    string
	Message string
	// Severity orders suggestions for display; higher is more pressing.
	Severity int
}

// KnowledgeSchemaVersion tags the export document format.
const KnowledgeSchemaVersion = "2"

// KnowledgeExport is the single serialized learning document.
type KnowledgeExport struct {
	SchemaVersion string                    `json:"schema_version"`
	ExportedAt    time.Time                 `json:"exported_at"`
	Metrics       []domain.LearningSnapshot `json:"metrics"`
	Decisions     []domain.DecisionRecord   `json:"decisions"`
	Feedback      []domain.FeedbackRecord   `json:"feedback"`
	Patterns      []domain.FolderPattern    `json:"patterns"`
	Policy        domain.PolicySnapshot     `json:"policy"`
	// Embeddings are optional and keyed by note id.
	Embeddings map[string][]float32 `json:"embeddings,omitempty"`
}
