package learning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jagoff/obsidian-para/internal/domain"
)

func fbDecision(cat domain.Category, confidence float64, action domain.FeedbackAction) *domain.DecisionRecord {
	d := &domain.DecisionRecord{Category: cat, Confidence: confidence}
	if action != "" {
		d.Feedback = &domain.Feedback{Action: action, At: time.Now()}
	}
	return d
}

// A correction moves accuracy down by exactly 1/feedback_count.
func TestAccuracyRateDropsByOneOverFeedbackCount(t *testing.T) {
	assert.Equal(t, 0.0, accuracyRate(0, 0))
	assert.Equal(t, 1.0, accuracyRate(4, 0))

	before := accuracyRate(4, 0)
	after := accuracyRate(5, 1)
	assert.InDelta(t, 1.0/5.0, before-after, 1e-9)
}

func TestConfidenceCorrelation(t *testing.T) {
	// Confidence tracks correctness: high correlation maps near 1.
	var aligned []*domain.DecisionRecord
	for i := 0; i < 5; i++ {
		aligned = append(aligned,
			fbDecision(domain.CategoryProjects, 0.9, domain.FeedbackAccepted),
			fbDecision(domain.CategoryProjects, 0.2, domain.FeedbackCorrected),
		)
	}
	assert.Greater(t, confidenceCorrelation(aligned), 0.9)

	// Inverted: confident but wrong maps near 0.
	var inverted []*domain.DecisionRecord
	for i := 0; i < 5; i++ {
		inverted = append(inverted,
			fbDecision(domain.CategoryProjects, 0.9, domain.FeedbackCorrected),
			fbDecision(domain.CategoryProjects, 0.2, domain.FeedbackAccepted),
		)
	}
	assert.Less(t, confidenceCorrelation(inverted), 0.1)

	// Undefined (no feedback, or zero variance) reports 0.5.
	assert.Equal(t, 0.5, confidenceCorrelation(nil))
	same := []*domain.DecisionRecord{
		fbDecision(domain.CategoryProjects, 0.5, domain.FeedbackAccepted),
		fbDecision(domain.CategoryProjects, 0.5, domain.FeedbackAccepted),
	}
	assert.Equal(t, 0.5, confidenceCorrelation(same))
}

func TestCategoryBalanceEntropy(t *testing.T) {
	var even []*domain.DecisionRecord
	for _, c := range domain.ClassifiableCategories {
		even = append(even, fbDecision(c, 0.5, ""), fbDecision(c, 0.5, ""))
	}
	assert.InDelta(t, 1.0, categoryBalance(even), 1e-9)

	skewed := []*domain.DecisionRecord{
		fbDecision(domain.CategoryArchive, 0.5, ""),
		fbDecision(domain.CategoryArchive, 0.5, ""),
	}
	assert.InDelta(t, 0.0, categoryBalance(skewed), 1e-9)
	assert.Equal(t, 0.0, categoryBalance(nil))
}

func TestUserSatisfactionPlateau(t *testing.T) {
	assert.Equal(t, 0.0, userSatisfaction(0, 0))
	assert.InDelta(t, 0.4, userSatisfaction(100, 2), 1e-9) // 2% rate
	assert.Equal(t, 1.0, userSatisfaction(100, 5))
	assert.Equal(t, 1.0, userSatisfaction(100, 15))
	assert.Less(t, userSatisfaction(100, 60), 0.6)
	assert.Greater(t, userSatisfaction(100, 10), userSatisfaction(100, 40))
}

func TestLearningVelocitySlope(t *testing.T) {
	improving := []*domain.LearningSnapshot{
		{AccuracyRate: 0.5}, {AccuracyRate: 0.6}, {AccuracyRate: 0.7},
	}
	declining := []*domain.LearningSnapshot{
		{AccuracyRate: 0.7}, {AccuracyRate: 0.6}, {AccuracyRate: 0.5},
	}
	flat := []*domain.LearningSnapshot{
		{AccuracyRate: 0.6}, {AccuracyRate: 0.6},
	}

	assert.Greater(t, learningVelocity(improving), 0.5)
	assert.Less(t, learningVelocity(declining), 0.5)
	assert.InDelta(t, 0.5, learningVelocity(flat), 1e-9)
	assert.Equal(t, 0.5, learningVelocity(nil))
}

func TestSemanticCoherenceAverages(t *testing.T) {
	decisions := []*domain.DecisionRecord{
		{SemanticScore: 0.8}, {SemanticScore: 0.4},
	}
	assert.InDelta(t, 0.6, semanticCoherence(decisions), 1e-9)
	assert.Equal(t, 0.0, semanticCoherence(nil))
}

func TestImprovementScoreBlends(t *testing.T) {
	perfect := improvementScore(1, 1, 1, 1, 1, 1)
	assert.InDelta(t, 1.0, perfect, 1e-9)
	zero := improvementScore(0, 0, 0, 0, 0, 0)
	assert.Equal(t, 0.0, zero)
}
