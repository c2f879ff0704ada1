package learning

import (
	"context"
	"time"

	"github.com/jagoff/obsidian-para/internal/domain"
)

// maxNudge bounds how far a single recompute can move any weight from the
// baseline.
const maxNudge = 0.1

// nudgeStep is the per-correction adjustment before clamping.
const nudgeStep = 0.02

// RecomputePolicy is the feedback loop: it reads recent feedback and writes
// a fresh policy snapshot for fusion to consult on the next run. Strictly
// one-way; nothing here reads fusion state back.
func (s *Store) RecomputePolicy(ctx context.Context) error {
	recent, err := s.decisions.ListRecent(ctx, s.historyN)
	if err != nil {
		return err
	}

	var nudges domain.FusionWeights
	for _, d := range recent {
		if d.Feedback == nil {
			continue
		}
		delta := -nudgeStep
		if d.Feedback.Action == domain.FeedbackAccepted {
			delta = nudgeStep / 2
		}
		// Attribute the outcome to the component that drove the decision.
		switch d.Method {
		case domain.MethodSemanticWeighted, domain.MethodSemanticOnly:
			nudges.Semantic += delta
		case domain.MethodLLMWeighted, domain.MethodLLMOnly:
			nudges.LLM += delta
		case domain.MethodRuleWeighted, domain.MethodRuleOnly:
			nudges.Rule += delta
		case domain.MethodConsensus:
			nudges.Semantic += delta / 3
			nudges.LLM += delta / 3
			nudges.Rule += delta / 3
		}
	}
	return s.savePolicy(ctx, nudges)
}

func (s *Store) savePolicy(ctx context.Context, nudges domain.FusionWeights) error {
	policy := domain.DefaultPolicy()
	policy.At = time.Now().UTC()
	policy.WeightNudges = domain.FusionWeights{
		Semantic: clamp(nudges.Semantic, -maxNudge, maxNudge),
		LLM:      clamp(nudges.LLM, -maxNudge, maxNudge),
		Rule:     clamp(nudges.Rule, -maxNudge, maxNudge),
	}

	patterns, err := s.FolderPatterns(ctx)
	if err != nil {
		return err
	}
	preferred := make(map[domain.Category][]string)
	for _, p := range patterns {
		if p.SuccessRate >= 0.8 && p.UseCount >= 2 {
			preferred[p.Category] = append(preferred[p.Category], p.FolderName)
		}
	}
	if len(preferred) > 0 {
		policy.PreferredFolders = preferred
	}

	return s.policy.Save(ctx, &policy)
}
