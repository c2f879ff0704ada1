package fusion

import (
	"fmt"
	"sort"

	"github.com/jagoff/obsidian-para/internal/domain"
)

// Weight bounds every component weight must respect after fusion.
const (
	weightFloor = 0.1
	weightCeil  = 0.9
)

// WeightInput carries the signals the dynamic weight computation reads.
type WeightInput struct {
	// SemanticConfidence is the fraction of neighbors agreeing with the
	// top neighbor category; negative when no neighbors were available.
	SemanticConfidence float64
	WordCount          int
	StrongRuleVote     bool
	IndexedNotes       int
	DirectiveKeyword   bool
}

// ComputeWeights derives the weight triple from the policy baseline and the
// per-note signals. Every adjustment is recorded in factors for the decision
// record. The result is clamped to [0.1, 0.9] per weight and sums to 1.
func ComputeWeights(policy domain.PolicySnapshot, in WeightInput) (domain.FusionWeights, map[string]string) {
	w := policy.EffectiveWeights()
	factors := map[string]string{}

	if in.SemanticConfidence > 0.8 {
		w.Semantic += 0.2
		factors["semantic_confidence_high"] = "+0.20 semantic"
	} else if in.SemanticConfidence >= 0 && in.SemanticConfidence < 0.3 {
		w.Semantic -= 0.2
		factors["semantic_confidence_low"] = "-0.20 semantic"
	}

	if in.WordCount > 500 {
		w.LLM += 0.1
		factors["long_note"] = "+0.10 llm"
	} else if in.WordCount < 50 {
		w.Semantic += 0.1
		factors["short_note"] = "+0.10 semantic"
	}

	if in.StrongRuleVote {
		w.Rule += 0.2
		factors["strong_rule"] = "+0.20 rule"
	}

	if in.IndexedNotes < 20 {
		w.LLM += 0.15
		w.Semantic -= 0.15
		factors["sparse_index"] = "+0.15 llm, -0.15 semantic"
	}

	if in.DirectiveKeyword {
		w.LLM += 0.2
		factors["directive_keyword"] = "+0.20 llm"
	}

	return normalizeBounded(w), factors
}

// normalizeBounded projects the triple onto the simplex (sum 1) while
// keeping every weight inside [0.1, 0.9]. Water-filling: clamp violators,
// renormalize the rest of the mass across the free weights.
func normalizeBounded(w domain.FusionWeights) domain.FusionWeights {
	vals := []float64{w.Semantic, w.LLM, w.Rule}
	for i, v := range vals {
		vals[i] = clamp(v, weightFloor, weightCeil)
	}

	fixed := make([]bool, 3)
	for iter := 0; iter < 4; iter++ {
		var fixedSum, freeSum float64
		freeCount := 0
		for i, v := range vals {
			if fixed[i] {
				fixedSum += v
			} else {
				freeSum += v
				freeCount++
			}
		}
		if freeCount == 0 {
			break
		}
		scale := (1 - fixedSum) / freeSum
		violated := false
		for i := range vals {
			if fixed[i] {
				continue
			}
			scaled := vals[i] * scale
			if scaled < weightFloor {
				vals[i] = weightFloor
				fixed[i] = true
				violated = true
			} else if scaled > weightCeil {
				vals[i] = weightCeil
				fixed[i] = true
				violated = true
			} else {
				vals[i] = scaled
			}
		}
		if !violated {
			break
		}
	}
	return domain.FusionWeights{Semantic: vals[0], LLM: vals[1], Rule: vals[2]}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// topContributors names the two largest weighted terms for the reasoning
// string.
func topContributors(terms map[string]float64) []string {
	type kv struct {
		name string
		val  float64
	}
	var list []kv
	for name, val := range terms {
		list = append(list, kv{name, val})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].val != list[j].val {
			return list[i].val > list[j].val
		}
		return list[i].name < list[j].name
	})
	var out []string
	for i, item := range list {
		if i >= 2 {
			break
		}
		out = append(out, fmt.Sprintf("%s=%.2f", item.name, item.val))
	}
	return out
}
