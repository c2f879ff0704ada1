// Package fusion combines semantic neighbors, the LLM classification, and
// rule votes into one weighted decision per note.
package fusion

import (
	"sort"
	"strings"
	"time"

	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/llm"
	"github.com/jagoff/obsidian-para/internal/rules"
)

// fallbackFloor is the winning score below which the decision is forced to
// Archive with method "fallback".
const fallbackFloor = 0.4

// llmVoteStrength discounts the LLM's categorical answer in the score sum.
const llmVoteStrength = 0.9

// Input is everything one decision needs. LLM may be nil (degraded run);
// NeighborCounts may be empty (cold or unavailable index).
type Input struct {
	Note           *domain.Note
	Features       *domain.FeatureVector
	NeighborCounts map[domain.Category]int
	RuleVotes      []rules.Vote
	LLM            *llm.Classification
	Policy         domain.PolicySnapshot
	IndexedNotes   int
	Now            time.Time
}

// Decide fuses the three classifiers into a decision record. The record's
// ID is left for the caller to assign.
func Decide(in Input) *domain.DecisionRecord {
	semShare, semConfidence, semTop := semanticShares(in.NeighborCounts)
	ruleSum, ruleTop, strongRationales := ruleShares(in.RuleVotes)

	weights, factors := ComputeWeights(in.Policy, WeightInput{
		SemanticConfidence: semConfidence,
		WordCount:          in.Features.WordCount,
		StrongRuleVote:     len(strongRationales) > 0,
		IndexedNotes:       in.IndexedNotes,
		DirectiveKeyword:   hasCategoryKeyword(in.Features),
	})

	// Score every candidate category.
	scores := make(map[domain.Category]float64, len(domain.ClassifiableCategories))
	for _, c := range domain.ClassifiableCategories {
		s := weights.Semantic * semShare[c]
		if in.LLM != nil && in.LLM.Category == c {
			s += weights.LLM * llmVoteStrength
		}
		s += weights.Rule * ruleSum[c]
		scores[c] = s
	}

	winner := pickWinner(scores)
	winnerScore := clamp(scores[winner], 0, 1)

	method := classifyMethod(methodInput{
		winner:       winner,
		winnerScore:  scores[winner],
		weights:      weights,
		semShare:     semShare,
		semTop:       semTop,
		hasNeighbors: len(in.NeighborCounts) > 0,
		ruleSum:      ruleSum,
		ruleTop:      ruleTop,
		hasRules:     len(in.RuleVotes) > 0,
		llm:          in.LLM,
	})

	confidence := winnerScore
	if method == domain.MethodFallback {
		winner = domain.CategoryArchive
	}

	var llmCategory domain.Category
	var llmFolder string
	if in.LLM != nil {
		llmCategory = in.LLM.Category
		llmFolder = in.LLM.FolderName
	}

	return &domain.DecisionRecord{
		NoteID:         in.Note.ID,
		Timestamp:      in.Now,
		Category:       winner,
		FolderName:     ChooseFolderName(in.Note, winner, llmCategory, llmFolder),
		Confidence:     confidence,
		Method:         method,
		SemanticScore:  semShare[winner],
		LLMScore:       llmScore(in.LLM, winner),
		RuleScore:      ruleSum[winner],
		Weights:        weights,
		Reasoning:      buildReasoning(method, scores, weights, semShare, ruleSum, strongRationales, in),
		FactorsApplied: factors,
	}
}

// semanticShares converts neighbor counts to per-category fractions, the
// agreement confidence, and the top neighbor category. Confidence is -1
// when no neighbors were available.
func semanticShares(counts map[domain.Category]int) (map[domain.Category]float64, float64, domain.Category) {
	share := make(map[domain.Category]float64, len(counts))
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return share, -1, domain.CategoryUnknown
	}
	top := domain.CategoryUnknown
	best := -1
	for c, n := range counts {
		share[c] = float64(n) / float64(total)
		if n > best || (n == best && c.Priority() < top.Priority()) {
			best = n
			top = c
		}
	}
	return share, float64(best) / float64(total), top
}

// ruleShares sums vote weights per category and collects strong rationales.
func ruleShares(votes []rules.Vote) (map[domain.Category]float64, domain.Category, []string) {
	sum := make(map[domain.Category]float64)
	var strong []string
	for _, v := range votes {
		sum[v.Category] += v.Weight
		if v.Strong() {
			strong = append(strong, v.Rationale)
		}
	}
	top := domain.CategoryUnknown
	best := 0.0
	for c, s := range sum {
		if s > best || (s == best && c.Priority() < top.Priority()) {
			best = s
			top = c
		}
	}
	return sum, top, strong
}

func pickWinner(scores map[domain.Category]float64) domain.Category {
	winner := domain.CategoryArchive
	best := -1.0
	for _, c := range domain.ClassifiableCategories {
		s := scores[c]
		if s > best {
			best = s
			winner = c
		}
		// Candidates iterate in priority order, so ties keep the earlier
		// category.
	}
	return winner
}

type methodInput struct {
	winner       domain.Category
	winnerScore  float64
	weights      domain.FusionWeights
	semShare     map[domain.Category]float64
	semTop       domain.Category
	hasNeighbors bool
	ruleSum      map[domain.Category]float64
	ruleTop      domain.Category
	hasRules     bool
	llm          *llm.Classification
}

func classifyMethod(in methodInput) domain.Method {
	if in.winnerScore < fallbackFloor {
		return domain.MethodFallback
	}

	semAgrees := in.hasNeighbors && in.semTop == in.winner
	llmAgrees := in.llm != nil && in.llm.Category == in.winner
	ruleAgrees := in.hasRules && in.ruleTop == in.winner
	if semAgrees && llmAgrees && ruleAgrees {
		return domain.MethodConsensus
	}

	// Single-source decisions when the other components were absent.
	switch {
	case in.hasNeighbors && in.llm == nil && !in.hasRules:
		return domain.MethodSemanticOnly
	case !in.hasNeighbors && in.llm != nil && !in.hasRules:
		return domain.MethodLLMOnly
	case !in.hasNeighbors && in.llm == nil && in.hasRules:
		return domain.MethodRuleOnly
	}

	// Otherwise label by the largest contribution to the winner.
	semTerm := in.weights.Semantic * in.semShare[in.winner]
	llmTerm := 0.0
	if llmAgrees {
		llmTerm = in.weights.LLM * llmVoteStrength
	}
	ruleTerm := in.weights.Rule * in.ruleSum[in.winner]

	switch {
	case semTerm >= llmTerm && semTerm >= ruleTerm:
		return domain.MethodSemanticWeighted
	case llmTerm >= ruleTerm:
		return domain.MethodLLMWeighted
	default:
		return domain.MethodRuleWeighted
	}
}

func llmScore(c *llm.Classification, winner domain.Category) float64 {
	if c == nil {
		return 0
	}
	if c.Category == winner {
		return llmVoteStrength
	}
	return 0
}

func hasCategoryKeyword(f *domain.FeatureVector) bool {
	for _, kw := range []string{"project", "area", "resource", "archive", "inbox"} {
		if f.HasDirectiveKeyword(kw) {
			return true
		}
	}
	return false
}

func buildReasoning(
	method domain.Method,
	scores map[domain.Category]float64,
	weights domain.FusionWeights,
	semShare map[domain.Category]float64,
	ruleSum map[domain.Category]float64,
	strongRationales []string,
	in Input,
) string {
	var parts []string
	parts = append(parts, "method: "+string(method))

	winner := pickWinner(scores)
	terms := map[string]float64{
		"semantic": weights.Semantic * semShare[winner],
		"llm":      llmScore(in.LLM, winner) * weights.LLM,
		"rules":    weights.Rule * ruleSum[winner],
	}
	parts = append(parts, "top contributors: "+strings.Join(topContributors(terms), ", "))

	if len(strongRationales) > 0 {
		sort.Strings(strongRationales)
		parts = append(parts, "strong rules: "+strings.Join(strongRationales, "; "))
	}
	if kws := in.Features.DirectiveKeywords; len(kws) > 0 {
		parts = append(parts, "directive keywords: "+strings.Join(kws, ", "))
	}
	if in.LLM != nil && in.LLM.Reasoning != "" {
		parts = append(parts, "llm: "+in.LLM.Reasoning)
	}
	return strings.Join(parts, " | ")
}
