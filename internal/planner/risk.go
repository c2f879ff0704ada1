package planner

import (
	"github.com/jagoff/obsidian-para/internal/domain"
)

// RiskInput carries the plan-level ratios the risk grade is computed from.
type RiskInput struct {
	TotalMoves    int
	LowConfidence int // confidence < 0.4
	Fallback      int // method == fallback
	Consensus     int // method == consensus
	CrossCategory int // source bucket differs from target bucket
}

// Severe thresholds; any one of them grades the plan high-risk.
const (
	severeLowConfidenceShare = 0.5
	severeFallbackShare      = 0.5
	minConsensusShare        = 0.3
	severeCrossShare         = 0.3
)

// ComputeRisk grades a move plan. High when any criterion is severely bad,
// medium when any single criterion is half-way there, low otherwise.
func ComputeRisk(in RiskInput) domain.RiskLevel {
	if in.TotalMoves == 0 {
		return domain.RiskLow
	}
	total := float64(in.TotalMoves)
	lowShare := float64(in.LowConfidence) / total
	fallbackShare := float64(in.Fallback) / total
	consensusShare := float64(in.Consensus) / total
	crossShare := float64(in.CrossCategory) / total

	switch {
	case lowShare > severeLowConfidenceShare,
		fallbackShare > severeFallbackShare,
		consensusShare < minConsensusShare,
		crossShare > severeCrossShare:
		return domain.RiskHigh
	case lowShare > severeLowConfidenceShare/2,
		fallbackShare > severeFallbackShare/2,
		consensusShare < minConsensusShare*2,
		crossShare > severeCrossShare/2:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}
