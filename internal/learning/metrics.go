package learning

import (
	"math"

	"github.com/jagoff/obsidian-para/internal/domain"
)

// accuracyRate is the fraction of feedback that did not correct the system.
// Zero when no feedback exists yet, so a cold store never reports perfect
// accuracy.
func accuracyRate(feedbackCount, correctedCount int) float64 {
	if feedbackCount == 0 {
		return 0
	}
	return float64(feedbackCount-correctedCount) / float64(feedbackCount)
}

// confidenceCorrelation is the Pearson correlation between decision
// confidence and correctness over records with feedback, mapped from
// [-1, 1] to [0, 1]. Undefined correlations report as 0.5.
func confidenceCorrelation(decisions []*domain.DecisionRecord) float64 {
	var xs, ys []float64
	for _, d := range decisions {
		if d.Feedback == nil {
			continue
		}
		y := 0.0
		if d.IsCorrect() {
			y = 1.0
		}
		xs = append(xs, d.Confidence)
		ys = append(ys, y)
	}
	rho, ok := pearson(xs, ys)
	if !ok {
		return 0.5
	}
	rho = clamp(rho, -1, 1)
	return (rho + 1) / 2
}

// pearson computes the sample correlation coefficient. ok is false when the
// correlation is undefined (fewer than two points, or zero variance).
func pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n < 2 {
		return 0, false
	}
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varX*varY), true
}

// categoryBalance is the normalized entropy (base 4) of the predicted
// category distribution: 1 when perfectly even, 0 when degenerate.
func categoryBalance(decisions []*domain.DecisionRecord) float64 {
	counts := make(map[domain.Category]int)
	total := 0
	for _, d := range decisions {
		counts[d.Category]++
		total++
	}
	if total == 0 {
		return 0
	}
	var entropy float64
	for _, n := range counts {
		if n == 0 {
			continue
		}
		p := float64(n) / float64(total)
		entropy -= p * math.Log(p)
	}
	return entropy / math.Log(4)
}

// semanticCoherence averages, over decisions, the fraction of nearest
// neighbors that shared the predicted category at decision time.
func semanticCoherence(decisions []*domain.DecisionRecord) float64 {
	if len(decisions) == 0 {
		return 0
	}
	var sum float64
	for _, d := range decisions {
		sum += d.SemanticScore
	}
	return sum / float64(len(decisions))
}

// Satisfaction plateau bounds for the feedback rate.
const (
	satisfactionLow  = 0.05
	satisfactionHigh = 0.15
)

// userSatisfaction scores the feedback rate: maximal inside [5%, 15%]
// (engaged but not constantly correcting), decaying linearly outside.
func userSatisfaction(decisionCount, feedbackCount int) float64 {
	if decisionCount == 0 {
		return 0
	}
	rate := float64(feedbackCount) / float64(decisionCount)
	switch {
	case rate < satisfactionLow:
		return rate / satisfactionLow
	case rate <= satisfactionHigh:
		return 1
	default:
		return clamp(1-(rate-satisfactionHigh)/(1-satisfactionHigh), 0, 1)
	}
}

// learningVelocity maps the slope of accuracy over the recent snapshots to
// [0, 1]: 0.5 is flat, above is improving.
func learningVelocity(snapshots []*domain.LearningSnapshot) float64 {
	if len(snapshots) < 2 {
		return 0.5
	}
	var xs, ys []float64
	for i, s := range snapshots {
		xs = append(xs, float64(i))
		ys = append(ys, s.AccuracyRate)
	}
	slope := linearSlope(xs, ys)
	// A slope of ±0.1 accuracy per snapshot saturates the scale.
	return clamp(0.5+slope*5, 0, 1)
}

func linearSlope(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// systemAdaptability reflects how much the feedback loop is steering the
// weight baseline: 0.5 with no nudges, rising with bounded nudge magnitude.
func systemAdaptability(policy domain.PolicySnapshot) float64 {
	magnitude := math.Abs(policy.WeightNudges.Semantic) +
		math.Abs(policy.WeightNudges.LLM) +
		math.Abs(policy.WeightNudges.Rule)
	return clamp(0.5+magnitude/0.6, 0, 1)
}

// improvementScore blends the component metrics into one headline number.
func improvementScore(accuracy, confCorr, balance, coherence, satisfaction, velocity float64) float64 {
	return 0.25*accuracy +
		0.15*confCorr +
		0.15*balance +
		0.15*coherence +
		0.15*satisfaction +
		0.15*velocity
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
