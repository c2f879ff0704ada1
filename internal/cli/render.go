package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/domain"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	riskStyles  = map[domain.RiskLevel]lipgloss.Style{
		domain.RiskLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		domain.RiskMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		domain.RiskHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
	moveArrow = dimStyle.Render(" -> ")
)

// renderPlan writes the plan summary and the enumerated proposed moves.
func renderPlan(w io.Writer, plan *domain.MovePlan, degradations []string) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Plan %s (%s)", plan.ID[:8], plan.Scope)))
	s := plan.Summary

	fmt.Fprintf(w, "  notes considered: %d, moves proposed: %d\n", s.TotalNotes, s.TotalMoves)
	fmt.Fprintf(w, "  risk: %s, estimated duration: %s\n",
		riskStyles[s.Risk].Render(string(s.Risk)), s.EstimatedDuration)

	if len(s.ByCategory) > 0 {
		fmt.Fprintf(w, "  by category: %s\n", formatCategoryCounts(s.ByCategory))
	}
	if len(s.ByConfidence) > 0 {
		fmt.Fprintf(w, "  by confidence: low=%d medium=%d high=%d\n",
			s.ByConfidence[domain.BucketLow], s.ByConfidence[domain.BucketMedium], s.ByConfidence[domain.BucketHigh])
	}
	if len(s.ByMethod) > 0 {
		fmt.Fprintf(w, "  by method: %s\n", formatMethodCounts(s.ByMethod))
	}
	for _, p := range s.Patterns {
		fmt.Fprintln(w, dimStyle.Render("  note: "+p))
	}
	for _, d := range degradations {
		fmt.Fprintln(w, hintStyle.Render("  degraded: "+d))
	}

	if len(plan.Moves) == 0 {
		fmt.Fprintln(w, okStyle.Render("  nothing to move"))
		return
	}
	fmt.Fprintln(w)
	for i, m := range plan.Moves {
		fmt.Fprintf(w, "  %3d. %s%s%s  %s\n",
			i+1, m.FromPath, moveArrow, m.ToPath,
			dimStyle.Render(fmt.Sprintf("(%.2f %s)", m.Confidence, m.Method)))
	}
}

// renderExecutionReport writes the executor outcome.
func renderExecutionReport(w io.Writer, report *contract.ExecutionReport) {
	status := okStyle.Render("applied")
	if report.Partial {
		status = errStyle.Render("partial")
	}
	fmt.Fprintln(w, titleStyle.Render("Execution "+status))
	fmt.Fprintf(w, "  snapshot: %s\n", report.SnapshotID)
	fmt.Fprintf(w, "  moves: %d applied, %d failed\n",
		len(report.Moves)-len(report.FailedMoves()), len(report.FailedMoves()))
	for _, m := range report.FailedMoves() {
		fmt.Fprintln(w, errStyle.Render("  failed: "+m.FromPath+": "+m.Err))
	}
	for _, d := range report.Degradations {
		fmt.Fprintln(w, hintStyle.Render("  degraded: "+d))
	}
}

// renderLearningStatus writes the derived learning metrics.
func renderLearningStatus(w io.Writer, status *contract.LearningStatus) {
	fmt.Fprintln(w, titleStyle.Render("Learning status"))
	fmt.Fprintf(w, "  classifications: %d (feedback on %d)\n", status.TotalClassifications, status.FeedbackCount)
	fmt.Fprintf(w, "  accuracy: %.2f  confidence correlation: %.2f\n", status.AccuracyRate, status.ConfidenceCorrelation)
	fmt.Fprintf(w, "  category balance: %.2f  semantic coherence: %.2f\n", status.CategoryBalance, status.SemanticCoherence)
	fmt.Fprintf(w, "  satisfaction: %.2f  velocity: %.2f  improvement: %.2f\n",
		status.UserSatisfaction, status.LearningVelocity, status.ImprovementScore)
	fmt.Fprintf(w, "  weights: semantic=%.2f llm=%.2f rule=%.2f\n",
		status.Policy.EffectiveWeights().Semantic,
		status.Policy.EffectiveWeights().LLM,
		status.Policy.EffectiveWeights().Rule)
	if len(status.FolderPatterns) > 0 {
		fmt.Fprintln(w, "  folder patterns:")
		for i, p := range status.FolderPatterns {
			if i >= 10 {
				fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("    ... and %d more", len(status.FolderPatterns)-i)))
				break
			}
			fmt.Fprintf(w, "    %-30s %s uses=%d success=%.2f\n", p.FolderName, p.Category, p.UseCount, p.SuccessRate)
		}
	}
}

func formatCategoryCounts(counts map[domain.Category]int) string {
	var parts []string
	for _, c := range domain.ClassifiableCategories {
		if n := counts[c]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", c, n))
		}
	}
	return strings.Join(parts, " ")
}

func formatMethodCounts(counts map[domain.Method]int) string {
	var keys []string
	for m := range counts {
		keys = append(keys, string(m))
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, counts[domain.Method(k)]))
	}
	return strings.Join(parts, " ")
}
