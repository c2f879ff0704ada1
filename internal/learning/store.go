// Package learning persists decisions, feedback, and aggregated metrics,
// and turns feedback into the policy snapshot fusion consults.
package learning

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/repository"
)

// Store is the learning subsystem facade over the append-only repositories.
type Store struct {
	decisions      repository.DecisionRepo
	feedback       repository.FeedbackRepo
	folderFeedback repository.FolderFeedbackRepo
	snapshots      repository.LearningSnapshotRepo
	policy         repository.PolicyRepo
	historyN       int
}

// NewStore wires the learning store. historyN bounds metric recomputation
// to the most recent decisions.
func NewStore(
	decisions repository.DecisionRepo,
	feedback repository.FeedbackRepo,
	folderFeedback repository.FolderFeedbackRepo,
	snapshots repository.LearningSnapshotRepo,
	policy repository.PolicyRepo,
	historyN int,
) *Store {
	if historyN <= 0 {
		historyN = 1000
	}
	return &Store{
		decisions:      decisions,
		feedback:       feedback,
		folderFeedback: folderFeedback,
		snapshots:      snapshots,
		policy:         policy,
		historyN:       historyN,
	}
}

// RecordFeedback ingests a user verdict on a decision: appends the feedback
// record, sets the decision's mutable feedback field, mirrors the verdict
// onto the decision's folder, and refreshes the policy snapshot.
func (s *Store) RecordFeedback(ctx context.Context, decisionID string, action domain.FeedbackAction, correction domain.Category, notes string) error {
	decision, err := s.decisions.Get(ctx, decisionID)
	if err != nil {
		return fmt.Errorf("looking up decision %s: %w", decisionID, err)
	}
	now := time.Now().UTC()

	rec := &domain.FeedbackRecord{
		ID:         uuid.NewString(),
		DecisionID: decisionID,
		Action:     action,
		Correction: correction,
		Notes:      notes,
		At:         now,
	}
	if err := s.feedback.Append(ctx, rec); err != nil {
		return err
	}

	fb := &domain.Feedback{Action: action, Notes: notes, At: now}
	if action == domain.FeedbackCorrected {
		fb.CorrectedTo = correction
	}
	if err := s.decisions.SetFeedback(ctx, decisionID, fb); err != nil {
		return err
	}

	if decision.FolderName != "" {
		folderFb := &domain.FolderCreationFeedback{
			ID:         uuid.NewString(),
			FolderName: decision.FolderName,
			Category:   decision.Category,
			UserAction: action,
			Reason:     notes,
			At:         now,
		}
		if err := s.folderFeedback.Append(ctx, folderFb); err != nil {
			return err
		}
	}

	return s.RecomputePolicy(ctx)
}

// RecordFolderFeedback stores the outcome of a system-created folder.
func (s *Store) RecordFolderFeedback(ctx context.Context, f *domain.FolderCreationFeedback) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.At.IsZero() {
		f.At = time.Now().UTC()
	}
	return s.folderFeedback.Append(ctx, f)
}

// Status recomputes the derived metrics over the recent history.
func (s *Store) Status(ctx context.Context) (*contract.LearningStatus, error) {
	recent, err := s.decisions.ListRecent(ctx, s.historyN)
	if err != nil {
		return nil, err
	}
	total, err := s.decisions.Count(ctx)
	if err != nil {
		return nil, err
	}
	feedbackCount, corrected := countFeedback(recent)

	snapshots, err := s.snapshots.ListRecent(ctx, 10)
	if err != nil {
		return nil, err
	}
	policy, err := s.policy.Load(ctx)
	if err != nil {
		return nil, err
	}
	patterns, err := s.FolderPatterns(ctx)
	if err != nil {
		return nil, err
	}

	accuracy := accuracyRate(feedbackCount, corrected)
	confCorr := confidenceCorrelation(recent)
	balance := categoryBalance(recent)
	coherence := semanticCoherence(recent)
	satisfaction := userSatisfaction(len(recent), feedbackCount)
	velocity := learningVelocity(snapshots)

	dist := make(map[domain.Category]int)
	for _, d := range recent {
		dist[d.Category]++
	}

	return &contract.LearningStatus{
		TotalClassifications:  total,
		FeedbackCount:         feedbackCount,
		AccuracyRate:          accuracy,
		ConfidenceCorrelation: confCorr,
		CategoryBalance:       balance,
		SemanticCoherence:     coherence,
		UserSatisfaction:      satisfaction,
		LearningVelocity:      velocity,
		ImprovementScore:      improvementScore(accuracy, confCorr, balance, coherence, satisfaction, velocity),
		CategoryDistribution:  dist,
		FolderPatterns:        patterns,
		Policy:                *policy,
	}, nil
}

// TakeSnapshot records the current metrics as a learning snapshot. Called
// after plan completion, never per-move.
func (s *Store) TakeSnapshot(ctx context.Context) (*domain.LearningSnapshot, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := s.policy.Load(ctx)
	if err != nil {
		return nil, err
	}
	snap := &domain.LearningSnapshot{
		ID:                    uuid.NewString(),
		At:                    time.Now().UTC(),
		TotalClassifications:  status.TotalClassifications,
		AccuracyRate:          status.AccuracyRate,
		ConfidenceCorrelation: status.ConfidenceCorrelation,
		LearningVelocity:      status.LearningVelocity,
		CategoryBalance:       status.CategoryBalance,
		SemanticCoherence:     status.SemanticCoherence,
		UserSatisfaction:      status.UserSatisfaction,
		SystemAdaptability:    systemAdaptability(*policy),
		ImprovementScore:      status.ImprovementScore,
	}
	if err := s.snapshots.Append(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// FolderPatterns aggregates decisions and their feedback into per
// (folder name, category) success rates.
func (s *Store) FolderPatterns(ctx context.Context) ([]domain.FolderPattern, error) {
	recent, err := s.decisions.ListRecent(ctx, s.historyN)
	if err != nil {
		return nil, err
	}

	type key struct {
		folder   string
		category domain.Category
	}
	type agg struct {
		uses      int
		feedback  int
		corrected int
		lastUsed  time.Time
	}
	stats := make(map[key]*agg)
	for _, d := range recent {
		if d.FolderName == "" {
			continue
		}
		k := key{folder: d.FolderName, category: d.Category}
		a := stats[k]
		if a == nil {
			a = &agg{}
			stats[k] = a
		}
		a.uses++
		if d.Timestamp.After(a.lastUsed) {
			a.lastUsed = d.Timestamp
		}
		if d.Feedback != nil {
			a.feedback++
			if d.Feedback.Action == domain.FeedbackCorrected || d.Feedback.Action == domain.FeedbackRejected {
				a.corrected++
			}
		}
	}

	var out []domain.FolderPattern
	for k, a := range stats {
		rate := 1.0
		if a.feedback > 0 {
			rate = float64(a.feedback-a.corrected) / float64(a.feedback)
		}
		out = append(out, domain.FolderPattern{
			FolderName:  k.folder,
			Category:    k.category,
			UseCount:    a.uses,
			SuccessRate: rate,
			LastUsed:    a.lastUsed,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UseCount != out[j].UseCount {
			return out[i].UseCount > out[j].UseCount
		}
		return out[i].FolderName < out[j].FolderName
	})
	return out, nil
}

// Suggestions derives actionable hints from the current metrics.
func (s *Store) Suggestions(ctx context.Context) ([]contract.Suggestion, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return nil, err
	}

	var out []contract.Suggestion
	if status.FeedbackCount == 0 && status.TotalClassifications > 10 {
		out = append(out, contract.Suggestion{
			Code:     "no_feedback",
			Message:  "no feedback recorded yet; confirm or correct a few decisions so the weights can adapt",
			Severity: 3,
		})
	}
	if status.AccuracyRate > 0 && status.AccuracyRate < 0.6 {
		out = append(out, contract.Suggestion{
			Code:     "low_accuracy",
			Message:  fmt.Sprintf("accuracy is %.0f%%; consider reviewing recent classifications", status.AccuracyRate*100),
			Severity: 5,
		})
	}
	if status.CategoryBalance < 0.4 && status.TotalClassifications > 20 {
		out = append(out, contract.Suggestion{
			Code:     "category_skew",
			Message:  "classifications are piling into few categories; a directive can steer borderline notes",
			Severity: 2,
		})
	}
	if status.SemanticCoherence < 0.4 && status.TotalClassifications > 20 {
		out = append(out, contract.Suggestion{
			Code:     "low_coherence",
			Message:  "semantic neighbors rarely agree with decisions; a reindex may help",
			Severity: 4,
		})
	}
	for _, p := range status.FolderPatterns {
		if p.UseCount >= 3 && p.SuccessRate < 0.5 {
			out = append(out, contract.Suggestion{
				Code:     "weak_folder",
				Message:  fmt.Sprintf("folder %q under %s is frequently corrected", p.FolderName, p.Category),
				Severity: 3,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Severity > out[j].Severity })
	return out, nil
}

func countFeedback(decisions []*domain.DecisionRecord) (feedback, corrected int) {
	for _, d := range decisions {
		if d.Feedback == nil {
			continue
		}
		feedback++
		if d.Feedback.Action == domain.FeedbackCorrected || d.Feedback.Action == domain.FeedbackRejected {
			corrected++
		}
	}
	return feedback, corrected
}
