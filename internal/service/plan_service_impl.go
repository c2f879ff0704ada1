package service

import (
	"context"
	"time"

	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/planner"
)

type planService struct {
	session  *Session
	planner  *planner.Planner
	observer UseCaseObserver
}

// NewPlanService wires the planning use case.
func NewPlanService(session *Session, p *planner.Planner, observer UseCaseObserver) PlanService {
	if observer == nil {
		observer = NoopUseCaseObserver{}
	}
	return &planService{session: session, planner: p, observer: observer}
}

func (s *planService) Plan(ctx context.Context, req planner.Request) (*planner.Result, error) {
	started := time.Now()
	req.ExclusionsConfigured = s.session.ExclusionsConfigured()

	result, err := s.planner.Build(ctx, req)

	fields := map[string]any{"scope": string(req.Scope), "execute": req.Execute}
	if result != nil {
		fields["moves"] = len(result.Plan.Moves)
		fields["risk"] = string(result.Plan.Summary.Risk)
	}
	observe(ctx, s.observer, "plan", fields, started, err)
	return result, err
}

func (s *planService) Consolidate(ctx context.Context, category domain.Category, execute bool) (*domain.MovePlan, error) {
	started := time.Now()
	plan, err := s.planner.BuildConsolidation(category, execute, s.session.ExclusionsConfigured())

	fields := map[string]any{"category": string(category)}
	if plan != nil {
		fields["moves"] = len(plan.Moves)
	}
	observe(ctx, s.observer, "consolidate", fields, started, err)
	return plan, err
}
