package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/domain"
	"github.com/jagoff/obsidian-para/internal/planner"
)

func newPlanCmd(app *App) *cobra.Command {
	var directive string
	var execute bool
	var confirmEmpty bool
	var fixNames bool

	cmd := &cobra.Command{
		Use:   "plan <inbox|archive|all|path:PATH>",
		Short: "Build (and optionally execute) a classification plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, scopePath, err := parseScope(args[0])
			if err != nil {
				return err
			}

			if confirmEmpty {
				app.Session.ConfirmEmptyExclusions()
			}
			if execute && !app.Session.ExclusionsConfigured() {
				ok, err := app.confirm("Empty exclusion registry",
					"No exclusions are configured. Classify the whole vault?")
				if err != nil {
					return err
				}
				if !ok {
					return contract.ErrCancelled
				}
				app.Session.ConfirmEmptyExclusions()
			}

			result, err := app.Plans.Plan(cmd.Context(), planner.Request{
				Scope:     scope,
				ScopePath: scopePath,
				Directive: directive,
				Execute:   execute,
				FixNames:  fixNames,
			})
			if err != nil {
				return err
			}
			renderPlan(app.out(), result.Plan, result.Degradations)

			if !execute || result.Plan.IsEmpty() {
				return nil
			}
			return app.executePlan(cmd, result.Plan)
		},
	}
	cmd.Flags().StringVarP(&directive, "directive", "d", "", "free-text directive steering classification")
	cmd.Flags().BoolVar(&execute, "execute", false, "apply the plan after confirmation (default: simulate)")
	cmd.Flags().BoolVar(&confirmEmpty, "confirm-empty-exclusions", false, "explicitly accept an empty exclusion registry")
	cmd.Flags().BoolVar(&fixNames, "fix-names", false, "also propose moves that repair system-created folder names")
	return cmd
}

func newConsolidateCmd(app *App) *cobra.Command {
	var execute bool

	cmd := &cobra.Command{
		Use:   "consolidate <Projects|Areas|Resources|Archive>",
		Short: "Merge sibling folders that normalize to the same base name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := domain.Category(args[0])
			if category.Priority() > 3 {
				return contract.Preconditionf("use one of Projects, Areas, Resources, Archive",
					"unknown category %q", args[0])
			}
			plan, err := app.Plans.Consolidate(cmd.Context(), category, execute)
			if err != nil {
				return err
			}
			renderPlan(app.out(), plan, nil)
			if !execute || plan.IsEmpty() {
				return nil
			}
			return app.executePlan(cmd, plan)
		},
	}
	cmd.Flags().BoolVar(&execute, "execute", false, "apply the consolidation after confirmation")
	return cmd
}

// executePlan confirms and applies an executable plan with a progress view.
func (a *App) executePlan(cmd *cobra.Command, plan *domain.MovePlan) error {
	prompt := fmt.Sprintf("%d moves, risk %s. A snapshot is taken first.",
		len(plan.Moves), plan.Summary.Risk)
	ok, err := a.confirm("Apply this plan?", prompt)
	if err != nil {
		return err
	}
	if !ok {
		return contract.ErrCancelled
	}

	var report *contract.ExecutionReport
	var execErr error
	progressErr := a.withProgress("applying plan...", func() error {
		report, execErr = a.Executions.Execute(cmd.Context(), plan)
		return execErr
	})
	if report != nil {
		renderExecutionReport(a.out(), report)
	}
	if execErr != nil {
		return execErr
	}
	return progressErr
}

func parseScope(arg string) (domain.PlanScope, string, error) {
	switch {
	case arg == "inbox":
		return domain.ScopeInbox, "", nil
	case arg == "archive":
		return domain.ScopeArchive, "", nil
	case arg == "all":
		return domain.ScopeAll, "", nil
	case strings.HasPrefix(arg, "path:"):
		p := strings.TrimPrefix(arg, "path:")
		if p == "" {
			return "", "", contract.Preconditionf("pass path:<directory>", "empty path scope")
		}
		return domain.ScopePath, p, nil
	default:
		return "", "", contract.Preconditionf("use inbox, archive, all, or path:<p>", "unknown scope %q", arg)
	}
}
