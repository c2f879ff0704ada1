// Package cli is the command-line adapter: it translates verbs into core
// operations and renders the data structures the core returns. No business
// logic lives here.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jagoff/obsidian-para/internal/service"
)

// App bundles the wired services the commands dispatch to.
type App struct {
	Session    *service.Session
	Plans      service.PlanService
	Executions service.ExecuteService
	Reindexer  service.ReindexService
	Snapshots  service.SnapshotService
	Exclusions service.ExclusionService
	Learning   service.LearningService

	// IsInteractive gates confirmation prompts.
	IsInteractive func() bool
	// AssumeYes skips confirmations (--yes).
	AssumeYes bool

	Out io.Writer
}

func (a *App) out() io.Writer {
	if a.Out != nil {
		return a.Out
	}
	return os.Stdout
}

// NewRootCmd assembles the para command tree.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "para",
		Short:         "Classify and organize a PARA vault",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&app.AssumeYes, "yes", "y", false, "assume yes on confirmation prompts")

	root.AddCommand(
		newPlanCmd(app),
		newConsolidateCmd(app),
		newReindexCmd(app),
		newSnapshotCmd(app),
		newExclusionsCmd(app),
		newLearningCmd(app),
	)
	return root
}

// Execute runs the command tree and maps structured errors to exit codes.
func Execute(app *App, args []string) int {
	root := NewRootCmd(app)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		return exitCodeFor(err)
	}
	return 0
}
