package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jagoff/obsidian-para/internal/contract"
)

func newExclusionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exclusions",
		Short: "Maintain the subtrees the engine must never touch",
	}

	var reason string
	add := &cobra.Command{
		Use:   "add <path>",
		Short: "Exclude a subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Exclusions.Add(cmd.Context(), args[0], reason); err != nil {
				return err
			}
			fmt.Fprintln(app.out(), okStyle.Render("excluded "+args[0]))
			return nil
		},
	}
	add.Flags().StringVar(&reason, "reason", "", "why this subtree is off limits")

	remove := &cobra.Command{
		Use:   "remove <path>",
		Short: "Stop excluding a subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Exclusions.Remove(cmd.Context(), args[0])
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Remove every exclusion",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ok, err := app.confirm("Clear all exclusions?",
				"Every subtree becomes visible to the classifier again.")
			if err != nil {
				return err
			}
			if !ok {
				return contract.ErrCancelled
			}
			return app.Exclusions.Clear(cmd.Context())
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the exclusion registry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := app.Exclusions.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(app.out(), dimStyle.Render("no exclusions configured"))
				return nil
			}
			for _, e := range entries {
				line := e.Path
				if e.Reason != "" {
					line += "  " + dimStyle.Render("("+e.Reason+")")
				}
				fmt.Fprintln(app.out(), line)
			}
			return nil
		},
	}

	suggest := &cobra.Command{
		Use:   "suggest",
		Short: "List candidate subtrees worth excluding",
		RunE: func(cmd *cobra.Command, _ []string) error {
			candidates, err := app.Exclusions.Suggest(cmd.Context())
			if err != nil {
				return err
			}
			if len(candidates) == 0 {
				fmt.Fprintln(app.out(), dimStyle.Render("no candidates found"))
				return nil
			}
			for _, c := range candidates {
				fmt.Fprintln(app.out(), c)
			}
			return nil
		},
	}

	cmd.AddCommand(add, remove, clear, list, suggest)
	return cmd
}
