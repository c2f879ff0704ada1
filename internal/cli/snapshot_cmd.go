package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jagoff/obsidian-para/internal/contract"
)

func newSnapshotCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Create, list, restore, and prune vault snapshots",
	}

	create := &cobra.Command{
		Use:   "create [reason]",
		Short: "Snapshot the vault now",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason := "manual"
			if len(args) == 1 {
				reason = args[0]
			}
			var id string
			err := app.withProgress("creating snapshot...", func() error {
				var err error
				id, err = app.Snapshots.Create(cmd.Context(), reason)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(app.out(), okStyle.Render("snapshot "+id))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			manifests, err := app.Snapshots.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(manifests) == 0 {
				fmt.Fprintln(app.out(), dimStyle.Render("no snapshots"))
				return nil
			}
			for _, m := range manifests {
				fmt.Fprintf(app.out(), "%s  %5d files  %8d bytes  %s\n",
					m.ID, m.FileCount, m.SizeBytes, dimStyle.Render(m.Reason))
			}
			return nil
		},
	}

	restore := &cobra.Command{
		Use:   "restore <id>",
		Short: "Copy a snapshot back over the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := app.confirm("Restore snapshot "+args[0]+"?",
				"Current vault files will be overwritten by the snapshot copy.")
			if err != nil {
				return err
			}
			if !ok {
				return contract.ErrCancelled
			}
			var report *contract.RestoreReport
			err = app.withProgress("restoring...", func() error {
				var err error
				report, err = app.Snapshots.Restore(cmd.Context(), args[0])
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out(), "restored %d files (%d bytes); %d index entries invalidated\n",
				report.FilesRestored, report.BytesRestored, len(report.InvalidatedNoteIDs))
			return nil
		},
	}

	prune := &cobra.Command{
		Use:   "prune <keep>",
		Short: "Delete all but the newest N snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keep, err := strconv.Atoi(args[0])
			if err != nil || keep < 0 {
				return contract.Preconditionf("pass a non-negative count", "bad keep count %q", args[0])
			}
			removed, err := app.Snapshots.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out(), "removed %d snapshots\n", removed)
			return nil
		},
	}

	cmd.AddCommand(create, list, restore, prune)
	return cmd
}

func newReindexCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex [inbox|archive|all]",
		Short: "Rebuild the semantic index for a scope",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scopeArg := "all"
			if len(args) == 1 {
				scopeArg = args[0]
			}
			scope, _, err := parseScope(scopeArg)
			if err != nil {
				return err
			}
			var report *contract.ReindexReport
			err = app.withProgress("reindexing...", func() error {
				var err error
				report, err = app.Reindexer.Reindex(cmd.Context(), scope)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out(), "scanned %d, embedded %d, re-embedded %d, removed %d, skipped %d\n",
				report.Scanned, report.Embedded, report.Reembedded, report.Removed, report.Skipped)
			for _, w := range report.Warnings {
				fmt.Fprintln(app.out(), hintStyle.Render("warning: "+w))
			}
			return nil
		},
	}
}
