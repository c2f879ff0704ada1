package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jagoff/obsidian-para/internal/contract"
	"github.com/jagoff/obsidian-para/internal/domain"
)

func newLearningCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learning",
		Short: "Inspect and steer the learning store",
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show derived learning metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := app.Learning.Status(cmd.Context())
			if err != nil {
				return err
			}
			renderLearningStatus(app.out(), st)
			return nil
		},
	}

	suggestions := &cobra.Command{
		Use:   "suggestions",
		Short: "Show actionable hints derived from metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			hints, err := app.Learning.Suggestions(cmd.Context())
			if err != nil {
				return err
			}
			if len(hints) == 0 {
				fmt.Fprintln(app.out(), dimStyle.Render("nothing to suggest"))
				return nil
			}
			for _, h := range hints {
				fmt.Fprintf(app.out(), "[%d] %s\n", h.Severity, h.Message)
			}
			return nil
		},
	}

	var correction string
	var notes string
	feedback := &cobra.Command{
		Use:   "feedback <decision-id> <accepted|rejected|corrected>",
		Short: "Record a verdict on a decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := domain.FeedbackAction(args[1])
			switch action {
			case domain.FeedbackAccepted, domain.FeedbackRejected, domain.FeedbackCorrected:
			default:
				return contract.Preconditionf("use accepted, rejected, or corrected",
					"unknown feedback action %q", args[1])
			}
			if action == domain.FeedbackCorrected && correction == "" {
				return contract.Preconditionf("pass --to with the right category",
					"corrected feedback needs a target category")
			}
			return app.Learning.Feedback(cmd.Context(), args[0], action, domain.Category(correction), notes)
		},
	}
	feedback.Flags().StringVar(&correction, "to", "", "category the note actually belongs to")
	feedback.Flags().StringVar(&notes, "notes", "", "free-text context for the verdict")

	var withEmbeddings bool
	export := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the knowledge document to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := app.Learning.Export(cmd.Context(), withEmbeddings)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return contract.Data("encoding knowledge document", err)
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return contract.Data("writing "+args[0], err)
			}
			fmt.Fprintln(app.out(), okStyle.Render("exported to "+args[0]))
			return nil
		},
	}
	export.Flags().BoolVar(&withEmbeddings, "embeddings", false, "include note embeddings")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a knowledge document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return contract.Data("reading "+args[0], err)
			}
			var doc contract.KnowledgeExport
			if err := json.Unmarshal(data, &doc); err != nil {
				return contract.Data("parsing "+args[0], err)
			}
			if err := app.Learning.Import(cmd.Context(), &doc); err != nil {
				return err
			}
			fmt.Fprintln(app.out(), okStyle.Render("imported "+args[0]))
			return nil
		},
	}

	cmd.AddCommand(status, suggestions, feedback, export, importCmd)
	return cmd
}
