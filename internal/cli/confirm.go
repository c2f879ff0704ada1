package cli

import (
	"github.com/charmbracelet/huh"

	"github.com/jagoff/obsidian-para/internal/contract"
)

// confirm asks the user to approve an action. --yes short-circuits; a
// non-interactive terminal without --yes is a precondition failure rather
// than a hang.
func (a *App) confirm(title, prompt string) (bool, error) {
	if a.AssumeYes {
		return true, nil
	}
	if a.IsInteractive != nil && !a.IsInteractive() {
		return false, contract.Preconditionf(
			"re-run with --yes, or from an interactive terminal",
			"confirmation required for %s", title)
	}

	var approved bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description(prompt).
			Affirmative("Proceed").
			Negative("Abort").
			Value(&approved),
	))
	if err := form.Run(); err != nil {
		return false, contract.ErrCancelled
	}
	return approved, nil
}
