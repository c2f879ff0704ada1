package cli

import (
	"errors"

	"github.com/jagoff/obsidian-para/internal/contract"
)

// Exit codes of the CLI contract.
const (
	ExitOK           = 0
	ExitMisuse       = 2
	ExitPrecondition = 3
	ExitPartial      = 4
	ExitFatalIO      = 5
	ExitCancelled    = 130
)

// exitCodeFor maps a structured core error to the process exit code.
func exitCodeFor(err error) int {
	var ce *contract.Error
	if !errors.As(err, &ce) {
		return ExitMisuse
	}
	switch ce.Kind {
	case contract.KindPrecondition:
		return ExitPrecondition
	case contract.KindPartial:
		return ExitPartial
	case contract.KindCancelled:
		return ExitCancelled
	case contract.KindIntegrity, contract.KindData, contract.KindTransient:
		return ExitFatalIO
	default:
		return ExitMisuse
	}
}

// renderError formats a structured error with its remediation hint.
func renderError(err error) string {
	var ce *contract.Error
	if errors.As(err, &ce) && ce.Hint != "" {
		return errStyle.Render("error: "+ce.Message) + "\n" + hintStyle.Render("hint: "+ce.Hint)
	}
	return errStyle.Render("error: " + err.Error())
}
