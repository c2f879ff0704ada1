package cli

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// progressModel shows a spinner while a long-running core operation
// (plan execution, snapshot restore) completes in the background.
type progressModel struct {
	spinner spinner.Model
	label   string
	done    <-chan struct{}
}

type progressDoneMsg struct{}

func newProgressModel(label string, done <-chan struct{}) progressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return progressModel{spinner: sp, label: label, done: done}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForDone())
}

func (m progressModel) waitForDone() tea.Cmd {
	return func() tea.Msg {
		<-m.done
		return progressDoneMsg{}
	}
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressDoneMsg:
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m progressModel) View() string {
	return fmt.Sprintf("%s %s\n", m.spinner.View(), m.label)
}

// withProgress runs fn while showing a spinner on interactive terminals.
// Non-interactive runs call fn directly.
func (a *App) withProgress(label string, fn func() error) error {
	if a.IsInteractive == nil || !a.IsInteractive() {
		return fn()
	}

	done := make(chan struct{})
	var fnErr error
	go func() {
		fnErr = fn()
		close(done)
	}()

	program := tea.NewProgram(newProgressModel(label, done), tea.WithOutput(a.out()))
	if _, err := program.Run(); err != nil {
		<-done // the operation still finishes; the spinner just failed
	}
	return fnErr
}
