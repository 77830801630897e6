package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"tubegrab/internal/engine"
)

// Run renders eng's running operation until it reaches a terminal snapshot,
// then returns the operation's error, if any. The caller starts the operation
// before calling Run; q or ctrl+c cancels it.
func Run(out io.Writer, eng *engine.Engine, title string) error {
	p := tea.NewProgram(NewModel(eng, title), tea.WithOutput(out))

	finalModel, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(Model); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}
