package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg cancels the call on esc or ctrl+c; other keys are ignored.
func (m callModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.cancel()
		m.done = true
		m.err = context.Canceled
		return m, tea.Quit
	default:
		return m, nil
	}
}
