package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func newCallModel(ctx context.Context, cancel context.CancelFunc, label string, fn CallFunc) callModel {
	return callModel{
		spinner: newSpinner(),
		label:   label,
		start:   time.Now(),
		ctx:     ctx,
		cancel:  cancel,
		call:    fn,
	}
}

// newSpinner creates a spinner with the apman style (dots animation).
func newSpinner() spinner.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{
			".       ",
			"..      ",
			"...     ",
			"....    ",
			".....   ",
			"......  ",
			"....... ",
			"........",
		},
		FPS: time.Second / 5,
	}
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)
	return sp
}

// Init starts the spinner and the call.
func (m callModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runCall())
}

func (m callModel) runCall() tea.Cmd {
	ctx, fn := m.ctx, m.call
	return func() tea.Msg {
		resp, err := fn(ctx)
		return callDoneMsg{resp: resp, err: err}
	}
}
