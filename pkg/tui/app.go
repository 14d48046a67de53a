// Package tui provides the terminal presentation for apman.
// It uses Bubble Tea for the in-flight call view and huh for prompts.
//
// File organization:
// - app.go: Entry point (RunCall function)
// - model.go: Model struct and message types
// - init.go: Model initialization
// - update.go: Event handling and state updates
// - view.go: Rendering
// - keys.go: Keyboard input handling
// - styles.go: Visual styling (colors, method badges)
// - highlight.go: JSON syntax highlighting
// - prompt.go: Interactive operation and data prompts
package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/blackcoderx/apman/pkg/transport"
)

// CallFunc performs the call a spinner waits on.
type CallFunc func(ctx context.Context) (*transport.Response, error)

// RunCall runs fn while showing a spinner on out. Pressing esc or ctrl+c
// cancels the call's context and returns context.Canceled.
func RunCall(ctx context.Context, out io.Writer, label string, fn CallFunc) (*transport.Response, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newCallModel(ctx, cancel, label, fn)
	prog := tea.NewProgram(m, tea.WithOutput(out))

	final, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run call view: %w", err)
	}

	fm, ok := final.(callModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T", final)
	}
	return fm.resp, fm.err
}
