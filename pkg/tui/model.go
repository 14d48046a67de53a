package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/blackcoderx/apman/pkg/transport"
)

// callModel is the Bubble Tea model shown while one operation call is in
// flight.
type callModel struct {
	spinner spinner.Model
	label   string
	start   time.Time

	ctx    context.Context
	cancel context.CancelFunc
	call   CallFunc

	done bool
	resp *transport.Response
	err  error
}

// callDoneMsg carries the result of the call
type callDoneMsg struct {
	resp *transport.Response
	err  error
}
