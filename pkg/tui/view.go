package tui

import (
	"time"
)

// View renders the spinner line; it is cleared once the call finishes.
func (m callModel) View() string {
	if m.done {
		return ""
	}
	elapsed := time.Since(m.start).Truncate(100 * time.Millisecond)
	return m.spinner.View() + " " + StatusActiveStyle.Render(m.label) + " " +
		DimStyle.Render(elapsed.String()) + "  " +
		ShortcutKeyStyle.Render("esc") + ShortcutDescStyle.Render(" cancel") + "\n"
}
