package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Minimal color palette
var (
	DimColor     = lipgloss.Color("#6c6c6c")
	TextColor    = lipgloss.Color("#e0e0e0")
	AccentColor  = lipgloss.Color("#7aa2f7")
	ErrorColor   = lipgloss.Color("#f7768e")
	SuccessColor = lipgloss.Color("#9ece6a")
	WarnColor    = lipgloss.Color("#e0af68")
	PurpleColor  = lipgloss.Color("#bb9af7")
)

var (
	NameStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimColor)

	PathStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	StatusActiveStyle = lipgloss.NewStyle().
				Foreground(AccentColor)

	ShortcutKeyStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	ShortcutDescStyle = lipgloss.NewStyle().
				Foreground(DimColor)

	HeadingStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true).
			MarginBottom(1)
)

var methodColors = map[string]lipgloss.Color{
	"GET":    SuccessColor,
	"POST":   WarnColor,
	"PUT":    AccentColor,
	"PATCH":  PurpleColor,
	"DELETE": ErrorColor,
}

// MethodBadge renders an HTTP method padded to a fixed width and colored by verb.
func MethodBadge(method string) string {
	method = strings.ToUpper(method)
	color, ok := methodColors[method]
	if !ok {
		color = DimColor
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Width(7).Render(method)
}

// StatusBadge renders an HTTP status line, green for 2xx and red otherwise.
func StatusBadge(code int, status string) string {
	if code >= 200 && code < 300 {
		return SuccessStyle.Render(status)
	}
	return ErrorStyle.Render(status)
}
