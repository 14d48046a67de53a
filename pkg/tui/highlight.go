package tui

import (
	"encoding/json"
	"strings"

	"github.com/charmbracelet/glamour"
)

// HighlightJSON takes a JSON string, validates it, and returns a syntax-highlighted string.
// If the input is not valid JSON, it returns the original string.
func HighlightJSON(input string, width int) string {
	var js any
	if json.Unmarshal([]byte(input), &js) != nil {
		return input
	}

	pretty, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return input
	}
	return renderCodeBlock(string(pretty), width, input)
}

// RenderPayload renders a decoded response payload. Strings are returned
// as-is; anything else is shown as highlighted JSON.
func RenderPayload(v any, width int) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}

	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return renderCodeBlock(string(pretty), width, string(pretty))
}

func renderCodeBlock(code string, width int, fallback string) string {
	if width <= 0 {
		width = 80
	}

	var sb strings.Builder
	sb.WriteString("```json\n")
	sb.WriteString(code)
	sb.WriteString("\n```")

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fallback
	}

	out, err := renderer.Render(sb.String())
	if err != nil {
		return fallback
	}

	return strings.TrimSpace(out)
}
