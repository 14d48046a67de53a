package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/blackcoderx/apman/pkg/shape"
)

// PromptOperation asks the user to pick one of names.
func PromptOperation(names []string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("the collection has no operations")
	}

	var op string
	err := huh.NewSelect[string]().
		Title("Operation").
		Options(huh.NewOptions(names...)...).
		Value(&op).
		Run()
	if err != nil {
		return "", err
	}
	return op, nil
}

// dataField is one prompted leaf of a shape.
type dataField struct {
	keys  []string
	node  *shape.Node
	input string
}

// PromptData asks for a value for every required leaf of s and assembles the
// answers into call data. Input that parses as JSON is used as JSON; other
// input is used as a string. Empty input keeps the template's example.
func PromptData(s shape.Shape) (map[string]any, error) {
	fields := collectFields(nil, s)
	if len(fields) == 0 {
		return map[string]any{}, nil
	}

	inputs := make([]huh.Field, 0, len(fields))
	for _, f := range fields {
		inputs = append(inputs, huh.NewInput().
			Title(strings.Join(f.keys, ".")).
			Placeholder(placeholder(f.node)).
			Value(&f.input))
	}

	if err := huh.NewForm(huh.NewGroup(inputs...)).Run(); err != nil {
		return nil, err
	}

	data := map[string]any{}
	for _, f := range fields {
		setPath(data, f.keys, parseInput(f.input, f.node))
	}
	return data, nil
}

func collectFields(prefix []string, s shape.Shape) []*dataField {
	var out []*dataField
	for _, k := range s.Keys() {
		keys := append(prefix[:len(prefix):len(prefix)], k)
		n := s[k]
		if !n.IsLeaf() && len(n.Fields) > 0 {
			out = append(out, collectFields(keys, n.Fields)...)
			continue
		}
		out = append(out, &dataField{keys: keys, node: n})
	}
	return out
}

func placeholder(n *shape.Node) string {
	if !n.IsLeaf() {
		return "{}"
	}
	if n.Example == nil {
		return ""
	}
	if s, ok := n.Example.(string); ok {
		return s
	}
	b, _ := json.Marshal(n.Example)
	return string(b)
}

func parseInput(in string, n *shape.Node) any {
	in = strings.TrimSpace(in)
	if in == "" {
		if !n.IsLeaf() {
			return map[string]any{}
		}
		return n.Example
	}
	var v any
	if err := json.Unmarshal([]byte(in), &v); err == nil {
		return v
	}
	return in
}

func setPath(data map[string]any, keys []string, v any) {
	m := data
	for _, k := range keys[:len(keys)-1] {
		next, ok := m[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[k] = next
		}
		m = next
	}
	m[keys[len(keys)-1]] = v
}
