// Package shape infers the data a caller must supply to run a request
// template, independent of how the template encodes its body.
package shape

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/blackcoderx/apman/pkg/collection"
)

// Top-level categories of a request shape.
const (
	KeyBody     = "body"
	KeyQuery    = "query"
	KeyVariable = "variable"
)

// Shape maps field names to required nodes.
type Shape map[string]*Node

// Node is a required field. A node with nil Fields is a leaf that accepts any
// value; otherwise it is a nested object whose fields are all required.
type Node struct {
	// Example is the template's sample value, set on leaves only.
	Example any   `json:"example,omitempty"`
	Fields  Shape `json:"fields,omitempty"`
}

// Leaf returns a required leaf carrying the template's sample value.
func Leaf(example any) *Node {
	return &Node{Example: example}
}

// Nested returns a required nested object.
func Nested(fields Shape) *Node {
	if fields == nil {
		fields = Shape{}
	}
	return &Node{Fields: fields}
}

// IsLeaf reports whether the node accepts any value.
func (n *Node) IsLeaf() bool {
	return n.Fields == nil
}

// Keys returns the shape's field names in sorted order.
func (s Shape) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Paths returns the dotted path of every leaf, sorted.
func (s Shape) Paths() []string {
	var paths []string
	var walk func(prefix string, sh Shape)
	walk = func(prefix string, sh Shape) {
		for _, k := range sh.Keys() {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			if n := sh[k]; n.IsLeaf() {
				paths = append(paths, p)
			} else if len(n.Fields) == 0 {
				paths = append(paths, p)
			} else {
				walk(p, n.Fields)
			}
		}
	}
	walk("", s)
	return paths
}

// Template renders the shape as the data skeleton a caller fills in: leaves
// carry their example values, nested nodes become objects.
func (s Shape) Template() map[string]any {
	out := make(map[string]any, len(s))
	for k, n := range s {
		if n.IsLeaf() {
			out[k] = n.Example
			continue
		}
		out[k] = n.Fields.Template()
	}
	return out
}

// Extract builds the shape a request template requires. Malformed raw JSON
// bodies are reported as errors.
func Extract(req collection.Request) (Shape, error) {
	s := Shape{}

	body, err := extractBody(req.Body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		s[KeyBody] = body
	}

	if query := extractQuery(req.URL); len(query) > 0 {
		s[KeyQuery] = Nested(query)
	}

	if vars := extractPathVariables(req.URL); len(vars) > 0 {
		s[KeyVariable] = Nested(vars)
	}

	return s, nil
}

func extractBody(body *collection.Body) (*Node, error) {
	if body == nil || body.Disabled {
		return nil, nil
	}

	switch body.Mode {
	case collection.ModeRaw:
		return extractRaw(body)
	case collection.ModeFormData, collection.ModeURLEncoded:
		fields := Shape{}
		for _, p := range body.Params() {
			if p.Disabled {
				continue
			}
			fields[p.Key] = Leaf(p.Value)
		}
		if len(fields) == 0 {
			return nil, nil
		}
		return Nested(fields), nil
	case collection.ModeFile, collection.ModeGraphQL:
		return Leaf(nil), nil
	default:
		return nil, nil
	}
}

func extractRaw(body *collection.Body) (*Node, error) {
	raw := strings.TrimSpace(body.Raw)
	if raw == "" {
		return nil, nil
	}

	if lang := strings.ToLower(body.Options.Raw.Language); lang != "" && lang != "json" {
		return Leaf(body.Raw), nil
	}

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("failed to parse raw body as JSON: %w", err)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return Leaf(v), nil
	}
	return Nested(fromObject(obj)), nil
}

// fromObject maps a decoded JSON object to a shape: objects nest, everything
// else (arrays and scalars) is a leaf.
func fromObject(obj map[string]any) Shape {
	s := make(Shape, len(obj))
	for k, v := range obj {
		if child, ok := v.(map[string]any); ok {
			s[k] = Nested(fromObject(child))
			continue
		}
		s[k] = Leaf(v)
	}
	return s
}

func extractQuery(u collection.URL) Shape {
	s := Shape{}
	for _, p := range u.QueryParams() {
		if p.Disabled {
			continue
		}
		s[p.Key] = Leaf(p.Value)
	}
	return s
}

func extractPathVariables(u collection.URL) Shape {
	s := Shape{}
	for _, seg := range u.PathSegments() {
		if name, ok := strings.CutPrefix(seg, ":"); ok && name != "" {
			if _, seen := s[name]; !seen {
				s[name] = Leaf(nil)
			}
		}
	}
	for _, v := range u.Variable {
		if v.Disabled {
			continue
		}
		if n, seen := s[v.Key]; seen {
			n.Example = v.Value
			continue
		}
		s[v.Key] = Leaf(v.Value)
	}
	return s
}

// PathVariableNames returns the declared path variable names in first-seen
// order: ":name" segments first, then the explicit variable list.
func PathVariableNames(u collection.URL) []string {
	var (
		names []string
		seen  = map[string]bool{}
	)
	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, seg := range u.PathSegments() {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			add(name)
		}
	}
	for _, v := range u.Variable {
		if !v.Disabled {
			add(v.Key)
		}
	}
	return names
}
