package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Issue is a single field-level validation failure.
type Issue struct {
	Path    string
	Type    string
	Message string
}

// ValidationError lists every issue found in one validation run.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.Message
	}
	return strings.Join(msgs, "; ")
}

// Validate checks data against the schema and returns a *ValidationError
// when it does not conform.
func (s *Schema) Validate(data any) error {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("failed to validate data: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]Issue, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		issues = append(issues, toIssue(re))
	}
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Path < issues[j].Path
	})
	return &ValidationError{Issues: issues}
}

func toIssue(re gojsonschema.ResultError) Issue {
	path := re.Field()
	if path == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		path = ""
	}

	switch re.Type() {
	case "required", "additional_property_not_allowed":
		if prop, ok := re.Details()["property"].(string); ok {
			path = join(path, prop)
		}
	}

	label := path
	if label == "" {
		label = "value"
	}

	var msg string
	switch re.Type() {
	case "required":
		msg = fmt.Sprintf("%q is required", label)
	case "additional_property_not_allowed":
		msg = fmt.Sprintf("%q is not allowed", label)
	case "invalid_type":
		msg = fmt.Sprintf("%q must be of type %v", label, re.Details()["expected"])
	default:
		msg = fmt.Sprintf("%q %s", label, re.Description())
	}

	return Issue{Path: path, Type: re.Type(), Message: msg}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
