// Package collection models Postman-style collection descriptors: a tree of
// folders and request items plus the collection-level variable declarations.
package collection

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

// Body modes understood by the compiler.
const (
	ModeNone       = "none"
	ModeRaw        = "raw"
	ModeFormData   = "formdata"
	ModeURLEncoded = "urlencoded"
	ModeFile       = "file"
	ModeGraphQL    = "graphql"
)

// Info describes the collection itself.
type Info struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Schema      string `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Collection is the root of a collection descriptor.
type Collection struct {
	Info      Info       `json:"info" yaml:"info"`
	Items     []Item     `json:"item" yaml:"item" validate:"dive"`
	Variables []Variable `json:"variable,omitempty" yaml:"variable,omitempty" validate:"dive"`
}

// Item is either a folder (Items set, Request nil) or a request item.
type Item struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Items       []Item   `json:"item,omitempty" yaml:"item,omitempty" validate:"dive"`
	Request     *Request `json:"request,omitempty" yaml:"request,omitempty" validate:"omitempty"`
}

// IsFolder reports whether the item groups other items instead of describing a request.
func (i Item) IsFolder() bool {
	return i.Request == nil
}

// Request is the template of a single HTTP call.
type Request struct {
	Method      string  `json:"method,omitempty" yaml:"method,omitempty" validate:"omitempty,alpha"`
	Header      []Param `json:"header,omitempty" yaml:"header,omitempty" validate:"dive"`
	Body        *Body   `json:"body,omitempty" yaml:"body,omitempty" validate:"omitempty"`
	URL         URL     `json:"url" yaml:"url"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// MethodOrDefault returns the declared method, or GET when none is declared.
func (r Request) MethodOrDefault() string {
	if r.Method == "" {
		return "GET"
	}
	return r.Method
}

// Param is a key/value pair used for headers, query parameters, path
// variables and form bodies.
type Param struct {
	Key         string `json:"key" yaml:"key" validate:"required"`
	Value       string `json:"value,omitempty" yaml:"value,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Disabled    bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Variable is a collection-level variable declaration.
type Variable struct {
	Key      string `json:"key" yaml:"key" validate:"required"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Name returns the variable key with any surrounding {{ }} removed.
func (v Variable) Name() string {
	return strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(v.Key), "{{"), "}}")
}

// Body is a request body template.
type Body struct {
	Mode       string      `json:"mode" yaml:"mode" validate:"omitempty,oneof=none raw formdata urlencoded file graphql"`
	Raw        string      `json:"raw,omitempty" yaml:"raw,omitempty"`
	FormData   []Param     `json:"formdata,omitempty" yaml:"formdata,omitempty" validate:"dive"`
	URLEncoded []Param     `json:"urlencoded,omitempty" yaml:"urlencoded,omitempty" validate:"dive"`
	Disabled   bool        `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Options    BodyOptions `json:"options,omitempty" yaml:"options,omitempty"`
}

// Params returns the declared parameters for form-style modes.
func (b Body) Params() []Param {
	switch b.Mode {
	case ModeFormData:
		return b.FormData
	case ModeURLEncoded:
		return b.URLEncoded
	default:
		return nil
	}
}

// BodyOptions carries mode-specific options.
type BodyOptions struct {
	Raw BodyOptionsRaw `json:"raw,omitempty" yaml:"raw,omitempty"`
}

// BodyOptionsRaw describes the language of a raw body (json, text, xml, ...).
type BodyOptionsRaw struct {
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// URL is a request URL template. Descriptors encode it either as a plain
// string or as an object with decomposed parts.
type URL struct {
	Raw      string   `json:"raw,omitempty" yaml:"raw,omitempty"`
	Protocol string   `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Host     []string `json:"host,omitempty" yaml:"host,omitempty"`
	Port     string   `json:"port,omitempty" yaml:"port,omitempty"`
	Path     []string `json:"path,omitempty" yaml:"path,omitempty"`
	Query    []Param  `json:"query,omitempty" yaml:"query,omitempty"`
	Variable []Param  `json:"variable,omitempty" yaml:"variable,omitempty"`
	Hash     string   `json:"hash,omitempty" yaml:"hash,omitempty"`
}

// urlFields has URL's layout without its methods, for decoding.
type urlFields URL

// UnmarshalJSON accepts both the string and the object encoding.
func (u *URL) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*u = URL{Raw: raw}
		return nil
	}

	var fields urlFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to parse url: %w", err)
	}
	*u = URL(fields)
	return nil
}

// UnmarshalYAML accepts both the string and the mapping encoding.
func (u *URL) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*u = URL{Raw: value.Value}
		return nil
	}

	var fields urlFields
	if err := value.Decode(&fields); err != nil {
		return fmt.Errorf("failed to parse url: %w", err)
	}
	*u = URL(fields)
	return nil
}

// HasParts reports whether the URL carries decomposed host or path parts.
func (u URL) HasParts() bool {
	return len(u.Host) > 0 || len(u.Path) > 0
}

// PathSegments returns the path segments, taken from the decomposed parts
// when present and otherwise parsed out of the raw URL.
func (u URL) PathSegments() []string {
	if u.HasParts() {
		return u.Path
	}

	rest := u.RawWithoutQuery()
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	// The first segment is the host.
	parts := strings.Split(rest, "/")
	if len(parts) <= 1 {
		return nil
	}
	return parts[1:]
}

// RawWithoutQuery returns the raw URL with any query string or fragment removed.
func (u URL) RawWithoutQuery() string {
	raw := u.Raw
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

// QueryParams returns the declared query parameters. A URL given as a plain
// string declares the pairs of its raw query string.
func (u URL) QueryParams() []Param {
	if len(u.Query) > 0 || u.HasParts() {
		return u.Query
	}

	i := strings.Index(u.Raw, "?")
	if i < 0 {
		return nil
	}
	query := u.Raw[i+1:]
	if j := strings.Index(query, "#"); j >= 0 {
		query = query[:j]
	}

	var params []Param
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		params = append(params, Param{Key: key, Value: value})
	}
	return params
}
