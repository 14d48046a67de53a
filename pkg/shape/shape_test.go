package shape

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/blackcoderx/apman/pkg/collection"
)

func TestExtract_FormBodies(t *testing.T) {
	params := []collection.Param{
		{Key: "username", Value: "JohnDoe"},
		{Key: "email", Value: "j.doe@example.com"},
		{Key: "debug", Value: "1", Disabled: true},
	}

	for _, mode := range []string{collection.ModeFormData, collection.ModeURLEncoded} {
		t.Run(mode, func(t *testing.T) {
			body := &collection.Body{Mode: mode}
			if mode == collection.ModeFormData {
				body.FormData = params
			} else {
				body.URLEncoded = params
			}

			s, err := Extract(collection.Request{Method: "POST", Body: body, URL: collection.URL{Raw: "{{base_url}}/user"}})
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}

			b, ok := s[KeyBody]
			if !ok || b.IsLeaf() {
				t.Fatalf("expected nested body, got %+v", s)
			}
			if got, want := b.Fields.Keys(), []string{"email", "username"}; !reflect.DeepEqual(got, want) {
				t.Errorf("body keys = %v, want %v", got, want)
			}
			if got := b.Fields["username"].Example; got != "JohnDoe" {
				t.Errorf("username example = %v", got)
			}
		})
	}
}

func TestExtract_RawJSON(t *testing.T) {
	req := collection.Request{
		Method: "POST",
		Body: &collection.Body{
			Mode: collection.ModeRaw,
			Raw:  `{"name": "x", "address": {"city": "Paris", "geo": {"lat": 1, "lng": 2}}, "tags": ["a"], "meta": {}}`,
		},
	}

	s, err := Extract(req)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := []string{"body.address.city", "body.address.geo.lat", "body.address.geo.lng", "body.meta", "body.name", "body.tags"}
	if got := s.Paths(); !reflect.DeepEqual(got, want) {
		t.Errorf("Paths() = %v, want %v", got, want)
	}

	body := s[KeyBody].Fields
	if !body["tags"].IsLeaf() {
		t.Error("arrays should be leaves")
	}
	if body["meta"].IsLeaf() || len(body["meta"].Fields) != 0 {
		t.Error("empty objects should be nested shapes with no fields")
	}
}

func TestExtract_RawVariants(t *testing.T) {
	tests := []struct {
		name     string
		body     *collection.Body
		wantBody bool
		wantLeaf bool
		errMsg   string
	}{
		{name: "malformed json", body: &collection.Body{Mode: collection.ModeRaw, Raw: `{"a": `}, errMsg: "failed to parse raw body"},
		{name: "placeholder breaks json", body: &collection.Body{Mode: collection.ModeRaw, Raw: `{"id": {{id}}}`}, errMsg: "failed to parse raw body"},
		{name: "empty raw", body: &collection.Body{Mode: collection.ModeRaw, Raw: "   "}},
		{name: "json array", body: &collection.Body{Mode: collection.ModeRaw, Raw: `[1, 2]`}, wantBody: true, wantLeaf: true},
		{
			name:     "xml language",
			body:     &collection.Body{Mode: collection.ModeRaw, Raw: `<a/>`, Options: collection.BodyOptions{Raw: collection.BodyOptionsRaw{Language: "xml"}}},
			wantBody: true,
			wantLeaf: true,
		},
		{name: "graphql", body: &collection.Body{Mode: collection.ModeGraphQL}, wantBody: true, wantLeaf: true},
		{name: "none", body: &collection.Body{Mode: collection.ModeNone}},
		{name: "disabled body", body: &collection.Body{Mode: collection.ModeRaw, Raw: `{"a": 1}`, Disabled: true}},
		{name: "all params disabled", body: &collection.Body{Mode: collection.ModeFormData, FormData: []collection.Param{{Key: "a", Disabled: true}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Extract(collection.Request{Body: tt.body})
			if tt.errMsg != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
					t.Fatalf("error = %v, want containing %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			b, ok := s[KeyBody]
			if ok != tt.wantBody {
				t.Fatalf("body present = %v, want %v", ok, tt.wantBody)
			}
			if ok && b.IsLeaf() != tt.wantLeaf {
				t.Errorf("body leaf = %v, want %v", b.IsLeaf(), tt.wantLeaf)
			}
		})
	}
}

func TestExtract_QueryAndPathVariables(t *testing.T) {
	req := collection.Request{
		URL: collection.URL{
			Host: []string{"{{base_url}}"},
			Path: []string{"users", ":id", "posts", ":postId"},
			Query: []collection.Param{
				{Key: "page", Value: "1"},
				{Key: "limit", Value: "10"},
				{Key: "trace", Disabled: true},
			},
			Variable: []collection.Param{
				{Key: "id", Value: "42"},
				{Key: "tenant"},
			},
		},
	}

	s, err := Extract(req)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if _, ok := s[KeyBody]; ok {
		t.Error("no body should be present when the template declares none")
	}

	query := s[KeyQuery].Fields.Keys()
	if want := []string{"limit", "page"}; !reflect.DeepEqual(query, want) {
		t.Errorf("query keys = %v, want %v", query, want)
	}

	vars := s[KeyVariable].Fields.Keys()
	if want := []string{"id", "postId", "tenant"}; !reflect.DeepEqual(vars, want) {
		t.Errorf("variable keys = %v, want %v", vars, want)
	}
	if got := s[KeyVariable].Fields["id"].Example; got != "42" {
		t.Errorf("id example = %v, want 42", got)
	}

	if got, want := PathVariableNames(req.URL), []string{"id", "postId", "tenant"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PathVariableNames() = %v, want %v", got, want)
	}
}

func TestExtract_EmptyTemplate(t *testing.T) {
	s, err := Extract(collection.Request{URL: collection.URL{Raw: "{{base_url}}/user"}})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(s) != 0 {
		t.Errorf("expected empty shape, got keys %v", s.Keys())
	}
}

func TestShape_Template(t *testing.T) {
	s := Shape{
		KeyBody: Nested(Shape{
			"username": Leaf("JohnDoe"),
			"profile":  Nested(Shape{"age": Leaf(float64(30))}),
		}),
	}

	tmpl := s.Template()
	body, ok := tmpl[KeyBody].(map[string]any)
	if !ok {
		t.Fatalf("body template = %#v", tmpl[KeyBody])
	}
	if body["username"] != "JohnDoe" {
		t.Errorf("username = %v", body["username"])
	}
	profile := body["profile"].(map[string]any)
	keys := make([]string, 0, len(profile))
	for k := range profile {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if !reflect.DeepEqual(keys, []string{"age"}) {
		t.Errorf("profile keys = %v", keys)
	}
}
