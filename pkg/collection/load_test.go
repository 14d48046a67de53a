package collection

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleJSON = `{
	"info": {"name": "Users API"},
	"item": [
		{
			"name": "User",
			"item": [
				{
					"name": "Get User",
					"request": {
						"method": "GET",
						"url": {
							"raw": "{{base_url}}/user",
							"host": ["{{base_url}}"],
							"path": ["user"]
						}
					}
				},
				{
					"name": "Create User",
					"request": {
						"method": "POST",
						"body": {
							"mode": "urlencoded",
							"urlencoded": [
								{"key": "username", "value": "JohnDoe"},
								{"key": "email", "value": "j.doe@example.com"}
							]
						},
						"url": "{{base_url}}/user"
					}
				}
			]
		}
	],
	"variable": [
		{"key": "base_url", "value": ""}
	]
}`

func TestParse_JSON(t *testing.T) {
	c, err := Parse([]byte(sampleJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if c.Info.Name != "Users API" {
		t.Errorf("Info.Name = %q, want %q", c.Info.Name, "Users API")
	}
	if len(c.Items) != 1 || !c.Items[0].IsFolder() {
		t.Fatalf("expected one folder at the root, got %+v", c.Items)
	}

	folder := c.Items[0]
	if len(folder.Items) != 2 {
		t.Fatalf("expected 2 requests in folder, got %d", len(folder.Items))
	}

	get := folder.Items[0].Request
	if get == nil {
		t.Fatal("expected Get User to be a request item")
	}
	if got := strings.Join(get.URL.Host, ","); got != "{{base_url}}" {
		t.Errorf("host = %q", got)
	}

	create := folder.Items[1].Request
	if create.URL.Raw != "{{base_url}}/user" {
		t.Errorf("string URL not decoded into Raw, got %+v", create.URL)
	}
	if create.Body.Mode != ModeURLEncoded || len(create.Body.Params()) != 2 {
		t.Errorf("unexpected body %+v", create.Body)
	}
}

func TestParse_YAML(t *testing.T) {
	doc := `
info:
  name: Users API
item:
  - name: Health
    request:
      url: https://example.com/health
  - name: Search
    request:
      method: GET
      url:
        host: ["{{host}}"]
        path: ["search"]
        query:
          - key: q
            value: golang
variable:
  - key: host
    value: example.com
`
	c, err := Parse([]byte(doc), FormatYAML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := c.Items[0].Request.URL.Raw; got != "https://example.com/health" {
		t.Errorf("scalar URL = %q", got)
	}
	if got := c.Items[0].Request.MethodOrDefault(); got != "GET" {
		t.Errorf("MethodOrDefault() = %q, want GET", got)
	}
	search := c.Items[1].Request.URL
	if len(search.Query) != 1 || search.Query[0].Key != "q" {
		t.Errorf("query = %+v", search.Query)
	}
	if c.Variables[0].Name() != "host" {
		t.Errorf("variable name = %q", c.Variables[0].Name())
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		errMsg string
	}{
		{
			name:   "empty data",
			data:   "",
			errMsg: "empty collection data",
		},
		{
			name:   "malformed json",
			data:   `{"item": [`,
			errMsg: "failed to parse collection JSON",
		},
		{
			name:   "unknown body mode",
			data:   `{"item": [{"name": "x", "request": {"url": "a", "body": {"mode": "binary"}}}]}`,
			errMsg: "must be one of",
		},
		{
			name:   "variable without key",
			data:   `{"item": [], "variable": [{"value": "x"}]}`,
			errMsg: "Variables[0].Key: required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), FormatJSON)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.errMsg)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %q, want containing %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "path is required") {
		t.Errorf("Load(\"\") error = %v, want path is required", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "users.postman_collection.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0644); err != nil {
		t.Fatalf("failed to write collection: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(c.Variables) != 1 {
		t.Errorf("expected 1 variable, got %d", len(c.Variables))
	}
}

func TestURL_Helpers(t *testing.T) {
	tests := []struct {
		name      string
		url       URL
		wantPath  []string
		wantQuery []string
	}{
		{
			name:     "parts",
			url:      URL{Host: []string{"api", "example", "com"}, Path: []string{"users", ":id"}},
			wantPath: []string{"users", ":id"},
		},
		{
			name:      "raw with scheme and query",
			url:       URL{Raw: "https://api.example.com/users/:id?page=1&limit=10"},
			wantPath:  []string{"users", ":id"},
			wantQuery: []string{"page", "limit"},
		},
		{
			name:     "raw placeholder host",
			url:      URL{Raw: "{{base_url}}/user"},
			wantPath: []string{"user"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(tt.url.PathSegments(), "/"); got != strings.Join(tt.wantPath, "/") {
				t.Errorf("PathSegments() = %q, want %q", got, strings.Join(tt.wantPath, "/"))
			}
			var keys []string
			for _, p := range tt.url.QueryParams() {
				keys = append(keys, p.Key)
			}
			if strings.Join(keys, ",") != strings.Join(tt.wantQuery, ",") {
				t.Errorf("QueryParams() keys = %v, want %v", keys, tt.wantQuery)
			}
		})
	}
}
