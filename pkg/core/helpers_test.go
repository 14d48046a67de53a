package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/schema"

	"github.com/blackcoderx/apman/pkg/collection"
	"github.com/blackcoderx/apman/pkg/transport"
)

// usersCollection mirrors a small users API: a folder with a GET and an
// urlencoded POST against {{base_url}}.
const usersCollection = `{
	"info": {"name": "Users API"},
	"item": [
		{
			"name": "User",
			"item": [
				{
					"name": "Get User",
					"request": {
						"method": "GET",
						"url": {"raw": "{{base_url}}/user", "host": ["{{base_url}}"], "path": ["user"]}
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
						"url": {"raw": "{{base_url}}/user", "host": ["{{base_url}}"], "path": ["user"]}
					}
				}
			]
		}
	],
	"variable": [{"key": "base_url", "value": ""}]
}`

func mustParse(t *testing.T, doc string) *collection.Collection {
	t.Helper()
	c, err := collection.Parse([]byte(doc), collection.FormatJSON)
	if err != nil {
		t.Fatalf("failed to parse collection: %v", err)
	}
	return c
}

var formDecoder = schema.NewDecoder()

type createUserForm struct {
	Username string `schema:"username"`
	Email    string `schema:"email"`
}

// newUsersServer serves GET /user and POST /user the way the users API does.
func newUsersServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "name": "John Doe"})
	})

	mux.HandleFunc("POST /user", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		var f createUserForm
		if err := formDecoder.Decode(&f, r.PostForm); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "username": f.Username, "email": f.Email})
	})

	mux.HandleFunc("GET /headers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"x_token": r.Header.Get("X-Token")})
	})

	mux.HandleFunc("GET /fail", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "boom"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// recordingTransport captures requests instead of sending them.
type recordingTransport struct {
	mu   sync.Mutex
	reqs []transport.Request
	resp *transport.Response
	err  error
}

func (rt *recordingTransport) Send(ctx context.Context, req transport.Request) (*transport.Response, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.reqs = append(rt.reqs, req)
	if rt.err != nil {
		return nil, rt.err
	}
	if rt.resp != nil {
		return rt.resp, nil
	}
	return &transport.Response{StatusCode: 200, Status: "200 OK", Data: map[string]any{"ok": true}}, nil
}

func (rt *recordingTransport) last(t *testing.T) transport.Request {
	t.Helper()
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if len(rt.reqs) == 0 {
		t.Fatal("no request was sent")
	}
	return rt.reqs[len(rt.reqs)-1]
}
