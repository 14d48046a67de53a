package variables

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/blackcoderx/apman/pkg/collection"
)

func TestBuild(t *testing.T) {
	s := Build([]collection.Variable{
		{Key: "base_url", Value: "http://example.com"},
		{Key: "{{token}}", Value: "abc"},
		{Key: "legacy", Value: "x", Disabled: true},
	})

	if got, want := s.Names(), []string{"base_url", "token"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if v, ok := s.Get("token"); !ok || v != "abc" {
		t.Errorf("Get(token) = %q, %v", v, ok)
	}
	if _, ok := s.Get("legacy"); ok {
		t.Error("disabled variables should not be stored")
	}
}

func TestValidateSupplied(t *testing.T) {
	declared := []collection.Variable{
		{Key: "base_url", Value: ""},
		{Key: "api_key", Value: "default"},
		{Key: "tenant", Value: ""},
	}

	t.Run("missing variables are all named", func(t *testing.T) {
		s := Build(declared)
		err := s.ValidateSupplied(map[string]string{"api_key": "k", "tenant": ""})

		var missing *MissingError
		if !errors.As(err, &missing) {
			t.Fatalf("expected *MissingError, got %v", err)
		}
		if want := []string{"base_url", "tenant"}; !reflect.DeepEqual(missing.Missing, want) {
			t.Errorf("Missing = %v, want %v", missing.Missing, want)
		}

		msg := err.Error()
		for _, want := range []string{`Variable "base_url" is required.`, `Variable "tenant" is required.`, "api_key => default"} {
			if !strings.Contains(msg, want) {
				t.Errorf("error %q missing %q", msg, want)
			}
		}
		if v, _ := s.Get("api_key"); v != "default" {
			t.Errorf("values must not be committed on failure, api_key = %q", v)
		}
	})

	t.Run("all supplied", func(t *testing.T) {
		s := Build(declared)
		err := s.ValidateSupplied(map[string]string{
			"base_url": "http://localhost:2306",
			"api_key":  "k",
			"tenant":   "acme",
			"extra":    "e",
		})
		if err != nil {
			t.Fatalf("ValidateSupplied() error = %v", err)
		}
		if v, _ := s.Get("base_url"); v != "http://localhost:2306" {
			t.Errorf("base_url = %q", v)
		}
		if got := s.Resolve("{{extra}}"); got != "e" {
			t.Errorf("undeclared supplied variables should resolve, got %q", got)
		}
	})

	t.Run("no declared variables", func(t *testing.T) {
		if err := Build(nil).ValidateSupplied(nil); err != nil {
			t.Errorf("ValidateSupplied() error = %v", err)
		}
	})
}

func TestResolve(t *testing.T) {
	s := Build([]collection.Variable{
		{Key: "base", Value: "BASE"},
		{Key: "base_url", Value: "http://localhost:2306"},
		{Key: "id", Value: "7"},
		{Key: "a.b", Value: "dotted"},
	})

	tests := []struct {
		in   string
		want string
	}{
		{in: "{{base_url}}/user", want: "http://localhost:2306/user"},
		{in: "{{base}}/{{base_url}}", want: "BASE/http://localhost:2306"},
		{in: "{{base_url}}/users/{{id}}/{{id}}", want: "http://localhost:2306/users/7/7"},
		{in: "{{unknown}}/x", want: "{{unknown}}/x"},
		{in: "{{a.b}} {{aXb}}", want: "dotted {{aXb}}"},
		{in: "no placeholders", want: "no placeholders"},
	}

	for _, tt := range tests {
		if got := s.Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolve_SinglePass(t *testing.T) {
	s := Build([]collection.Variable{
		{Key: "outer", Value: "{{inner}}"},
		{Key: "inner", Value: "value"},
	})
	if got := s.Resolve("{{outer}}"); got != "{{inner}}" {
		t.Errorf("Resolve() = %q, substituted values must not be rescanned", got)
	}
}

func TestSet(t *testing.T) {
	s := Build([]collection.Variable{{Key: "base_url", Value: "http://a"}})

	s.Set("base_url", "http://b")
	s.Set("version", "v2")

	if got := s.Resolve("{{base_url}}/{{version}}"); got != "http://b/v2" {
		t.Errorf("Resolve() = %q", got)
	}
	if got, want := s.Table(), []Entry{{"base_url", "http://b"}, {"version", "v2"}}; !reflect.DeepEqual(got, want) {
		t.Errorf("Table() = %v, want %v", got, want)
	}
}

func TestStore_Concurrent(t *testing.T) {
	s := Build([]collection.Variable{{Key: "base_url", Value: "http://a"}})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Set("base_url", "http://b")
		}()
		go func() {
			defer wg.Done()
			_ = s.Resolve("{{base_url}}/user")
		}()
	}
	wg.Wait()
}
