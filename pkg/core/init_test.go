package core

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitializeApmanFolder(t *testing.T) {
	root := t.TempDir()
	var out bytes.Buffer

	if err := InitializeApmanFolder(root, &out); err != nil {
		t.Fatalf("InitializeApmanFolder() error = %v", err)
	}
	if !strings.Contains(out.String(), "initialized successfully") {
		t.Errorf("unexpected output %q", out.String())
	}

	dir := filepath.Join(root, ApmanFolderName)
	for _, p := range []string{"config.json", "history.jsonl", "calls", "environments", filepath.Join("environments", "dev.yaml")} {
		if _, err := os.Stat(filepath.Join(dir, p)); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("config.json is not valid: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("config = %+v, want defaults", cfg)
	}

	// Second run is a no-op apart from restoring missing subdirectories.
	os.RemoveAll(filepath.Join(dir, "calls"))
	out.Reset()
	if err := InitializeApmanFolder(root, &out); err != nil {
		t.Fatalf("second InitializeApmanFolder() error = %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output on re-run, got %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "calls")); err != nil {
		t.Errorf("calls dir should be restored: %v", err)
	}
}
