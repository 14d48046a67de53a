package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SavedCall is a reusable call payload for one operation.
type SavedCall struct {
	Operation string            `yaml:"operation"`
	Data      map[string]any    `yaml:"data,omitempty"`
	Headers   map[string]string `yaml:"headers,omitempty"`
}

// SaveCall writes a call payload to baseDir/calls/<name>.yaml.
func SaveCall(baseDir, name string, call SavedCall) error {
	path, err := callPath(baseDir, name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(call)
	if err != nil {
		return fmt.Errorf("failed to marshal call: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadCall reads a saved call payload by name.
func LoadCall(baseDir, name string) (*SavedCall, error) {
	path, err := callPath(baseDir, name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var call SavedCall
	if err := yaml.Unmarshal(data, &call); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &call, nil
}

// ListCalls lists saved call names, including subdirectories.
func ListCalls(baseDir string) ([]string, error) {
	callsDir := CallsDir(baseDir)

	if _, err := os.Stat(callsDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	names := []string{}
	err := filepath.WalkDir(callsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isYAML(path) {
			rel, _ := filepath.Rel(callsDir, path)
			names = append(names, filepath.ToSlash(trimYAMLExt(rel)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}
	return names, nil
}

// CallsDir returns the saved calls directory path
func CallsDir(baseDir string) string {
	return filepath.Join(baseDir, "calls")
}
