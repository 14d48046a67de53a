// Package storage persists workspace state under the .apman folder:
// environment files, saved call payloads and the call history.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// envRefPattern matches {{env:VAR_NAME}}
var envRefPattern = regexp.MustCompile(`\{\{\s*env:([^}]+?)\s*\}\}`)

// LoadEnvironment loads collection variable values from a YAML file.
// {{env:VAR}} references resolve to process environment variables; other
// placeholders are kept for the variable store.
func LoadEnvironment(filePath string) (map[string]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse environment YAML: %w", err)
	}

	env := make(map[string]string, len(raw))
	for key, value := range raw {
		var s string
		if value != nil {
			s = fmt.Sprint(value)
		}
		env[key] = resolveEnvRefs(s)
	}

	return env, nil
}

// SaveEnvironment saves variable values to a YAML file
func SaveEnvironment(env map[string]string, filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filePath = withYAMLExt(filePath)

	data, err := yaml.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal environment: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write environment file: %w", err)
	}
	return nil
}

// ListEnvironments lists environment names found in baseDir/environments.
func ListEnvironments(baseDir string) ([]string, error) {
	envDir := EnvironmentsDir(baseDir)

	if _, err := os.Stat(envDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(envDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read environments directory: %w", err)
	}

	envs := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && isYAML(entry.Name()) {
			envs = append(envs, trimYAMLExt(entry.Name()))
		}
	}
	sort.Strings(envs)

	return envs, nil
}

// EnvironmentPath returns the file for a named environment. An existing
// .yml file wins over the .yaml default.
func EnvironmentPath(baseDir, name string) string {
	yml := filepath.Join(EnvironmentsDir(baseDir), name+".yml")
	if _, err := os.Stat(yml); err == nil {
		return yml
	}
	return filepath.Join(EnvironmentsDir(baseDir), name+".yaml")
}

// EnvironmentsDir returns the environments directory path
func EnvironmentsDir(baseDir string) string {
	return filepath.Join(baseDir, "environments")
}

func resolveEnvRefs(text string) string {
	return envRefPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.TrimSpace(envRefPattern.FindStringSubmatch(match)[1])
		if val, ok := os.LookupEnv(name); ok && val != "" {
			return val
		}
		return match
	})
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func trimYAMLExt(name string) string {
	return strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
}

func withYAMLExt(path string) string {
	if isYAML(path) {
		return path
	}
	return path + ".yaml"
}
