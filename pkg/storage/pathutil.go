package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// withinDir resolves name against dir and rejects results outside dir, so a
// saved call named "../../etc/passwd" cannot escape the workspace.
func withinDir(dir, name string) (string, error) {
	target := name
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}

	absPath, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory: %w", err)
	}

	// The separator suffix keeps /calls-evil from matching /calls
	if !strings.HasPrefix(absPath, absDir+string(filepath.Separator)) {
		return "", fmt.Errorf("access denied: %q is outside %s", name, dir)
	}
	return absPath, nil
}

// callPath is the file backing a saved call. Names may contain slashes to
// group calls in subdirectories.
func callPath(baseDir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("a name is required to save a call")
	}
	return withinDir(CallsDir(baseDir), withYAMLExt(filepath.FromSlash(name)))
}
