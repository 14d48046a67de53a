package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const ApmanFolderName = ".apman"

// Config represents the workspace configuration stored in .apman/config.json
type Config struct {
	Collection     string `json:"collection" mapstructure:"collection"`
	Environment    string `json:"environment" mapstructure:"environment"`
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	LogLevel       string `json:"log_level" mapstructure:"log_level"`
	RenderWidth    int    `json:"render_width" mapstructure:"render_width"`
}

// DefaultConfig returns the configuration written by InitializeApmanFolder.
func DefaultConfig() Config {
	return Config{
		Collection:     "",
		Environment:    "dev",
		TimeoutSeconds: 30,
		LogLevel:       "warn",
		RenderWidth:    100,
	}
}

// InitializeApmanFolder creates the .apman directory inside root and
// initializes default files if they don't exist. Progress messages go to out.
func InitializeApmanFolder(root string, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	dir := filepath.Join(root, ApmanFolderName)

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Fprintln(out, "🔧 Initializing .apman folder for the first time...")

		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create .apman folder: %w", err)
		}

		if err := createDefaultConfig(dir); err != nil {
			return err
		}

		if err := createFile(filepath.Join(dir, "history.jsonl")); err != nil {
			return err
		}

		if err := os.Mkdir(filepath.Join(dir, "calls"), 0755); err != nil {
			return fmt.Errorf("failed to create calls folder: %w", err)
		}

		if err := os.Mkdir(filepath.Join(dir, "environments"), 0755); err != nil {
			return fmt.Errorf("failed to create environments folder: %w", err)
		}

		if err := createDefaultEnvironment(dir); err != nil {
			return err
		}

		fmt.Fprintln(out, "✓ .apman folder initialized successfully!")
	}

	// Ensure subdirectories exist for workspaces created by older versions
	if err := ensureDir(filepath.Join(dir, "calls")); err != nil {
		return err
	}
	return ensureDir(filepath.Join(dir, "environments"))
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return nil
}

func createDefaultEnvironment(dir string) error {
	envContent := `# Development environment
# Values for the collection's variables, e.g.:
# base_url: http://localhost:2306
# api_token: "{{env:API_TOKEN}}"
`
	envPath := filepath.Join(dir, "environments", "dev.yaml")
	if err := os.WriteFile(envPath, []byte(envContent), 0644); err != nil {
		return fmt.Errorf("failed to write dev environment: %w", err)
	}
	return nil
}

func createDefaultConfig(dir string) error {
	data, err := json.MarshalIndent(DefaultConfig(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func createFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return file.Close()
}
