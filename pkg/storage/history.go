package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry records one operation call.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Time       time.Time `json:"time"`
	Operation  string    `json:"operation"`
	Method     string    `json:"method,omitempty"`
	URL        string    `json:"url,omitempty"`
	Status     int       `json:"status,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// HistoryPath returns the history file path
func HistoryPath(baseDir string) string {
	return filepath.Join(baseDir, "history.jsonl")
}

// AppendHistory appends an entry to baseDir/history.jsonl, filling in the ID
// and time when unset. It returns the stored entry.
func AppendHistory(baseDir string, entry HistoryEntry) (HistoryEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return entry, fmt.Errorf("failed to create directory: %w", err)
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return entry, fmt.Errorf("failed to marshal history entry: %w", err)
	}

	f, err := os.OpenFile(HistoryPath(baseDir), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return entry, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return entry, fmt.Errorf("failed to write history entry: %w", err)
	}
	return entry, nil
}

// LoadHistory returns the most recent entries, oldest first. A limit of zero
// or less returns everything. Malformed lines are skipped.
func LoadHistory(baseDir string, limit int) ([]HistoryEntry, error) {
	f, err := os.Open(HistoryPath(baseDir))
	if os.IsNotExist(err) {
		return []HistoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	entries := []HistoryEntry{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e HistoryEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}
