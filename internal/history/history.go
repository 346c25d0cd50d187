// Package history records the outcome of every run so operators can audit
// what the scheduler has been firing and what each pass decided.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the name of the run history file inside the state dir.
	FileName = "runs.yaml"
	// BackupSuffix is appended when a corrupted history file is set aside.
	BackupSuffix = ".backup"
)

// RunRecord is one completed run.
type RunRecord struct {
	// ID correlates this record with the run_id field in log lines.
	ID string `yaml:"id,omitempty"`
	// Command is the subcommand that ran (detect, setup, ...).
	Command string `yaml:"command"`
	// Outcome is the terminal status label of the run.
	Outcome string `yaml:"outcome,omitempty"`
	// RecordID is the event log record the run acted on, when there was one.
	RecordID int64 `yaml:"record_id,omitempty"`
	// StateKey is the dedup slot the run consulted.
	StateKey string `yaml:"state_key,omitempty"`
	// Error is the terminal error message, when the run failed.
	Error     string    `yaml:"error,omitempty"`
	StartedAt time.Time `yaml:"started_at"`
	ExitCode  int       `yaml:"exit_code"`
	Duration  string    `yaml:"duration"`
}

// RunLog is the YAML file containing all run records, oldest first.
type RunLog struct {
	Entries []RunRecord `yaml:"entries"`
}

// Load reads the run history from stateDir. A missing file yields an empty
// history; a corrupted file is renamed aside with BackupSuffix and a fresh
// history is returned.
func Load(stateDir string) (*RunLog, error) {
	path := filepath.Join(stateDir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RunLog{Entries: []RunRecord{}}, nil
		}
		return nil, fmt.Errorf("reading run history: %w", err)
	}

	var runs RunLog
	if err := yaml.Unmarshal(data, &runs); err != nil {
		if backupErr := backupCorruptedFile(path); backupErr != nil {
			return nil, fmt.Errorf("backing up corrupted run history: %w", backupErr)
		}
		return &RunLog{Entries: []RunRecord{}}, nil
	}

	if runs.Entries == nil {
		runs.Entries = []RunRecord{}
	}
	return &runs, nil
}

// Save writes the run history to stateDir atomically, creating the
// directory if needed.
func Save(stateDir string, runs *RunLog) error {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(runs)
	if err != nil {
		return fmt.Errorf("marshaling run history: %w", err)
	}

	path := filepath.Join(stateDir, FileName)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing temp run history: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp run history: %w", err)
	}
	return nil
}

// Latest returns the most recent record, or nil when the history is empty.
func (r *RunLog) Latest() *RunRecord {
	if len(r.Entries) == 0 {
		return nil
	}
	return &r.Entries[len(r.Entries)-1]
}

// backupCorruptedFile renames a corrupted file aside so the next save
// starts clean without destroying evidence.
func backupCorruptedFile(path string) error {
	if err := os.Rename(path, path+BackupSuffix); err != nil {
		return fmt.Errorf("renaming corrupted file: %w", err)
	}
	return nil
}
