package history

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Writer appends run records, pruning the file to a bounded length.
// History is advisory: failures are logged and swallowed so bookkeeping can
// never fail a run.
type Writer struct {
	// StateDir is the directory containing the run history file.
	StateDir string
	// MaxEntries is the number of records retained; 0 means unbounded.
	MaxEntries int

	log zerolog.Logger
}

// NewWriter returns a Writer for stateDir keeping at most maxEntries
// records.
func NewWriter(stateDir string, maxEntries int, log zerolog.Logger) *Writer {
	return &Writer{StateDir: stateDir, MaxEntries: maxEntries, log: log}
}

// Append records rec.
func (w *Writer) Append(rec RunRecord) {
	if err := w.append(rec); err != nil {
		w.log.Warn().Err(err).Msg("failed to record run history")
	}
}

func (w *Writer) append(rec RunRecord) error {
	runs, err := Load(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading run history: %w", err)
	}

	runs.Entries = append(runs.Entries, rec)

	if w.MaxEntries > 0 && len(runs.Entries) > w.MaxEntries {
		excess := len(runs.Entries) - w.MaxEntries
		runs.Entries = runs.Entries[excess:]
	}

	if err := Save(w.StateDir, runs); err != nil {
		return fmt.Errorf("saving run history: %w", err)
	}
	return nil
}
