// Package lifecycle wraps command execution with timing, a structured
// completion log line, and a history record.
//
// The package is intentionally minimal: no event bus, no goroutines. Each
// wrapper captures the start time, executes the command body, and records
// how it ended.
package lifecycle

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/myusoutharm/svcmon/internal/history"
)

// Report carries what a command wants remembered about its run.
type Report struct {
	// Outcome is the machine-readable terminal status.
	Outcome string
	// RecordID is the event log record acted on, when there was one.
	RecordID int64
	// StateKey is the dedup slot consulted, when there was one.
	StateKey string
	// ExitCode is the process exit code the run maps to.
	ExitCode int
	// Err is the terminal error, when the run failed.
	Err error
}

// Recorder persists one run record. *history.Writer satisfies it.
type Recorder interface {
	Append(rec history.RunRecord)
}

// Run executes fn, logs its completion, and appends a history record when
// rec is non-nil. The report's exit code is returned unchanged.
func Run(log zerolog.Logger, rec Recorder, runID, command string, fn func() Report) int {
	start := time.Now()
	report := fn()
	duration := time.Since(start)

	evt := log.Info()
	if report.ExitCode != 0 {
		evt = log.Error()
	}
	if report.Err != nil {
		evt = evt.Err(report.Err)
	}
	evt.Str("command", command).
		Str("outcome", report.Outcome).
		Int("exit_code", report.ExitCode).
		Dur("duration", duration).
		Msg("run complete")

	if rec != nil {
		errMsg := ""
		if report.Err != nil {
			errMsg = report.Err.Error()
		}
		rec.Append(history.RunRecord{
			ID:        runID,
			Command:   command,
			Outcome:   report.Outcome,
			RecordID:  report.RecordID,
			StateKey:  report.StateKey,
			Error:     errMsg,
			StartedAt: start.UTC(),
			ExitCode:  report.ExitCode,
			Duration:  duration.Round(time.Millisecond).String(),
		})
	}

	return report.ExitCode
}
