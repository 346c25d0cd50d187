// Package logging configures the process-wide zerolog logger: a
// human-readable console stream on stderr plus an optional JSON transcript
// file in append mode.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Options control where and how verbosely log lines are emitted.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Empty means info.
	Level string
	// File, when set, receives every line as JSON, appended across runs.
	File string
	// Console enables the human-readable stderr stream.
	Console bool
	// NoColor strips ANSI colors from the console stream.
	NoColor bool
}

// Setup builds the root logger. The returned closer flushes and closes the
// transcript file and must be called before exit.
func Setup(opts Options) (zerolog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	zerolog.ErrorFieldName = "err"
	zerolog.DurationFieldUnit = time.Millisecond

	writers := make([]io.Writer, 0, 2)
	if opts.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: consoleTimeFormat,
			NoColor:    opts.NoColor,
		})
	}

	closer := func() error { return nil }
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return zerolog.Nop(), nil, fmt.Errorf("creating log directory: %w", err)
			}
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("opening log file: %w", err)
		}
		writers = append(writers, f)
		closer = f.Close
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().
		Logger()

	return logger, closer, nil
}

// ParseLevel maps a level name to its zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}
