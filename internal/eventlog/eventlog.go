// Package eventlog reads candidate entries from the Windows event log by
// shelling out to PowerShell's Get-WinEvent. Script construction and output
// parsing are pure functions; only the process invocation is
// platform-specific.
package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnsupported is returned on hosts without a Windows event log.
var ErrUnsupported = errors.New("event log queries require windows")

// Entry is one record read from the host event log.
type Entry struct {
	// RecordID is the log's monotonically assigned record identifier. It
	// distinguishes one occurrence from the next.
	RecordID int64
	Time     time.Time
	Provider string
	EventID  int
	Message  string
}

// Query selects the records of interest: one provider and event id within
// one log channel.
type Query struct {
	Log      string
	Provider string
	EventID  int
}

type runnerFunc func(ctx context.Context, script string) ([]byte, error)

// Fetcher returns the most recent entry matching a Query.
type Fetcher struct {
	run runnerFunc
	log zerolog.Logger
}

// NewFetcher returns a Fetcher backed by the host's PowerShell.
func NewFetcher(log zerolog.Logger) *Fetcher {
	return &Fetcher{run: runScript, log: log}
}

// FetchLatest returns the newest entry matching q, or nil when the log
// holds none. Keyword filtering happens later; this narrows by provider and
// event id only.
func (f *Fetcher) FetchLatest(ctx context.Context, q Query) (*Entry, error) {
	script, err := buildQueryScript(q)
	if err != nil {
		return nil, err
	}

	f.log.Debug().Str("log", q.Log).Str("provider", q.Provider).Int("event_id", q.EventID).Msg("querying event log")

	out, err := f.run(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("querying event log: %w", err)
	}

	entry, err := parseEntry(out)
	if err != nil {
		return nil, fmt.Errorf("decoding event log output: %w", err)
	}
	if entry != nil && entry.Time.IsZero() {
		f.log.Warn().Int64("record_id", entry.RecordID).Msg("entry timestamp unparseable, continuing without it")
	}
	return entry, nil
}

// rawEvent mirrors the properties projected by the query script.
type rawEvent struct {
	RecordID    int64  `json:"RecordId"`
	ID          int    `json:"Id"`
	Provider    string `json:"ProviderName"`
	Message     string `json:"Message"`
	TimeCreated string `json:"TimeCreated"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parseEntry decodes ConvertTo-Json output. A single object arrives bare
// and multiple arrive as an array; both shapes are accepted, and an empty
// stdout means the log has no matching record.
func parseEntry(out []byte) (*Entry, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(bytes.TrimSpace(out), utf8BOM))
	if len(trimmed) == 0 {
		return nil, nil
	}

	var raw rawEvent
	if trimmed[0] == '[' {
		var list []rawEvent
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, nil
		}
		raw = list[0]
	} else {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, err
		}
	}

	entry := &Entry{
		RecordID: raw.RecordID,
		Provider: raw.Provider,
		EventID:  raw.ID,
		Message:  raw.Message,
	}
	// A bad timestamp degrades to the zero time: the record id, not the
	// time, identifies the occurrence.
	if t, err := time.Parse(time.RFC3339Nano, raw.TimeCreated); err == nil {
		entry.Time = t
	}
	return entry, nil
}
