// Package detector sequences one detection pass: load configuration, fetch
// the candidate entry, test the keyword, consult the dedup slot, dispatch,
// persist. Every terminal path is a distinct machine-readable outcome.
package detector

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/myusoutharm/svcmon/internal/eventlog"
)

// Outcome labels the terminal status of a pass.
type Outcome string

const (
	// OutcomeConfigError: configuration missing, unreadable, or malformed.
	OutcomeConfigError Outcome = "config-error"
	// OutcomeQueryError: the event log query failed.
	OutcomeQueryError Outcome = "query-error"
	// OutcomeNoCandidate: the log holds no entry for the configured filter.
	OutcomeNoCandidate Outcome = "no-candidate"
	// OutcomeNoMatch: the latest entry does not contain the keyword.
	OutcomeNoMatch Outcome = "no-match"
	// OutcomeDuplicate: the occurrence was already notified.
	OutcomeDuplicate Outcome = "duplicate-suppressed"
	// OutcomeNotified: a notification went out for a fresh occurrence.
	OutcomeNotified Outcome = "notified"
	// OutcomeDispatchFail: the notification API rejected or never received
	// the request; the occurrence stays eligible for the next run.
	OutcomeDispatchFail Outcome = "dispatch-failed"
)

// Result is the terminal report of one pass.
type Result struct {
	Outcome  Outcome
	Entry    *eventlog.Entry
	StateKey string
	Err      error
}

// Success reports whether the pass ended without a failure. Passes that
// found nothing to do count as successes.
func (r Result) Success() bool {
	switch r.Outcome {
	case OutcomeConfigError, OutcomeQueryError, OutcomeDispatchFail:
		return false
	}
	return true
}

// Deps are the collaborators of a pass.
type Deps struct {
	Source     ConfigSource
	Fetcher    EventFetcher
	Matcher    KeywordMatcher
	State      DedupStore
	Dispatcher Dispatcher
}

// Detector runs detection passes.
type Detector struct {
	deps Deps
	log  zerolog.Logger
}

// New returns a Detector over deps.
func New(deps Deps, log zerolog.Logger) *Detector {
	return &Detector{deps: deps, log: log}
}

// ConfigFailure builds the terminal result for a pass that could not load
// its configuration.
func ConfigFailure(err error) Result {
	return Result{Outcome: OutcomeConfigError, Err: err}
}

// Run executes one pass.
//
// The ordering is load-bearing: the dedup slot is read before dispatching
// and written only after the API accepted the notification. A failed
// dispatch leaves the slot untouched so the scheduler's next firing retries
// the same occurrence.
func (d *Detector) Run(ctx context.Context) Result {
	cfg, err := d.deps.Source.Load()
	if err != nil {
		return ConfigFailure(err)
	}
	key := cfg.StateKey()

	q := eventlog.Query{Log: cfg.LogName, Provider: cfg.EventSource, EventID: cfg.EventID}
	entry, err := d.deps.Fetcher.FetchLatest(ctx, q)
	if err != nil {
		return Result{
			Outcome:  OutcomeQueryError,
			StateKey: key,
			Err:      fmt.Errorf("fetching latest occurrence: %w", err),
		}
	}
	if entry == nil {
		d.log.Info().Str("provider", cfg.EventSource).Int("event_id", cfg.EventID).Msg("no matching entry in the event log")
		return Result{Outcome: OutcomeNoCandidate, StateKey: key}
	}

	if !d.deps.Matcher.Matches(entry.Message) {
		d.log.Info().Int64("record_id", entry.RecordID).Msg("latest entry does not contain the keyword")
		return Result{Outcome: OutcomeNoMatch, Entry: entry, StateKey: key}
	}

	if last, ok := d.deps.State.Read(key); ok && last == entry.RecordID {
		d.log.Info().Int64("record_id", entry.RecordID).Str("slot", key).Msg("occurrence already notified, suppressing")
		return Result{Outcome: OutcomeDuplicate, Entry: entry, StateKey: key}
	}

	if err := d.deps.Dispatcher.Dispatch(ctx, entry); err != nil {
		return Result{Outcome: OutcomeDispatchFail, Entry: entry, StateKey: key, Err: err}
	}

	if err := d.deps.State.Write(key, entry.RecordID); err != nil {
		// The notification went out. Failing the pass here would make the
		// next firing double-send, so the slot failure is only logged.
		d.log.Error().Err(err).Str("slot", key).Msg("failed to persist dedup slot after dispatch")
	}

	d.log.Info().Int64("record_id", entry.RecordID).Str("slot", key).Msg("notification dispatched")
	return Result{Outcome: OutcomeNotified, Entry: entry, StateKey: key}
}
