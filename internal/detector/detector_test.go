package detector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myusoutharm/svcmon/internal/config"
	"github.com/myusoutharm/svcmon/internal/eventlog"
	"github.com/myusoutharm/svcmon/internal/match"
	"github.com/myusoutharm/svcmon/internal/state"
)

// loadTestConfig builds a real Config through the loader so the state key
// is derived the same way production runs derive it.
func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "svcmon.conf")
	content := `to=[ops@example.com]
sender=alerts@example.com
template_id=tmpl-crash-01
API_KEY=sk-test-123
eventID=1026
eventSource=.NET Runtime
keyword=xpo.svc.agent
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func crashEntry() *eventlog.Entry {
	return &eventlog.Entry{
		RecordID: 42,
		Time:     time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Provider: ".NET Runtime",
		EventID:  1026,
		Message:  "Application: Xpo.Svc.Agent failed with an unhandled exception",
	}
}

// testDeps wires a detector over mocks, with the matcher and store
// replaceable per test.
func testDeps(t *testing.T, fetcher *mockFetcher, dispatcher *mockDispatcher, store DedupStore) (Deps, *config.Config) {
	t.Helper()

	cfg := loadTestConfig(t)
	if store == nil {
		store = newMockStore()
	}
	return Deps{
		Source:     &mockSource{cfg: cfg},
		Fetcher:    fetcher,
		Matcher:    match.Matcher{Keyword: cfg.Keyword},
		State:      store,
		Dispatcher: dispatcher,
	}, cfg
}

func TestRun_FreshOccurrenceDispatchesAndPersists(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{entry: crashEntry()}
	dispatcher := &mockDispatcher{}
	store := newMockStore()
	deps, cfg := testDeps(t, fetcher, dispatcher, store)

	res := New(deps, zerolog.Nop()).Run(context.Background())

	assert.Equal(t, OutcomeNotified, res.Outcome)
	assert.True(t, res.Success())
	require.NotNil(t, res.Entry)
	assert.Equal(t, int64(42), res.Entry.RecordID)
	assert.Equal(t, "xposvcagent", res.StateKey)

	require.Len(t, dispatcher.Calls, 1)
	assert.Equal(t, int64(42), dispatcher.Calls[0].RecordID)

	id, ok := store.Read(cfg.StateKey())
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestRun_QueryUsesConfiguredFilter(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{entry: crashEntry()}
	deps, _ := testDeps(t, fetcher, &mockDispatcher{}, nil)

	New(deps, zerolog.Nop()).Run(context.Background())

	require.Len(t, fetcher.Queries, 1)
	assert.Equal(t, eventlog.Query{Log: "Application", Provider: ".NET Runtime", EventID: 1026}, fetcher.Queries[0])
}

func TestRun_DuplicateSuppressed(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{entry: crashEntry()}
	dispatcher := &mockDispatcher{}
	store := newMockStore()
	deps, cfg := testDeps(t, fetcher, dispatcher, store)
	require.NoError(t, store.Write(cfg.StateKey(), 42))

	res := New(deps, zerolog.Nop()).Run(context.Background())

	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.True(t, res.Success())
	assert.Empty(t, dispatcher.Calls)
}

func TestRun_OlderRecordInSlotStillNotifies(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{entry: crashEntry()}
	dispatcher := &mockDispatcher{}
	store := newMockStore()
	deps, cfg := testDeps(t, fetcher, dispatcher, store)
	require.NoError(t, store.Write(cfg.StateKey(), 17))

	res := New(deps, zerolog.Nop()).Run(context.Background())

	assert.Equal(t, OutcomeNotified, res.Outcome)
	require.Len(t, dispatcher.Calls, 1)

	id, _ := store.Read(cfg.StateKey())
	assert.Equal(t, int64(42), id)
}

func TestRun_NoCandidate(t *testing.T) {
	t.Parallel()

	dispatcher := &mockDispatcher{}
	store := newMockStore()
	deps, _ := testDeps(t, &mockFetcher{}, dispatcher, store)

	res := New(deps, zerolog.Nop()).Run(context.Background())

	assert.Equal(t, OutcomeNoCandidate, res.Outcome)
	assert.True(t, res.Success())
	assert.Nil(t, res.Entry)
	assert.Empty(t, dispatcher.Calls)
	assert.Empty(t, store.WriteCalls)
}

func TestRun_KeywordMissNeverDispatches(t *testing.T) {
	t.Parallel()

	entry := crashEntry()
	entry.Message = "Application: SomeOther.Service failed with an unhandled exception"
	dispatcher := &mockDispatcher{}
	store := newMockStore()
	deps, _ := testDeps(t, &mockFetcher{entry: entry}, dispatcher, store)

	res := New(deps, zerolog.Nop()).Run(context.Background())

	assert.Equal(t, OutcomeNoMatch, res.Outcome)
	assert.True(t, res.Success())
	assert.Empty(t, dispatcher.Calls)
	assert.Empty(t, store.ReadCalls, "dedup slot is not consulted for a non-matching entry")
}

func TestRun_ConfigErrorStopsBeforeQuery(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{entry: crashEntry()}
	dispatcher := &mockDispatcher{}
	cfgErr := &config.MissingKeysError{Path: "svcmon.conf", Keys: []string{"API_KEY"}}
	deps := Deps{
		Source:     &mockSource{err: cfgErr},
		Fetcher:    fetcher,
		Matcher:    match.Matcher{Keyword: "xpo.svc.agent"},
		State:      newMockStore(),
		Dispatcher: dispatcher,
	}

	res := New(deps, zerolog.Nop()).Run(context.Background())

	assert.Equal(t, OutcomeConfigError, res.Outcome)
	assert.False(t, res.Success())

	var missingErr *config.MissingKeysError
	require.ErrorAs(t, res.Err, &missingErr)
	assert.Equal(t, []string{"API_KEY"}, missingErr.Keys)

	assert.Empty(t, fetcher.Queries)
	assert.Empty(t, dispatcher.Calls)
}

func TestRun_QueryError(t *testing.T) {
	t.Parallel()

	fetchErr := errors.New("powershell: the RPC server is unavailable")
	dispatcher := &mockDispatcher{}
	store := newMockStore()
	deps, _ := testDeps(t, &mockFetcher{err: fetchErr}, dispatcher, store)

	res := New(deps, zerolog.Nop()).Run(context.Background())

	assert.Equal(t, OutcomeQueryError, res.Outcome)
	assert.False(t, res.Success())
	assert.ErrorIs(t, res.Err, fetchErr)
	assert.Empty(t, dispatcher.Calls)
	assert.Empty(t, store.WriteCalls)
}

func TestRun_DispatchFailureLeavesSlotUntouched(t *testing.T) {
	t.Parallel()

	dispatchErr := errors.New("notification API returned 503")
	dispatcher := &mockDispatcher{err: dispatchErr}
	store := newMockStore()
	deps, _ := testDeps(t, &mockFetcher{entry: crashEntry()}, dispatcher, store)

	res := New(deps, zerolog.Nop()).Run(context.Background())

	assert.Equal(t, OutcomeDispatchFail, res.Outcome)
	assert.False(t, res.Success())
	assert.ErrorIs(t, res.Err, dispatchErr)
	require.Len(t, dispatcher.Calls, 1)
	assert.Empty(t, store.WriteCalls)
}

func TestRun_SlotWriteFailureDoesNotFailTheRun(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.writeErr = errors.New("disk full")
	deps, _ := testDeps(t, &mockFetcher{entry: crashEntry()}, &mockDispatcher{}, store)

	res := New(deps, zerolog.Nop()).Run(context.Background())

	// The notification already went out; the pass reports that, not the
	// bookkeeping failure.
	assert.Equal(t, OutcomeNotified, res.Outcome)
	assert.True(t, res.Success())
	require.Len(t, store.WriteCalls, 1)
}

// Two sequential passes over the same slot storage notify once: the first
// dispatches, the second suppresses.
func TestRun_SequentialPassesNotifyOnce(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{entry: crashEntry()}
	dispatcher := &mockDispatcher{}
	store := state.NewStore(t.TempDir(), zerolog.Nop())
	deps, _ := testDeps(t, fetcher, dispatcher, store)
	d := New(deps, zerolog.Nop())

	first := d.Run(context.Background())
	second := d.Run(context.Background())

	assert.Equal(t, OutcomeNotified, first.Outcome)
	assert.Equal(t, OutcomeDuplicate, second.Outcome)
	assert.Len(t, dispatcher.Calls, 1)
}

// A failed dispatch keeps the occurrence eligible: the retry pass (the
// scheduler's next firing) classifies it fresh and notifies.
func TestRun_RetryAfterDispatchFailure(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{entry: crashEntry()}
	dispatcher := &mockDispatcher{err: errors.New("connection refused")}
	store := state.NewStore(t.TempDir(), zerolog.Nop())
	deps, _ := testDeps(t, fetcher, dispatcher, store)
	d := New(deps, zerolog.Nop())

	first := d.Run(context.Background())
	require.Equal(t, OutcomeDispatchFail, first.Outcome)

	dispatcher.err = nil
	second := d.Run(context.Background())

	assert.Equal(t, OutcomeNotified, second.Outcome)
	assert.Len(t, dispatcher.Calls, 2)
}

// A corrupt slot fails open: the pass treats the occurrence as fresh and
// the following write repairs the slot.
func TestRun_CorruptSlotFailsOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := state.NewStore(dir, zerolog.Nop())
	dispatcher := &mockDispatcher{}
	deps, cfg := testDeps(t, &mockFetcher{entry: crashEntry()}, dispatcher, store)

	require.NoError(t, os.WriteFile(store.Path(cfg.StateKey()), []byte("not-a-number"), 0644))

	res := New(deps, zerolog.Nop()).Run(context.Background())

	assert.Equal(t, OutcomeNotified, res.Outcome)
	require.Len(t, dispatcher.Calls, 1)

	id, ok := store.Read(cfg.StateKey())
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestResult_Success(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		outcome Outcome
		want    bool
	}{
		"notified":             {OutcomeNotified, true},
		"duplicate suppressed": {OutcomeDuplicate, true},
		"no candidate":         {OutcomeNoCandidate, true},
		"no match":             {OutcomeNoMatch, true},
		"config error":         {OutcomeConfigError, false},
		"query error":          {OutcomeQueryError, false},
		"dispatch failed":      {OutcomeDispatchFail, false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Result{Outcome: tc.outcome}.Success())
		})
	}
}
