package detector

import (
	"context"

	"github.com/myusoutharm/svcmon/internal/config"
	"github.com/myusoutharm/svcmon/internal/eventlog"
)

// mockSource hands out a fixed configuration or error.
type mockSource struct {
	cfg *config.Config
	err error

	LoadCalls int
}

func (m *mockSource) Load() (*config.Config, error) {
	m.LoadCalls++
	return m.cfg, m.err
}

// mockFetcher returns a fixed entry or error and records every query.
type mockFetcher struct {
	entry *eventlog.Entry
	err   error

	Queries []eventlog.Query
}

func (m *mockFetcher) FetchLatest(ctx context.Context, q eventlog.Query) (*eventlog.Entry, error) {
	m.Queries = append(m.Queries, q)
	return m.entry, m.err
}

// mockDispatcher records every dispatch and returns a configured error.
type mockDispatcher struct {
	err error

	Calls []*eventlog.Entry
}

func (m *mockDispatcher) Dispatch(ctx context.Context, entry *eventlog.Entry) error {
	m.Calls = append(m.Calls, entry)
	return m.err
}

// mockStore is an in-memory DedupStore whose writes can be made to fail.
type mockStore struct {
	records  map[string]int64
	writeErr error

	ReadCalls  []string
	WriteCalls []string
}

func newMockStore() *mockStore {
	return &mockStore{records: make(map[string]int64)}
}

func (m *mockStore) Read(key string) (int64, bool) {
	m.ReadCalls = append(m.ReadCalls, key)
	id, ok := m.records[key]
	return id, ok
}

func (m *mockStore) Write(key string, id int64) error {
	m.WriteCalls = append(m.WriteCalls, key)
	if m.writeErr != nil {
		return m.writeErr
	}
	m.records[key] = id
	return nil
}
