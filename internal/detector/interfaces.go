package detector

import (
	"context"

	"github.com/myusoutharm/svcmon/internal/config"
	"github.com/myusoutharm/svcmon/internal/eventlog"
	"github.com/myusoutharm/svcmon/internal/match"
	"github.com/myusoutharm/svcmon/internal/notify"
	"github.com/myusoutharm/svcmon/internal/state"
)

// ConfigSource loads the run configuration.
type ConfigSource interface {
	Load() (*config.Config, error)
}

// EventFetcher returns the newest candidate entry, or nil when none exists.
type EventFetcher interface {
	FetchLatest(ctx context.Context, q eventlog.Query) (*eventlog.Entry, error)
}

// KeywordMatcher tests an entry message against the configured keyword.
type KeywordMatcher interface {
	Matches(msg string) bool
}

// DedupStore persists the last-notified record id per slot key.
type DedupStore interface {
	Read(key string) (int64, bool)
	Write(key string, id int64) error
}

// Dispatcher delivers the notification for a fresh occurrence.
type Dispatcher interface {
	Dispatch(ctx context.Context, entry *eventlog.Entry) error
}

// Compile-time conformance checks for the production implementations.
var (
	_ ConfigSource   = (*config.FileSource)(nil)
	_ EventFetcher   = (*eventlog.Fetcher)(nil)
	_ KeywordMatcher = match.Matcher{}
	_ DedupStore     = (*state.Store)(nil)
	_ Dispatcher     = (*notify.Notifier)(nil)
)
