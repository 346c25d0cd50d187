package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myusoutharm/svcmon/internal/config"
	"github.com/myusoutharm/svcmon/internal/eventlog"
)

// stubFetcher plays back one canned fetch result.
type stubFetcher struct {
	entry *eventlog.Entry
	err   error
}

func (s *stubFetcher) FetchLatest(ctx context.Context, q eventlog.Query) (*eventlog.Entry, error) {
	return s.entry, s.err
}

// loadTestConfig builds a Config through the loader, pointing the state dir
// and endpoint at test-controlled locations.
func loadTestConfig(t *testing.T, endpoint string) *config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "svcmon.conf")
	content := `to=[ops@example.com]
sender=alerts@example.com
template_id=tmpl-crash-01
API_KEY=sk-test-123
eventID=1026
eventSource=.NET Runtime
keyword=MyService.exe
state_dir=` + t.TempDir() + `
endpoint=` + endpoint + `
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func withStubbedLookPath(t *testing.T, err error) {
	t.Helper()
	orig := lookPath
	lookPath = func(name string) (string, error) {
		if err != nil {
			return "", err
		}
		return "/usr/bin/" + name, nil
	}
	t.Cleanup(func() { lookPath = orig })
}

func TestProber_AllChecksPass(t *testing.T) {
	withStubbedLookPath(t, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer srv.Close()

	cfg := loadTestConfig(t, srv.URL)
	fetcher := &stubFetcher{entry: &eventlog.Entry{RecordID: 42}}

	report := NewProber(cfg, nil, fetcher, srv.Client()).Run(context.Background())

	assert.True(t, report.Passed)
	require.Len(t, report.Checks, 6)
	for _, check := range report.Checks {
		assert.True(t, check.Passed, "%s: %s", check.Name, check.Message)
	}
}

func TestProber_EmptyLogChannelStillPasses(t *testing.T) {
	withStubbedLookPath(t, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfg := loadTestConfig(t, srv.URL)
	report := NewProber(cfg, nil, &stubFetcher{}, srv.Client()).Run(context.Background())

	assert.True(t, report.Passed)
}

func TestProber_ConfigFailureSkipsDependentChecks(t *testing.T) {
	withStubbedLookPath(t, nil)

	cfgErr := &config.MissingKeysError{Path: "svcmon.conf", Keys: []string{"API_KEY"}}
	report := NewProber(nil, cfgErr, nil, nil).Run(context.Background())

	assert.False(t, report.Passed)

	byName := make(map[string]CheckResult)
	for _, check := range report.Checks {
		byName[check.Name] = check
	}
	assert.False(t, byName["Configuration"].Passed)
	assert.Contains(t, byName["Configuration"].Message, "API_KEY")
	assert.Contains(t, byName["State directory"].Message, "skipped")
	assert.Contains(t, byName["Event log"].Message, "skipped")
	assert.Contains(t, byName["Notification endpoint"].Message, "skipped")
}

func TestProber_MissingBinaries(t *testing.T) {
	withStubbedLookPath(t, errors.New("executable file not found in $PATH"))

	report := NewProber(nil, errors.New("no config"), nil, nil).Run(context.Background())

	assert.False(t, report.Passed)
	assert.False(t, report.Checks[0].Passed)
	assert.False(t, report.Checks[1].Passed)
}

func TestProber_EventLogFailure(t *testing.T) {
	withStubbedLookPath(t, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfg := loadTestConfig(t, srv.URL)
	fetcher := &stubFetcher{err: errors.New("querying event log: access denied")}

	report := NewProber(cfg, nil, fetcher, srv.Client()).Run(context.Background())

	assert.False(t, report.Passed)
}

func TestProber_UnreachableEndpoint(t *testing.T) {
	withStubbedLookPath(t, nil)

	// A closed server yields a connection error on probe.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	cfg := loadTestConfig(t, url)
	report := NewProber(cfg, nil, &stubFetcher{}, nil).Run(context.Background())

	assert.False(t, report.Passed)
}

func TestFormatReport(t *testing.T) {
	t.Parallel()

	report := &Report{Checks: []CheckResult{
		{Name: "PowerShell", Passed: true, Message: "powershell found"},
		{Name: "Configuration", Passed: false, Message: "missing required keys: API_KEY"},
	}}

	out := FormatReport(report)
	assert.Contains(t, out, "PowerShell: powershell found")
	assert.Contains(t, out, "Configuration: missing required keys: API_KEY")
}
