// Package health probes the host for everything a detection pass needs:
// the PowerShell and schtasks binaries, a loadable configuration, a
// writable state directory, a readable event log channel, and a reachable
// notification endpoint.
package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/myusoutharm/svcmon/internal/config"
	"github.com/myusoutharm/svcmon/internal/eventlog"
)

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult
	Passed bool
}

func (r *Report) add(c CheckResult) {
	r.Checks = append(r.Checks, c)
	if !c.Passed {
		r.Passed = false
	}
}

// FetchProbe is the slice of the event log fetcher the prober needs.
type FetchProbe interface {
	FetchLatest(ctx context.Context, q eventlog.Query) (*eventlog.Entry, error)
}

// Prober runs the full check suite against one configuration.
type Prober struct {
	cfg     *config.Config
	cfgErr  error
	fetcher FetchProbe
	client  *http.Client
}

// NewProber returns a Prober. cfg may be nil when loading failed; cfgErr
// then carries the failure and the dependent checks report it.
func NewProber(cfg *config.Config, cfgErr error, fetcher FetchProbe, client *http.Client) *Prober {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Prober{cfg: cfg, cfgErr: cfgErr, fetcher: fetcher, client: client}
}

// Run executes every check and returns the collected report.
func (p *Prober) Run(ctx context.Context) *Report {
	report := &Report{Passed: true}

	report.add(CheckPowerShell())
	report.add(CheckSchtasks())
	report.add(p.checkConfig())
	report.add(p.checkStateDir())
	report.add(p.checkEventLog(ctx))
	report.add(p.checkEndpoint(ctx))

	return report
}

// CheckPowerShell checks that the PowerShell binary is available.
func CheckPowerShell() CheckResult {
	if _, err := lookPath("powershell"); err != nil {
		return CheckResult{Name: "PowerShell", Message: "powershell not found in PATH"}
	}
	return CheckResult{Name: "PowerShell", Passed: true, Message: "powershell found"}
}

// CheckSchtasks checks that the task scheduler CLI is available.
func CheckSchtasks() CheckResult {
	if _, err := lookPath("schtasks"); err != nil {
		return CheckResult{Name: "Task scheduler", Message: "schtasks not found in PATH"}
	}
	return CheckResult{Name: "Task scheduler", Passed: true, Message: "schtasks found"}
}

func (p *Prober) checkConfig() CheckResult {
	if p.cfgErr != nil {
		return CheckResult{Name: "Configuration", Message: p.cfgErr.Error()}
	}
	return CheckResult{
		Name:   "Configuration",
		Passed: true,
		Message: fmt.Sprintf("watching %s event %d for keyword %q",
			p.cfg.EventSource, p.cfg.EventID, p.cfg.Keyword),
	}
}

func (p *Prober) checkStateDir() CheckResult {
	if p.cfg == nil {
		return CheckResult{Name: "State directory", Message: "skipped: configuration not loaded"}
	}

	dir := p.cfg.StateDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return CheckResult{Name: "State directory", Message: fmt.Sprintf("cannot create %s: %v", dir, err)}
	}
	probe := filepath.Join(dir, ".probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return CheckResult{Name: "State directory", Message: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	os.Remove(probe)

	return CheckResult{Name: "State directory", Passed: true, Message: dir + " is writable"}
}

func (p *Prober) checkEventLog(ctx context.Context) CheckResult {
	if p.cfg == nil || p.fetcher == nil {
		return CheckResult{Name: "Event log", Message: "skipped: configuration not loaded"}
	}

	q := eventlog.Query{Log: p.cfg.LogName, Provider: p.cfg.EventSource, EventID: p.cfg.EventID}
	entry, err := p.fetcher.FetchLatest(ctx, q)
	if err != nil {
		return CheckResult{Name: "Event log", Message: err.Error()}
	}
	if entry == nil {
		return CheckResult{
			Name:    "Event log",
			Passed:  true,
			Message: fmt.Sprintf("%s channel readable, no matching entries yet", p.cfg.LogName),
		}
	}
	return CheckResult{
		Name:    "Event log",
		Passed:  true,
		Message: fmt.Sprintf("latest matching record is %d", entry.RecordID),
	}
}

// checkEndpoint sends a HEAD request: any HTTP response, including an
// error status, proves the endpoint resolves and answers. Nothing is
// dispatched.
func (p *Prober) checkEndpoint(ctx context.Context) CheckResult {
	if p.cfg == nil {
		return CheckResult{Name: "Notification endpoint", Message: "skipped: configuration not loaded"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.cfg.Endpoint, nil)
	if err != nil {
		return CheckResult{Name: "Notification endpoint", Message: fmt.Sprintf("invalid endpoint: %v", err)}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return CheckResult{Name: "Notification endpoint", Message: fmt.Sprintf("unreachable: %v", err)}
	}
	resp.Body.Close()

	return CheckResult{
		Name:    "Notification endpoint",
		Passed:  true,
		Message: fmt.Sprintf("%s answered with %d", p.cfg.Endpoint, resp.StatusCode),
	}
}

var (
	passMark = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
)

// FormatReport formats the report for console output.
func FormatReport(report *Report) string {
	var b strings.Builder
	for _, check := range report.Checks {
		mark := passMark("✓")
		if !check.Passed {
			mark = failMark("✗")
		}
		fmt.Fprintf(&b, "%s %s: %s\n", mark, check.Name, check.Message)
	}
	return b.String()
}
