// Package schedtask manages the event-triggered scheduled task that fires a
// detection pass each time the watched event is written. Argument
// construction is a pure function; only the schtasks invocation is
// platform-specific.
package schedtask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ErrUnsupported is returned on hosts without the Windows task scheduler.
var ErrUnsupported = errors.New("scheduled task management requires windows")

const taskPrefix = "svcmon-"

// TaskName returns the scheduler task name for a slot key.
func TaskName(stateKey string) string {
	return taskPrefix + stateKey
}

// Definition describes the task to register. Executable and ConfigPath must
// be absolute: the scheduler starts the task with an arbitrary working
// directory.
type Definition struct {
	Name       string
	LogName    string
	Provider   string
	EventID    int
	Executable string
	ConfigPath string
}

type runnerFunc func(ctx context.Context, args []string) ([]byte, error)

// Manager registers, removes, and queries the scheduled task.
type Manager struct {
	run runnerFunc
	log zerolog.Logger
}

// NewManager returns a Manager backed by the host's schtasks.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{run: runSchtasks, log: log}
}

// buildEventQuery renders the XPath filter the scheduler matches against
// incoming event records.
func buildEventQuery(provider string, eventID int) string {
	return fmt.Sprintf("*[System[Provider[@Name='%s'] and EventID=%d]]", provider, eventID)
}

// buildCreateArgs renders the schtasks invocation for def. The task runs as
// SYSTEM at the highest run level so it can read every log channel, and /F
// replaces an existing task, which is what makes setup idempotent.
func buildCreateArgs(def Definition) ([]string, error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, fmt.Errorf("task name is empty")
	}
	// The provider is spliced into an XPath string literal delimited by
	// single quotes, which XPath 1.0 cannot escape.
	if strings.Contains(def.Provider, "'") {
		return nil, fmt.Errorf("provider name %q cannot contain a single quote", def.Provider)
	}

	action := fmt.Sprintf(`"%s" detect --config "%s"`, def.Executable, def.ConfigPath)

	return []string{
		"/Create",
		"/TN", def.Name,
		"/SC", "ONEVENT",
		"/EC", def.LogName,
		"/MO", buildEventQuery(def.Provider, def.EventID),
		"/TR", action,
		"/RU", "SYSTEM",
		"/RL", "HIGHEST",
		"/F",
	}, nil
}

// Register creates or replaces the task described by def.
func (m *Manager) Register(ctx context.Context, def Definition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	out, err := m.run(ctx, args)
	if err != nil {
		return fmt.Errorf("registering task %s: %w", def.Name, err)
	}

	m.log.Debug().Str("task", def.Name).Str("output", strings.TrimSpace(string(out))).Msg("task registered")
	return nil
}

// Unregister deletes the task. A task that does not exist is not an error:
// teardown is as idempotent as setup.
func (m *Manager) Unregister(ctx context.Context, name string) error {
	out, err := m.run(ctx, []string{"/Delete", "/TN", name, "/F"})
	if err != nil {
		if isNotFound(out, err) {
			return nil
		}
		return fmt.Errorf("unregistering task %s: %w", name, err)
	}
	return nil
}

// Registered reports whether the task exists.
func (m *Manager) Registered(ctx context.Context, name string) (bool, error) {
	out, err := m.run(ctx, []string{"/Query", "/TN", name})
	if err != nil {
		if isNotFound(out, err) {
			return false, nil
		}
		return false, fmt.Errorf("querying task %s: %w", name, err)
	}
	return true, nil
}

// isNotFound recognizes the schtasks messages for a missing task. Localized
// Windows installations word these differently; there the caller sees the
// raw error instead of a clean "not found".
func isNotFound(out []byte, err error) bool {
	combined := strings.ToLower(string(out))
	if err != nil {
		combined += " " + strings.ToLower(err.Error())
	}
	return strings.Contains(combined, "cannot find the file") ||
		strings.Contains(combined, "does not exist")
}
