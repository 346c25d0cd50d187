//go:build windows

package eventlog

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// runScript executes a PowerShell pipeline and returns its stdout.
func runScript(ctx context.Context, script string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "powershell", "-ExecutionPolicy", "Bypass", "-NoProfile", "-Command", script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("powershell: %w", err)
		}
		return nil, fmt.Errorf("powershell: %s", msg)
	}
	return stdout.Bytes(), nil
}
