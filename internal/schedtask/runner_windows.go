//go:build windows

package schedtask

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// runSchtasks executes schtasks and returns its combined output.
func runSchtasks(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "schtasks", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return out, fmt.Errorf("schtasks %s: %w", args[0], err)
		}
		return out, fmt.Errorf("schtasks %s: %s", args[0], firstLine(msg))
	}
	return out, nil
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}
