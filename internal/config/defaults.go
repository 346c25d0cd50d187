package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/myusoutharm/svcmon/internal/notify"
)

// Defaults returns the default values for optional settings. Required keys
// never appear here.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"log_name":             "Application",
		"endpoint":             notify.DefaultEndpoint,
		"dispatch_timeout":     10,
		"match_case_sensitive": false,
		"state_dir":            defaultStateDir(),
		"log_file":             "",
		"log_level":            "info",
		"history_max":          200,
	}
}

// defaultStateDir places state under ProgramData on Windows, where the
// SYSTEM account running the scheduled task can write, and under the user's
// home elsewhere.
func defaultStateDir() string {
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			return filepath.Join(pd, "svcmon")
		}
		return `C:\ProgramData\svcmon`
	}
	return "~/.svcmon/state"
}
