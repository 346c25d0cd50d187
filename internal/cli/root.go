// Package cli provides the Cobra command surface for svcmon: the detection
// pass the scheduler fires (detect), scheduler trigger management (setup,
// teardown), and operator tooling (status, doctor, reset, version).
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/myusoutharm/svcmon/internal/config"
)

// Command group IDs for organizing help output.
const (
	GroupMonitoring  = "monitoring"
	GroupScheduler   = "scheduler"
	GroupMaintenance = "maintenance"
)

var rootCmd = &cobra.Command{
	Use:   "svcmon",
	Short: "Event log watchdog with idempotent notifications",
	Long: `svcmon watches one Windows event log signature and sends at most one
notification per distinct occurrence.

The Task Scheduler fires 'svcmon detect' whenever the watched event is
written. A pass fetches the latest matching entry, tests it against the
configured keyword, consults a durable dedup slot, and dispatches a
template-mail notification only for occurrences not yet notified.`,
	Example: `  # Register the event trigger with the Task Scheduler
  svcmon setup --config C:\svcmon\svcmon.conf

  # Run one detection pass by hand
  svcmon detect --config C:\svcmon\svcmon.conf

  # Inspect configuration, dedup slot, and trigger registration
  svcmon status

  # Verify the host before going live
  svcmon doctor`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
			color.NoColor = true
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: GroupMonitoring, Title: "Monitoring:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupScheduler, Title: "Scheduler:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupMaintenance, Title: "Maintenance:"})

	rootCmd.SetHelpCommandGroupID(GroupMaintenance)
	rootCmd.SetCompletionCommandGroupID(GroupMaintenance)

	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigFile, "Path to config file")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
}
