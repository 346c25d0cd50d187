package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/myusoutharm/svcmon/internal/lifecycle"
	"github.com/myusoutharm/svcmon/internal/schedtask"
)

var teardownCmd = &cobra.Command{
	Use:   "teardown",
	Short: "Remove the event trigger from the Task Scheduler",
	Long: `Remove the scheduled task registered by setup. The dedup slot and run
history stay in place; a later setup re-arms the trigger without
re-notifying occurrences that were already handled.

Removing a task that does not exist succeeds.`,
	GroupID:      GroupScheduler,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runTeardown,
}

func init() {
	rootCmd.AddCommand(teardownCmd)
}

func runTeardown(cmd *cobra.Command, args []string) error {
	rc := newRunContext(cmd)
	defer rc.close()
	out := cmd.OutOrStdout()

	code := lifecycle.Run(rc.log, rc.rec, rc.runID, "teardown", func() lifecycle.Report {
		if rc.cfgErr != nil {
			fmt.Fprintf(out, "%s %v\n", failMark("✗"), rc.cfgErr)
			return lifecycle.Report{Outcome: "config-error", ExitCode: ExitConfigError, Err: rc.cfgErr}
		}

		name := schedtask.TaskName(rc.cfg.StateKey())
		if err := schedtask.NewManager(rc.log).Unregister(cmd.Context(), name); err != nil {
			fmt.Fprintf(out, "%s %v\n", failMark("✗"), err)
			return lifecycle.Report{Outcome: "teardown-failed", StateKey: rc.cfg.StateKey(), ExitCode: ExitConfigError, Err: err}
		}

		fmt.Fprintf(out, "%s task %s removed\n", okMark("✓"), name)
		return lifecycle.Report{Outcome: "unregistered", StateKey: rc.cfg.StateKey(), ExitCode: ExitSuccess}
	})

	if code != ExitSuccess {
		return NewExitError(code)
	}
	return nil
}
