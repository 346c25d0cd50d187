package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/myusoutharm/svcmon/internal/lifecycle"
	"github.com/myusoutharm/svcmon/internal/state"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the dedup slot",
	Long: `Clear the dedup slot for the configured keyword. The next detection pass
treats the latest matching occurrence as fresh and notifies again.

Use this after a notification was lost downstream and needs re-sending.`,
	GroupID:      GroupMaintenance,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	rc := newRunContext(cmd)
	defer rc.close()
	out := cmd.OutOrStdout()

	code := lifecycle.Run(rc.log, rc.rec, rc.runID, "reset", func() lifecycle.Report {
		if rc.cfgErr != nil {
			fmt.Fprintf(out, "%s %v\n", failMark("✗"), rc.cfgErr)
			return lifecycle.Report{Outcome: "config-error", ExitCode: ExitConfigError, Err: rc.cfgErr}
		}

		key := rc.cfg.StateKey()
		store := state.NewStore(rc.cfg.StateDir, rc.log)
		if err := store.Clear(key); err != nil {
			fmt.Fprintf(out, "%s %v\n", failMark("✗"), err)
			return lifecycle.Report{Outcome: "reset-failed", StateKey: key, ExitCode: ExitConfigError, Err: err}
		}

		fmt.Fprintf(out, "%s dedup slot %s cleared; the next occurrence will notify again\n", okMark("✓"), key)
		return lifecycle.Report{Outcome: "slot-cleared", StateKey: key, ExitCode: ExitSuccess}
	})

	if code != ExitSuccess {
		return NewExitError(code)
	}
	return nil
}
