package cli

import (
	"github.com/spf13/cobra"

	"github.com/myusoutharm/svcmon/internal/detector"
	"github.com/myusoutharm/svcmon/internal/lifecycle"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run one detection pass",
	Long: `Run one detection pass: fetch the latest matching event log entry, test
it against the configured keyword, consult the dedup slot, and dispatch a
notification if the occurrence has not been notified yet.

This is the command the scheduled task fires. Exit codes:

  0  pass completed (notified, duplicate suppressed, or nothing to do)
  1  configuration missing, unreadable, or malformed
  2  event log query failed
  3  notification dispatch failed (occurrence stays eligible for retry)`,
	Example: `  svcmon detect --config C:\svcmon\svcmon.conf`,
	GroupID:      GroupMonitoring,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	rc := newRunContext(cmd)
	defer rc.close()

	code := lifecycle.Run(rc.log, rc.rec, rc.runID, "detect", func() lifecycle.Report {
		var res detector.Result
		if rc.cfgErr != nil {
			res = detector.ConfigFailure(rc.cfgErr)
		} else {
			res = buildDetector(rc).Run(cmd.Context())
		}
		printResult(cmd, res)
		return reportFor(res)
	})

	if code != ExitSuccess {
		return NewExitError(code)
	}
	return nil
}
