package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/myusoutharm/svcmon/internal/eventlog"
	"github.com/myusoutharm/svcmon/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the host can run detection passes",
	Long: `Probe the host for everything a detection pass needs:

  - PowerShell and schtasks binaries
  - a loadable configuration
  - a writable state directory
  - a readable event log channel
  - a reachable notification endpoint

Each check displays ✓ when it passes or ✗ with an error message.`,
	GroupID:      GroupMaintenance,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	rc := newRunContext(cmd)
	defer rc.close()

	var spin *spinner.Spinner
	if term.IsTerminal(int(os.Stdout.Fd())) {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		spin.Writer = os.Stderr
		spin.Suffix = " probing host..."
		spin.Start()
	}

	prober := health.NewProber(rc.cfg, rc.cfgErr, eventlog.NewFetcher(rc.log), nil)
	report := prober.Run(cmd.Context())

	if spin != nil {
		spin.Stop()
	}

	fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))

	if !report.Passed {
		return NewExitError(ExitConfigError)
	}
	return nil
}
