package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/myusoutharm/svcmon/internal/config"
	"github.com/myusoutharm/svcmon/internal/lifecycle"
	"github.com/myusoutharm/svcmon/internal/schedtask"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Register the event trigger with the Task Scheduler",
	Long: `Register a scheduled task that fires 'svcmon detect' whenever the
configured event is written to the event log. The task runs as SYSTEM at
the highest run level, with the absolute binary and config paths baked in.

Setup is idempotent: running it again replaces the existing task with the
current configuration. Registration requires an elevated shell.`,
	Example: `  svcmon setup --config C:\svcmon\svcmon.conf`,
	GroupID:      GroupScheduler,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	rc := newRunContext(cmd)
	defer rc.close()
	out := cmd.OutOrStdout()

	code := lifecycle.Run(rc.log, rc.rec, rc.runID, "setup", func() lifecycle.Report {
		if rc.cfgErr != nil {
			fmt.Fprintf(out, "%s %v\n", failMark("✗"), rc.cfgErr)
			return lifecycle.Report{Outcome: "config-error", ExitCode: ExitConfigError, Err: rc.cfgErr}
		}

		def, err := taskDefinition(rc.source.Path(), rc.cfg)
		if err == nil {
			err = schedtask.NewManager(rc.log).Register(cmd.Context(), def)
		}
		if err != nil {
			fmt.Fprintf(out, "%s %v\n", failMark("✗"), err)
			return lifecycle.Report{Outcome: "setup-failed", StateKey: rc.cfg.StateKey(), ExitCode: ExitConfigError, Err: err}
		}

		fmt.Fprintf(out, "%s task %s registered: %s event %d fires a detection pass\n",
			okMark("✓"), def.Name, rc.cfg.EventSource, rc.cfg.EventID)
		return lifecycle.Report{Outcome: "registered", StateKey: rc.cfg.StateKey(), ExitCode: ExitSuccess}
	})

	if code != ExitSuccess {
		return NewExitError(code)
	}
	return nil
}

// taskDefinition resolves the absolute paths the scheduler needs. The
// scheduler starts tasks with an arbitrary working directory, so relative
// paths would break the trigger.
func taskDefinition(configPath string, cfg *config.Config) (schedtask.Definition, error) {
	exe, err := os.Executable()
	if err != nil {
		return schedtask.Definition{}, fmt.Errorf("resolving executable path: %w", err)
	}
	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return schedtask.Definition{}, fmt.Errorf("resolving config path: %w", err)
	}

	return schedtask.Definition{
		Name:       schedtask.TaskName(cfg.StateKey()),
		LogName:    cfg.LogName,
		Provider:   cfg.EventSource,
		EventID:    cfg.EventID,
		Executable: exe,
		ConfigPath: absConfig,
	}, nil
}
