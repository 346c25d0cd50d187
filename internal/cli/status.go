package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/myusoutharm/svcmon/internal/history"
	"github.com/myusoutharm/svcmon/internal/schedtask"
	"github.com/myusoutharm/svcmon/internal/state"
)

var statusCmd = &cobra.Command{
	Use:          "status",
	Short:        "Show configuration, dedup slot, and trigger state",
	GroupID:      GroupMonitoring,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	rc := newRunContext(cmd)
	defer rc.close()
	out := cmd.OutOrStdout()

	if rc.cfgErr != nil {
		fmt.Fprintf(out, "%s config: %v\n", failMark("✗"), rc.cfgErr)
		return NewExitError(ExitConfigError)
	}

	cfg := rc.cfg
	key := cfg.StateKey()

	fmt.Fprintf(out, "config:   %s\n", rc.source.Path())
	fmt.Fprintf(out, "watch:    %s event %d in %s\n", cfg.EventSource, cfg.EventID, cfg.LogName)
	fmt.Fprintf(out, "keyword:  %q (slot %s)\n", cfg.Keyword, key)
	fmt.Fprintf(out, "notify:   template %s to %d recipient(s)\n", cfg.TemplateID, len(cfg.Recipients))

	store := state.NewStore(cfg.StateDir, rc.log)
	if id, ok := store.Read(key); ok {
		fmt.Fprintf(out, "slot:     record %d (%s)\n", id, store.Path(key))
	} else {
		fmt.Fprintf(out, "slot:     empty (%s)\n", store.Path(key))
	}

	name := schedtask.TaskName(key)
	registered, err := schedtask.NewManager(rc.log).Registered(cmd.Context(), name)
	switch {
	case errors.Is(err, schedtask.ErrUnsupported):
		fmt.Fprintf(out, "trigger:  unavailable (%v)\n", err)
	case err != nil:
		fmt.Fprintf(out, "trigger:  %s query failed: %v\n", failMark("✗"), err)
	case registered:
		fmt.Fprintf(out, "trigger:  %s task %s registered\n", okMark("✓"), name)
	default:
		fmt.Fprintf(out, "trigger:  %s task %s not registered (run 'svcmon setup')\n", failMark("✗"), name)
	}

	if runs, err := history.Load(cfg.StateDir); err == nil {
		if last := runs.Latest(); last != nil {
			fmt.Fprintf(out, "last run: %s %s at %s\n",
				last.Command, last.Outcome, last.StartedAt.Local().Format(time.RFC3339))
		} else {
			fmt.Fprintln(out, "last run: none recorded")
		}
	}

	return nil
}
