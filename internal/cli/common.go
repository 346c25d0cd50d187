package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/myusoutharm/svcmon/internal/config"
	"github.com/myusoutharm/svcmon/internal/detector"
	"github.com/myusoutharm/svcmon/internal/eventlog"
	"github.com/myusoutharm/svcmon/internal/history"
	"github.com/myusoutharm/svcmon/internal/lifecycle"
	"github.com/myusoutharm/svcmon/internal/logging"
	"github.com/myusoutharm/svcmon/internal/match"
	"github.com/myusoutharm/svcmon/internal/notify"
	"github.com/myusoutharm/svcmon/internal/state"
)

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
)

// runContext carries the per-run plumbing every command stands up first:
// the memoized config source, the run-scoped logger, and the history
// recorder.
type runContext struct {
	runID   string
	source  *config.FileSource
	cfg     *config.Config
	cfgErr  error
	log     zerolog.Logger
	closeFn func() error
	rec     lifecycle.Recorder
}

func (rc *runContext) close() {
	if rc.closeFn != nil {
		rc.closeFn()
	}
}

// newRunContext loads configuration and sets up logging. A configuration
// failure does not abort here; the command decides how to report it, with
// logging already working on defaults.
func newRunContext(cmd *cobra.Command) *runContext {
	rc := &runContext{runID: uuid.NewString()}

	path, _ := cmd.Flags().GetString("config")
	rc.source = config.NewFileSource(path)
	rc.cfg, rc.cfgErr = rc.source.Load()

	opts := logging.Options{Console: true, NoColor: color.NoColor}
	if rc.cfg != nil {
		opts.Level = rc.cfg.LogLevel
		opts.File = rc.cfg.LogFile
	}
	log, closer, err := logging.Setup(opts)
	if err != nil {
		// A bad log_file or log_level must not stop a pass.
		log, closer, _ = logging.Setup(logging.Options{Console: true, NoColor: color.NoColor})
		log.Warn().Err(err).Msg("transcript logging unavailable")
	}
	rc.log = log.With().Str("run_id", rc.runID).Logger()
	rc.closeFn = closer

	if rc.cfg != nil {
		rc.rec = history.NewWriter(rc.cfg.StateDir, rc.cfg.HistoryMax, rc.log)
	}
	return rc
}

// buildDetector wires the production collaborators for one detection pass.
func buildDetector(rc *runContext) *detector.Detector {
	cfg := rc.cfg

	client := notify.NewClient(rc.log,
		notify.WithEndpoint(cfg.Endpoint),
		notify.WithTimeout(time.Duration(cfg.DispatchTimeout)*time.Second),
	)
	payload := notify.Payload{
		APIKey:     cfg.APIKey,
		To:         cfg.Recipients,
		Sender:     cfg.Sender,
		TemplateID: cfg.TemplateID,
	}

	deps := detector.Deps{
		Source:     rc.source,
		Fetcher:    eventlog.NewFetcher(rc.log),
		Matcher:    match.Matcher{Keyword: cfg.Keyword, CaseSensitive: cfg.MatchCaseSensitive},
		State:      state.NewStore(cfg.StateDir, rc.log),
		Dispatcher: notify.NewNotifier(client, payload, rc.log),
	}
	return detector.New(deps, rc.log)
}

// printResult writes the human summary and the machine-readable outcome
// line for a detection result.
func printResult(cmd *cobra.Command, res detector.Result) {
	out := cmd.OutOrStdout()

	switch res.Outcome {
	case detector.OutcomeNotified:
		fmt.Fprintf(out, "%s notification dispatched for record %d\n", okMark("✓"), res.Entry.RecordID)
	case detector.OutcomeDuplicate:
		fmt.Fprintf(out, "%s record %d already notified, nothing sent\n", okMark("✓"), res.Entry.RecordID)
	case detector.OutcomeNoCandidate:
		fmt.Fprintf(out, "%s no matching entry in the event log\n", okMark("✓"))
	case detector.OutcomeNoMatch:
		fmt.Fprintf(out, "%s latest entry does not contain the keyword\n", okMark("✓"))
	default:
		fmt.Fprintf(out, "%s %v\n", failMark("✗"), res.Err)
	}

	fmt.Fprintf(out, "outcome: %s\n", res.Outcome)
}

// reportFor converts a detection result into its lifecycle report.
func reportFor(res detector.Result) lifecycle.Report {
	rep := lifecycle.Report{
		Outcome:  string(res.Outcome),
		StateKey: res.StateKey,
		ExitCode: outcomeExitCode(res.Outcome),
		Err:      res.Err,
	}
	if res.Entry != nil {
		rep.RecordID = res.Entry.RecordID
	}
	return rep
}
