package lifecycle

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myusoutharm/svcmon/internal/history"
)

// captureRecorder keeps appended records in memory.
type captureRecorder struct {
	records []history.RunRecord
}

func (c *captureRecorder) Append(rec history.RunRecord) {
	c.records = append(c.records, rec)
}

func TestRun_RecordsOutcome(t *testing.T) {
	t.Parallel()

	rec := &captureRecorder{}

	code := Run(zerolog.Nop(), rec, "run-1", "detect", func() Report {
		return Report{Outcome: "notified", RecordID: 42, StateKey: "xposvcagent", ExitCode: 0}
	})

	assert.Equal(t, 0, code)
	require.Len(t, rec.records, 1)

	got := rec.records[0]
	assert.Equal(t, "run-1", got.ID)
	assert.Equal(t, "detect", got.Command)
	assert.Equal(t, "notified", got.Outcome)
	assert.Equal(t, int64(42), got.RecordID)
	assert.Equal(t, "xposvcagent", got.StateKey)
	assert.Empty(t, got.Error)
	assert.False(t, got.StartedAt.IsZero())
	assert.NotEmpty(t, got.Duration)
}

func TestRun_RecordsFailure(t *testing.T) {
	t.Parallel()

	rec := &captureRecorder{}
	bodyErr := errors.New("notification API returned 503")

	code := Run(zerolog.Nop(), rec, "run-2", "detect", func() Report {
		return Report{Outcome: "dispatch-failed", ExitCode: 3, Err: bodyErr}
	})

	assert.Equal(t, 3, code)
	require.Len(t, rec.records, 1)
	assert.Equal(t, 3, rec.records[0].ExitCode)
	assert.Equal(t, bodyErr.Error(), rec.records[0].Error)
}

func TestRun_NilRecorderSkipsHistory(t *testing.T) {
	t.Parallel()

	code := Run(zerolog.Nop(), nil, "run-3", "detect", func() Report {
		return Report{Outcome: "config-error", ExitCode: 1}
	})

	assert.Equal(t, 1, code)
}
