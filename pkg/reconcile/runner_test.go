package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/klokku/calsync/internal/utils"
	"github.com/klokku/calsync/pkg/calendar"
	"github.com/klokku/calsync/pkg/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func setupRunner(t *testing.T) *Runner {
	runner, err := NewRunner(testSyncConfig(), &utils.MockClock{FixedNow: testNow})
	require.NoError(t, err)
	return runner
}

// sinceRecordingCalendar remembers the lower bound it was listed with.
type sinceRecordingCalendar struct {
	*calendar.StubCalendar
	since time.Time
}

func (c *sinceRecordingCalendar) ListEvents(ctx context.Context, since time.Time) ([]calendar.Event, error) {
	c.since = since
	return c.StubCalendar.ListEvents(ctx, since)
}

func TestRunner_RunOnce(t *testing.T) {
	t.Run("should reconcile the planner into the calendar", func(t *testing.T) {
		// given
		runner := setupRunner(t)
		recordC := record("c", "unchanged")
		provider := planner.NewStubProvider(record("a", "new"), record("b", "changed"), recordC)
		cal := calendar.NewStubCalendar(
			translated(t, record("b", "old")),
			translated(t, recordC),
			translated(t, record("d", "orphan")),
		)

		// when
		report, err := runner.RunOnce(context.Background(), provider, cal)

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, report.RunId)
		assert.Equal(t, testNow, report.StartedAt)
		assert.Equal(t, testNow, report.FinishedAt)
		assert.Equal(t, []string{"a"}, report.Created)
		assert.Equal(t, []string{"b"}, report.Updated)
		assert.Equal(t, []string{"d"}, report.Deleted)
		assert.Empty(t, report.Failed)
		assert.Empty(t, report.Skipped)
		assert.False(t, report.HasProblems())
	})

	t.Run("should list calendar events from the start of the local day", func(t *testing.T) {
		runner := setupRunner(t)
		cal := &sinceRecordingCalendar{StubCalendar: calendar.NewStubCalendar()}

		_, err := runner.RunOnce(context.Background(), planner.NewStubProvider(), cal)

		require.NoError(t, err)
		assert.Equal(t, "2024-05-01T00:00:00-06:00", cal.since.Format(time.RFC3339))
	})

	t.Run("should abort when the planner cannot be read", func(t *testing.T) {
		// given
		runner := setupRunner(t)
		provider := planner.NewStubProvider()
		provider.SetError(errors.New("notion is down"))
		cal := calendar.NewStubCalendar(translated(t, record("d", "orphan")))

		// when
		_, err := runner.RunOnce(context.Background(), provider, cal)

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCollaborator)
		assert.Contains(t, err.Error(), "notion is down")
		assert.Empty(t, cal.Calls())
	})

	t.Run("should abort when the calendar cannot be read", func(t *testing.T) {
		runner := setupRunner(t)
		cal := calendar.NewStubCalendar()
		listErr := errors.New("quota exceeded")
		cal.FailListing(listErr)

		_, err := runner.RunOnce(context.Background(), planner.NewStubProvider(record("a", "x")), cal)

		assert.ErrorIs(t, err, ErrCollaborator)
		assert.ErrorIs(t, err, listErr)
		assert.Empty(t, cal.Calls())
	})

	t.Run("should report failed writes without failing the run", func(t *testing.T) {
		// given
		runner := setupRunner(t)
		cal := calendar.NewStubCalendar()
		cal.FailOn("a", errors.New("forbidden"))
		provider := planner.NewStubProvider(record("a", "x"), record("b", "y"))

		// when
		report, err := runner.RunOnce(context.Background(), provider, cal)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, report.Created)
		require.Len(t, report.Failed, 1)
		assert.Equal(t, ActionCreate, report.Failed[0].Action)
		assert.Equal(t, "a", report.Failed[0].EventId)
	})

	t.Run("should generate a new run id for every run", func(t *testing.T) {
		runner := setupRunner(t)
		provider := planner.NewStubProvider()

		first, err := runner.RunOnce(context.Background(), provider, calendar.NewStubCalendar())
		require.NoError(t, err)
		second, err := runner.RunOnce(context.Background(), provider, calendar.NewStubCalendar())
		require.NoError(t, err)

		assert.NotEqual(t, first.RunId, second.RunId)
	})
}
