package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/calsync/internal/config"
	"github.com/klokku/calsync/internal/utils"
	"github.com/klokku/calsync/pkg/calendar"
	"github.com/klokku/calsync/pkg/planner"
	log "github.com/sirupsen/logrus"
)

// Runner performs one full reconciliation pass. It keeps no state between runs.
type Runner struct {
	reconciler *Reconciler
	executor   *Executor
	clock      utils.Clock
	location   *time.Location
}

func NewRunner(cfg config.Sync, clock utils.Clock) (*Runner, error) {
	reconciler, err := NewReconciler(cfg)
	if err != nil {
		return nil, err
	}
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &Runner{
		reconciler: reconciler,
		executor:   NewExecutor(cfg.Workers, cfg.DryRun),
		clock:      clock,
		location:   location,
	}, nil
}

// RunOnce reads both snapshots, reconciles them and applies the plan. Failing to read either
// snapshot aborts the run; failed writes only show up in the report.
func (r *Runner) RunOnce(ctx context.Context, provider planner.Provider, client calendar.Calendar) (SyncReport, error) {
	runId := uuid.NewString()
	startedAt := r.clock.Now()
	logger := log.WithField("runId", runId)

	records, err := provider.ListRecords(ctx)
	if err != nil {
		err := fmt.Errorf("%w: failed to list source records: %w", ErrCollaborator, err)
		logger.Error(err)
		return SyncReport{}, err
	}

	since := utils.StartOfDay(startedAt, r.location)
	existing, err := client.ListEvents(ctx, since)
	if err != nil {
		err := fmt.Errorf("%w: failed to list calendar events: %w", ErrCollaborator, err)
		logger.Error(err)
		return SyncReport{}, err
	}
	logger.Debugf("loaded %d source records and %d calendar events since %s", len(records), len(existing), since.Format(time.RFC3339))

	plan := r.reconciler.Reconcile(records, existing)
	logger.WithFields(log.Fields{
		"create":  len(plan.ToCreate),
		"update":  len(plan.ToUpdate),
		"delete":  len(plan.ToDelete),
		"skipped": len(plan.Skipped),
	}).Info("reconciliation plan computed")

	report := r.executor.Execute(ctx, plan, client)
	report.RunId = runId
	report.StartedAt = startedAt
	report.FinishedAt = r.clock.Now()

	logger.WithFields(report.Fields()).Info("sync finished")
	return report, nil
}
