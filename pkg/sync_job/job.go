package sync_job

import (
	"context"
	"errors"
	"sync"

	"github.com/klokku/calsync/internal/config"
	"github.com/klokku/calsync/internal/event_bus"
	"github.com/klokku/calsync/internal/utils"
	"github.com/klokku/calsync/pkg/calendar"
	"github.com/klokku/calsync/pkg/planner"
	"github.com/klokku/calsync/pkg/reconcile"
	log "github.com/sirupsen/logrus"
)

var ErrSyncInProgress = errors.New("sync already in progress")

// Job runs one sync at a time, whoever triggers it (scheduler, HTTP or CLI).
type Job struct {
	running   sync.Mutex
	runner    *reconcile.Runner
	dryRunner *reconcile.Runner
	provider  planner.Provider
	calendar  calendar.Calendar
	bus       *event_bus.EventBus

	mu      sync.RWMutex
	lastRun *RunStatus
}

// RunStatus is the outcome of the latest run.
type RunStatus struct {
	Report *reconcile.SyncReport `json:"report,omitempty"`
	Error  string                `json:"error,omitempty"`
}

func NewJob(cfg config.Sync, clock utils.Clock, provider planner.Provider, cal calendar.Calendar, bus *event_bus.EventBus) (*Job, error) {
	runner, err := reconcile.NewRunner(cfg, clock)
	if err != nil {
		return nil, err
	}
	dryCfg := cfg
	dryCfg.DryRun = true
	dryRunner, err := reconcile.NewRunner(dryCfg, clock)
	if err != nil {
		return nil, err
	}
	return &Job{
		runner:    runner,
		dryRunner: dryRunner,
		provider:  provider,
		calendar:  cal,
		bus:       bus,
	}, nil
}

// Run performs a sync unless one is already running. dryRun forces a dry run even when the
// configuration asks for real writes.
func (j *Job) Run(ctx context.Context, dryRun bool) (reconcile.SyncReport, error) {
	if !j.running.TryLock() {
		log.Info("Sync requested while another one is running, skipping")
		return reconcile.SyncReport{}, ErrSyncInProgress
	}
	defer j.running.Unlock()

	runner := j.runner
	if dryRun {
		runner = j.dryRunner
	}

	report, err := runner.RunOnce(ctx, j.provider, j.calendar)
	j.remember(report, err)
	if err != nil {
		j.publish(ctx, event_bus.SyncFailedType, event_bus.SyncFailed{Err: err})
		return report, err
	}
	j.publish(ctx, event_bus.SyncCompletedType, event_bus.SyncCompleted{Report: report})
	return report, nil
}

// LastRun returns the outcome of the latest run. ok is false before the first run.
func (j *Job) LastRun() (status RunStatus, ok bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.lastRun == nil {
		return RunStatus{}, false
	}
	return *j.lastRun, true
}

func (j *Job) remember(report reconcile.SyncReport, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		j.lastRun = &RunStatus{Error: err.Error()}
		return
	}
	j.lastRun = &RunStatus{Report: &report}
}

func (j *Job) publish(ctx context.Context, eventType event_bus.EventType, data any) {
	if j.bus == nil {
		return
	}
	if err := j.bus.Publish(event_bus.NewEvent(ctx, eventType, data)); err != nil {
		log.Warnf("Failed to publish %s: %v", eventType, err)
	}
}
