package reconcile

import (
	"context"

	"github.com/klokku/calsync/pkg/calendar"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Executor applies a plan to the calendar with a bounded number of concurrent calls.
// A failed action is recorded and does not stop the others.
type Executor struct {
	workers int
	dryRun  bool
}

func NewExecutor(workers int, dryRun bool) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{workers: workers, dryRun: dryRun}
}

func (x *Executor) Execute(ctx context.Context, plan Plan, client calendar.Calendar) SyncReport {
	recorder := &reportRecorder{report: SyncReport{DryRun: x.dryRun, Skipped: plan.Skipped}}

	// Plain group: an action error must not cancel the context of the remaining actions.
	var g errgroup.Group
	g.SetLimit(x.workers)

	dispatch := func(action Action, eventId string, call func() error) {
		g.Go(func() error {
			if x.dryRun {
				log.Infof("dry run: would %s event %s", action, eventId)
				recorder.record(action, eventId, nil)
				return nil
			}
			err := call()
			if err != nil {
				log.Errorf("failed to %s event %s: %v", action, eventId, err)
			}
			recorder.record(action, eventId, err)
			return nil
		})
	}

	for _, event := range plan.ToCreate {
		dispatch(ActionCreate, event.Id, func() error {
			return client.CreateEvent(ctx, event)
		})
	}
	for _, update := range plan.ToUpdate {
		dispatch(ActionUpdate, update.Existing.Id, func() error {
			return client.UpdateEvent(ctx, update.Existing.Id, update.Replacement)
		})
	}
	for _, eventId := range plan.ToDelete {
		dispatch(ActionDelete, eventId, func() error {
			return client.DeleteEvent(ctx, eventId)
		})
	}

	_ = g.Wait()
	return recorder.finish()
}
