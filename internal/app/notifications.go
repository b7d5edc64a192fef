package app

import (
	"github.com/klokku/calsync/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

// subscribeRunLogging reports problems of finished runs at warning level so they stand out
// from the regular run summary.
func subscribeRunLogging(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.SyncCompletedType, func(e event_bus.EventT[event_bus.SyncCompleted]) error {
		report := e.Data.Report
		if !report.HasProblems() {
			return nil
		}
		logger := log.WithFields(report.Fields())
		for _, skipped := range report.Skipped {
			logger.Warnf("Record %s was skipped: %s", skipped.RecordId, skipped.Error)
		}
		for _, failed := range report.Failed {
			logger.Warnf("Could not %s event %s: %s", failed.Action, failed.EventId, failed.Error)
		}
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.SyncFailedType, func(e event_bus.EventT[event_bus.SyncFailed]) error {
		log.Errorf("Sync aborted: %v", e.Data.Err)
		return nil
	})
}
