package event_bus

import "github.com/klokku/calsync/pkg/reconcile"

const (
	SyncCompletedType EventType = "sync.completed"
	SyncFailedType    EventType = "sync.failed"
)

// SyncCompleted is published after every run that got as far as executing its plan, including
// runs where single actions failed.
type SyncCompleted struct {
	Report reconcile.SyncReport
}

// SyncFailed is published when a run was aborted before any write.
type SyncFailed struct {
	Err error
}
