package reconcile

import (
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type FailedAction struct {
	Action  Action `json:"action"`
	EventId string `json:"eventId"`
	Error   string `json:"error"`
}

// SyncReport lists what a run did. Every skipped record and failed action is in it.
type SyncReport struct {
	RunId      string          `json:"runId"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	DryRun     bool            `json:"dryRun"`
	Created    []string        `json:"created"`
	Updated    []string        `json:"updated"`
	Deleted    []string        `json:"deleted"`
	Failed     []FailedAction  `json:"failed"`
	Skipped    []SkippedRecord `json:"skipped"`
}

func (r SyncReport) HasProblems() bool {
	return len(r.Failed) > 0 || len(r.Skipped) > 0
}

func (r SyncReport) Fields() log.Fields {
	return log.Fields{
		"runId":   r.RunId,
		"dryRun":  r.DryRun,
		"created": len(r.Created),
		"updated": len(r.Updated),
		"deleted": len(r.Deleted),
		"failed":  len(r.Failed),
		"skipped": len(r.Skipped),
	}
}

// reportRecorder collects action outcomes from concurrent workers.
type reportRecorder struct {
	mu     sync.Mutex
	report SyncReport
}

func (rr *reportRecorder) record(action Action, eventId string, err error) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if err != nil {
		rr.report.Failed = append(rr.report.Failed, FailedAction{Action: action, EventId: eventId, Error: err.Error()})
		return
	}
	switch action {
	case ActionCreate:
		rr.report.Created = append(rr.report.Created, eventId)
	case ActionUpdate:
		rr.report.Updated = append(rr.report.Updated, eventId)
	case ActionDelete:
		rr.report.Deleted = append(rr.report.Deleted, eventId)
	}
}

// finish orders the ids so reports of concurrent runs are comparable.
func (rr *reportRecorder) finish() SyncReport {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	sort.Strings(rr.report.Created)
	sort.Strings(rr.report.Updated)
	sort.Strings(rr.report.Deleted)
	sort.Slice(rr.report.Failed, func(i, j int) bool {
		return rr.report.Failed[i].EventId < rr.report.Failed[j].EventId
	})
	return rr.report
}
