package reconcile

import "github.com/klokku/calsync/pkg/calendar"

// Update pairs a calendar event with the event that replaces it.
type Update struct {
	Existing    calendar.Event
	Replacement calendar.Event
	// Field is the first field found to differ.
	Field string
}

type SkippedRecord struct {
	RecordId string `json:"recordId"`
	Error    string `json:"error"`
	Err      error  `json:"-"`
}

// Plan holds the actions of a single run. Ids never repeat across the three action sets.
type Plan struct {
	ToCreate []calendar.Event
	ToUpdate []Update
	ToDelete []string
	Skipped  []SkippedRecord
}

func (p *Plan) skip(recordId string, err error) {
	p.Skipped = append(p.Skipped, SkippedRecord{RecordId: recordId, Error: err.Error(), Err: err})
}

func (p Plan) IsEmpty() bool {
	return len(p.ToCreate) == 0 && len(p.ToUpdate) == 0 && len(p.ToDelete) == 0
}

func (p Plan) Size() int {
	return len(p.ToCreate) + len(p.ToUpdate) + len(p.ToDelete)
}
