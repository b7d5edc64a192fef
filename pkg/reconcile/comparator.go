package reconcile

import (
	"time"

	"github.com/klokku/calsync/pkg/calendar"
)

// Timestamps echoed by the calendar may be truncated, so timed bounds this close are the same.
const dateTimeTolerance = time.Second

const (
	FieldId          = "id"
	FieldSummary     = "summary"
	FieldDescription = "description"
	FieldLocation    = "location"
	FieldStart       = "start"
	FieldEnd         = "end"
)

// Project keeps only the fields of existing that candidate sets. Server-side fields are not
// part of calendar.Event at all; location is dropped when the candidate has none.
func Project(existing, candidate calendar.Event) calendar.Event {
	projected := calendar.Event{
		Id:          existing.Id,
		Summary:     existing.Summary,
		Description: existing.Description,
		Start:       existing.Start,
		End:         existing.End,
	}
	if candidate.Location != nil {
		projected.Location = existing.Location
	}
	return projected
}

// FirstDifference compares the projection of existing against candidate field by field and
// stops at the first field that differs.
func FirstDifference(existing, candidate calendar.Event) (string, bool) {
	existing = Project(existing, candidate)

	if existing.Id != candidate.Id {
		return FieldId, true
	}
	if existing.Summary != candidate.Summary {
		return FieldSummary, true
	}
	if existing.Description != candidate.Description {
		return FieldDescription, true
	}
	if candidate.Location != nil {
		if existing.Location == nil || *existing.Location != *candidate.Location {
			return FieldLocation, true
		}
	}
	if !sameBound(existing.Start, candidate.Start) {
		return FieldStart, true
	}
	if !sameBound(existing.End, candidate.End) {
		return FieldEnd, true
	}
	return "", false
}

func Equivalent(existing, candidate calendar.Event) bool {
	_, differs := FirstDifference(existing, candidate)
	return !differs
}

func sameBound(a, b calendar.EventDateTime) bool {
	if a.IsAllDay() || b.IsAllDay() {
		return a.Date == b.Date && a.DateTime == b.DateTime
	}
	if !a.IsTimed() || !b.IsTimed() {
		return false
	}
	ta, err := time.Parse(time.RFC3339, a.DateTime)
	if err != nil {
		return false
	}
	tb, err := time.Parse(time.RFC3339, b.DateTime)
	if err != nil {
		return false
	}
	diff := ta.Sub(tb)
	if diff < 0 {
		diff = -diff
	}
	return diff <= dateTimeTolerance
}
