package calendar

// Event is a calendar entry in the shape the target calendar stores it.
type Event struct {
	Id          string
	Summary     string
	Description string
	// Location is nil when the event has no location at all.
	Location *string
	Start    EventDateTime
	End      EventDateTime
}

// EventDateTime is one bound of an event. Exactly one of Date and DateTime is set: Date for
// all-day bounds (end exclusive), DateTime (RFC3339 with offset) for timed bounds.
type EventDateTime struct {
	Date     string
	DateTime string
	TimeZone string
}

func (d EventDateTime) IsAllDay() bool {
	return d.Date != ""
}

func (d EventDateTime) IsTimed() bool {
	return d.DateTime != ""
}

func (d EventDateTime) IsEmpty() bool {
	return d.Date == "" && d.DateTime == ""
}

func (d EventDateTime) String() string {
	if d.IsAllDay() {
		return d.Date
	}
	return d.DateTime
}
