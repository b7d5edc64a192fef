package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/klokku/calsync/internal/config"
	"github.com/klokku/calsync/pkg/calendar"
)

const dateLayout = "2006-01-02"

// Layouts carrying their own offset. Fractional seconds are accepted by time.Parse without
// being spelled out in the layout.
var offsetLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
}

// Layouts without offset; the configured one is applied.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

type bound struct {
	t     time.Time
	timed bool
}

// Normalizer converts source date values into calendar event bounds.
type Normalizer struct {
	location *time.Location
	timeZone string
	dayStart time.Duration
	dayEnd   time.Duration
}

func NewNormalizer(cfg config.Sync) (*Normalizer, error) {
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	dayStart, err := config.ParseClock(cfg.DayStart)
	if err != nil {
		return nil, fmt.Errorf("invalid day start %q: %w", cfg.DayStart, err)
	}
	dayEnd, err := config.ParseClock(cfg.DayEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid day end %q: %w", cfg.DayEnd, err)
	}
	return &Normalizer{
		location: location,
		timeZone: cfg.TimeZone,
		dayStart: dayStart,
		dayEnd:   dayEnd,
	}, nil
}

// Normalize picks the timed or all-day shape for a start/end pair. All-day end dates are
// exclusive, so a single-day entry ends on the following date.
func (n *Normalizer) Normalize(start, end string) (calendar.EventDateTime, calendar.EventDateTime, error) {
	var none calendar.EventDateTime
	if isAbsent(start) {
		return none, none, fmt.Errorf("%w: start date is missing", ErrValidation)
	}
	s, err := n.parse(start)
	if err != nil {
		return none, none, err
	}

	var startRepr, endRepr calendar.EventDateTime
	if isAbsent(end) {
		if s.timed {
			// reminder: zero-length event
			startRepr = n.timed(s.t)
			endRepr = startRepr
		} else {
			startRepr, endRepr = n.allDay(s.t), n.allDay(s.t.AddDate(0, 0, 1))
		}
		return startRepr, endRepr, checkSameKind(startRepr, endRepr)
	}

	e, err := n.parse(end)
	if err != nil {
		return none, none, err
	}

	switch {
	case s.timed && e.timed:
		startRepr, endRepr = n.timed(s.t), n.timed(e.t)
	case !s.timed && !e.timed:
		if e.t.Before(s.t) {
			return none, none, fmt.Errorf("%w: end date %s is before start date %s", ErrValidation, end, start)
		}
		if e.t.Equal(s.t) {
			startRepr, endRepr = n.allDay(s.t), n.allDay(s.t.AddDate(0, 0, 1))
		} else {
			startRepr, endRepr = n.allDay(s.t), n.allDay(e.t)
		}
	default:
		if !s.timed {
			s = bound{t: n.atClock(s.t, n.dayStart), timed: true}
		}
		if !e.timed {
			e = bound{t: n.atClock(e.t, n.dayEnd), timed: true}
		}
		startRepr, endRepr = n.timed(s.t), n.timed(e.t)
	}

	if s.timed && e.t.Before(s.t) {
		return none, none, fmt.Errorf("%w: end %s is before start %s", ErrValidation, endRepr.DateTime, startRepr.DateTime)
	}
	return startRepr, endRepr, checkSameKind(startRepr, endRepr)
}

func (n *Normalizer) parse(value string) (bound, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(dateLayout, value); err == nil {
		return bound{t: t}, nil
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return bound{t: t, timed: true}, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, n.location); err == nil {
			return bound{t: t, timed: true}, nil
		}
	}
	return bound{}, fmt.Errorf("%w: unrecognized date %q", ErrValidation, value)
}

func (n *Normalizer) timed(t time.Time) calendar.EventDateTime {
	return calendar.EventDateTime{DateTime: t.Format(time.RFC3339), TimeZone: n.timeZone}
}

func (n *Normalizer) allDay(t time.Time) calendar.EventDateTime {
	return calendar.EventDateTime{Date: t.Format(dateLayout), TimeZone: n.timeZone}
}

// atClock places a calendar date at a wall-clock time in the configured offset.
func (n *Normalizer) atClock(date time.Time, clock time.Duration) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, n.location).Add(clock)
}

func checkSameKind(start, end calendar.EventDateTime) error {
	if start.IsAllDay() != end.IsAllDay() || start.IsTimed() != end.IsTimed() {
		return fmt.Errorf("%w: start %q, end %q", ErrTranslationInvariant, start.String(), end.String())
	}
	return nil
}

func isAbsent(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || value == "None"
}
