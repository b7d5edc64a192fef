package reconcile

import (
	"fmt"
	"strings"

	"github.com/klokku/calsync/pkg/calendar"
	"github.com/klokku/calsync/pkg/planner"
)

// Translator builds calendar events from planner records. It never talks to the calendar.
type Translator struct {
	normalizer *Normalizer
	separator  string
}

func NewTranslator(normalizer *Normalizer, separator string) *Translator {
	return &Translator{normalizer: normalizer, separator: separator}
}

func (t *Translator) Translate(record planner.Record) (calendar.Event, error) {
	if record.Id == "" {
		return calendar.Event{}, fmt.Errorf("%w: record %q has no id", ErrValidation, record.Title)
	}
	start, end, err := t.normalizer.Normalize(record.Start, record.End)
	if err != nil {
		return calendar.Event{}, fmt.Errorf("record %s: %w", record.Id, err)
	}

	event := calendar.Event{
		Id:          record.Id,
		Summary:     record.Title,
		Description: strings.Join(record.CategoryTags, t.separator) + t.separator + record.Description,
		Start:       start,
		End:         end,
	}
	if record.ExternalLink != "" {
		link := record.ExternalLink
		event.Location = &link
	}
	return event, nil
}
