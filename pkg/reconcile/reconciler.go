package reconcile

import (
	"fmt"

	"github.com/klokku/calsync/internal/config"
	"github.com/klokku/calsync/pkg/calendar"
	"github.com/klokku/calsync/pkg/planner"
	log "github.com/sirupsen/logrus"
)

type Reconciler struct {
	translator *Translator
}

func NewReconciler(cfg config.Sync) (*Reconciler, error) {
	normalizer, err := NewNormalizer(cfg)
	if err != nil {
		return nil, err
	}
	return &Reconciler{translator: NewTranslator(normalizer, cfg.Separator)}, nil
}

// Reconcile diffs the source records against the events already in the calendar.
func (r *Reconciler) Reconcile(records []planner.Record, existing []calendar.Event) Plan {
	index := make(map[string][]calendar.Event, len(existing))
	for _, event := range existing {
		index[event.Id] = append(index[event.Id], event)
	}

	var plan Plan
	sourceIds := make(map[string]struct{}, len(records))
	for _, record := range records {
		if _, seen := sourceIds[record.Id]; seen {
			err := fmt.Errorf("%w: duplicate source id %s", ErrValidation, record.Id)
			log.Warn(err)
			plan.skip(record.Id, err)
			continue
		}
		sourceIds[record.Id] = struct{}{}

		candidate, err := r.translator.Translate(record)
		if err != nil {
			log.Warnf("skipping record %s: %v", record.Id, err)
			plan.skip(record.Id, err)
			continue
		}

		matches := index[record.Id]
		switch len(matches) {
		case 0:
			log.Debugf("event %s does not exist yet, creating", candidate.Id)
			plan.ToCreate = append(plan.ToCreate, candidate)
		case 1:
			field, differs := FirstDifference(matches[0], candidate)
			if !differs {
				log.Tracef("event %s is up to date", candidate.Id)
				continue
			}
			log.Debugf("event %s differs in %s, updating", candidate.Id, field)
			plan.ToUpdate = append(plan.ToUpdate, Update{
				Existing:    matches[0],
				Replacement: candidate,
				Field:       field,
			})
		default:
			err := fmt.Errorf("%w: %d events share id %s", ErrDuplicateMatch, len(matches), record.Id)
			log.Error(err)
			plan.skip(record.Id, err)
		}
	}

	deleted := make(map[string]struct{})
	for _, event := range existing {
		if _, ok := sourceIds[event.Id]; ok {
			continue
		}
		if _, ok := deleted[event.Id]; ok {
			continue
		}
		deleted[event.Id] = struct{}{}
		log.Debugf("event %s has no source record, deleting", event.Id)
		plan.ToDelete = append(plan.ToDelete, event.Id)
	}

	return plan
}
