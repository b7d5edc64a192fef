package reconcile

import "errors"

var (
	// ErrValidation marks a source record with missing or malformed fields.
	ErrValidation = errors.New("invalid source record")
	// ErrTranslationInvariant marks a translation that would mix timed and all-day bounds.
	ErrTranslationInvariant = errors.New("start and end use different date representations")
	// ErrDuplicateMatch marks a record id shared by several calendar events.
	ErrDuplicateMatch = errors.New("more than one calendar event matches the record id")
	// ErrCollaborator marks a failed call to the source provider or the calendar.
	ErrCollaborator = errors.New("collaborator call failed")
)
