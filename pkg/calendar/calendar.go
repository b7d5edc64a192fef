package calendar

import (
	"context"
	"errors"
	"time"
)

var ErrEventNotFound = errors.New("event not found")
var ErrEventExists = errors.New("event already exists")

// Calendar is the target calendar the sync writes to.
type Calendar interface {
	ListEvents(ctx context.Context, since time.Time) ([]Event, error)
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, eventId string, event Event) error
	DeleteEvent(ctx context.Context, eventId string) error
}
