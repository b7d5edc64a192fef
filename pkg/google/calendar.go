package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/klokku/calsync/internal/ratelimit"
	"github.com/klokku/calsync/pkg/calendar"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

const listPageSize = 250

// Calendar writes synced events into one Google calendar.
type Calendar struct {
	service    *gcal.Service
	calendarId string
	limiter    *ratelimit.Limiter
	maxRetries int
	backoff    time.Duration
}

func NewCalendar(service *gcal.Service, calendarId string, maxRetries int) *Calendar {
	return &Calendar{
		service:    service,
		calendarId: calendarId,
		limiter:    ratelimit.New(ratelimit.GoogleCalendar),
		maxRetries: maxRetries,
		backoff:    time.Second,
	}
}

func (c *Calendar) ListEvents(ctx context.Context, since time.Time) ([]calendar.Event, error) {
	var events []calendar.Event
	err := c.do(ctx, "retrieve events", func() error {
		events = events[:0]
		return c.service.Events.List(c.calendarId).
			TimeMin(since.Format(time.RFC3339)).
			SingleEvents(true).
			MaxResults(listPageSize).
			Pages(ctx, func(page *gcal.Events) error {
				for _, item := range page.Items {
					events = append(events, fromGoogleEvent(item))
				}
				return nil
			})
	})
	if err != nil {
		return nil, err
	}
	log.Debugf("Retrieved %d events from calendar %s", len(events), c.calendarId)
	return events, nil
}

func (c *Calendar) CreateEvent(ctx context.Context, event calendar.Event) error {
	log.Debugf("Adding event: %s, to calendar: %s", event.Id, c.calendarId)
	err := c.do(ctx, "insert event", func() error {
		_, err := c.service.Events.Insert(c.calendarId, toGoogleEvent(event)).Context(ctx).Do()
		return err
	})
	if hasStatus(err, http.StatusConflict) {
		// The id is still held by a cancelled event; bringing it back is the only way to reuse it.
		log.Infof("Event %s already exists in calendar %s, restoring it", event.Id, c.calendarId)
		restored := toGoogleEvent(event)
		restored.Status = "confirmed"
		return c.do(ctx, "restore event", func() error {
			_, err := c.service.Events.Update(c.calendarId, event.Id, restored).Context(ctx).Do()
			return err
		})
	}
	return err
}

func (c *Calendar) UpdateEvent(ctx context.Context, eventId string, event calendar.Event) error {
	log.Debugf("Updating event: %s, in calendar: %s", eventId, c.calendarId)
	return c.do(ctx, "update event", func() error {
		_, err := c.service.Events.Update(c.calendarId, eventId, toGoogleEvent(event)).Context(ctx).Do()
		return err
	})
}

func (c *Calendar) DeleteEvent(ctx context.Context, eventId string) error {
	log.Debugf("Deleting event: %s, from calendar: %s", eventId, c.calendarId)
	err := c.do(ctx, "delete event", func() error {
		return c.service.Events.Delete(c.calendarId, eventId).Context(ctx).Do()
	})
	switch {
	case hasStatus(err, http.StatusGone):
		log.Debugf("Event %s was already deleted", eventId)
		return nil
	case hasStatus(err, http.StatusNotFound):
		return fmt.Errorf("%w: %s: %w", calendar.ErrEventNotFound, eventId, err)
	}
	return err
}

// do runs call behind the rate limiter and retries quota and server errors.
func (c *Calendar) do(ctx context.Context, operation string, call func() error) error {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if waitErr := c.limiter.Wait(ctx); waitErr != nil {
			return waitErr
		}
		err = call()
		if err == nil {
			return nil
		}
		var apiErr *googleapi.Error
		if !errors.As(err, &apiErr) || !isRetryable(apiErr) || attempt == c.maxRetries {
			break
		}
		backoff := c.retryDelay(apiErr, attempt)
		log.Warnf("Unable to %s in Google Calendar (status %d), retrying in %s", operation, apiErr.Code, backoff)
		c.limiter.Backoff(backoff)
	}
	err = fmt.Errorf("unable to %s in Google Calendar: %w", operation, err)
	log.Error(err)
	return err
}

func (c *Calendar) retryDelay(apiErr *googleapi.Error, attempt int) time.Duration {
	if seconds, err := strconv.Atoi(apiErr.Header.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return c.backoff << attempt
}

func isRetryable(apiErr *googleapi.Error) bool {
	switch apiErr.Code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	case http.StatusForbidden:
		for _, item := range apiErr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
				return true
			}
		}
	}
	return false
}

func hasStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

func toGoogleEvent(event calendar.Event) *gcal.Event {
	googleEvent := &gcal.Event{
		Id:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Start:       toGoogleDateTime(event.Start),
		End:         toGoogleDateTime(event.End),
	}
	if event.Location != nil {
		googleEvent.Location = *event.Location
	}
	return googleEvent
}

func toGoogleDateTime(d calendar.EventDateTime) *gcal.EventDateTime {
	return &gcal.EventDateTime{
		Date:     d.Date,
		DateTime: d.DateTime,
		TimeZone: d.TimeZone,
	}
}

func fromGoogleEvent(item *gcal.Event) calendar.Event {
	event := calendar.Event{
		Id:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Start:       fromGoogleDateTime(item.Start),
		End:         fromGoogleDateTime(item.End),
	}
	if item.Location != "" {
		location := item.Location
		event.Location = &location
	}
	return event
}

func fromGoogleDateTime(d *gcal.EventDateTime) calendar.EventDateTime {
	if d == nil {
		return calendar.EventDateTime{}
	}
	return calendar.EventDateTime{
		Date:     d.Date,
		DateTime: d.DateTime,
		TimeZone: d.TimeZone,
	}
}
