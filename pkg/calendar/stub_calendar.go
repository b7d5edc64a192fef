package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// StubCalendar is an in-memory Calendar. Failures can be injected per event id.
type StubCalendar struct {
	mu       sync.Mutex
	data     map[string]Event
	failures map[string]error
	listErr  error
	calls    []string
}

func NewStubCalendar(events ...Event) *StubCalendar {
	data := map[string]Event{}
	for _, e := range events {
		data[e.Id] = e
	}
	return &StubCalendar{data: data, failures: map[string]error{}}
}

func (c *StubCalendar) ListEvents(_ context.Context, _ time.Time) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listErr != nil {
		return nil, c.listErr
	}
	events := make([]Event, 0, len(c.data))
	for _, event := range c.data {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Id < events[j].Id
	})
	return events, nil
}

func (c *StubCalendar) CreateEvent(_ context.Context, event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, "create:"+event.Id)
	if err := c.failures[event.Id]; err != nil {
		return err
	}
	if _, ok := c.data[event.Id]; ok {
		return fmt.Errorf("%w: %s", ErrEventExists, event.Id)
	}
	c.data[event.Id] = event
	return nil
}

func (c *StubCalendar) UpdateEvent(_ context.Context, eventId string, event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, "update:"+eventId)
	if err := c.failures[eventId]; err != nil {
		return err
	}
	if _, ok := c.data[eventId]; !ok {
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventId)
	}
	event.Id = eventId
	c.data[eventId] = event
	return nil
}

func (c *StubCalendar) DeleteEvent(_ context.Context, eventId string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, "delete:"+eventId)
	if err := c.failures[eventId]; err != nil {
		return err
	}
	if _, ok := c.data[eventId]; !ok {
		return fmt.Errorf("%w: %s", ErrEventNotFound, eventId)
	}
	delete(c.data, eventId)
	return nil
}

// FailOn makes every write for eventId return err.
func (c *StubCalendar) FailOn(eventId string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[eventId] = err
}

func (c *StubCalendar) FailListing(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listErr = err
}

func (c *StubCalendar) Get(eventId string) (Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[eventId]
	return e, ok
}

// Calls returns the write operations received so far, in arrival order.
func (c *StubCalendar) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]string, len(c.calls))
	copy(result, c.calls)
	return result
}
