package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/calsync/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const testCalendarId = "primary"

func setupCalendarTest(t *testing.T, router *mux.Router) *Calendar {
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	service, err := gcal.NewService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	cal := NewCalendar(service, testCalendarId, 2)
	cal.backoff = time.Millisecond
	return cal
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func writeAPIError(t *testing.T, w http.ResponseWriter, status int, reason string) {
	writeJSON(t, w, status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": reason,
			"errors":  []map[string]string{{"reason": reason, "message": reason}},
		},
	})
}

func decodeEvent(t *testing.T, r *http.Request) gcal.Event {
	var event gcal.Event
	require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
	return event
}

func testEvent() calendar.Event {
	link := "https://meet.example.com/abc"
	return calendar.Event{
		Id:          "abc1def",
		Summary:     "Standup",
		Description: "meeting- daily",
		Location:    &link,
		Start:       calendar.EventDateTime{DateTime: "2024-05-01T09:00:00-06:00", TimeZone: "America/Chicago"},
		End:         calendar.EventDateTime{DateTime: "2024-05-01T09:30:00-06:00", TimeZone: "America/Chicago"},
	}
}

func TestCalendar_ListEvents(t *testing.T) {
	t.Run("should follow pages and map events", func(t *testing.T) {
		// given
		since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.FixedZone("-06:00", -6*3600))
		router := mux.NewRouter()
		router.HandleFunc("/calendars/{calendarId}/events", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, testCalendarId, mux.Vars(r)["calendarId"])
			assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
			assert.Equal(t, "2024-05-01T00:00:00-06:00", r.URL.Query().Get("timeMin"))

			if r.URL.Query().Get("pageToken") == "" {
				writeJSON(t, w, http.StatusOK, map[string]any{
					"items": []map[string]any{{
						"id":       "a",
						"summary":  "First",
						"location": "Room 1",
						"start":    map[string]string{"dateTime": "2024-05-01T09:00:00-06:00"},
						"end":      map[string]string{"dateTime": "2024-05-01T10:00:00-06:00"},
					}},
					"nextPageToken": "page-2",
				})
				return
			}
			assert.Equal(t, "page-2", r.URL.Query().Get("pageToken"))
			writeJSON(t, w, http.StatusOK, map[string]any{
				"items": []map[string]any{{
					"id":      "b",
					"summary": "Second",
					"start":   map[string]string{"date": "2024-05-02"},
					"end":     map[string]string{"date": "2024-05-03"},
				}},
			})
		}).Methods(http.MethodGet)
		cal := setupCalendarTest(t, router)

		// when
		events, err := cal.ListEvents(context.Background(), since)

		// then
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "a", events[0].Id)
		require.NotNil(t, events[0].Location)
		assert.Equal(t, "Room 1", *events[0].Location)
		assert.Equal(t, "2024-05-01T09:00:00-06:00", events[0].Start.DateTime)
		assert.Equal(t, "b", events[1].Id)
		assert.Nil(t, events[1].Location)
		assert.Equal(t, "2024-05-02", events[1].Start.Date)
		assert.Equal(t, "2024-05-03", events[1].End.Date)
	})

	t.Run("should retry when the service is unavailable", func(t *testing.T) {
		// given
		var calls atomic.Int32
		router := mux.NewRouter()
		router.HandleFunc("/calendars/{calendarId}/events", func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				writeAPIError(t, w, http.StatusServiceUnavailable, "backendError")
				return
			}
			writeJSON(t, w, http.StatusOK, map[string]any{"items": []map[string]any{}})
		}).Methods(http.MethodGet)
		cal := setupCalendarTest(t, router)

		// when
		events, err := cal.ListEvents(context.Background(), time.Now())

		// then
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("should give up after the configured retries", func(t *testing.T) {
		// given
		var calls atomic.Int32
		router := mux.NewRouter()
		router.HandleFunc("/calendars/{calendarId}/events", func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeAPIError(t, w, http.StatusForbidden, "rateLimitExceeded")
		}).Methods(http.MethodGet)
		cal := setupCalendarTest(t, router)

		// when
		_, err := cal.ListEvents(context.Background(), time.Now())

		// then
		assert.Error(t, err)
		assert.Equal(t, int32(3), calls.Load())
	})
}

func TestCalendar_CreateEvent(t *testing.T) {
	t.Run("should insert the event with its id", func(t *testing.T) {
		// given
		var inserted gcal.Event
		router := mux.NewRouter()
		router.HandleFunc("/calendars/{calendarId}/events", func(w http.ResponseWriter, r *http.Request) {
			inserted = decodeEvent(t, r)
			writeJSON(t, w, http.StatusOK, inserted)
		}).Methods(http.MethodPost)
		cal := setupCalendarTest(t, router)

		// when
		err := cal.CreateEvent(context.Background(), testEvent())

		// then
		require.NoError(t, err)
		assert.Equal(t, "abc1def", inserted.Id)
		assert.Equal(t, "Standup", inserted.Summary)
		assert.Equal(t, "meeting- daily", inserted.Description)
		assert.Equal(t, "https://meet.example.com/abc", inserted.Location)
		assert.Equal(t, "2024-05-01T09:00:00-06:00", inserted.Start.DateTime)
		assert.Equal(t, "America/Chicago", inserted.End.TimeZone)
	})

	t.Run("should restore a cancelled event holding the same id", func(t *testing.T) {
		// given
		var restored gcal.Event
		var restoredId string
		router := mux.NewRouter()
		router.HandleFunc("/calendars/{calendarId}/events", func(w http.ResponseWriter, r *http.Request) {
			writeAPIError(t, w, http.StatusConflict, "duplicate")
		}).Methods(http.MethodPost)
		router.HandleFunc("/calendars/{calendarId}/events/{eventId}", func(w http.ResponseWriter, r *http.Request) {
			restoredId = mux.Vars(r)["eventId"]
			restored = decodeEvent(t, r)
			writeJSON(t, w, http.StatusOK, restored)
		}).Methods(http.MethodPut)
		cal := setupCalendarTest(t, router)

		// when
		err := cal.CreateEvent(context.Background(), testEvent())

		// then
		require.NoError(t, err)
		assert.Equal(t, "abc1def", restoredId)
		assert.Equal(t, "confirmed", restored.Status)
		assert.Equal(t, "Standup", restored.Summary)
	})

	t.Run("should not retry a rejected event", func(t *testing.T) {
		// given
		var calls atomic.Int32
		router := mux.NewRouter()
		router.HandleFunc("/calendars/{calendarId}/events", func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeAPIError(t, w, http.StatusBadRequest, "invalid")
		}).Methods(http.MethodPost)
		cal := setupCalendarTest(t, router)

		// when
		err := cal.CreateEvent(context.Background(), testEvent())

		// then
		assert.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestCalendar_UpdateEvent(t *testing.T) {
	t.Run("should replace the event", func(t *testing.T) {
		// given
		var updated gcal.Event
		router := mux.NewRouter()
		router.HandleFunc("/calendars/{calendarId}/events/{eventId}", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "abc1def", mux.Vars(r)["eventId"])
			updated = decodeEvent(t, r)
			writeJSON(t, w, http.StatusOK, updated)
		}).Methods(http.MethodPut)
		cal := setupCalendarTest(t, router)
		event := testEvent()
		event.Location = nil

		// when
		err := cal.UpdateEvent(context.Background(), event.Id, event)

		// then
		require.NoError(t, err)
		assert.Equal(t, "meeting- daily", updated.Description)
		assert.Empty(t, updated.Location)
	})
}

func TestCalendar_DeleteEvent(t *testing.T) {
	setupDeleteTest := func(t *testing.T, status int) *Calendar {
		router := mux.NewRouter()
		router.HandleFunc("/calendars/{calendarId}/events/{eventId}", func(w http.ResponseWriter, r *http.Request) {
			if status == http.StatusNoContent {
				w.WriteHeader(status)
				return
			}
			writeAPIError(t, w, status, http.StatusText(status))
		}).Methods(http.MethodDelete)
		return setupCalendarTest(t, router)
	}

	t.Run("should delete the event", func(t *testing.T) {
		// given
		cal := setupDeleteTest(t, http.StatusNoContent)

		// when
		err := cal.DeleteEvent(context.Background(), "abc1def")

		// then
		assert.NoError(t, err)
	})

	t.Run("should treat an already deleted event as deleted", func(t *testing.T) {
		// given
		cal := setupDeleteTest(t, http.StatusGone)

		// when
		err := cal.DeleteEvent(context.Background(), "abc1def")

		// then
		assert.NoError(t, err)
	})

	t.Run("should report a missing event", func(t *testing.T) {
		// given
		cal := setupDeleteTest(t, http.StatusNotFound)

		// when
		err := cal.DeleteEvent(context.Background(), "abc1def")

		// then
		assert.ErrorIs(t, err, calendar.ErrEventNotFound)
	})
}
