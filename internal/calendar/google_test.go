package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGoogleClient(endpoint string) *GoogleClient {
	cfg := DefaultGoogleConfig()
	cfg.Endpoint = endpoint
	cfg.TimeZone = "America/New_York"
	return NewGoogleClient(cfg, StaticToken("secret"), NoopObserver{})
}

func TestGoogleClient_ListEvents_Paginates(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("singleEvents"))
		assert.Equal(t, "startTime", q.Get("orderBy"))
		assert.Equal(t, "2024-06-10T15:00:00Z", q.Get("timeMin"))

		w.Header().Set("Content-Type", "application/json")
		if q.Get("pageToken") == "" {
			json.NewEncoder(w).Encode(googleEventList{
				Items:         []googleEvent{{ID: "a", Summary: "Standup", Start: googleEventTime{DateTime: "2024-06-10T11:00:00-04:00"}, End: googleEventTime{DateTime: "2024-06-10T11:30:00-04:00"}}},
				NextPageToken: "p2",
			})
			return
		}
		assert.Equal(t, "p2", q.Get("pageToken"))
		json.NewEncoder(w).Encode(googleEventList{
			Items: []googleEvent{{ID: "b", Start: googleEventTime{Date: "2024-06-10"}, End: googleEventTime{Date: "2024-06-11"}}},
		})
	}))
	defer srv.Close()

	client := testGoogleClient(srv.URL)
	windowStart := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	events, err := client.ListEvents(context.Background(), "primary", windowStart, windowStart.Add(6*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "Standup", events[0].Summary)
	assert.Equal(t, "primary", events[0].CalendarID)
	assert.True(t, events[1].Start.IsAllDay())
}

func TestGoogleClient_ListEvents_KeepsSubsecondWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2024-06-10T04:00:00Z", q.Get("timeMin"))
		assert.Equal(t, "2024-06-11T03:59:59.999999999Z", q.Get("timeMax"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(googleEventList{})
	}))
	defer srv.Close()

	dayStart := time.Date(2024, 6, 10, 4, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)
	events, err := testGoogleClient(srv.URL).ListEvents(context.Background(), "primary", dayStart, dayEnd)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestGoogleClient_CreateEvent_SendsUTCWithZone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/calendars/primary/events", r.URL.Path)

		var body googleEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Walk", body.Summary)
		assert.Equal(t, "2024-06-10T18:00:00Z", body.Start.DateTime)
		assert.Equal(t, "America/New_York", body.Start.TimeZone)
		assert.Equal(t, "2024-06-10T19:00:00Z", body.End.DateTime)
		assert.Equal(t, []string{"RRULE:FREQ=DAILY;INTERVAL=1"}, body.Recurrence)

		body.ID = "evt-123"
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
	defer srv.Close()

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	start := time.Date(2024, 6, 10, 14, 0, 0, 0, loc)
	rule := "RRULE:FREQ=DAILY;INTERVAL=1"

	created, err := testGoogleClient(srv.URL).CreateEvent(context.Background(), "primary", domain.NewEvent{
		Summary: "Walk", Start: start, End: start.Add(time.Hour), RecurrenceRule: &rule,
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-123", created.ID)
}

func TestGoogleClient_GetEvent_NotFound(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusGone} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/calendars/primary/events/gone", r.URL.Path)
			w.WriteHeader(status)
		}))

		_, err := testGoogleClient(srv.URL).GetEvent(context.Background(), "primary", "gone")
		assert.ErrorIs(t, err, ErrEventNotFound, "status %d", status)
		srv.Close()
	}
}

func TestGoogleClient_DeleteEvent(t *testing.T) {
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, testGoogleClient(srv.URL).DeleteEvent(context.Background(), "primary", "evt-1"))
	assert.Equal(t, http.MethodDelete, method)
}

func TestGoogleClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("backend exploded"))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	cfg := DefaultGoogleConfig()
	cfg.Endpoint = srv.URL
	client := NewGoogleClient(cfg, nil, NewLogObserver(&logs))

	_, err := client.GetEvent(context.Background(), "primary", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEventNotFound)
	assert.Contains(t, err.Error(), "500")
	assert.True(t, strings.Contains(logs.String(), "op=get") && strings.Contains(logs.String(), "status=err:500"))
}

func TestGoogleClient_Unreachable(t *testing.T) {
	cfg := DefaultGoogleConfig()
	cfg.Endpoint = "http://127.0.0.1:1"
	cfg.TimeoutMs = 500
	_, err := NewGoogleClient(cfg, nil, nil).ListEvents(context.Background(), "primary", time.Now(), time.Now().Add(time.Hour))
	assert.Error(t, err)
}
