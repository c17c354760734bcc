package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
)

// DefaultGoogleEndpoint is the Google Calendar v3 REST base URL.
const DefaultGoogleEndpoint = "https://www.googleapis.com/calendar/v3"

// GoogleConfig holds configuration for the hosted calendar client.
type GoogleConfig struct {
	Endpoint  string
	TimeoutMs int
	// TimeZone is sent alongside created event times.
	TimeZone string
}

// DefaultGoogleConfig returns a GoogleConfig with sensible defaults.
func DefaultGoogleConfig() GoogleConfig {
	return GoogleConfig{
		Endpoint:  DefaultGoogleEndpoint,
		TimeoutMs: 10000,
	}
}

// TokenSource supplies OAuth bearer tokens. Refreshing is its concern.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// GoogleClient talks to a Google-Calendar-v3-shaped REST API.
type GoogleClient struct {
	cfg      GoogleConfig
	tokens   TokenSource
	http     *http.Client
	observer Observer
}

// NewGoogleClient creates a GoogleClient. A nil observer discards call events.
func NewGoogleClient(cfg GoogleConfig, tokens TokenSource, observer Observer) *GoogleClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGoogleEndpoint
	}
	return &GoogleClient{
		cfg:    cfg,
		tokens: tokens,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

type googleEventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type googleEvent struct {
	ID               string          `json:"id,omitempty"`
	Summary          string          `json:"summary,omitempty"`
	Description      string          `json:"description,omitempty"`
	Start            googleEventTime `json:"start"`
	End              googleEventTime `json:"end"`
	Recurrence       []string        `json:"recurrence,omitempty"`
	RecurringEventID string          `json:"recurringEventId,omitempty"`
	Created          string          `json:"created,omitempty"`
	Updated          string          `json:"updated,omitempty"`
}

type googleEventList struct {
	Items         []googleEvent `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}

func (c *GoogleClient) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*domain.CalendarEvent, error) {
	var events []*domain.CalendarEvent
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("timeMin", timeMin.UTC().Format(time.RFC3339Nano))
		q.Set("timeMax", timeMax.UTC().Format(time.RFC3339Nano))
		q.Set("singleEvents", "true")
		q.Set("orderBy", "startTime")
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var page googleEventList
		if err := c.do(ctx, "list", http.MethodGet, c.eventsURL(calendarID)+"?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			events = append(events, item.toDomain(calendarID))
		}
		if page.NextPageToken == "" {
			return events, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *GoogleClient) GetEvent(ctx context.Context, calendarID, eventID string) (*domain.CalendarEvent, error) {
	var ge googleEvent
	if err := c.do(ctx, "get", http.MethodGet, c.eventURL(calendarID, eventID), nil, &ge); err != nil {
		return nil, err
	}
	return ge.toDomain(calendarID), nil
}

func (c *GoogleClient) CreateEvent(ctx context.Context, calendarID string, e domain.NewEvent) (*domain.CalendarEvent, error) {
	zone := e.TimeZone
	if zone == "" {
		zone = c.cfg.TimeZone
	}
	body := googleEvent{Summary: e.Summary, Description: e.Description}
	if e.AllDay {
		body.Start = googleEventTime{Date: e.Start.Format(dateLayout)}
		body.End = googleEventTime{Date: e.End.Format(dateLayout)}
	} else {
		body.Start = googleEventTime{DateTime: e.Start.UTC().Format(time.RFC3339), TimeZone: zone}
		body.End = googleEventTime{DateTime: e.End.UTC().Format(time.RFC3339), TimeZone: zone}
	}
	if e.RecurrenceRule != nil && *e.RecurrenceRule != "" {
		body.Recurrence = []string{*e.RecurrenceRule}
	}

	var created googleEvent
	if err := c.do(ctx, "insert", http.MethodPost, c.eventsURL(calendarID), body, &created); err != nil {
		return nil, err
	}
	return created.toDomain(calendarID), nil
}

func (c *GoogleClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	return c.do(ctx, "delete", http.MethodDelete, c.eventURL(calendarID, eventID), nil, nil)
}

func (c *GoogleClient) eventsURL(calendarID string) string {
	return c.cfg.Endpoint + "/calendars/" + url.PathEscape(calendarID) + "/events"
}

func (c *GoogleClient) eventURL(calendarID, eventID string) string {
	return c.eventsURL(calendarID) + "/" + url.PathEscape(eventID)
}

func (c *GoogleClient) do(ctx context.Context, op, method, target string, in, out any) error {
	start := time.Now()
	status, err := c.doRequest(ctx, method, target, in, out)
	c.observer.OnCallComplete(CallEvent{
		Operation: op,
		Status:    status,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	})
	return err
}

func (c *GoogleClient) doRequest(ctx context.Context, method, target string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return 0, fmt.Errorf("obtaining calendar token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling calendar api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return resp.StatusCode, ErrEventNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return resp.StatusCode, fmt.Errorf("calendar api returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (g googleEvent) toDomain(calendarID string) *domain.CalendarEvent {
	e := &domain.CalendarEvent{
		ID:               g.ID,
		CalendarID:       calendarID,
		Summary:          g.Summary,
		Description:      g.Description,
		Start:            domain.EventTime{Date: g.Start.Date, DateTime: g.Start.DateTime, TimeZone: g.Start.TimeZone},
		End:              domain.EventTime{Date: g.End.Date, DateTime: g.End.DateTime, TimeZone: g.End.TimeZone},
		Recurrence:       g.Recurrence,
		RecurringEventID: g.RecurringEventID,
	}
	if t, err := time.Parse(time.RFC3339, g.Created); err == nil {
		e.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, g.Updated); err == nil {
		e.UpdatedAt = t
	}
	return e
}
