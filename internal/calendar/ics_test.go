package calendar

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:one
DTSTAMP:20240601T000000Z
SUMMARY:Dentist
DTSTART:20240610T140000Z
DTEND:20240610T150000Z
END:VEVENT
BEGIN:VEVENT
UID:two
DTSTAMP:20240601T000000Z
SUMMARY:Standup
DTSTART;TZID=Europe/London:20240610T090000
DTEND;TZID=Europe/London:20240610T093000
RRULE:FREQ=WEEKLY;INTERVAL=1
END:VEVENT
BEGIN:VEVENT
UID:three
DTSTAMP:20240601T000000Z
SUMMARY:Holiday
DTSTART;VALUE=DATE:20240612
END:VEVENT
BEGIN:VEVENT
UID:four
DTSTAMP:20240601T000000Z
SUMMARY:Floating
DTSTART:20240613T100000
DTEND:20240613T090000
END:VEVENT
END:VCALENDAR
`

func TestParseICS(t *testing.T) {
	ref := newYork(t)
	loc := ref.Location()

	events, err := ParseICS(strings.NewReader(strings.ReplaceAll(sampleICS, "\n", "\r\n")), ref)
	require.NoError(t, err)
	require.Len(t, events, 3, "the inverted floating event is skipped")

	assert.Equal(t, "Dentist", events[0].Summary)
	assert.True(t, time.Date(2024, 6, 10, 10, 0, 0, 0, loc).Equal(events[0].Start))
	assert.Equal(t, time.Hour, events[0].End.Sub(events[0].Start))

	assert.Equal(t, "Standup", events[1].Summary)
	assert.True(t, time.Date(2024, 6, 10, 4, 0, 0, 0, loc).Equal(events[1].Start), "09:00 BST is 04:00 EDT")
	assert.Equal(t, "Europe/London", events[1].TimeZone)
	require.NotNil(t, events[1].RecurrenceRule)
	assert.Equal(t, "RRULE:FREQ=WEEKLY;INTERVAL=1", *events[1].RecurrenceRule)

	assert.True(t, events[2].AllDay)
	assert.Equal(t, 24*time.Hour, events[2].End.Sub(events[2].Start))
}

func TestParseICS_Garbage(t *testing.T) {
	_, err := ParseICS(strings.NewReader("not a calendar"), newYork(t))
	assert.Error(t, err)
}

func TestExportICS_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ref := newYork(t)
	cal := NewMemory(ref)
	loc := ref.Location()

	start := time.Date(2024, 6, 10, 14, 0, 0, 0, loc)
	rule := "RRULE:FREQ=DAILY;INTERVAL=2"
	timed, err := cal.CreateEvent(ctx, "primary", domain.NewEvent{Summary: "Walk", Description: "park", Start: start, End: start.Add(time.Hour), RecurrenceRule: &rule})
	require.NoError(t, err)
	day := time.Date(2024, 6, 12, 0, 0, 0, 0, loc)
	allDay, err := cal.CreateEvent(ctx, "primary", domain.NewEvent{Summary: "Rest day", Start: day, End: day.AddDate(0, 0, 1), AllDay: true})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportICS(&buf, []*domain.CalendarEvent{timed, allDay}, ref))
	assert.Contains(t, buf.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, buf.String(), "RRULE:FREQ=DAILY;INTERVAL=2")

	parsed, err := ParseICS(&buf, ref)
	require.NoError(t, err)
	require.Len(t, parsed, 2)

	assert.Equal(t, "Walk", parsed[0].Summary)
	assert.Equal(t, "park", parsed[0].Description)
	assert.True(t, start.Equal(parsed[0].Start))
	assert.True(t, start.Add(time.Hour).Equal(parsed[0].End))
	require.NotNil(t, parsed[0].RecurrenceRule)
	assert.Equal(t, rule, *parsed[0].RecurrenceRule)

	assert.True(t, parsed[1].AllDay)
	assert.True(t, day.Equal(parsed[1].Start))
	assert.True(t, day.AddDate(0, 0, 1).Equal(parsed[1].End))
}
