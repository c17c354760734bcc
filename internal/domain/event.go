package domain

import "time"

// EventTime mirrors the date-or-timestamp duality used by hosted calendars:
// exactly one of Date ("2006-01-02") or DateTime (RFC3339, offset optional)
// is expected to be set.
type EventTime struct {
	Date     string
	DateTime string
	TimeZone string
}

// IsAllDay reports whether the value carries only a date.
func (e EventTime) IsAllDay() bool {
	return e.DateTime == "" && e.Date != ""
}

// TimedEventTime formats an instant as an EventTime in the given zone name.
func TimedEventTime(t time.Time, zone string) EventTime {
	return EventTime{DateTime: t.Format(time.RFC3339), TimeZone: zone}
}

// CalendarEvent is a calendar entry as exchanged with a calendar service.
type CalendarEvent struct {
	ID          string
	CalendarID  string
	Summary     string
	Description string
	Start       EventTime
	End         EventTime
	Recurrence  []string
	// RecurringEventID is set on expanded instances and names the master.
	RecurringEventID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewEvent holds the fields needed to create a calendar event. When AllDay
// is set only the calendar dates of Start and End are used and End is
// exclusive.
type NewEvent struct {
	Summary        string
	Description    string
	Start          time.Time
	End            time.Time
	TimeZone       string
	AllDay         bool
	RecurrenceRule *string
}
