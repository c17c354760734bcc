package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/timezone"
)

const (
	rrulePrefix = "RRULE:"
	dateLayout  = "2006-01-02"
)

// buildEvent turns a create request into a stored event and its span in the
// reference zone.
func buildEvent(ref *timezone.Reference, calendarID, id string, e domain.NewEvent, now time.Time) (*domain.CalendarEvent, domain.Interval, error) {
	zone := e.TimeZone
	if zone == "" {
		zone = ref.Name()
	}

	ev := &domain.CalendarEvent{
		ID:          id,
		CalendarID:  calendarID,
		Summary:     e.Summary,
		Description: e.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var span domain.Interval
	if e.AllDay {
		start := ref.OnDate(e.Start, 0, 0, 0, 0)
		end := ref.OnDate(e.End, 0, 0, 0, 0)
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		ev.Start = domain.EventTime{Date: timezone.FormatDate(start)}
		ev.End = domain.EventTime{Date: timezone.FormatDate(end)}
		span = domain.Interval{Start: start, End: end}
	} else {
		iv, err := domain.NewInterval(e.Start, e.End)
		if err != nil {
			return nil, domain.Interval{}, fmt.Errorf("event %q: %w", e.Summary, err)
		}
		loc := ref.Location()
		if zl, err := time.LoadLocation(zone); err == nil {
			loc = zl
		}
		ev.Start = domain.TimedEventTime(iv.Start.In(loc), zone)
		ev.End = domain.TimedEventTime(iv.End.In(loc), zone)
		span = domain.Interval{Start: ref.Localize(iv.Start), End: ref.Localize(iv.End)}
	}

	if e.RecurrenceRule != nil && *e.RecurrenceRule != "" {
		rule := *e.RecurrenceRule
		if !strings.HasPrefix(rule, rrulePrefix) {
			rule = rrulePrefix + rule
		}
		ev.Recurrence = []string{rule}
	}
	return ev, span, nil
}

// EventSpan normalizes an event's bounds into the reference zone. All-day
// events without an end after their start last one day.
func EventSpan(ref *timezone.Reference, e *domain.CalendarEvent) (domain.Interval, error) {
	start, err := ref.ParseEventTime(e.Start)
	if err != nil {
		return domain.Interval{}, fmt.Errorf("event %s start: %w", e.ID, err)
	}
	var end time.Time
	if e.End.Date == "" && e.End.DateTime == "" {
		if !e.Start.IsAllDay() {
			return domain.Interval{}, errors.New("event " + e.ID + " has no end")
		}
		end = start.AddDate(0, 0, 1)
	} else {
		end, err = ref.ParseEventTime(e.End)
		if err != nil {
			return domain.Interval{}, fmt.Errorf("event %s end: %w", e.ID, err)
		}
	}
	if e.Start.IsAllDay() && !end.After(start) {
		end = start.AddDate(0, 0, 1)
	}
	return domain.Interval{Start: start, End: end}, nil
}
