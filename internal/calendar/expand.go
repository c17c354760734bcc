package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/alexanderramin/solace/internal/domain"
)

// maxOccurrencesPerEvent caps expansion of unbounded rules.
const maxOccurrencesPerEvent = 5000

const instanceIDLayout = "20060102T150405Z"

type occurrence struct {
	event *domain.CalendarEvent
	start time.Time
}

// expand returns the occurrences of e overlapping [timeMin, timeMax). The
// master itself is returned for non-recurring events.
func expand(e *domain.CalendarEvent, span domain.Interval, timeMin, timeMax time.Time) ([]occurrence, error) {
	rules := recurrenceRules(e.Recurrence)
	if len(rules) == 0 {
		if span.Start.Before(timeMax) && span.End.After(timeMin) {
			return []occurrence{{event: e, start: span.Start}}, nil
		}
		return nil, nil
	}

	var set rrule.Set
	for _, raw := range rules {
		r, err := rrule.StrToRRule(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing recurrence of event %s: %w", e.ID, err)
		}
		r.DTStart(span.Start)
		set.RRule(r)
	}

	dur := span.End.Sub(span.Start)
	starts := set.Between(timeMin.Add(-dur), timeMax, false)
	if len(starts) > maxOccurrencesPerEvent {
		starts = starts[:maxOccurrencesPerEvent]
	}

	out := make([]occurrence, 0, len(starts))
	for _, s := range starts {
		out = append(out, occurrence{event: instanceOf(e, s, s.Add(dur)), start: s})
	}
	return out, nil
}

func recurrenceRules(lines []string) []string {
	var rules []string
	for _, line := range lines {
		if strings.HasPrefix(line, rrulePrefix) {
			rules = append(rules, strings.TrimPrefix(line, rrulePrefix))
		}
	}
	return rules
}

func instanceOf(master *domain.CalendarEvent, start, end time.Time) *domain.CalendarEvent {
	inst := *master
	inst.ID = master.ID + "_" + start.UTC().Format(instanceIDLayout)
	inst.RecurringEventID = master.ID
	inst.Recurrence = nil
	if master.Start.IsAllDay() {
		inst.Start = domain.EventTime{Date: start.Format(dateLayout)}
		inst.End = domain.EventTime{Date: end.Format(dateLayout)}
	} else {
		inst.Start = domain.TimedEventTime(start, master.Start.TimeZone)
		inst.End = domain.TimedEventTime(end, master.End.TimeZone)
	}
	return &inst
}

func sortedEvents(occ []occurrence) []*domain.CalendarEvent {
	sort.SliceStable(occ, func(i, j int) bool { return occ[i].start.Before(occ[j].start) })
	events := make([]*domain.CalendarEvent, len(occ))
	for i, o := range occ {
		events[i] = o.event
	}
	return events
}
