package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/timezone"
)

const (
	icsUTCLayout      = "20060102T150405Z"
	icsFloatingLayout = "20060102T150405"
	icsDateLayout     = "20060102"
)

// ExportICS writes events as a VCALENDAR. Recurring events keep their rule.
func ExportICS(w io.Writer, events []*domain.CalendarEvent, ref *timezone.Reference) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//solace//calendar//EN")

	for _, e := range events {
		span, err := EventSpan(ref, e)
		if err != nil {
			return err
		}
		ve := cal.AddEvent(e.ID)
		stamp := e.UpdatedAt
		if stamp.IsZero() {
			stamp = e.CreatedAt
		}
		ve.SetDtStampTime(stamp.UTC())
		ve.SetSummary(e.Summary)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.Start.IsAllDay() {
			ve.SetAllDayStartAt(span.Start)
			ve.SetAllDayEndAt(span.End)
		} else {
			ve.SetStartAt(span.Start)
			ve.SetEndAt(span.End)
		}
		for _, rule := range recurrenceRules(e.Recurrence) {
			ve.SetProperty(ical.ComponentPropertyRrule, rule)
		}
	}
	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("writing ics: %w", err)
	}
	return nil
}

// ParseICS reads VEVENTs as create requests. Floating times are read in the
// reference zone. Events without a usable DTSTART, or with an end not after
// the start, are skipped.
func ParseICS(r io.Reader, ref *timezone.Reference) ([]domain.NewEvent, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parsing ics: %w", err)
	}

	var out []domain.NewEvent
	for _, ve := range cal.Events() {
		startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
		if startProp == nil {
			continue
		}
		start, allDay, zone, err := parseICSTime(startProp, ref)
		if err != nil {
			continue
		}

		var end time.Time
		if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
			if end, _, _, err = parseICSTime(endProp, ref); err != nil {
				continue
			}
		} else if allDay {
			end = start.AddDate(0, 0, 1)
		}
		if !end.After(start) {
			continue
		}

		ne := domain.NewEvent{
			Start:    start,
			End:      end,
			TimeZone: zone,
			AllDay:   allDay,
		}
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			ne.Summary = p.Value
		}
		if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
			ne.Description = p.Value
		}
		if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
			rule := rrulePrefix + p.Value
			ne.RecurrenceRule = &rule
		}
		out = append(out, ne)
	}
	return out, nil
}

func parseICSTime(p *ical.IANAProperty, ref *timezone.Reference) (t time.Time, allDay bool, zone string, err error) {
	v := strings.TrimSpace(p.Value)
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") || !strings.Contains(v, "T") {
		t, err = time.ParseInLocation(icsDateLayout, v, ref.Location())
		return t, true, "", err
	}
	if strings.HasSuffix(v, "Z") {
		t, err = time.Parse(icsUTCLayout, v)
		return ref.Localize(t), false, "UTC", err
	}
	loc := ref.Location()
	zone = ref.Name()
	if tz, ok := p.ICalParameters["TZID"]; ok && len(tz) > 0 {
		l, lerr := time.LoadLocation(tz[0])
		if lerr != nil {
			return time.Time{}, false, "", fmt.Errorf("unknown TZID %q: %w", tz[0], lerr)
		}
		loc, zone = l, tz[0]
	}
	t, err = time.ParseInLocation(icsFloatingLayout, v, loc)
	return ref.Localize(t), false, zone, err
}
