// Package timezone localizes external timestamps into a single reference
// zone. Every value that enters the scheduler passes through a Reference so
// comparisons downstream only ever see normalized instants.
package timezone

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/alexanderramin/solace/internal/domain"
)

// DefaultZone is the reference zone used when none is configured.
const DefaultZone = "America/New_York"

const dateLayout = "2006-01-02"

// Offset-less layouts accepted from calendars and stored rows.
var floatingLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Reference is the configured reference zone.
type Reference struct {
	name string
	loc  *time.Location
}

// Load resolves an IANA zone name. An empty name selects DefaultZone.
func Load(name string) (*Reference, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return &Reference{name: name, loc: loc}, nil
}

// FromLocation wraps an already resolved location.
func FromLocation(loc *time.Location) *Reference {
	return &Reference{name: loc.String(), loc: loc}
}

func (r *Reference) Name() string { return r.name }

func (r *Reference) Location() *time.Location { return r.loc }

// Localize converts t to the reference zone.
func (r *Reference) Localize(t time.Time) time.Time { return t.In(r.loc) }

// At returns the instant at h:m:s.ns on the reference-zone calendar day that
// contains t.
func (r *Reference) At(t time.Time, hour, minute, sec, nsec int) time.Time {
	y, m, d := t.In(r.loc).Date()
	return time.Date(y, m, d, hour, minute, sec, nsec, r.loc)
}

// OnDate returns h:m:s.ns in the reference zone on the calendar date carried
// by date, ignoring date's own location. Use it for date-only values.
func (r *Reference) OnDate(date time.Time, hour, minute, sec, nsec int) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, hour, minute, sec, nsec, r.loc)
}

// StartOfDay is midnight of t's reference-zone day.
func (r *Reference) StartOfDay(t time.Time) time.Time {
	return r.At(t, 0, 0, 0, 0)
}

// ParseDate parses a "2006-01-02" value as the start of that day.
func (r *Reference) ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), r.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return d, nil
}

// ParseTimestamp parses an RFC3339 value, or an offset-less value interpreted
// in zone (falling back to the reference zone when zone is empty or unknown).
// The result is always in the reference zone.
func (r *Reference) ParseTimestamp(s, zone string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(r.loc), nil
	}
	loc := r.loc
	if zone != "" && zone != r.name {
		if zl, err := time.LoadLocation(zone); err == nil {
			loc = zl
		}
	}
	for _, layout := range floatingLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(r.loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: unrecognized format", s)
}

// ParseEventTime normalizes a calendar event boundary. Date-only values map
// to the start of that day.
func (r *Reference) ParseEventTime(e domain.EventTime) (time.Time, error) {
	switch {
	case e.DateTime != "":
		return r.ParseTimestamp(e.DateTime, e.TimeZone)
	case e.Date != "":
		return r.ParseDate(e.Date)
	default:
		return time.Time{}, errors.New("event time has neither date nor dateTime")
	}
}

// Convert reinterprets a wall-clock time given in zone as a reference-zone
// instant. An empty zone, or the reference zone itself, returns the
// wall-clock value unchanged.
func (r *Reference) Convert(wall time.Time, zone string) (time.Time, error) {
	if zone == "" || zone == r.name {
		return r.OnDate(wall, wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond()), nil
	}
	src, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("loading source timezone %q: %w", zone, err)
	}
	y, m, d := wall.Date()
	return time.Date(y, m, d, wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), src).In(r.loc), nil
}

// FormatDate renders a date-only value.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
