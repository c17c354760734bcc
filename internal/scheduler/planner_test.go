package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/alexanderramin/solace/internal/calendar"
	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/testutil"
	"github.com/alexanderramin/solace/internal/timezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlanner(t *testing.T, cal calendar.Service, ref *timezone.Reference, now time.Time) *Planner {
	t.Helper()
	p := NewPlanner(newTestFinder(cal, ref), ref, DefaultPlacementPolicy())
	p.Now = fixedClock(now)
	return p
}

func dateOnly(day int) *time.Time {
	d := time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestPlanner_PreferredTimeOnDueDate(t *testing.T) {
	ref := newYork(t)
	for _, now := range []time.Time{nyAt(ref, 1, 9, 0), nyAt(ref, 10, 20, 0), nyAt(ref, 20, 9, 0)} {
		p := newTestPlanner(t, calendar.NewMemory(ref), ref, now)
		d, err := p.Place(context.Background(), PlacementRequest{
			DueDate:       dateOnly(10),
			PreferredTime: &domain.TimeOfDay{Hour: 14},
		})
		require.NoError(t, err)
		assert.True(t, nyAt(ref, 10, 14, 0).Equal(d.StartTime), "now=%s got %s", now, d.StartTime)
		assert.Equal(t, domain.PlacedPreferredTime, d.Source)
		assert.Equal(t, 60, d.DurationMin)
	}
}

func TestPlanner_PreferredTimeIgnoresBusyCalendar(t *testing.T) {
	ref := newYork(t)
	cal := calendar.NewMemory(ref)
	addBusy(t, cal, nyAt(ref, 10, 13, 0), nyAt(ref, 10, 16, 0))

	d, err := newTestPlanner(t, cal, ref, nyAt(ref, 10, 10, 0)).Place(context.Background(), PlacementRequest{
		DueDate:       dateOnly(10),
		PreferredTime: &domain.TimeOfDay{Hour: 14},
	})
	require.NoError(t, err)
	assert.True(t, nyAt(ref, 10, 14, 0).Equal(d.StartTime))
}

func TestPlanner_PreferredTimeWithoutDueDate(t *testing.T) {
	ref := newYork(t)
	p := newTestPlanner(t, calendar.NewMemory(ref), ref, nyAt(ref, 10, 10, 0))

	later, err := p.Place(context.Background(), PlacementRequest{PreferredTime: &domain.TimeOfDay{Hour: 16, Minute: 30}})
	require.NoError(t, err)
	assert.True(t, nyAt(ref, 10, 16, 30).Equal(later.StartTime))

	passed, err := p.Place(context.Background(), PlacementRequest{PreferredTime: &domain.TimeOfDay{Hour: 9}})
	require.NoError(t, err)
	assert.True(t, nyAt(ref, 11, 9, 0).Equal(passed.StartTime), "a passed time rolls to tomorrow")
}

func TestPlanner_PreferredTimeFromSourceZone(t *testing.T) {
	ref := newYork(t)
	p := newTestPlanner(t, calendar.NewMemory(ref), ref, nyAt(ref, 1, 10, 0))

	d, err := p.Place(context.Background(), PlacementRequest{
		DueDate:        dateOnly(10),
		PreferredTime:  &domain.TimeOfDay{Hour: 14},
		SourceTimezone: "America/Los_Angeles",
	})
	require.NoError(t, err)
	assert.True(t, nyAt(ref, 10, 17, 0).Equal(d.StartTime))
}

func TestPlanner_SourceZoneKeepsIntendedDate(t *testing.T) {
	ref := newYork(t)
	p := newTestPlanner(t, calendar.NewMemory(ref), ref, nyAt(ref, 1, 10, 0))

	// 08:00 in Tokyo on the 10th is 19:00 on the 9th in New York.
	d, err := p.Place(context.Background(), PlacementRequest{
		DueDate:        dateOnly(10),
		PreferredTime:  &domain.TimeOfDay{Hour: 8},
		SourceTimezone: "Asia/Tokyo",
	})
	require.NoError(t, err)
	assert.True(t, nyAt(ref, 10, 19, 0).Equal(d.StartTime), "got %s", d.StartTime)
}

func TestPlanner_UnknownSourceZone(t *testing.T) {
	ref := newYork(t)
	_, err := newTestPlanner(t, calendar.NewMemory(ref), ref, nyAt(ref, 1, 10, 0)).Place(context.Background(), PlacementRequest{
		PreferredTime:  &domain.TimeOfDay{Hour: 8},
		SourceTimezone: "Atlantis/Central",
	})
	assert.Error(t, err)
}

func TestPlanner_DueDateSlot(t *testing.T) {
	ref := newYork(t)
	cal := calendar.NewMemory(ref)
	addBusy(t, cal, nyAt(ref, 12, 10, 0), nyAt(ref, 12, 12, 30))

	d, err := newTestPlanner(t, cal, ref, nyAt(ref, 10, 10, 0)).Place(context.Background(), PlacementRequest{
		DueDate:     dateOnly(12),
		DurationMin: 45,
	})
	require.NoError(t, err)
	assert.True(t, nyAt(ref, 12, 12, 30).Equal(d.StartTime))
	assert.Equal(t, domain.PlacedDueDateSlot, d.Source)
	assert.Equal(t, 45, d.DurationMin)
	assert.True(t, nyAt(ref, 12, 13, 15).Equal(d.EndTime()))
}

func TestPlanner_DueDateFallback(t *testing.T) {
	ref := newYork(t)
	cal := calendar.NewMemory(ref)
	addBusy(t, cal, nyAt(ref, 12, 8, 0), nyAt(ref, 12, 23, 0))

	d, err := newTestPlanner(t, cal, ref, nyAt(ref, 10, 10, 0)).Place(context.Background(), PlacementRequest{DueDate: dateOnly(12)})
	require.NoError(t, err)
	assert.True(t, nyAt(ref, 12, 11, 0).Equal(d.StartTime))
	assert.Equal(t, domain.PlacedDueDateFallback, d.Source)
}

func TestPlanner_EveningSlot(t *testing.T) {
	ref := newYork(t)
	cal := calendar.NewMemory(ref)
	for day := 10; day <= 11; day++ {
		addBusy(t, cal, nyAt(ref, day, 17, 0), nyAt(ref, day, 23, 30))
	}

	d, err := newTestPlanner(t, cal, ref, nyAt(ref, 10, 10, 0)).Place(context.Background(), PlacementRequest{})
	require.NoError(t, err)
	assert.True(t, nyAt(ref, 12, 18, 0).Equal(d.StartTime), "first evening with room")
	assert.Equal(t, domain.PlacedEveningSlot, d.Source)
}

func TestPlanner_EveningToday(t *testing.T) {
	ref := newYork(t)
	d, err := newTestPlanner(t, calendar.NewMemory(ref), ref, nyAt(ref, 10, 10, 0)).Place(context.Background(), PlacementRequest{})
	require.NoError(t, err)
	assert.True(t, nyAt(ref, 10, 18, 0).Equal(d.StartTime))
}

func TestPlanner_EveningFallback(t *testing.T) {
	ref := newYork(t)
	cal := calendar.NewMemory(ref)
	for day := 10; day < 17; day++ {
		addBusy(t, cal, nyAt(ref, day, 17, 0), nyAt(ref, day, 23, 30))
	}

	d, err := newTestPlanner(t, cal, ref, nyAt(ref, 10, 10, 0)).Place(context.Background(), PlacementRequest{})
	require.NoError(t, err)
	assert.True(t, nyAt(ref, 10, 18, 0).Equal(d.StartTime))
	assert.Equal(t, domain.PlacedEveningFallback, d.Source)

	d, err = newTestPlanner(t, cal, ref, nyAt(ref, 10, 19, 0)).Place(context.Background(), PlacementRequest{})
	require.NoError(t, err)
	assert.True(t, nyAt(ref, 11, 18, 0).Equal(d.StartTime), "after 18:00 the fallback moves to tomorrow")
}

func TestPlanner_CalendarErrorFails(t *testing.T) {
	ref := newYork(t)
	cal := &flakyCalendar{Memory: calendar.NewMemory(ref), listErr: assert.AnError}
	_, err := newTestPlanner(t, cal, ref, nyAt(ref, 10, 10, 0)).Place(context.Background(), PlacementRequest{DueDate: dateOnly(12)})
	assert.ErrorIs(t, err, ErrCalendarUnavailable)
}

func TestPlanner_RecurringTaskGetsRule(t *testing.T) {
	ref := newYork(t)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	task := testutil.NewTestTask("u1", "Walk",
		testutil.WithDueDate(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)),
		testutil.WithPreferredTime(7, 0),
		testutil.WithRecurrence(domain.RecurDaily, 2, &end),
	)

	d, err := newTestPlanner(t, calendar.NewMemory(ref), ref, nyAt(ref, 1, 10, 0)).Place(context.Background(), RequestFor(task))
	require.NoError(t, err)
	require.NotNil(t, d.RecurrenceRule)

	opt := parseRule(t, *d.RecurrenceRule)
	assert.Equal(t, rrule.DAILY, opt.Freq)
	assert.Equal(t, 2, opt.Interval)
	assert.True(t, time.Date(2024, 6, 30, 23, 59, 59, 0, ref.Location()).Equal(opt.Until))
}

func TestRecurrenceRule(t *testing.T) {
	ref := newYork(t)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	weekly, err := RecurrenceRule(domain.Recurrence{Pattern: domain.RecurWeekly, EndDate: &end}, ref)
	require.NoError(t, err)
	opt := parseRule(t, weekly)
	assert.Equal(t, rrule.WEEKLY, opt.Freq)
	assert.Equal(t, 1, opt.Interval, "interval defaults to 1")
	assert.True(t, opt.Until.IsZero(), "only daily rules carry UNTIL")

	monthly, err := RecurrenceRule(domain.Recurrence{Pattern: domain.RecurMonthly, Interval: 3}, ref)
	require.NoError(t, err)
	opt = parseRule(t, monthly)
	assert.Equal(t, rrule.MONTHLY, opt.Freq)
	assert.Equal(t, 3, opt.Interval)

	_, err = RecurrenceRule(domain.Recurrence{Pattern: "yearly"}, ref)
	assert.Error(t, err)
}

func TestPlanner_NonRecurringTaskHasNoRule(t *testing.T) {
	ref := newYork(t)
	task := testutil.NewTestTask("u1", "Once", testutil.WithDueDate(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)))
	d, err := newTestPlanner(t, calendar.NewMemory(ref), ref, nyAt(ref, 1, 10, 0)).Place(context.Background(), RequestFor(task))
	require.NoError(t, err)
	assert.Nil(t, d.RecurrenceRule)
}

func parseRule(t *testing.T, rule string) *rrule.ROption {
	t.Helper()
	require.True(t, strings.HasPrefix(rule, "RRULE:"), rule)
	opt, err := rrule.StrToROption(strings.TrimPrefix(rule, "RRULE:"))
	require.NoError(t, err)
	return opt
}
