package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/solace/internal/calendar"
	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/timezone"
	"github.com/stretchr/testify/require"
)

const testCalendar = "primary"

func newYork(t *testing.T) *timezone.Reference {
	t.Helper()
	ref, err := timezone.Load("America/New_York")
	require.NoError(t, err)
	return ref
}

// nyAt builds a reference-zone time on a June 2024 day.
func nyAt(ref *timezone.Reference, day, hour, minute int) time.Time {
	return time.Date(2024, 6, day, hour, minute, 0, 0, ref.Location())
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// flakyCalendar injects failures in front of an in-memory calendar.
type flakyCalendar struct {
	*calendar.Memory
	listErr   error
	getErr    error
	deleteErr error
	createErr error
}

func (f *flakyCalendar) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*domain.CalendarEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Memory.ListEvents(ctx, calendarID, timeMin, timeMax)
}

func (f *flakyCalendar) GetEvent(ctx context.Context, calendarID, eventID string) (*domain.CalendarEvent, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Memory.GetEvent(ctx, calendarID, eventID)
}

func (f *flakyCalendar) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Memory.DeleteEvent(ctx, calendarID, eventID)
}

func (f *flakyCalendar) CreateEvent(ctx context.Context, calendarID string, e domain.NewEvent) (*domain.CalendarEvent, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.Memory.CreateEvent(ctx, calendarID, e)
}

func addBusy(t *testing.T, cal calendar.Service, start, end time.Time) *domain.CalendarEvent {
	t.Helper()
	ev, err := cal.CreateEvent(context.Background(), testCalendar, domain.NewEvent{Summary: "busy", Start: start, End: end})
	require.NoError(t, err)
	return ev
}

func newTestFinder(cal calendar.Service, ref *timezone.Reference) *SlotFinder {
	return NewSlotFinder(NewBusyFetcher(cal, testCalendar, ref, nil), ref)
}

func hhmm(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Format("15:04")
	}
	return out
}
