// Package calendar provides the calendar capability the scheduler consumes,
// together with a local SQLite-backed calendar, an HTTP client for hosted
// calendars, an in-memory fake and ICS import/export.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
)

// ErrEventNotFound is returned when an event id does not exist on the calendar.
var ErrEventNotFound = errors.New("calendar event not found")

// Service is the calendar capability used for busy-time lookup and for
// placing tasks.
type Service interface {
	// ListEvents returns single (expanded) occurrences overlapping
	// [timeMin, timeMax), ordered by start.
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*domain.CalendarEvent, error)

	GetEvent(ctx context.Context, calendarID, eventID string) (*domain.CalendarEvent, error)

	CreateEvent(ctx context.Context, calendarID string, e domain.NewEvent) (*domain.CalendarEvent, error)

	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}
