package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/repository"
	"github.com/alexanderramin/solace/internal/timezone"
)

// Local is a calendar stored in the application database. Recurring events
// are stored once and expanded on read.
type Local struct {
	events repository.CalendarEventRepo
	ref    *timezone.Reference
	now    func() time.Time
}

// NewLocal creates a Local calendar over the given event repository.
func NewLocal(events repository.CalendarEventRepo, ref *timezone.Reference) *Local {
	return &Local{events: events, ref: ref, now: time.Now}
}

func (c *Local) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*domain.CalendarEvent, error) {
	stored, err := c.events.ListInRange(ctx, calendarID, timeMin, timeMax)
	if err != nil {
		return nil, err
	}
	var occ []occurrence
	for _, e := range stored {
		span, err := EventSpan(c.ref, e)
		if err != nil {
			return nil, err
		}
		got, err := expand(e, span, timeMin, timeMax)
		if err != nil {
			return nil, err
		}
		occ = append(occ, got...)
	}
	return sortedEvents(occ), nil
}

func (c *Local) GetEvent(ctx context.Context, calendarID, eventID string) (*domain.CalendarEvent, error) {
	e, err := c.events.GetByID(ctx, calendarID, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
		}
		return nil, err
	}
	return e, nil
}

func (c *Local) CreateEvent(ctx context.Context, calendarID string, ne domain.NewEvent) (*domain.CalendarEvent, error) {
	e, span, err := buildEvent(c.ref, calendarID, uuid.New().String(), ne, c.now().UTC().Truncate(time.Second))
	if err != nil {
		return nil, err
	}
	if err := c.events.Create(ctx, e, span); err != nil {
		return nil, err
	}
	return e, nil
}

func (c *Local) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := c.events.Delete(ctx, calendarID, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("event %s: %w", eventID, ErrEventNotFound)
		}
		return err
	}
	return nil
}

// Export returns every stored event of a calendar, unexpanded.
func (c *Local) Export(ctx context.Context, calendarID string) ([]*domain.CalendarEvent, error) {
	return c.events.ListByCalendar(ctx, calendarID)
}
