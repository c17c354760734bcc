package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
)

// DueQuery selects tasks for due-date listings.
//
// Without a completion range, every task whose due date is on or before
// DueOnOrBefore matches. With one, pending tasks due on or before
// DueOnOrBefore match, plus completed tasks finished inside
// [CompletedFrom, CompletedTo].
type DueQuery struct {
	DueOnOrBefore time.Time
	CompletedFrom *time.Time
	CompletedTo   *time.Time
}

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	GetForUser(ctx context.Context, userID, id string) (*domain.Task, error)
	ListByUser(ctx context.Context, userID string, includeClosed bool) ([]*domain.Task, error)
	ListDue(ctx context.Context, userID string, q DueQuery) ([]*domain.Task, error)
	ListPendingWithCalendarLink(ctx context.Context, userID string) ([]*domain.Task, error)
	ListUsersWithCalendarLinks(ctx context.Context) ([]string, error)
	Update(ctx context.Context, t *domain.Task) error
	UpdateCalendarLink(ctx context.Context, taskID, eventID string, scheduledAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// CalendarEventRepo stores events for the local calendar backend. Span is the
// event's first occurrence normalized to UTC; it drives range queries.
type CalendarEventRepo interface {
	Create(ctx context.Context, e *domain.CalendarEvent, span domain.Interval) error
	GetByID(ctx context.Context, calendarID, id string) (*domain.CalendarEvent, error)
	ListInRange(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]*domain.CalendarEvent, error)
	ListByCalendar(ctx context.Context, calendarID string) ([]*domain.CalendarEvent, error)
	Delete(ctx context.Context, calendarID, id string) error
}

type ReminderRepo interface {
	Create(ctx context.Context, r *domain.Reminder) error
	GetForUser(ctx context.Context, userID, id string) (*domain.Reminder, error)
	// ListDueBy returns the user's reminders at or before dueBy, earliest first.
	ListDueBy(ctx context.Context, userID string, dueBy time.Time) ([]*domain.Reminder, error)
	DeleteForUser(ctx context.Context, userID, id string) error
}
