package testutil

import (
	"time"

	"github.com/alexanderramin/solace/internal/domain"
	"github.com/google/uuid"
)

// Task options
type TaskOption func(*domain.Task)

func WithDueDate(d time.Time) TaskOption {
	return func(t *domain.Task) {
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		t.DueDate = &day
	}
}

func WithPreferredTime(hour, minute int) TaskOption {
	return func(t *domain.Task) {
		t.PreferredTime = &domain.TimeOfDay{Hour: hour, Minute: minute}
	}
}

func WithSourceTimezone(zone string) TaskOption {
	return func(t *domain.Task) {
		t.SourceTimezone = zone
	}
}

func WithDuration(minutes int) TaskOption {
	return func(t *domain.Task) {
		t.DurationMin = minutes
	}
}

func WithDescription(desc string) TaskOption {
	return func(t *domain.Task) {
		t.Description = desc
	}
}

func WithStatus(s domain.TaskStatus) TaskOption {
	return func(t *domain.Task) {
		t.Status = s
	}
}

func WithCompletedAt(at time.Time) TaskOption {
	return func(t *domain.Task) {
		t.CompletedAt = &at
	}
}

func WithRecurrence(p domain.RecurrencePattern, interval int, end *time.Time) TaskOption {
	return func(t *domain.Task) {
		t.IsRecurring = true
		t.Recurrence = &domain.Recurrence{Pattern: p, Interval: interval, EndDate: end}
	}
}

func WithCalendarEvent(eventID string, scheduledAt time.Time) TaskOption {
	return func(t *domain.Task) {
		t.CalendarEventID = &eventID
		t.ScheduledAt = &scheduledAt
	}
}

func WithCreatedAt(at time.Time) TaskOption {
	return func(t *domain.Task) {
		t.CreatedAt = at
		t.UpdatedAt = at
	}
}

func NewTestTask(userID, title string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC().Truncate(time.Second)
	t := &domain.Task{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Status:    domain.TaskPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type ReminderOption func(*domain.Reminder)

func ForTask(taskID string) ReminderOption {
	return func(r *domain.Reminder) { r.TaskID = &taskID }
}

func WithMethod(m domain.ReminderMethod) ReminderOption {
	return func(r *domain.Reminder) { r.Method = m }
}

// NewTestReminder builds a push reminder due at remindAt.
func NewTestReminder(userID, title string, remindAt time.Time, opts ...ReminderOption) *domain.Reminder {
	r := &domain.Reminder{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		RemindAt:  remindAt.UTC().Truncate(time.Second),
		Method:    domain.RemindPush,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
