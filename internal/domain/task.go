package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultDurationMin is used when a task carries no explicit duration.
const DefaultDurationMin = 60

// Recurrence describes how a recurring task repeats.
type Recurrence struct {
	Pattern  RecurrencePattern
	Interval int
	EndDate  *time.Time // date only
}

// EffectiveInterval returns the repeat interval, treating non-positive values as 1.
func (r Recurrence) EffectiveInterval() int {
	if r.Interval < 1 {
		return 1
	}
	return r.Interval
}

type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Status      TaskStatus

	// Scheduling intent. DueDate carries only a calendar date.
	DueDate        *time.Time
	PreferredTime  *TimeOfDay
	SourceTimezone string
	DurationMin    int

	IsRecurring bool
	Recurrence  *Recurrence

	// External calendar linkage.
	CalendarEventID *string
	ScheduledAt     *time.Time

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("task title is required")
	}
	if t.UserID == "" {
		return errors.New("task user is required")
	}
	if !ValidTaskStatuses[string(t.Status)] {
		return fmt.Errorf("task status %q must be one of pending, completed, cancelled", t.Status)
	}
	if t.DurationMin < 0 {
		return fmt.Errorf("task duration %d must not be negative", t.DurationMin)
	}
	if t.PreferredTime != nil {
		if t.PreferredTime.Hour < 0 || t.PreferredTime.Hour > 23 || t.PreferredTime.Minute < 0 || t.PreferredTime.Minute > 59 {
			return fmt.Errorf("preferred time %s is out of range", t.PreferredTime)
		}
	}
	if t.IsRecurring {
		if t.Recurrence == nil {
			return errors.New("recurring task requires a recurrence pattern")
		}
		if _, err := ParseRecurrencePattern(string(t.Recurrence.Pattern)); err != nil {
			return err
		}
		if t.Recurrence.Interval < 0 {
			return fmt.Errorf("recurrence interval %d must not be negative", t.Recurrence.Interval)
		}
	}
	return nil
}

// EffectiveDuration returns DurationMin, or DefaultDurationMin when unset.
func (t *Task) EffectiveDuration() int {
	if t.DurationMin <= 0 {
		return DefaultDurationMin
	}
	return t.DurationMin
}

// HasCalendarLink reports whether the task points at an external event.
func (t *Task) HasCalendarLink() bool {
	return t.CalendarEventID != nil && *t.CalendarEventID != ""
}

// IsSweepCandidate reports whether the expiry sweep should look at this task.
func (t *Task) IsSweepCandidate() bool {
	return t.Status == TaskPending && t.HasCalendarLink()
}

// LinkCalendarEvent replaces the external event reference and scheduled start.
func (t *Task) LinkCalendarEvent(eventID string, start, now time.Time) {
	id := eventID
	s := start
	t.CalendarEventID = &id
	t.ScheduledAt = &s
	t.UpdatedAt = now
}

// Complete marks a pending task completed.
func (t *Task) Complete(now time.Time) error {
	if t.Status != TaskPending {
		return fmt.Errorf("cannot complete task in status %s", t.Status)
	}
	t.Status = TaskCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	return nil
}

// Cancel marks a pending task cancelled.
func (t *Task) Cancel(now time.Time) error {
	if t.Status != TaskPending {
		return fmt.Errorf("cannot cancel task in status %s", t.Status)
	}
	t.Status = TaskCancelled
	t.UpdatedAt = now
	return nil
}

// NextDueDate computes the due date of the following occurrence. Monthly
// recurrence advances by 30 days per interval. The second return value is
// false when the task does not recur or the next date falls after the
// recurrence end date.
func (t *Task) NextDueDate() (time.Time, bool) {
	if !t.IsRecurring || t.Recurrence == nil || t.DueDate == nil {
		return time.Time{}, false
	}
	n := t.Recurrence.EffectiveInterval()
	var next time.Time
	switch t.Recurrence.Pattern {
	case RecurDaily:
		next = t.DueDate.AddDate(0, 0, n)
	case RecurWeekly:
		next = t.DueDate.AddDate(0, 0, 7*n)
	case RecurMonthly:
		next = t.DueDate.AddDate(0, 0, 30*n)
	default:
		return time.Time{}, false
	}
	if end := t.Recurrence.EndDate; end != nil && dateAfter(next, *end) {
		return time.Time{}, false
	}
	return next, true
}

// NextOccurrence builds the pending follow-up task for a recurring task, or
// nil when no further occurrence is due.
func (t *Task) NextOccurrence(id string, now time.Time) *Task {
	due, ok := t.NextDueDate()
	if !ok {
		return nil
	}
	next := &Task{
		ID:             id,
		UserID:         t.UserID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         TaskPending,
		DueDate:        &due,
		SourceTimezone: t.SourceTimezone,
		DurationMin:    t.DurationMin,
		IsRecurring:    t.IsRecurring,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if t.PreferredTime != nil {
		pt := *t.PreferredTime
		next.PreferredTime = &pt
	}
	if t.Recurrence != nil {
		rec := *t.Recurrence
		next.Recurrence = &rec
	}
	return next
}

// dateAfter compares calendar dates only.
func dateAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}
