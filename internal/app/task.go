package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
)

const dateLayout = "2006-01-02"

// TaskInput is a task as entered by a user: every field is free text that
// still needs parsing.
type TaskInput struct {
	Title              string
	Description        string
	DueDate            string
	PreferredTime      string
	SourceTimezone     string
	DurationMin        int
	Recurrence         string
	RecurrenceInterval int
	RecurrenceEndDate  string
}

// NewTask parses the input into a pending task owned by userID. The id and
// timestamps are left for the service to assign.
func (in TaskInput) NewTask(userID string) (*domain.Task, error) {
	t := &domain.Task{
		UserID:         userID,
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Status:         domain.TaskPending,
		SourceTimezone: strings.TrimSpace(in.SourceTimezone),
		DurationMin:    in.DurationMin,
	}

	var err error
	if t.DueDate, err = parseOptionalDate("due date", in.DueDate); err != nil {
		return nil, err
	}
	if in.PreferredTime != "" {
		tod, err := domain.ParseTimeOfDay(strings.TrimSpace(in.PreferredTime))
		if err != nil {
			return nil, err
		}
		t.PreferredTime = &tod
	}
	if t.SourceTimezone != "" {
		if _, err := time.LoadLocation(t.SourceTimezone); err != nil {
			return nil, fmt.Errorf("source timezone %q: %w", t.SourceTimezone, err)
		}
	}

	if in.Recurrence != "" {
		pattern, err := domain.ParseRecurrencePattern(strings.ToLower(strings.TrimSpace(in.Recurrence)))
		if err != nil {
			return nil, err
		}
		end, err := parseOptionalDate("recurrence end date", in.RecurrenceEndDate)
		if err != nil {
			return nil, err
		}
		t.IsRecurring = true
		t.Recurrence = &domain.Recurrence{Pattern: pattern, Interval: max(in.RecurrenceInterval, 1), EndDate: end}
	} else if in.RecurrenceInterval != 0 || in.RecurrenceEndDate != "" {
		return nil, errors.New("recurrence interval and end date require a recurrence pattern")
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// TaskPatch is a partial update. Nil fields are left unchanged; an empty
// string clears an optional field.
type TaskPatch struct {
	Title          *string
	Description    *string
	DueDate        *string
	PreferredTime  *string
	SourceTimezone *string
	DurationMin    *int
}

// Apply writes the patch onto t and revalidates it.
func (p TaskPatch) Apply(t *domain.Task, now time.Time) error {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		due, err := parseOptionalDate("due date", *p.DueDate)
		if err != nil {
			return err
		}
		t.DueDate = due
	}
	if p.PreferredTime != nil {
		t.PreferredTime = nil
		if v := strings.TrimSpace(*p.PreferredTime); v != "" {
			tod, err := domain.ParseTimeOfDay(v)
			if err != nil {
				return err
			}
			t.PreferredTime = &tod
		}
	}
	if p.SourceTimezone != nil {
		zone := strings.TrimSpace(*p.SourceTimezone)
		if zone != "" {
			if _, err := time.LoadLocation(zone); err != nil {
				return fmt.Errorf("source timezone %q: %w", zone, err)
			}
		}
		t.SourceTimezone = zone
	}
	if p.DurationMin != nil {
		t.DurationMin = *p.DurationMin
	}
	t.UpdatedAt = now
	return t.Validate()
}

// CreateTaskResult is a stored task and where it was placed.
type CreateTaskResult struct {
	Task     *domain.Task
	Decision domain.ScheduleDecision
	EventID  string
}

// CompleteTaskResult reports a completion and any follow-up occurrence.
type CompleteTaskResult struct {
	CompletedTaskID string
	NextOccurrence  *domain.Task
}

// CreatedNextOccurrence reports whether completing spawned a new task.
func (r CompleteTaskResult) CreatedNextOccurrence() bool {
	return r.NextOccurrence != nil
}

// DueRequest selects due tasks. A zero DueBy means now.
type DueRequest struct {
	DueBy  time.Time
	Period domain.DuePeriod
}

// UserSweep is the sweep outcome for one user.
type UserSweep struct {
	UserID      string
	Rescheduled []domain.Rescheduled
	Err         error
}

func parseOptionalDate(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%s %q must be YYYY-MM-DD", field, s)
	}
	return &d, nil
}
