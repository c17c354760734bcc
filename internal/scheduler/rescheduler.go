package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexanderramin/solace/internal/calendar"
	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/timezone"
)

// TaskLinkStore is the persistence the sweep needs.
type TaskLinkStore interface {
	ListPendingWithCalendarLink(ctx context.Context, userID string) ([]*domain.Task, error)
	UpdateCalendarLink(ctx context.Context, taskID, eventID string, scheduledAt time.Time) error
}

// Rescheduler moves pending tasks whose calendar slot has passed.
type Rescheduler struct {
	store      TaskLinkStore
	cal        calendar.Service
	calendarID string
	finder     *SlotFinder
	ref        *timezone.Reference
	policy     SweepPolicy
	logger     *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewRescheduler creates a Rescheduler. A nil logger discards output.
func NewRescheduler(
	store TaskLinkStore,
	cal calendar.Service,
	calendarID string,
	finder *SlotFinder,
	ref *timezone.Reference,
	policy SweepPolicy,
	logger *slog.Logger,
) *Rescheduler {
	return &Rescheduler{
		store:      store,
		cal:        cal,
		calendarID: calendarID,
		finder:     finder,
		ref:        ref,
		policy:     policy,
		logger:     loggerOrDiscard(logger),
		Now:        time.Now,
	}
}

// RescheduleExpired re-places every expired pending task of a user. It
// returns the tasks it moved and, separately, the joined failures of
// candidates it could not move. Candidates with no free slot are skipped
// without error.
func (r *Rescheduler) RescheduleExpired(ctx context.Context, userID string) ([]domain.Rescheduled, error) {
	tasks, err := r.store.ListPendingWithCalendarLink(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing sweep candidates: %w", err)
	}

	now := r.ref.Localize(r.Now())
	var (
		results []domain.Rescheduled
		errs    []error
	)
	for _, t := range tasks {
		if !t.IsSweepCandidate() || !r.isExpired(ctx, t, now) {
			continue
		}
		moved, err := r.replace(ctx, t, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if moved != nil {
			results = append(results, *moved)
		}
	}
	return results, errors.Join(errs...)
}

// isExpired checks the linked event's end. When the event cannot be read
// the task's own due date and preferred time stand in for it.
func (r *Rescheduler) isExpired(ctx context.Context, t *domain.Task, now time.Time) bool {
	ev, err := r.cal.GetEvent(ctx, r.calendarID, *t.CalendarEventID)
	if err == nil {
		span, spanErr := calendar.EventSpan(r.ref, ev)
		if spanErr == nil {
			return span.End.Before(now)
		}
		err = spanErr
	}

	r.logger.WarnContext(ctx, "event lookup failed, using task intent",
		"task_id", t.ID, "event_id", *t.CalendarEventID, "error", err)
	if t.DueDate == nil || t.PreferredTime == nil {
		return false
	}
	intended := r.ref.OnDate(*t.DueDate, t.PreferredTime.Hour, t.PreferredTime.Minute, 0, 0)
	return intended.Before(now)
}

// replace moves a task onto a new event. A recurring task's series is
// re-anchored at the new slot so later occurrences stay on the calendar.
func (r *Rescheduler) replace(ctx context.Context, t *domain.Task, now time.Time) (*domain.Rescheduled, error) {
	var rule *string
	if t.IsRecurring && t.Recurrence != nil {
		line, err := RecurrenceRule(*t.Recurrence, r.ref)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", t.ID, err)
		}
		rule = &line
	}

	dur := t.EffectiveDuration()
	start, err := r.nextStart(ctx, now, dur)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", t.ID, err)
	}
	if start == nil {
		r.logger.InfoContext(ctx, "no free slot for expired task", "task_id", t.ID)
		return nil, nil
	}

	oldID := *t.CalendarEventID
	if err := r.cal.DeleteEvent(ctx, r.calendarID, oldID); err != nil {
		r.logger.WarnContext(ctx, "deleting expired event failed", "task_id", t.ID, "event_id", oldID, "error", err)
	}

	ev, err := r.cal.CreateEvent(ctx, r.calendarID, domain.NewEvent{
		Summary:        t.Title,
		Description:    t.Description,
		Start:          *start,
		End:            start.Add(minutes(dur)),
		TimeZone:       r.ref.Name(),
		RecurrenceRule: rule,
	})
	if err != nil {
		return nil, fmt.Errorf("task %s: creating replacement event: %w", t.ID, err)
	}

	if err := r.store.UpdateCalendarLink(ctx, t.ID, ev.ID, *start); err != nil {
		return nil, &OrphanedEventError{TaskID: t.ID, EventID: ev.ID, Err: err}
	}
	return &domain.Rescheduled{TaskID: t.ID, Title: t.Title, NewTime: *start}, nil
}

// nextStart searches the rest of today after the lead time, then tomorrow.
func (r *Rescheduler) nextStart(ctx context.Context, now time.Time, dur int) (*time.Time, error) {
	todayStart := now.Add(r.policy.LeadTime)
	todayEnd := r.ref.At(now, r.policy.TodayCutoffHour, 0, 0, 0)
	if todayStart.Before(todayEnd) {
		slot, err := r.finder.FirstSlotBetween(ctx, todayStart, todayEnd, dur)
		if err != nil || slot != nil {
			return slot, err
		}
	}

	tomorrow := r.ref.StartOfDay(now).AddDate(0, 0, 1)
	return r.finder.FirstSlotBetween(ctx,
		r.ref.OnDate(tomorrow, r.policy.TomorrowStartHour, 0, 0, 0),
		r.ref.OnDate(tomorrow, r.policy.TomorrowEndHour, 0, 0, 0),
		dur,
	)
}
