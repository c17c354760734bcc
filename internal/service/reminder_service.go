package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/solace/internal/app"
	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/repository"
	"github.com/alexanderramin/solace/internal/timezone"
)

type reminderService struct {
	reminders repository.ReminderRepo
	tasks     repository.TaskRepo
	ref       *timezone.Reference
	now       func() time.Time
	observer  UseCaseObserver
}

// NewReminderService stores reminders and checks task references against
// the owner's tasks. A nil now uses time.Now.
func NewReminderService(reminders repository.ReminderRepo, tasks repository.TaskRepo, ref *timezone.Reference, now func() time.Time, observers ...UseCaseObserver) ReminderService {
	if now == nil {
		now = time.Now
	}
	return &reminderService{
		reminders: reminders,
		tasks:     tasks,
		ref:       ref,
		now:       now,
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *reminderService) Create(ctx context.Context, userID string, in app.ReminderInput) (r *domain.Reminder, err error) {
	startedAt := time.Now()
	fields := map[string]any{"user_id": userID}
	defer observe(ctx, s.observer, "create-reminder", startedAt, fields, &err)

	r, err = in.NewReminder(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReminder, err)
	}
	if r.TaskID != nil {
		if _, err = s.tasks.GetForUser(ctx, userID, *r.TaskID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: task %s not found", ErrInvalidReminder, *r.TaskID)
			}
			return nil, err
		}
		fields["task_id"] = *r.TaskID
	}

	r.ID = uuid.New().String()
	r.CreatedAt = s.now().UTC().Truncate(time.Second)
	r.RemindAt = r.RemindAt.Truncate(time.Second)
	if err = s.reminders.Create(ctx, r); err != nil {
		return nil, err
	}
	fields["reminder_id"] = r.ID
	r.RemindAt = s.ref.Localize(r.RemindAt)
	return r, nil
}

func (s *reminderService) Due(ctx context.Context, userID string, dueBy time.Time) (due []*domain.Reminder, err error) {
	startedAt := time.Now()
	fields := map[string]any{"user_id": userID}
	defer observe(ctx, s.observer, "due-reminders", startedAt, fields, &err)

	if dueBy.IsZero() {
		dueBy = s.now()
	}
	due, err = s.reminders.ListDueBy(ctx, userID, dueBy)
	if err != nil {
		return nil, err
	}
	for _, r := range due {
		r.RemindAt = s.ref.Localize(r.RemindAt)
	}
	fields["count"] = len(due)
	return due, nil
}

func (s *reminderService) Delete(ctx context.Context, userID, id string) (err error) {
	startedAt := time.Now()
	defer observe(ctx, s.observer, "delete-reminder", startedAt, map[string]any{"user_id": userID, "reminder_id": id}, &err)
	return s.reminders.DeleteForUser(ctx, userID, id)
}
