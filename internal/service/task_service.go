package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/solace/internal/app"
	"github.com/alexanderramin/solace/internal/calendar"
	"github.com/alexanderramin/solace/internal/db"
	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/repository"
	"github.com/alexanderramin/solace/internal/scheduler"
	"github.com/alexanderramin/solace/internal/timezone"
)

// TaskServiceDeps are the collaborators of the task service.
type TaskServiceDeps struct {
	Tasks      repository.TaskRepo
	UoW        db.UnitOfWork
	Calendar   calendar.Service
	CalendarID string
	Planner    *scheduler.Planner
	Ref        *timezone.Reference
	MonthMode  domain.MonthMode

	// Now defaults to time.Now.
	Now func() time.Time
}

type taskService struct {
	tasks      repository.TaskRepo
	uow        db.UnitOfWork
	cal        calendar.Service
	calendarID string
	planner    *scheduler.Planner
	ref        *timezone.Reference
	monthMode  domain.MonthMode
	now        func() time.Time
	observer   UseCaseObserver
}

func NewTaskService(deps TaskServiceDeps, observers ...UseCaseObserver) TaskService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &taskService{
		tasks:      deps.Tasks,
		uow:        deps.UoW,
		cal:        deps.Calendar,
		calendarID: deps.CalendarID,
		planner:    deps.Planner,
		ref:        deps.Ref,
		monthMode:  deps.MonthMode,
		now:        now,
		observer:   useCaseObserverOrNoop(observers),
	}
}

// Create stores the task, places it and links the new calendar event. The
// row is written before placement, so a scheduling failure leaves an
// unlinked pending task behind.
func (s *taskService) Create(ctx context.Context, t *domain.Task) (res *app.CreateTaskResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"user_id": t.UserID}
	defer observe(ctx, s.observer, "create-task", startedAt, fields, &err)

	if t.Status == "" {
		t.Status = domain.TaskPending
	}
	if err = t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTask, err)
	}
	if t.Status != domain.TaskPending {
		return nil, fmt.Errorf("%w: new tasks must be pending", ErrInvalidTask)
	}

	now := s.now().UTC().Truncate(time.Second)
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.CreatedAt, t.UpdatedAt = now, now
	t.CalendarEventID, t.ScheduledAt = nil, nil
	fields["task_id"] = t.ID

	if err = s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}

	var decision domain.ScheduleDecision
	decision, err = s.planner.Place(ctx, scheduler.RequestFor(t))
	if err != nil {
		return nil, fmt.Errorf("scheduling task %s: %w", t.ID, err)
	}
	fields["source"] = string(decision.Source)

	var ev *domain.CalendarEvent
	ev, err = s.cal.CreateEvent(ctx, s.calendarID, domain.NewEvent{
		Summary:        t.Title,
		Description:    t.Description,
		Start:          decision.StartTime,
		End:            decision.EndTime(),
		TimeZone:       s.ref.Name(),
		RecurrenceRule: decision.RecurrenceRule,
	})
	if err != nil {
		return nil, fmt.Errorf("creating calendar event for task %s: %w", t.ID, err)
	}

	if linkErr := s.tasks.UpdateCalendarLink(ctx, t.ID, ev.ID, decision.StartTime); linkErr != nil {
		err = &scheduler.OrphanedEventError{TaskID: t.ID, EventID: ev.ID, Err: linkErr}
		return nil, err
	}
	t.LinkCalendarEvent(ev.ID, decision.StartTime, now)

	return &app.CreateTaskResult{Task: t, Decision: decision, EventID: ev.ID}, nil
}

func (s *taskService) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	return s.tasks.GetForUser(ctx, userID, id)
}

func (s *taskService) List(ctx context.Context, userID string, includeClosed bool) ([]*domain.Task, error) {
	return s.tasks.ListByUser(ctx, userID, includeClosed)
}

func (s *taskService) ListDue(ctx context.Context, userID string, q app.DueRequest) (tasks []*domain.Task, err error) {
	startedAt := time.Now()
	fields := map[string]any{"user_id": userID, "period": string(q.Period)}
	defer observe(ctx, s.observer, "list-due", startedAt, fields, &err)

	dueBy := q.DueBy
	if dueBy.IsZero() {
		dueBy = s.now()
	}
	tasks, err = s.tasks.ListDue(ctx, userID, dueQuery(s.ref, dueBy, q.Period, s.monthMode))
	fields["count"] = len(tasks)
	return tasks, err
}

// Update edits a task's fields. The calendar event is left where it is.
func (s *taskService) Update(ctx context.Context, userID, id string, patch app.TaskPatch) (t *domain.Task, err error) {
	startedAt := time.Now()
	defer observe(ctx, s.observer, "update-task", startedAt, map[string]any{"user_id": userID, "task_id": id}, &err)

	t, err = s.tasks.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err = patch.Apply(t, s.now().UTC().Truncate(time.Second)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTask, err)
	}
	if err = s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Complete closes the task and, for recurring tasks, stores the next
// occurrence in the same transaction. The follow-up is not put on the
// calendar because the recurring event already covers it.
func (s *taskService) Complete(ctx context.Context, userID, id string) (res *app.CompleteTaskResult, err error) {
	startedAt := time.Now()
	fields := map[string]any{"user_id": userID, "task_id": id}
	defer observe(ctx, s.observer, "complete-task", startedAt, fields, &err)

	now := s.now().UTC().Truncate(time.Second)
	var next *domain.Task
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTasks := repository.NewSQLiteTaskRepo(tx)

		t, err := txTasks.GetForUser(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := t.Complete(now); err != nil {
			return fmt.Errorf("%w: %w", ErrTaskNotPending, err)
		}
		if err := txTasks.Update(ctx, t); err != nil {
			return err
		}

		next = t.NextOccurrence(uuid.New().String(), now)
		if next == nil {
			return nil
		}
		return txTasks.Create(ctx, next)
	})
	if err != nil {
		return nil, err
	}

	fields["created_next_occurrence"] = next != nil
	return &app.CompleteTaskResult{CompletedTaskID: id, NextOccurrence: next}, nil
}

// Cancel closes a pending task and drops its calendar event when it has one.
func (s *taskService) Cancel(ctx context.Context, userID, id string) (t *domain.Task, err error) {
	startedAt := time.Now()
	fields := map[string]any{"user_id": userID, "task_id": id}
	defer observe(ctx, s.observer, "cancel-task", startedAt, fields, &err)

	t, err = s.tasks.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err = t.Cancel(s.now().UTC().Truncate(time.Second)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTaskNotPending, err)
	}
	if err = s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	s.dropEvent(ctx, t, fields)
	return t, nil
}

// Delete removes the task, then its calendar event on a best-effort basis.
func (s *taskService) Delete(ctx context.Context, userID, id string) (err error) {
	startedAt := time.Now()
	fields := map[string]any{"user_id": userID, "task_id": id}
	defer observe(ctx, s.observer, "delete-task", startedAt, fields, &err)

	var t *domain.Task
	t, err = s.tasks.GetForUser(ctx, userID, id)
	if err != nil {
		return err
	}
	if err = s.tasks.Delete(ctx, t.ID); err != nil {
		return err
	}
	if t.Status == domain.TaskPending {
		s.dropEvent(ctx, t, fields)
	}
	return nil
}

// dropEvent failures are reported through the use-case fields only; the
// task change has already been stored.
func (s *taskService) dropEvent(ctx context.Context, t *domain.Task, fields map[string]any) {
	if !t.HasCalendarLink() || t.IsRecurring {
		return
	}
	err := s.cal.DeleteEvent(ctx, s.calendarID, *t.CalendarEventID)
	if err != nil && !errors.Is(err, calendar.ErrEventNotFound) {
		fields["calendar_cleanup_error"] = err.Error()
	}
}
