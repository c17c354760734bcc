package app

import (
	"context"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
)

// CreateTaskUseCase stores a task and places it on the calendar.
type CreateTaskUseCase interface {
	Create(ctx context.Context, t *domain.Task) (*CreateTaskResult, error)
}

// TaskQueryUseCase reads a user's tasks.
type TaskQueryUseCase interface {
	Get(ctx context.Context, userID, id string) (*domain.Task, error)
	List(ctx context.Context, userID string, includeClosed bool) ([]*domain.Task, error)
	ListDue(ctx context.Context, userID string, q DueRequest) ([]*domain.Task, error)
}

// TaskCommandUseCase changes existing tasks.
type TaskCommandUseCase interface {
	Update(ctx context.Context, userID, id string, patch TaskPatch) (*domain.Task, error)
	Complete(ctx context.Context, userID, id string) (*CompleteTaskResult, error)
	Cancel(ctx context.Context, userID, id string) (*domain.Task, error)
	Delete(ctx context.Context, userID, id string) error
}

// RescheduleUseCase runs the expiry sweep.
type RescheduleUseCase interface {
	RescheduleExpired(ctx context.Context, userID string) ([]domain.Rescheduled, error)
	SweepAll(ctx context.Context) ([]UserSweep, error)
}

// SlotsUseCase answers free-time questions against the calendar.
type SlotsUseCase interface {
	FreeSlots(ctx context.Context, day time.Time, durationMin, startHour, endHour int) ([]time.Time, error)
	NextSlot(ctx context.Context, after time.Time, durationMin, maxDays int) (*time.Time, error)
}

// ReminderUseCase manages a user's reminders.
type ReminderUseCase interface {
	Create(ctx context.Context, userID string, in ReminderInput) (*domain.Reminder, error)
	// Due lists reminders at or before dueBy, earliest first. A zero dueBy
	// means now.
	Due(ctx context.Context, userID string, dueBy time.Time) ([]*domain.Reminder, error)
	Delete(ctx context.Context, userID, id string) error
}
