package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/solace/internal/app"
	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/scheduler"
)

// UserLister names the users that own linked pending tasks.
type UserLister interface {
	ListUsersWithCalendarLinks(ctx context.Context) ([]string, error)
}

// FixedUsers limits sweeps to a configured list of users.
type FixedUsers []string

func (u FixedUsers) ListUsersWithCalendarLinks(context.Context) ([]string, error) {
	return append([]string(nil), u...), nil
}

type sweepService struct {
	rescheduler *scheduler.Rescheduler
	users       UserLister
	observer    UseCaseObserver
}

func NewSweepService(rescheduler *scheduler.Rescheduler, users UserLister, observers ...UseCaseObserver) SweepService {
	return &sweepService{
		rescheduler: rescheduler,
		users:       users,
		observer:    useCaseObserverOrNoop(observers),
	}
}

func (s *sweepService) RescheduleExpired(ctx context.Context, userID string) (moved []domain.Rescheduled, err error) {
	startedAt := time.Now()
	fields := map[string]any{"user_id": userID}
	defer observe(ctx, s.observer, "reschedule-expired", startedAt, fields, &err)

	moved, err = s.rescheduler.RescheduleExpired(ctx, userID)
	fields["rescheduled"] = len(moved)
	return moved, err
}

// SweepAll runs the expiry sweep for every user with linked pending tasks,
// one after another. Per-user failures are reported in the results; only
// listing users or cancellation stops the run.
func (s *sweepService) SweepAll(ctx context.Context) (results []app.UserSweep, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer observe(ctx, s.observer, "sweep-all", startedAt, fields, &err)

	var users []string
	users, err = s.users.ListUsersWithCalendarLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sweep users: %w", err)
	}
	fields["users"] = len(users)

	for _, userID := range users {
		if err = ctx.Err(); err != nil {
			return results, err
		}
		moved, userErr := s.RescheduleExpired(ctx, userID)
		results = append(results, app.UserSweep{UserID: userID, Rescheduled: moved, Err: userErr})
	}
	return results, nil
}
