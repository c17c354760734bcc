package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/solace/internal/calendar"
	"github.com/alexanderramin/solace/internal/db"
	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/repository"
	"github.com/alexanderramin/solace/internal/scheduler"
	"github.com/alexanderramin/solace/internal/testutil"
	"github.com/alexanderramin/solace/internal/timezone"
	"github.com/stretchr/testify/require"
)

const testCalendar = "primary"

func newYork(t *testing.T) *timezone.Reference {
	t.Helper()
	ref, err := timezone.Load("America/New_York")
	require.NoError(t, err)
	return ref
}

func nyAt(ref *timezone.Reference, day, hour, minute int) time.Time {
	return time.Date(2024, 6, day, hour, minute, 0, 0, ref.Location())
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last() UseCaseEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}

// failingCalendar rejects event creation.
type failingCalendar struct {
	*calendar.Memory
	err error
}

func (c *failingCalendar) CreateEvent(context.Context, string, domain.NewEvent) (*domain.CalendarEvent, error) {
	return nil, c.err
}

// unlinkableRepo fails every calendar link update.
type unlinkableRepo struct {
	*repository.SQLiteTaskRepo
}

func (unlinkableRepo) UpdateCalendarLink(context.Context, string, string, time.Time) error {
	return errors.New("database is locked")
}

type taskFixture struct {
	ref   *timezone.Reference
	db    *sql.DB
	tasks *repository.SQLiteTaskRepo
	cal   *calendar.Memory
	obs   *recordingObserver
	now   time.Time
}

func newTaskFixture(t *testing.T, now time.Time) *taskFixture {
	t.Helper()
	ref := newYork(t)
	database := testutil.NewTestDB(t)
	cal := calendar.NewMemory(ref)
	cal.Now = func() time.Time { return now }
	return &taskFixture{
		ref:   ref,
		db:    database,
		tasks: repository.NewSQLiteTaskRepo(database),
		cal:   cal,
		obs:   &recordingObserver{},
		now:   now,
	}
}

func (f *taskFixture) clock() time.Time { return f.now }

func (f *taskFixture) planner(cal calendar.Service) *scheduler.Planner {
	finder := scheduler.NewSlotFinder(scheduler.NewBusyFetcher(cal, testCalendar, f.ref, nil), f.ref)
	p := scheduler.NewPlanner(finder, f.ref, scheduler.DefaultPlacementPolicy())
	p.Now = f.clock
	return p
}

func (f *taskFixture) deps() TaskServiceDeps {
	return TaskServiceDeps{
		Tasks:      f.tasks,
		UoW:        testutil.NewTestUoW(f.db),
		Calendar:   f.cal,
		CalendarID: testCalendar,
		Planner:    f.planner(f.cal),
		Ref:        f.ref,
		MonthMode:  domain.MonthRolling30,
		Now:        f.clock,
	}
}

func (f *taskFixture) service(mutate ...func(*TaskServiceDeps)) TaskService {
	deps := f.deps()
	for _, m := range mutate {
		m(&deps)
	}
	return NewTaskService(deps, f.obs)
}

func withUoW(uow db.UnitOfWork) func(*TaskServiceDeps) {
	return func(d *TaskServiceDeps) { d.UoW = uow }
}

func titles(tasks []*domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}
