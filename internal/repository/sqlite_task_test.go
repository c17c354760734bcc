package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = func(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTaskRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()

	end := day(2024, 7, 1)
	task := testutil.NewTestTask("u1", "Evening walk",
		testutil.WithDescription("around the block"),
		testutil.WithDueDate(day(2024, 6, 10)),
		testutil.WithPreferredTime(14, 30),
		testutil.WithSourceTimezone("America/Los_Angeles"),
		testutil.WithDuration(45),
		testutil.WithRecurrence(domain.RecurDaily, 2, &end),
	)
	require.NoError(t, repo.Create(ctx, task))

	fetched, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Evening walk", fetched.Title)
	assert.Equal(t, "around the block", fetched.Description)
	assert.Equal(t, domain.TaskPending, fetched.Status)
	require.NotNil(t, fetched.DueDate)
	assert.Equal(t, day(2024, 6, 10), *fetched.DueDate)
	require.NotNil(t, fetched.PreferredTime)
	assert.Equal(t, domain.TimeOfDay{Hour: 14, Minute: 30}, *fetched.PreferredTime)
	assert.Equal(t, "America/Los_Angeles", fetched.SourceTimezone)
	assert.Equal(t, 45, fetched.DurationMin)
	assert.True(t, fetched.IsRecurring)
	require.NotNil(t, fetched.Recurrence)
	assert.Equal(t, domain.RecurDaily, fetched.Recurrence.Pattern)
	assert.Equal(t, 2, fetched.Recurrence.Interval)
	require.NotNil(t, fetched.Recurrence.EndDate)
	assert.Equal(t, end, *fetched.Recurrence.EndDate)
	assert.Nil(t, fetched.CalendarEventID)
	assert.Nil(t, fetched.ScheduledAt)
	assert.True(t, task.CreatedAt.Equal(fetched.CreatedAt))
}

func TestTaskRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepo_GetForUser_ScopesByOwner(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()

	task := testutil.NewTestTask("u1", "Journal")
	require.NoError(t, repo.Create(ctx, task))

	_, err := repo.GetForUser(ctx, "u1", task.ID)
	require.NoError(t, err)

	_, err = repo.GetForUser(ctx, "u2", task.ID)
	assert.ErrorIs(t, err, ErrNotFound, "other users must not see the task")
}

func TestTaskRepo_ListByUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()

	open := testutil.NewTestTask("u1", "Open", testutil.WithDueDate(day(2024, 6, 12)))
	early := testutil.NewTestTask("u1", "Early", testutil.WithDueDate(day(2024, 6, 11)))
	undated := testutil.NewTestTask("u1", "Undated")
	done := testutil.NewTestTask("u1", "Done", testutil.WithStatus(domain.TaskCompleted))
	other := testutil.NewTestTask("u2", "Other")
	for _, task := range []*domain.Task{open, early, undated, done, other} {
		require.NoError(t, repo.Create(ctx, task))
	}

	pending, err := repo.ListByUser(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "Early", pending[0].Title, "earliest due date first")
	assert.Equal(t, "Open", pending[1].Title)
	assert.Equal(t, "Undated", pending[2].Title, "undated tasks last")

	all, err := repo.ListByUser(ctx, "u1", true)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestTaskRepo_ListDue_WithCompletionRange(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()

	inside := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	outside := time.Date(2024, 6, 2, 15, 0, 0, 0, time.UTC)

	dueToday := testutil.NewTestTask("u1", "Due today", testutil.WithDueDate(day(2024, 6, 10)))
	overdue := testutil.NewTestTask("u1", "Overdue", testutil.WithDueDate(day(2024, 6, 1)))
	later := testutil.NewTestTask("u1", "Later", testutil.WithDueDate(day(2024, 6, 20)))
	doneIn := testutil.NewTestTask("u1", "Done inside",
		testutil.WithStatus(domain.TaskCompleted), testutil.WithCompletedAt(inside), testutil.WithDueDate(day(2024, 6, 30)))
	doneOut := testutil.NewTestTask("u1", "Done outside",
		testutil.WithStatus(domain.TaskCompleted), testutil.WithCompletedAt(outside), testutil.WithDueDate(day(2024, 6, 1)))
	cancelled := testutil.NewTestTask("u1", "Cancelled",
		testutil.WithStatus(domain.TaskCancelled), testutil.WithDueDate(day(2024, 6, 9)))
	for _, task := range []*domain.Task{dueToday, overdue, later, doneIn, doneOut, cancelled} {
		require.NoError(t, repo.Create(ctx, task))
	}

	from := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 10, 23, 59, 59, 0, time.UTC)
	got, err := repo.ListDue(ctx, "u1", DueQuery{DueOnOrBefore: day(2024, 6, 10), CompletedFrom: &from, CompletedTo: &to})
	require.NoError(t, err)

	titles := make([]string, 0, len(got))
	for _, task := range got {
		titles = append(titles, task.Title)
	}
	assert.ElementsMatch(t, []string{"Due today", "Overdue", "Done inside"}, titles)
}

func TestTaskRepo_ListDue_DueDateOnly(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestTask("u1", "A", testutil.WithDueDate(day(2024, 6, 9)))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestTask("u1", "B",
		testutil.WithDueDate(day(2024, 6, 10)), testutil.WithStatus(domain.TaskCompleted))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestTask("u1", "C", testutil.WithDueDate(day(2024, 6, 11)))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestTask("u1", "Undated")))

	got, err := repo.ListDue(ctx, "u1", DueQuery{DueOnOrBefore: day(2024, 6, 10)})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "B", got[1].Title, "status is not filtered without a completion range")
}

func TestTaskRepo_ListPendingWithCalendarLink(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()

	at := time.Date(2024, 6, 10, 13, 0, 0, 0, time.UTC)
	linked := testutil.NewTestTask("u1", "Linked", testutil.WithCalendarEvent("evt-1", at))
	unlinked := testutil.NewTestTask("u1", "Unlinked")
	doneLinked := testutil.NewTestTask("u1", "Done", testutil.WithCalendarEvent("evt-2", at), testutil.WithStatus(domain.TaskCompleted))
	otherUser := testutil.NewTestTask("u2", "Other", testutil.WithCalendarEvent("evt-3", at))
	for _, task := range []*domain.Task{linked, unlinked, doneLinked, otherUser} {
		require.NoError(t, repo.Create(ctx, task))
	}

	got, err := repo.ListPendingWithCalendarLink(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, linked.ID, got[0].ID)
	require.NotNil(t, got[0].CalendarEventID)
	assert.Equal(t, "evt-1", *got[0].CalendarEventID)
	require.NotNil(t, got[0].ScheduledAt)
	assert.True(t, at.Equal(*got[0].ScheduledAt))

	users, err := repo.ListUsersWithCalendarLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, users)
}

func TestTaskRepo_UpdateCalendarLink(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()

	first := time.Date(2024, 6, 10, 13, 0, 0, 0, time.UTC)
	task := testutil.NewTestTask("u1", "Meditate",
		testutil.WithCalendarEvent("evt-old", first),
		testutil.WithDueDate(day(2024, 6, 10)),
		testutil.WithPreferredTime(9, 0),
	)
	require.NoError(t, repo.Create(ctx, task))

	next := time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateCalendarLink(ctx, task.ID, "evt-new", next))

	fetched, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "evt-new", *fetched.CalendarEventID, "link is replaced, not appended")
	assert.True(t, next.Equal(*fetched.ScheduledAt))
	assert.Equal(t, day(2024, 6, 10), *fetched.DueDate, "due date untouched")
	assert.Equal(t, domain.TimeOfDay{Hour: 9}, *fetched.PreferredTime, "preferred time untouched")

	err = repo.UpdateCalendarLink(ctx, "missing", "evt", next)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepo_UpdateAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()

	task := testutil.NewTestTask("u1", "Read")
	require.NoError(t, repo.Create(ctx, task))

	now := time.Date(2024, 6, 10, 20, 0, 0, 0, time.UTC)
	require.NoError(t, task.Complete(now))
	task.Title = "Read a chapter"
	require.NoError(t, repo.Update(ctx, task))

	fetched, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Read a chapter", fetched.Title)
	assert.Equal(t, domain.TaskCompleted, fetched.Status)
	require.NotNil(t, fetched.CompletedAt)
	assert.True(t, now.Equal(*fetched.CompletedAt))

	require.NoError(t, repo.Delete(ctx, task.ID))
	_, err = repo.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, task.ID), ErrNotFound)
}
