package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/solace/internal/calendar"
	"github.com/alexanderramin/solace/internal/cli/formatter"
	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/repository"
	"github.com/alexanderramin/solace/internal/scheduler"
	"github.com/alexanderramin/solace/internal/service"
	"github.com/alexanderramin/solace/internal/testutil"
	"github.com/alexanderramin/solace/internal/timezone"
)

const testCalendar = "primary"

type cliFixture struct {
	app   *App
	ref   *timezone.Reference
	cal   *calendar.Memory
	tasks *repository.SQLiteTaskRepo
	now   time.Time
}

// testApp wires a full App backed by an in-memory DB and calendar, with the
// clock fixed at Monday 2024-06-10 12:00 New York time.
func testApp(t *testing.T) *cliFixture {
	t.Helper()
	ref, err := timezone.Load("America/New_York")
	require.NoError(t, err)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, ref.Location())
	clock := func() time.Time { return now }

	database := testutil.NewTestDB(t)
	tasks := repository.NewSQLiteTaskRepo(database)
	cal := calendar.NewMemory(ref)
	cal.Now = clock
	finder := scheduler.NewSlotFinder(scheduler.NewBusyFetcher(cal, testCalendar, ref, nil), ref)
	planner := scheduler.NewPlanner(finder, ref, scheduler.DefaultPlacementPolicy())
	planner.Now = clock
	rescheduler := scheduler.NewRescheduler(tasks, cal, testCalendar, finder, ref, scheduler.DefaultSweepPolicy(), nil)
	rescheduler.Now = clock

	app := &App{
		Tasks: service.NewTaskService(service.TaskServiceDeps{
			Tasks:      tasks,
			UoW:        testutil.NewTestUoW(database),
			Calendar:   cal,
			CalendarID: testCalendar,
			Planner:    planner,
			Ref:        ref,
			MonthMode:  domain.MonthRolling30,
			Now:        clock,
		}),
		Sweeps:     service.NewSweepService(rescheduler, tasks),
		Slots:      service.NewSlotService(finder),
		Reminders:  service.NewReminderService(repository.NewSQLiteReminderRepo(database), tasks, ref, clock),
		Calendar:   cal,
		CalendarID: testCalendar,
		Ref:        ref,
		UserID:     "u1",
		TokenTTL:   time.Hour,
		Now:        clock,
	}
	return &cliFixture{app: app, ref: ref, cal: cal, tasks: tasks, now: now}
}

// executeCmd runs a cobra command and captures stdout/stderr with styling
// stripped.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return formatter.StripANSI(buf.String()), err
}

func (f *cliFixture) addTask(t *testing.T, args ...string) *domain.Task {
	t.Helper()
	_, err := executeCmd(t, f.app, append([]string{"task", "add"}, args...)...)
	require.NoError(t, err)
	list, err := f.tasks.ListByUser(context.Background(), f.app.UserID, true)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	return list[len(list)-1]
}

// --- task ---

func TestTaskAdd_PreferredTime(t *testing.T) {
	f := testApp(t)

	out, err := executeCmd(t, f.app, "task", "add", "Dentist", "appointment",
		"--due", "2024-06-11", "--at", "09:00", "--duration", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "Created task Dentist appointment")
	assert.Contains(t, out, "Tue Jun 11 09:00 EDT–09:30")
	assert.Contains(t, out, "preferred time")
	assert.Equal(t, 1, f.cal.Len(testCalendar))
}

func TestTaskAdd_BadInput(t *testing.T) {
	f := testApp(t)

	_, err := executeCmd(t, f.app, "task", "add", "Dentist", "--due", "next tuesday")
	assert.Error(t, err)

	_, err = executeCmd(t, f.app, "task", "add", "Dentist", "--every", "2")
	assert.Error(t, err, "interval without a pattern")

	_, err = executeCmd(t, f.app, "task", "add")
	assert.Error(t, err, "title is required")
	assert.Zero(t, f.cal.Len(testCalendar))
}

func TestTaskListAndShow(t *testing.T) {
	f := testApp(t)
	dentist := f.addTask(t, "Dentist", "--due", "2024-06-11", "--at", "09:00")
	f.addTask(t, "Water", "plants", "--repeat", "weekly")

	out, err := executeCmd(t, f.app, "task", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Dentist")
	assert.Contains(t, out, "Water plants ↻")
	assert.Contains(t, out, dentist.ID[:8])

	out, err = executeCmd(t, f.app, "task", "show", dentist.ID[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "DENTIST")
	assert.Contains(t, out, "2024-06-11")
	assert.Contains(t, out, "09:00")
}

func TestTaskList_Plain(t *testing.T) {
	f := testApp(t)
	f.app.Plain = true
	task := f.addTask(t, "Dentist", "--due", "2024-06-11", "--at", "09:00", "--duration", "30")

	out, err := executeCmd(t, f.app, "task", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, task.ID+"\tDentist\tpending\t2024-06-11\t2024-06-11T09:00:00-04:00\t30", lines[1])
}

func TestTaskEditDoneCancelRm(t *testing.T) {
	f := testApp(t)
	ctx := context.Background()
	task := f.addTask(t, "Dentist", "--due", "2024-06-11", "--at", "09:00")
	prefix := task.ID[:8]

	_, err := executeCmd(t, f.app, "task", "edit", prefix)
	assert.ErrorContains(t, err, "nothing to change")

	out, err := executeCmd(t, f.app, "task", "edit", prefix, "--title", "Dentist (Dr. Li)", "--duration", "45")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated task Dentist (Dr. Li)")
	got, err := f.tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, got.DurationMin)

	out, err = executeCmd(t, f.app, "task", "done", prefix)
	require.NoError(t, err)
	assert.Contains(t, out, "Completed task "+prefix)
	assert.NotContains(t, out, "Next occurrence")

	_, err = executeCmd(t, f.app, "task", "cancel", prefix)
	assert.Error(t, err, "completed tasks cannot be cancelled")

	out, err = executeCmd(t, f.app, "task", "rm", prefix)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted task "+prefix)
	_, err = f.tasks.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTaskDone_RecurringCreatesNext(t *testing.T) {
	f := testApp(t)
	task := f.addTask(t, "Water", "plants", "--due", "2024-06-10", "--repeat", "weekly")

	out, err := executeCmd(t, f.app, "task", "done", task.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Next occurrence")
	assert.Contains(t, out, "due 2024-06-17")
}

func TestTaskCancel_DropsEvent(t *testing.T) {
	f := testApp(t)
	task := f.addTask(t, "Dentist", "--due", "2024-06-11", "--at", "09:00")
	require.Equal(t, 1, f.cal.Len(testCalendar))

	out, err := executeCmd(t, f.app, "task", "cancel", task.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled task Dentist")
	assert.Zero(t, f.cal.Len(testCalendar))
}

func TestTaskDue(t *testing.T) {
	f := testApp(t)
	f.addTask(t, "Soon", "--due", "2024-06-11")
	f.addTask(t, "Later", "--due", "2024-06-30")

	out, err := executeCmd(t, f.app, "task", "due", "--by", "2024-06-12")
	require.NoError(t, err)
	assert.Contains(t, out, "Soon")
	assert.NotContains(t, out, "Later")

	_, err = executeCmd(t, f.app, "task", "due", "--period", "fortnight")
	assert.Error(t, err)
}

func TestResolveTaskID(t *testing.T) {
	f := testApp(t)
	ctx := context.Background()
	for _, id := range []string{"abc111", "abc222", "def333"} {
		task := testutil.NewTestTask("u1", "Task "+id)
		task.ID = id
		require.NoError(t, f.tasks.Create(ctx, task))
	}
	other := testutil.NewTestTask("u2", "Someone else's")
	other.ID = "fff999"
	require.NoError(t, f.tasks.Create(ctx, other))

	id, err := resolveTaskID(ctx, f.app, "def")
	require.NoError(t, err)
	assert.Equal(t, "def333", id)

	id, err = resolveTaskID(ctx, f.app, "abc111")
	require.NoError(t, err)
	assert.Equal(t, "abc111", id)

	_, err = resolveTaskID(ctx, f.app, "abc")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = resolveTaskID(ctx, f.app, "fff")
	assert.ErrorContains(t, err, "not found", "other users' tasks are invisible")

	_, err = resolveTaskID(ctx, f.app, "")
	assert.Error(t, err)
}

func TestRootCmd_UserFlag(t *testing.T) {
	f := testApp(t)
	f.addTask(t, "Mine")

	out, err := executeCmd(t, f.app, "--user", "u2", "task", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks.")
	assert.Equal(t, "u2", f.app.UserID)
}

func TestRootCmd_Boot(t *testing.T) {
	f := testApp(t)
	var booted string
	f.app.Boot = func(cmd *cobra.Command) error {
		booted = cmd.Name()
		return nil
	}

	_, err := executeCmd(t, f.app, "task", "list")
	require.NoError(t, err)
	assert.Equal(t, "list", booted)
}

// --- slots ---

func TestSlots(t *testing.T) {
	f := testApp(t)

	out, err := executeCmd(t, f.app, "slots", "2024-06-11", "--duration", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "FREE 30M SLOTS ON TUE JUN 11")
	assert.Contains(t, out, "11:00–11:30")

	_, err = executeCmd(t, f.app, "slots", "someday")
	assert.Error(t, err)
}

func TestSlotsNext(t *testing.T) {
	f := testApp(t)

	out, err := executeCmd(t, f.app, "slots", "next", "--after", "2024-06-11T09:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Next free slot: Tue Jun 11")
}

// --- reschedule ---

func (f *cliFixture) linked(t *testing.T, userID, title string, start, end time.Time) {
	t.Helper()
	ev, err := f.cal.CreateEvent(context.Background(), testCalendar, domain.NewEvent{Summary: title, Start: start, End: end})
	require.NoError(t, err)
	task := testutil.NewTestTask(userID, title, testutil.WithCalendarEvent(ev.ID, start))
	require.NoError(t, f.tasks.Create(context.Background(), task))
}

func TestReschedule(t *testing.T) {
	f := testApp(t)
	loc := f.ref.Location()
	f.linked(t, "u1", "Run", time.Date(2024, 6, 10, 8, 0, 0, 0, loc), time.Date(2024, 6, 10, 9, 0, 0, 0, loc))

	out, err := executeCmd(t, f.app, "reschedule")
	require.NoError(t, err)
	assert.Contains(t, out, "Run")
	assert.Contains(t, out, "Mon Jun 10 14:00 EDT")

	out, err = executeCmd(t, f.app, "reschedule")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to reschedule.")
}

func TestReschedule_AllUsers(t *testing.T) {
	f := testApp(t)
	loc := f.ref.Location()
	f.linked(t, "u1", "Run", time.Date(2024, 6, 10, 8, 0, 0, 0, loc), time.Date(2024, 6, 10, 9, 0, 0, 0, loc))
	f.linked(t, "u2", "Lunch", time.Date(2024, 6, 10, 13, 0, 0, 0, loc), time.Date(2024, 6, 10, 14, 0, 0, 0, loc))

	out, err := executeCmd(t, f.app, "reschedule", "--all-users")
	require.NoError(t, err)
	assert.Contains(t, out, "U1")
	assert.Contains(t, out, "Run")
	assert.Contains(t, out, "U2")
	assert.Contains(t, out, "Nothing to reschedule.")
}

// --- calendar ---

const importICS = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\nUID:one\r\nDTSTAMP:20240601T000000Z\r\nSUMMARY:Dentist\r\n" +
	"DTSTART:20240610T140000Z\r\nDTEND:20240610T150000Z\r\nEND:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestCalendarImportEventsExport(t *testing.T) {
	f := testApp(t)
	path := filepath.Join(t.TempDir(), "in.ics")
	require.NoError(t, os.WriteFile(path, []byte(importICS), 0o600))

	out, err := executeCmd(t, f.app, "calendar", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 events into primary")
	assert.Equal(t, 1, f.cal.Len(testCalendar))

	out, err = executeCmd(t, f.app, "calendar", "events", "--from", "2024-06-10", "--days", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Mon Jun 10 10:00")
	assert.Contains(t, out, "Dentist")

	out, err = executeCmd(t, f.app, "calendar", "export", "--from", "2024-06-10")
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "SUMMARY:Dentist")

	outPath := filepath.Join(t.TempDir(), "out.ics")
	_, err = executeCmd(t, f.app, "calendar", "export", outPath, "--from", "2024-06-10")
	require.NoError(t, err)
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "SUMMARY:Dentist")
}

func TestCalendarImport_MissingFile(t *testing.T) {
	f := testApp(t)
	_, err := executeCmd(t, f.app, "calendar", "import", filepath.Join(t.TempDir(), "nope.ics"))
	assert.Error(t, err)
}

func TestCalendarEvents_BadDays(t *testing.T) {
	f := testApp(t)
	_, err := executeCmd(t, f.app, "calendar", "events", "--days", "0")
	assert.ErrorContains(t, err, "--days")
}

// --- token ---

func TestToken(t *testing.T) {
	f := testApp(t)
	f.app.JWTSecret = "s3cret"
	f.app.Now = time.Now

	out, err := executeCmd(t, f.app, "--user", "alice", "token", "--ttl", "10m")
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(out), &claims, func(*jwt.Token) (any, error) {
		return []byte("s3cret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "alice", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestToken_NoSecret(t *testing.T) {
	f := testApp(t)
	_, err := executeCmd(t, f.app, "token")
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestTaskImport(t *testing.T) {
	f := testApp(t)
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"defaults": {"duration_min": 30},
		"tasks": [
			{"title": "Dentist", "due_date": "2024-06-11", "preferred_time": "09:00"},
			{"title": "Water plants", "due_date": "2024-06-12", "recurrence": {"pattern": "weekly"}}
		]
	}`), 0o600))

	out, err := executeCmd(t, f.app, "task", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✔ Dentist")
	assert.Contains(t, out, "Tue Jun 11 09:00 EDT")
	assert.Contains(t, out, "✔ Water plants")

	tasks, err := f.tasks.ListByUser(context.Background(), "u1", false)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, 30, tasks[0].DurationMin)
	assert.Equal(t, 2, f.cal.Len(testCalendar))
}

func TestTaskImport_Invalid(t *testing.T) {
	f := testApp(t)
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tasks": [{"title": ""}, {"title": "x", "due_date": "soon"}]}`), 0o600))

	_, err := executeCmd(t, f.app, "task", "import", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 problems")
	assert.Contains(t, err.Error(), "tasks[1].due_date")
	assert.Zero(t, f.cal.Len(testCalendar))
}
