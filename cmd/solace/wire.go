package main

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/solace/internal/api"
	"github.com/alexanderramin/solace/internal/calendar"
	"github.com/alexanderramin/solace/internal/cli"
	"github.com/alexanderramin/solace/internal/config"
	"github.com/alexanderramin/solace/internal/db"
	"github.com/alexanderramin/solace/internal/repository"
	"github.com/alexanderramin/solace/internal/scheduler"
	"github.com/alexanderramin/solace/internal/service"
	"github.com/alexanderramin/solace/internal/timezone"
	"github.com/alexanderramin/solace/internal/trigger"
)

// wire loads configuration for cmd and fills app with services. The
// returned func closes the database.
func wire(cmd *cobra.Command, app *cli.App) (func() error, error) {
	configFile, _ := cmd.Flags().GetString("config")
	v, err := config.NewViper(configFile)
	if err != nil {
		return nil, err
	}
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ref, err := timezone.Load(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var useCaseObservers []service.UseCaseObserver
	var callLog io.Writer
	if cfg.Log.UseCases {
		useCaseObservers = append(useCaseObservers, service.NewLogUseCaseObserver(logger))
		callLog = os.Stderr
	}

	cal := newCalendar(cfg, ref, database, callLog)
	tasks := repository.NewSQLiteTaskRepo(database)

	finder := scheduler.NewSlotFinder(scheduler.NewBusyFetcher(cal, cfg.Calendar.ID, ref, logger), ref)
	planner := scheduler.NewPlanner(finder, ref, scheduler.DefaultPlacementPolicy())
	rescheduler := scheduler.NewRescheduler(tasks, cal, cfg.Calendar.ID, finder, ref, scheduler.DefaultSweepPolicy(), logger)

	taskSvc := service.NewTaskService(service.TaskServiceDeps{
		Tasks:      tasks,
		UoW:        db.NewSQLiteUnitOfWork(database),
		Calendar:   cal,
		CalendarID: cfg.Calendar.ID,
		Planner:    planner,
		Ref:        ref,
		MonthMode:  cfg.Due.MonthMode,
	}, useCaseObservers...)

	var users service.UserLister = tasks
	if len(cfg.Sweep.Users) > 0 {
		users = service.FixedUsers(cfg.Sweep.Users)
	}
	sweepSvc := service.NewSweepService(rescheduler, users, useCaseObservers...)
	slotSvc := service.NewSlotService(finder, useCaseObservers...)
	reminderSvc := service.NewReminderService(repository.NewSQLiteReminderRepo(database), tasks, ref, nil, useCaseObservers...)

	app.Tasks = taskSvc
	app.Sweeps = sweepSvc
	app.Slots = slotSvc
	app.Reminders = reminderSvc
	app.Calendar = cal
	app.CalendarID = cfg.Calendar.ID
	app.Ref = ref
	app.UserID = cfg.User
	app.Logger = logger
	app.HTTPAddr = cfg.HTTP.Addr
	app.JWTSecret = cfg.Auth.JWTSecret
	app.TokenTTL = cfg.Auth.TokenTTL
	app.Handler = func() (http.Handler, error) {
		return api.New(api.Config{
			Tasks:     taskSvc,
			Sweeps:    sweepSvc,
			Slots:     slotSvc,
			Reminders: reminderSvc,
			Ref:       ref,
			Auth:      api.AuthConfig{JWTSecret: cfg.Auth.JWTSecret},
		})
	}

	if cfg.Sweep.Cron != "" {
		job := trigger.NewSweepJob(sweepSvc, logger, cfg.Sweep.Timeout)
		t, err := trigger.New(cfg.Sweep.Cron, ref.Location(), job, logger)
		if err != nil {
			database.Close()
			return nil, err
		}
		app.Sweeper = t
	}

	return database.Close, nil
}

func newCalendar(cfg config.Config, ref *timezone.Reference, database *sql.DB, callLog io.Writer) calendar.Service {
	switch cfg.Calendar.Backend {
	case config.BackendGoogle:
		var observer calendar.Observer
		if callLog != nil {
			observer = calendar.NewLogObserver(callLog)
		}
		return calendar.NewGoogleClient(calendar.GoogleConfig{
			Endpoint:  cfg.Calendar.Google.Endpoint,
			TimeoutMs: cfg.Calendar.Google.TimeoutMs,
			TimeZone:  ref.Name(),
		}, calendar.StaticToken(cfg.Calendar.Google.Token), observer)
	case config.BackendMemory:
		return calendar.NewMemory(ref)
	default:
		return calendar.NewLocal(repository.NewSQLiteCalendarEventRepo(database), ref)
	}
}
