package cli

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	usecase "github.com/alexanderramin/solace/internal/app"
	"github.com/alexanderramin/solace/internal/calendar"
	"github.com/alexanderramin/solace/internal/config"
	"github.com/alexanderramin/solace/internal/timezone"
)

// TaskUseCases is everything the task commands call.
type TaskUseCases interface {
	usecase.CreateTaskUseCase
	usecase.TaskQueryUseCase
	usecase.TaskCommandUseCase
}

// BackgroundJob is a scheduled job started alongside the HTTP server.
type BackgroundJob interface {
	Start(ctx context.Context)
	Stop() context.Context
	Next() time.Time
}

// App holds the use cases and settings shared by CLI commands. Boot, when
// set, runs after flag parsing and before any command, and fills the rest.
type App struct {
	Tasks  TaskUseCases
	Sweeps usecase.RescheduleUseCase
	Slots  usecase.SlotsUseCase

	Reminders usecase.ReminderUseCase

	Calendar   calendar.Service
	CalendarID string
	Ref        *timezone.Reference

	UserID string
	// Plain switches list output to unstyled tab-separated rows.
	Plain bool

	// Handler builds the HTTP API for serve.
	Handler  func() (http.Handler, error)
	HTTPAddr string
	Sweeper  BackgroundJob
	Logger   *slog.Logger

	JWTSecret string
	TokenTTL  time.Duration

	Now  func() time.Time
	Boot func(cmd *cobra.Command) error
}

// NewRootCmd creates the top-level "solace" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "solace",
		Short:         "Task scheduler that places work on your calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Boot != nil {
				if err := app.Boot(cmd); err != nil {
					return err
				}
			}
			if f := cmd.Flags().Lookup("user"); f != nil && f.Changed {
				app.UserID = f.Value.String()
			}
			return nil
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newTaskCmd(app),
		newReminderCmd(app),
		newSlotsCmd(app),
		newRescheduleCmd(app),
		newCalendarCmd(app),
		newServeCmd(app),
		newTokenCmd(app),
	)

	return root
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) location() *time.Location {
	if a.Ref == nil {
		return time.Local
	}
	return a.Ref.Location()
}
