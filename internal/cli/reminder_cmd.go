package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	usecase "github.com/alexanderramin/solace/internal/app"
	"github.com/alexanderramin/solace/internal/cli/formatter"
	"github.com/alexanderramin/solace/internal/domain"
)

// farFuture bounds the due listing used to resolve reminder ID prefixes.
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

func newReminderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reminder",
		Aliases: []string{"rem"},
		Short:   "Manage reminders",
	}
	cmd.AddCommand(
		newReminderAddCmd(app),
		newReminderDueCmd(app),
		newReminderRemoveCmd(app),
	)
	return cmd
}

func newReminderAddCmd(app *App) *cobra.Command {
	var in usecase.ReminderInput
	var at, task string

	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Create a reminder, optionally tied to a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when, err := parseInstant(app, at)
			if err != nil {
				return err
			}
			in.Title = strings.Join(args, " ")
			in.RemindAt = when
			if task != "" {
				if in.TaskID, err = resolveTaskID(cmd.Context(), app, task); err != nil {
					return err
				}
			}

			r, err := app.Reminders.Create(cmd.Context(), app.UserID, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminder %s %s set for %s\n",
				formatter.Bold(r.Title), formatter.TruncID(r.ID), formatter.Clock(r.RemindAt.In(app.location())))
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "When to remind: HH:MM today, YYYY-MM-DD HH:MM, or RFC3339")
	cmd.Flags().StringVar(&task, "task", "", "Task ID or prefix the reminder belongs to")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "Longer description")
	cmd.Flags().StringVar(&in.Method, "method", "", "Delivery method: push, email or sms (default push)")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newReminderDueCmd(app *App) *cobra.Command {
	var by string

	cmd := &cobra.Command{
		Use:     "due",
		Aliases: []string{"ls"},
		Short:   "List reminders due by an instant (default now), earliest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var dueBy time.Time
			if by != "" {
				var err error
				if dueBy, err = parseDueBy(app, by); err != nil {
					return err
				}
			}
			due, err := app.Reminders.Due(cmd.Context(), app.UserID, dueBy)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatReminders(due, app.now(), app.location(), app.Plain))
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "today, tomorrow, a date (end of that day) or a timestamp")
	return cmd
}

func newReminderRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Delete a reminder",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveReminderID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			if err := app.Reminders.Delete(cmd.Context(), app.UserID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted reminder %s\n", formatter.TruncID(id))
			return nil
		},
	}
}

// resolveReminderID accepts a full reminder ID or an unambiguous prefix.
func resolveReminderID(ctx context.Context, app *App, input string) (string, error) {
	all, err := app.Reminders.Due(ctx, app.UserID, farFuture)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, r := range all {
		if r.ID == input {
			return r.ID, nil
		}
		if strings.HasPrefix(r.ID, strings.ToLower(input)) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("reminder not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("reminder ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// parseInstant reads a bare HH:MM as that time today in the reference zone.
func parseInstant(app *App, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if tod, err := domain.ParseTimeOfDay(s); err == nil {
		return tod.On(app.now().In(app.location()), app.location()), nil
	}
	return app.Ref.ParseTimestamp(s, "")
}

// parseDueBy reads day words and dates as the end of that day.
func parseDueBy(app *App, s string) (time.Time, error) {
	if day, err := parseDay(app.Ref, s, app.now()); err == nil {
		return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}
	return app.Ref.ParseTimestamp(s, "")
}
