package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	usecase "github.com/alexanderramin/solace/internal/app"
	"github.com/alexanderramin/solace/internal/cli/formatter"
	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/importer"
	"github.com/alexanderramin/solace/internal/timezone"
)

// resolveTaskID accepts a full task ID or an unambiguous prefix of one.
func resolveTaskID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("task ID is required")
	}

	tasks, err := app.Tasks.List(ctx, app.UserID, true)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, t := range tasks {
		if t.ID == input {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, strings.ToLower(input)) {
			matches = append(matches, t.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("task not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("task ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	cmd.AddCommand(
		newTaskAddCmd(app),
		newTaskListCmd(app),
		newTaskDueCmd(app),
		newTaskShowCmd(app),
		newTaskEditCmd(app),
		newTaskDoneCmd(app),
		newTaskCancelCmd(app),
		newTaskRemoveCmd(app),
		newTaskImportCmd(app),
	)

	return cmd
}

func newTaskAddCmd(app *App) *cobra.Command {
	var in usecase.TaskInput

	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Create a task and place it on the calendar",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = strings.Join(args, " ")
			t, err := in.NewTask(app.UserID)
			if err != nil {
				return err
			}

			res, err := app.Tasks.Create(cmd.Context(), t)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created task %s %s\n", formatter.Bold(res.Task.Title), formatter.TruncID(res.Task.ID))
			fmt.Fprint(out, formatter.FormatSchedule(&res.Decision, res.EventID, app.location()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "Longer description")
	cmd.Flags().StringVar(&in.DueDate, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.PreferredTime, "at", "", "Preferred start time (HH:MM)")
	cmd.Flags().StringVar(&in.SourceTimezone, "tz", "", "Timezone the preferred time is given in")
	cmd.Flags().IntVar(&in.DurationMin, "duration", 0, "Length in minutes (default 60)")
	cmd.Flags().StringVar(&in.Recurrence, "repeat", "", "Recurrence: daily, weekly or monthly")
	cmd.Flags().IntVar(&in.RecurrenceInterval, "every", 0, "Repeat every N periods")
	cmd.Flags().StringVar(&in.RecurrenceEndDate, "until", "", "Last date a recurrence may fall on (YYYY-MM-DD)")

	return cmd
}

func newTaskListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := app.Tasks.List(cmd.Context(), app.UserID, all)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTaskList(tasks, app.now(), app.location(), app.Plain))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed and cancelled tasks")
	return cmd
}

func newTaskDueCmd(app *App) *cobra.Command {
	var by, period string

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List tasks due by a date, optionally within a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := domain.ParseDuePeriod(strings.ToLower(period))
			if err != nil {
				return err
			}
			req := usecase.DueRequest{Period: p}
			if by != "" {
				if req.DueBy, err = app.Ref.ParseDate(by); err != nil {
					return err
				}
			}

			tasks, err := app.Tasks.ListDue(cmd.Context(), app.UserID, req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTaskList(tasks, app.now(), app.location(), app.Plain))
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "Due-by date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&period, "period", "", "Window: today, week or month")
	return cmd
}

func newTaskShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveTaskID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			t, err := app.Tasks.Get(cmd.Context(), app.UserID, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTaskDetail(t, app.location()))
			return nil
		},
	}
}

func newTaskEditCmd(app *App) *cobra.Command {
	var title, description, due, at, tz string
	var duration int

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a task's fields (the calendar event stays put)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch usecase.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("due") {
				patch.DueDate = &due
			}
			if flags.Changed("at") {
				patch.PreferredTime = &at
			}
			if flags.Changed("tz") {
				patch.SourceTimezone = &tz
			}
			if flags.Changed("duration") {
				patch.DurationMin = &duration
			}
			if patch == (usecase.TaskPatch{}) {
				return fmt.Errorf("nothing to change: pass at least one flag")
			}

			id, err := resolveTaskID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			t, err := app.Tasks.Update(cmd.Context(), app.UserID, id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s %s\n", formatter.Bold(t.Title), formatter.TruncID(t.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD, empty clears)")
	cmd.Flags().StringVar(&at, "at", "", "New preferred time (HH:MM, empty clears)")
	cmd.Flags().StringVar(&tz, "tz", "", "New source timezone (empty clears)")
	cmd.Flags().IntVar(&duration, "duration", 0, "New length in minutes")
	return cmd
}

func newTaskDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Complete a task; recurring tasks get their next occurrence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveTaskID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			res, err := app.Tasks.Complete(cmd.Context(), app.UserID, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Completed task %s\n", formatter.TruncID(res.CompletedTaskID))
			if res.CreatedNextOccurrence() {
				next := res.NextOccurrence
				due := "-"
				if next.DueDate != nil {
					due = timezone.FormatDate(*next.DueDate)
				}
				fmt.Fprintf(out, "Next occurrence %s due %s\n", formatter.TruncID(next.ID), due)
			}
			return nil
		},
	}
}

func newTaskCancelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a task and remove its calendar event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveTaskID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			t, err := app.Tasks.Cancel(cmd.Context(), app.UserID, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled task %s %s\n", formatter.Bold(t.Title), formatter.TruncID(t.ID))
			return nil
		},
	}
}

func newTaskRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveTaskID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			if err := app.Tasks.Delete(cmd.Context(), app.UserID, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", formatter.TruncID(id))
			return nil
		},
	}
}

func newTaskImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create tasks in bulk from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := importer.LoadImportSchema(args[0])
			if err != nil {
				return err
			}
			if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
				return fmt.Errorf("import file has %d problems:\n%w", len(errs), errors.Join(errs...))
			}

			out := cmd.OutOrStdout()
			var failed int
			for _, in := range importer.Convert(schema) {
				t, err := in.NewTask(app.UserID)
				if err == nil {
					var res *usecase.CreateTaskResult
					if res, err = app.Tasks.Create(cmd.Context(), t); err == nil {
						fmt.Fprintf(out, "%s %s %s %s\n", formatter.StyleGreen.Render("✔"), res.Task.Title,
							formatter.TruncID(res.Task.ID), formatter.Clock(res.Decision.StartTime.In(app.location())))
						continue
					}
				}
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", formatter.StyleRed.Render("✖"), in.Title, err)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d tasks failed to import", failed, len(schema.Tasks))
			}
			return nil
		},
	}
}

// parseDay accepts "today", "tomorrow" or a YYYY-MM-DD date.
func parseDay(ref *timezone.Reference, s string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return ref.StartOfDay(now), nil
	case "tomorrow":
		return ref.StartOfDay(now).AddDate(0, 0, 1), nil
	default:
		return ref.ParseDate(s)
	}
}
