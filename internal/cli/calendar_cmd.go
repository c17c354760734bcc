package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/solace/internal/calendar"
	"github.com/alexanderramin/solace/internal/cli/formatter"
	"github.com/alexanderramin/solace/internal/domain"
)

// exporter is implemented by calendars that can list every stored event,
// recurring masters included.
type exporter interface {
	Export(ctx context.Context, calendarID string) ([]*domain.CalendarEvent, error)
}

func newCalendarCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Inspect, import and export the configured calendar",
	}

	cmd.AddCommand(
		newCalendarEventsCmd(app),
		newCalendarImportCmd(app),
		newCalendarExportCmd(app),
	)
	return cmd
}

func newCalendarEventsCmd(app *App) *cobra.Command {
	var from string
	var days int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List calendar occurrences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDay(app.Ref, from, app.now())
			if err != nil {
				return err
			}
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			events, err := app.Calendar.ListEvents(cmd.Context(), app.CalendarID, start, start.AddDate(0, 0, days))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatEvents(events, app.Ref))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "today", "First day (YYYY-MM-DD, today or tomorrow)")
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to list")
	return cmd
}

func newCalendarImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import events from an iCalendar file (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}

			events, err := calendar.ParseICS(r, app.Ref)
			if err != nil {
				return err
			}
			for i, ne := range events {
				if _, err := app.Calendar.CreateEvent(cmd.Context(), app.CalendarID, ne); err != nil {
					return fmt.Errorf("importing event %d (%s): %w", i+1, ne.Summary, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d events into %s\n", len(events), app.CalendarID)
			return nil
		},
	}
}

func newCalendarExportCmd(app *App) *cobra.Command {
	var from string
	var days int

	cmd := &cobra.Command{
		Use:   "export [FILE]",
		Short: "Export events as iCalendar (default stdout)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := exportEvents(cmd, app, from, days)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("creating %s: %w", args[0], err)
				}
				defer f.Close()
				w = f
			}
			return calendar.ExportICS(w, events, app.Ref)
		},
	}

	cmd.Flags().StringVar(&from, "from", "today", "First day for calendars that cannot export everything")
	cmd.Flags().IntVar(&days, "days", 30, "Days to cover for calendars that cannot export everything")
	return cmd
}

// exportEvents prefers a full export; other calendars fall back to the
// occurrences inside a window.
func exportEvents(cmd *cobra.Command, app *App, from string, days int) ([]*domain.CalendarEvent, error) {
	if ex, ok := app.Calendar.(exporter); ok {
		return ex.Export(cmd.Context(), app.CalendarID)
	}
	start, err := parseDay(app.Ref, from, app.now())
	if err != nil {
		return nil, err
	}
	return app.Calendar.ListEvents(cmd.Context(), app.CalendarID, start, start.AddDate(0, 0, max(days, 1)))
}
