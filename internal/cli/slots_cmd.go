package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/solace/internal/cli/formatter"
	"github.com/alexanderramin/solace/internal/domain"
)

func newSlotsCmd(app *App) *cobra.Command {
	var duration, startHour, endHour int

	cmd := &cobra.Command{
		Use:   "slots [DATE]",
		Short: "List free slots on a day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dayArg string
			if len(args) == 1 {
				dayArg = args[0]
			}
			day, err := parseDay(app.Ref, dayArg, app.now())
			if err != nil {
				return err
			}
			if duration <= 0 {
				duration = domain.DefaultDurationMin
			}

			slots, err := app.Slots.FreeSlots(cmd.Context(), day, duration, startHour, endHour)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSlots(day, duration, slots, app.location()))
			return nil
		},
	}

	cmd.Flags().IntVar(&duration, "duration", domain.DefaultDurationMin, "Slot length in minutes")
	cmd.Flags().IntVar(&startHour, "start", 11, "First hour of the search window")
	cmd.Flags().IntVar(&endHour, "end", 21, "Hour the search window closes")

	cmd.AddCommand(newSlotsNextCmd(app))
	return cmd
}

func newSlotsNextCmd(app *App) *cobra.Command {
	var after string
	var duration, maxDays int

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Find the next free slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from := app.now()
			if after != "" {
				var err error
				if from, err = app.Ref.ParseTimestamp(after, ""); err != nil {
					return err
				}
			}

			slot, err := app.Slots.NextSlot(cmd.Context(), from, duration, maxDays)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if slot == nil {
				fmt.Fprintln(out, formatter.Dim(fmt.Sprintf("No free %s slot in the next %d days.", formatter.FormatMinutes(duration), maxDays)))
				return nil
			}
			fmt.Fprintf(out, "Next free slot: %s\n", formatter.Clock(slot.In(app.location())))
			return nil
		},
	}

	cmd.Flags().StringVar(&after, "after", "", "Search from this time (RFC3339 or YYYY-MM-DDTHH:MM, default now)")
	cmd.Flags().IntVar(&duration, "duration", domain.DefaultDurationMin, "Slot length in minutes")
	cmd.Flags().IntVar(&maxDays, "max-days", 7, "Days to search")
	return cmd
}
