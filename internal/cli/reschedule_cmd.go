package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/solace/internal/cli/formatter"
)

func newRescheduleCmd(app *App) *cobra.Command {
	var allUsers bool

	cmd := &cobra.Command{
		Use:   "reschedule",
		Short: "Move tasks whose calendar slot passed without completion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if !allUsers {
				moved, err := app.Sweeps.RescheduleExpired(cmd.Context(), app.UserID)
				fmt.Fprint(out, formatter.FormatRescheduled(moved, app.location()))
				return err
			}

			results, err := app.Sweeps.SweepAll(cmd.Context())
			var failed int
			for _, r := range results {
				fmt.Fprintln(out, formatter.Header(r.UserID))
				fmt.Fprint(out, formatter.FormatRescheduled(r.Rescheduled, app.location()))
				if r.Err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", formatter.StyleRed.Render("error"), r.UserID, r.Err)
				}
			}
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("sweep failed for %d of %d users", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&allUsers, "all-users", false, "Sweep every user with linked tasks")
	return cmd
}
