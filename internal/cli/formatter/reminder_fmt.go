package formatter

import (
	"time"

	"github.com/alexanderramin/solace/internal/domain"
)

var reminderHeaders = []string{"ID", "WHEN", "TITLE", "METHOD", "TASK"}

// FormatReminders renders reminders in the order given. Reminders already
// past now are highlighted.
func FormatReminders(reminders []*domain.Reminder, now time.Time, loc *time.Location, plain bool) string {
	if len(reminders) == 0 {
		return Dim("No reminders.") + "\n"
	}
	rows := make([][]string, 0, len(reminders))
	for _, r := range reminders {
		task := ""
		if r.TaskID != nil {
			task = *r.TaskID
		}
		if plain {
			rows = append(rows, []string{r.ID, r.RemindAt.In(loc).Format(time.RFC3339), r.Title, string(r.Method), task})
			continue
		}
		when := r.RemindAt.In(loc).Format("Mon Jan 2 15:04")
		if !r.RemindAt.After(now) {
			when = StyleYellow.Render(when)
		}
		if task == "" {
			task = Dim("-")
		} else {
			task = TruncID(task)
		}
		rows = append(rows, []string{TruncID(r.ID), when, r.Title, Dim(string(r.Method)), task})
	}
	if plain {
		return RenderPlain(reminderHeaders, rows)
	}
	return RenderTable(reminderHeaders, rows)
}
