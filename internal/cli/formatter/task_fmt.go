package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/timezone"
)

var taskHeaders = []string{"ID", "TITLE", "STATUS", "DUE", "SCHEDULED", "LENGTH"}

// FormatTaskList renders tasks as a table, or tab-separated rows when plain
// is set. Times are shown in loc.
func FormatTaskList(tasks []*domain.Task, now time.Time, loc *time.Location, plain bool) string {
	if len(tasks) == 0 {
		return Dim("No tasks.") + "\n"
	}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		if plain {
			rows = append(rows, []string{
				t.ID,
				t.Title,
				string(t.Status),
				optionalDate(t.DueDate),
				optionalStamp(t.ScheduledAt, loc),
				fmt.Sprint(t.EffectiveDuration()),
			})
			continue
		}
		due := Dim("-")
		if t.DueDate != nil {
			due = DueDateStyled(*t.DueDate, now.In(time.UTC))
		}
		scheduled := Dim("-")
		if t.ScheduledAt != nil {
			scheduled = t.ScheduledAt.In(loc).Format("Jan 2 15:04")
		}
		title := t.Title
		if t.IsRecurring {
			title += " " + StylePurple.Render("↻")
		}
		rows = append(rows, []string{
			TruncID(t.ID),
			title,
			TaskStatusPill(t.Status),
			due,
			scheduled,
			FormatMinutes(t.EffectiveDuration()),
		})
	}
	if plain {
		return RenderPlain(taskHeaders, rows)
	}
	return RenderTable(taskHeaders, rows)
}

// FormatTaskDetail renders the full record of one task in a box.
func FormatTaskDetail(t *domain.Task, loc *time.Location) string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", StyleDim.Render(fmt.Sprintf("%-12s", label)), value)
	}

	line("ID", t.ID)
	line("Status", TaskStatusPill(t.Status))
	if t.Description != "" {
		line("Description", t.Description)
	}
	line("Due", orDash(optionalDate(t.DueDate)))
	if t.PreferredTime != nil {
		pref := t.PreferredTime.String()
		if t.SourceTimezone != "" {
			pref += " " + Dim(t.SourceTimezone)
		}
		line("Preferred", pref)
	}
	line("Length", FormatMinutes(t.EffectiveDuration()))
	if t.IsRecurring && t.Recurrence != nil {
		rec := fmt.Sprintf("every %d × %s", t.Recurrence.EffectiveInterval(), t.Recurrence.Pattern)
		if t.Recurrence.EndDate != nil {
			rec += " until " + timezone.FormatDate(*t.Recurrence.EndDate)
		}
		line("Repeats", rec)
	}
	if t.ScheduledAt != nil {
		line("Scheduled", Clock(t.ScheduledAt.In(loc)))
	}
	if t.CalendarEventID != nil {
		line("Event", Dim(*t.CalendarEventID))
	}
	if t.CompletedAt != nil {
		line("Completed", Clock(t.CompletedAt.In(loc)))
	}
	return RenderBox(t.Title, strings.TrimRight(b.String(), "\n"))
}

// FormatSchedule describes where a new task landed.
func FormatSchedule(d *domain.ScheduleDecision, eventID string, loc *time.Location) string {
	if d == nil {
		return Dim("Not placed on the calendar.") + "\n"
	}
	start := d.StartTime.In(loc)
	end := d.EndTime().In(loc)
	out := fmt.Sprintf("%s %s–%s %s\n", StyleGreen.Render("Scheduled"),
		Clock(start), end.Format("15:04"), Dim("("+SourceBadge(d.Source)+")"))
	if d.RecurrenceRule != nil {
		out += Dim("  "+*d.RecurrenceRule) + "\n"
	}
	if eventID != "" {
		out += Dim("  event "+eventID) + "\n"
	}
	return out
}

// FormatRescheduled lists tasks moved by an expiry sweep.
func FormatRescheduled(moved []domain.Rescheduled, loc *time.Location) string {
	if len(moved) == 0 {
		return Dim("Nothing to reschedule.") + "\n"
	}
	rows := make([][]string, 0, len(moved))
	for _, m := range moved {
		rows = append(rows, []string{TruncID(m.TaskID), m.Title, Clock(m.NewTime.In(loc))})
	}
	return RenderTable([]string{"ID", "TITLE", "NEW TIME"}, rows)
}

// FormatSlots lists free slot starts for one day.
func FormatSlots(day time.Time, durationMin int, slots []time.Time, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("Free %s slots on %s", FormatMinutes(durationMin), day.Format("Mon Jan 2"))))
	b.WriteString("\n")
	if len(slots) == 0 {
		b.WriteString(Dim("None.") + "\n")
		return b.String()
	}
	for _, s := range slots {
		start := s.In(loc)
		end := start.Add(time.Duration(durationMin) * time.Minute)
		fmt.Fprintf(&b, "  %s–%s\n", start.Format("15:04"), end.Format("15:04"))
	}
	return b.String()
}

// FormatEvents renders calendar occurrences as a table.
func FormatEvents(events []*domain.CalendarEvent, ref *timezone.Reference) string {
	if len(events) == 0 {
		return Dim("No events.") + "\n"
	}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		when := e.Start.Date
		if !e.Start.IsAllDay() {
			if start, err := ref.ParseEventTime(e.Start); err == nil {
				when = start.Format("Mon Jan 2 15:04")
			} else {
				when = e.Start.DateTime
			}
		} else {
			when += " " + Dim("all day")
		}
		summary := e.Summary
		if e.RecurringEventID != "" {
			summary += " " + StylePurple.Render("↻")
		}
		rows = append(rows, []string{when, summary, Dim(e.ID)})
	}
	return RenderTable([]string{"START", "SUMMARY", "ID"}, rows)
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return timezone.FormatDate(*t)
}

func optionalStamp(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return Dim("-")
	}
	return s
}
