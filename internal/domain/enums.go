package domain

import "fmt"

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskCancelled TaskStatus = "cancelled"
)

// ValidTaskStatuses is the canonical set of accepted task status strings.
var ValidTaskStatuses = map[string]bool{
	"pending": true, "completed": true, "cancelled": true,
}

type RecurrencePattern string

const (
	RecurDaily   RecurrencePattern = "daily"
	RecurWeekly  RecurrencePattern = "weekly"
	RecurMonthly RecurrencePattern = "monthly"
)

// ParseRecurrencePattern validates a pattern string.
func ParseRecurrencePattern(s string) (RecurrencePattern, error) {
	switch RecurrencePattern(s) {
	case RecurDaily, RecurWeekly, RecurMonthly:
		return RecurrencePattern(s), nil
	default:
		return "", fmt.Errorf("recurrence pattern %q must be one of daily, weekly, monthly", s)
	}
}

// PlacementSource records which placement rule produced a schedule decision.
type PlacementSource string

const (
	PlacedPreferredTime   PlacementSource = "preferred_time"
	PlacedDueDateSlot     PlacementSource = "due_date_slot"
	PlacedDueDateFallback PlacementSource = "due_date_fallback"
	PlacedEveningSlot     PlacementSource = "evening_slot"
	PlacedEveningFallback PlacementSource = "evening_fallback"
	PlacedSweep           PlacementSource = "sweep"
)

// DuePeriod selects the window used by due-task queries.
type DuePeriod string

const (
	PeriodNone  DuePeriod = ""
	PeriodToday DuePeriod = "today"
	PeriodWeek  DuePeriod = "week"
	PeriodMonth DuePeriod = "month"
)

// ParseDuePeriod validates a period string. The empty string means no period.
func ParseDuePeriod(s string) (DuePeriod, error) {
	switch DuePeriod(s) {
	case PeriodNone, PeriodToday, PeriodWeek, PeriodMonth:
		return DuePeriod(s), nil
	default:
		return "", fmt.Errorf("period %q must be one of today, week, month", s)
	}
}

// MonthMode selects how the "month" due period is bounded.
type MonthMode string

const (
	// MonthRolling30 spans 30 days either side of the due-by date.
	MonthRolling30 MonthMode = "rolling30"
	// MonthCalendar spans the calendar month containing the due-by date.
	MonthCalendar MonthMode = "calendar"
)

// ParseMonthMode validates a month mode. The empty string selects MonthRolling30.
func ParseMonthMode(s string) (MonthMode, error) {
	switch MonthMode(s) {
	case "", MonthRolling30:
		return MonthRolling30, nil
	case MonthCalendar:
		return MonthCalendar, nil
	default:
		return "", fmt.Errorf("month mode %q must be one of rolling30, calendar", s)
	}
}
