package domain

import "time"

// ScheduleDecision is the output of the placement policy and the input to
// the calendar create call.
type ScheduleDecision struct {
	StartTime      time.Time
	DurationMin    int
	RecurrenceRule *string
	Source         PlacementSource
}

// EndTime is StartTime plus the decision's duration.
func (d ScheduleDecision) EndTime() time.Time {
	return d.StartTime.Add(time.Duration(d.DurationMin) * time.Minute)
}

// Rescheduled reports one task moved by an expiry sweep.
type Rescheduled struct {
	TaskID  string
	Title   string
	NewTime time.Time
}
