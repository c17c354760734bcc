package api

import (
	"time"

	"github.com/alexanderramin/solace/internal/app"
	"github.com/alexanderramin/solace/internal/domain"
	"github.com/alexanderramin/solace/internal/timezone"
)

type CreateTaskRequest struct {
	Title              string `json:"title" minLength:"1" example:"Evening walk"`
	Description        string `json:"description,omitempty"`
	DueDate            string `json:"due_date,omitempty" example:"2024-06-10"`
	PreferredTime      string `json:"preferred_time,omitempty" example:"14:00"`
	SourceTimezone     string `json:"source_timezone,omitempty" example:"Europe/Paris"`
	DurationMin        int    `json:"duration_min,omitempty" minimum:"0" example:"45"`
	Recurrence         string `json:"recurrence_pattern,omitempty" enum:"daily,weekly,monthly"`
	RecurrenceInterval int    `json:"recurrence_interval,omitempty" minimum:"0"`
	RecurrenceEndDate  string `json:"recurrence_end_date,omitempty" example:"2024-08-01"`
}

func (r CreateTaskRequest) input() app.TaskInput {
	return app.TaskInput{
		Title:              r.Title,
		Description:        r.Description,
		DueDate:            r.DueDate,
		PreferredTime:      r.PreferredTime,
		SourceTimezone:     r.SourceTimezone,
		DurationMin:        r.DurationMin,
		Recurrence:         r.Recurrence,
		RecurrenceInterval: r.RecurrenceInterval,
		RecurrenceEndDate:  r.RecurrenceEndDate,
	}
}

// UpdateTaskRequest fields are optional; an empty string clears a field.
type UpdateTaskRequest struct {
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	DueDate        *string `json:"due_date,omitempty"`
	PreferredTime  *string `json:"preferred_time,omitempty"`
	SourceTimezone *string `json:"source_timezone,omitempty"`
	DurationMin    *int    `json:"duration_min,omitempty" minimum:"0"`
}

func (r UpdateTaskRequest) patch() app.TaskPatch {
	return app.TaskPatch{
		Title:          r.Title,
		Description:    r.Description,
		DueDate:        r.DueDate,
		PreferredTime:  r.PreferredTime,
		SourceTimezone: r.SourceTimezone,
		DurationMin:    r.DurationMin,
	}
}

type TaskResponse struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	Status             string     `json:"status"`
	DueDate            string     `json:"due_date,omitempty"`
	PreferredTime      string     `json:"preferred_time,omitempty"`
	SourceTimezone     string     `json:"source_timezone,omitempty"`
	DurationMin        int        `json:"duration_min"`
	IsRecurring        bool       `json:"is_recurring"`
	RecurrencePattern  string     `json:"recurrence_pattern,omitempty"`
	RecurrenceInterval int        `json:"recurrence_interval,omitempty"`
	RecurrenceEndDate  string     `json:"recurrence_end_date,omitempty"`
	CalendarEventID    string     `json:"calendar_event_id,omitempty"`
	ScheduledAt        *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

type ScheduleResponse struct {
	StartTime      time.Time `json:"start_time"`
	DurationMin    int       `json:"duration_min"`
	RecurrenceRule string    `json:"recurrence_rule,omitempty"`
	Source         string    `json:"source"`
	EventID        string    `json:"event_id"`
}

type CreateTaskResponse struct {
	Task     TaskResponse     `json:"task"`
	Schedule ScheduleResponse `json:"schedule"`
}

type CompleteTaskResponse struct {
	CompletedTaskID       string `json:"completed_task_id"`
	CreatedNextOccurrence bool   `json:"created_next_occurrence"`
	NextTaskID            string `json:"next_task_id,omitempty"`
}

type RescheduledItem struct {
	TaskID  string    `json:"task_id"`
	Title   string    `json:"title"`
	NewTime time.Time `json:"new_time"`
}

type RescheduleResponse struct {
	Rescheduled []RescheduledItem `json:"rescheduled"`
	Errors      []string          `json:"errors"`
}

type SlotsResponse struct {
	Date        string      `json:"date"`
	DurationMin int         `json:"duration_min"`
	Slots       []time.Time `json:"slots"`
}

type NextSlotResponse struct {
	Slot *time.Time `json:"slot"`
}

func toTaskResponse(t *domain.Task, ref *timezone.Reference) TaskResponse {
	out := TaskResponse{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		SourceTimezone: t.SourceTimezone,
		DurationMin:    t.DurationMin,
		IsRecurring:    t.IsRecurring,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		CompletedAt:    t.CompletedAt,
	}
	if t.DueDate != nil {
		out.DueDate = timezone.FormatDate(*t.DueDate)
	}
	if t.PreferredTime != nil {
		out.PreferredTime = t.PreferredTime.String()
	}
	if t.Recurrence != nil {
		out.RecurrencePattern = string(t.Recurrence.Pattern)
		out.RecurrenceInterval = t.Recurrence.EffectiveInterval()
		if t.Recurrence.EndDate != nil {
			out.RecurrenceEndDate = timezone.FormatDate(*t.Recurrence.EndDate)
		}
	}
	if t.HasCalendarLink() {
		out.CalendarEventID = *t.CalendarEventID
	}
	if t.ScheduledAt != nil {
		at := ref.Localize(*t.ScheduledAt)
		out.ScheduledAt = &at
	}
	return out
}

func toTaskResponses(tasks []*domain.Task, ref *timezone.Reference) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t, ref))
	}
	return out
}

func toScheduleResponse(res *app.CreateTaskResult, ref *timezone.Reference) ScheduleResponse {
	out := ScheduleResponse{
		StartTime:   ref.Localize(res.Decision.StartTime),
		DurationMin: res.Decision.DurationMin,
		Source:      string(res.Decision.Source),
		EventID:     res.EventID,
	}
	if res.Decision.RecurrenceRule != nil {
		out.RecurrenceRule = *res.Decision.RecurrenceRule
	}
	return out
}

type CreateReminderRequest struct {
	TaskID      string `json:"task_id,omitempty"`
	Title       string `json:"title" minLength:"1" example:"Take meds"`
	Description string `json:"description,omitempty"`
	RemindAt    string `json:"remind_at" minLength:"1" example:"2024-06-10T21:00:00-04:00" doc:"RFC3339, or a local time in the reference zone"`
	Method      string `json:"method,omitempty" example:"push" doc:"push, email or sms; defaults to push"`
}

type ReminderResponse struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	RemindAt    time.Time `json:"remind_at"`
	Method      string    `json:"method"`
	CreatedAt   time.Time `json:"created_at"`
}

func toReminderResponse(r *domain.Reminder, ref *timezone.Reference) ReminderResponse {
	out := ReminderResponse{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		RemindAt:    ref.Localize(r.RemindAt),
		Method:      string(r.Method),
		CreatedAt:   r.CreatedAt,
	}
	if r.TaskID != nil {
		out.TaskID = *r.TaskID
	}
	return out
}
