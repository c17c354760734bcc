package app

import (
	"strings"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
)

// ReminderInput is a reminder as entered by a user. RemindAt is already
// resolved to an instant by the caller.
type ReminderInput struct {
	TaskID      string
	Title       string
	Description string
	RemindAt    time.Time
	Method      string
}

// NewReminder parses the input into a reminder owned by userID. The id and
// creation time are left for the service to assign.
func (in ReminderInput) NewReminder(userID string) (*domain.Reminder, error) {
	method, err := domain.ParseReminderMethod(in.Method)
	if err != nil {
		return nil, err
	}
	r := &domain.Reminder{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		RemindAt:    in.RemindAt,
		Method:      method,
	}
	if id := strings.TrimSpace(in.TaskID); id != "" {
		r.TaskID = &id
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
