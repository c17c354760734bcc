package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type ReminderMethod string

const (
	RemindPush  ReminderMethod = "push"
	RemindEmail ReminderMethod = "email"
	RemindSMS   ReminderMethod = "sms"
)

// ParseReminderMethod validates a delivery method. The empty string selects
// RemindPush.
func ParseReminderMethod(s string) (ReminderMethod, error) {
	switch m := ReminderMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return RemindPush, nil
	case RemindPush, RemindEmail, RemindSMS:
		return m, nil
	default:
		return "", fmt.Errorf("reminder method %q must be one of push, email, sms", s)
	}
}

// Reminder is a nudge at a fixed instant, optionally tied to a task. Delivery
// is left to whoever polls the due list.
type Reminder struct {
	ID          string
	UserID      string
	TaskID      *string
	Title       string
	Description string
	RemindAt    time.Time
	Method      ReminderMethod
	CreatedAt   time.Time
}

func (r *Reminder) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("reminder title is required")
	}
	if r.UserID == "" {
		return errors.New("reminder user is required")
	}
	if r.RemindAt.IsZero() {
		return errors.New("reminder time is required")
	}
	if _, err := ParseReminderMethod(string(r.Method)); err != nil {
		return err
	}
	return nil
}
