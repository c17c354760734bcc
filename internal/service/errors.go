package service

import "errors"

var (
	// ErrInvalidTask is returned when task input fails validation.
	ErrInvalidTask = errors.New("invalid task")

	// ErrTaskNotPending is returned when a completed or cancelled task is
	// asked to change status again.
	ErrTaskNotPending = errors.New("task is not pending")

	// ErrInvalidReminder is returned when reminder input fails validation,
	// including a task reference the user does not own.
	ErrInvalidReminder = errors.New("invalid reminder")
)
