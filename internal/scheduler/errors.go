package scheduler

import (
	"errors"
	"fmt"
)

// ErrCalendarUnavailable is returned when busy time cannot be fetched. The
// underlying cause is wrapped alongside it.
var ErrCalendarUnavailable = errors.New("calendar unavailable")

// OrphanedEventError reports an external event that was created but could
// not be linked to its task. The event exists on the calendar with no
// local reference to it.
type OrphanedEventError struct {
	TaskID  string
	EventID string
	Err     error
}

func (e *OrphanedEventError) Error() string {
	return fmt.Sprintf("calendar event %s created but not linked to task %s: %v", e.EventID, e.TaskID, e.Err)
}

func (e *OrphanedEventError) Unwrap() error { return e.Err }
