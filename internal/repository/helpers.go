package repository

import (
	"database/sql"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
)

// Columns are TEXT: dates as dateLayout, instants as UTC RFC3339 so they
// compare lexically, times of day as "15:04".
const dateLayout = "2006-01-02"

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func instantArg(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// timeArg returns nil for a nil pointer so the column stores NULL.
func timeArg(t *time.Time, layout string) any {
	switch {
	case t == nil:
		return nil
	case layout == time.RFC3339:
		return instantArg(*t)
	default:
		return t.Format(layout)
	}
}

func textArg(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func stringArg(s *string) any {
	if s == nil {
		return nil
	}
	return textArg(*s)
}

func timeOfDayArg(t *domain.TimeOfDay) any {
	if t == nil {
		return nil
	}
	return t.String()
}

func flagArg(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanFlag(i int) bool { return i != 0 }

// The scan helpers treat NULL, empty and malformed values alike: the field is
// left unset.

func scanTime(s sql.NullString, layout string) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	if t, err := time.Parse(layout, s.String); err == nil {
		return &t
	}
	return nil
}

func scanString(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	return &s.String
}

func scanTimeOfDay(s sql.NullString) *domain.TimeOfDay {
	if !s.Valid || s.String == "" {
		return nil
	}
	if tod, err := domain.ParseTimeOfDay(s.String); err == nil {
		return &tod
	}
	return nil
}
