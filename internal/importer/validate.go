package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/solace/internal/domain"
)

const dateLayout = "2006-01-02"

// ValidateImportSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	errs = append(errs, validateDefaults(schema.Defaults)...)

	if len(schema.Tasks) == 0 {
		errs = append(errs, fmt.Errorf("tasks: at least one task is required"))
	}

	refs := make(map[string]bool)
	for i := range schema.Tasks {
		t := &schema.Tasks[i]
		label := taskLabel(i, t)
		if t.Ref != "" {
			if refs[t.Ref] {
				errs = append(errs, fmt.Errorf("%s: duplicate ref %q", label, t.Ref))
			}
			refs[t.Ref] = true
		}
		errs = append(errs, validateTask(label, t)...)
	}

	return errs
}

func validateDefaults(d *DefaultsImport) []error {
	if d == nil {
		return nil
	}
	var errs []error
	errs = append(errs, validateDuration("defaults.duration_min", d.DurationMin)...)
	errs = append(errs, validateTimeOfDay("defaults.preferred_time", d.PreferredTime)...)
	errs = append(errs, validateZone("defaults.source_timezone", d.SourceTimezone)...)
	return errs
}

func validateTask(label string, t *TaskImport) []error {
	var errs []error

	if strings.TrimSpace(t.Title) == "" {
		errs = append(errs, fmt.Errorf("%s.title is required", label))
	}
	due, dueErrs := validateDate(label+".due_date", t.DueDate)
	errs = append(errs, dueErrs...)
	errs = append(errs, validateTimeOfDay(label+".preferred_time", t.PreferredTime)...)
	errs = append(errs, validateZone(label+".source_timezone", t.SourceTimezone)...)
	errs = append(errs, validateDuration(label+".duration_min", t.DurationMin)...)

	if r := t.Recurrence; r != nil {
		if _, err := domain.ParseRecurrencePattern(strings.ToLower(r.Pattern)); err != nil {
			errs = append(errs, fmt.Errorf("%s.recurrence.pattern: invalid value %q", label, r.Pattern))
		}
		if r.Interval < 0 {
			errs = append(errs, fmt.Errorf("%s.recurrence.interval must not be negative", label))
		}
		end, endErrs := validateDate(label+".recurrence.end_date", r.EndDate)
		errs = append(errs, endErrs...)
		if due != nil && end != nil && end.Before(*due) {
			errs = append(errs, fmt.Errorf("%s.recurrence.end_date %q must not be before due_date %q", label, *r.EndDate, *t.DueDate))
		}
	}

	return errs
}

func validateDate(field string, s *string) (*time.Time, []error) {
	if s == nil {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, []error{fmt.Errorf("%s: invalid date format %q (expected YYYY-MM-DD)", field, *s)}
	}
	return &d, nil
}

func validateTimeOfDay(field string, s *string) []error {
	if s == nil {
		return nil
	}
	if _, err := domain.ParseTimeOfDay(*s); err != nil {
		return []error{fmt.Errorf("%s: invalid time %q (expected HH:MM)", field, *s)}
	}
	return nil
}

func validateZone(field string, s *string) []error {
	if s == nil || *s == "" {
		return nil
	}
	if _, err := time.LoadLocation(*s); err != nil {
		return []error{fmt.Errorf("%s: unknown timezone %q", field, *s)}
	}
	return nil
}

func validateDuration(field string, n *int) []error {
	if n != nil && *n < 0 {
		return []error{fmt.Errorf("%s must not be negative", field)}
	}
	return nil
}

func taskLabel(i int, t *TaskImport) string {
	if t.Ref != "" {
		return fmt.Sprintf("tasks[%s]", t.Ref)
	}
	return fmt.Sprintf("tasks[%d]", i)
}
