package importer

import (
	"github.com/alexanderramin/solace/internal/app"
)

// Convert transforms a validated ImportSchema into task inputs with the
// defaults applied. Call ValidateImportSchema first; Convert assumes the
// schema is valid.
func Convert(schema *ImportSchema) []app.TaskInput {
	d := schema.Defaults
	if d == nil {
		d = &DefaultsImport{}
	}

	inputs := make([]app.TaskInput, 0, len(schema.Tasks))
	for _, t := range schema.Tasks {
		in := app.TaskInput{
			Title:          t.Title,
			Description:    t.Description,
			DueDate:        deref(t.DueDate),
			PreferredTime:  deref(firstSet(t.PreferredTime, d.PreferredTime)),
			SourceTimezone: deref(firstSet(t.SourceTimezone, d.SourceTimezone)),
		}
		if n := firstSet(t.DurationMin, d.DurationMin); n != nil {
			in.DurationMin = *n
		}
		if r := t.Recurrence; r != nil {
			in.Recurrence = r.Pattern
			in.RecurrenceInterval = r.Interval
			in.RecurrenceEndDate = deref(r.EndDate)
		}
		inputs = append(inputs, in)
	}
	return inputs
}

func firstSet[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
