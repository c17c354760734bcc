// Package importer reads bulk task files. A file lists tasks plus optional
// defaults that cascade onto every task that leaves a field unset.
package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ImportSchema is the top-level JSON structure for task import.
type ImportSchema struct {
	Defaults *DefaultsImport `json:"defaults,omitempty"`
	Tasks    []TaskImport    `json:"tasks"`
}

// DefaultsImport defines file-wide defaults that cascade to tasks.
type DefaultsImport struct {
	DurationMin    *int    `json:"duration_min,omitempty"`
	PreferredTime  *string `json:"preferred_time,omitempty"`
	SourceTimezone *string `json:"source_timezone,omitempty"`
}

// TaskImport defines one task in the import file. Ref only labels the entry
// in error messages.
type TaskImport struct {
	Ref            string            `json:"ref,omitempty"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	DueDate        *string           `json:"due_date,omitempty"`
	PreferredTime  *string           `json:"preferred_time,omitempty"`
	SourceTimezone *string           `json:"source_timezone,omitempty"`
	DurationMin    *int              `json:"duration_min,omitempty"`
	Recurrence     *RecurrenceImport `json:"recurrence,omitempty"`
}

// RecurrenceImport defines how an imported task repeats.
type RecurrenceImport struct {
	Pattern  string  `json:"pattern"`
	Interval int     `json:"interval,omitempty"`
	EndDate  *string `json:"end_date,omitempty"`
}

// LoadImportSchema reads and parses a task import JSON file.
func LoadImportSchema(path string) (*ImportSchema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseImportSchema(f)
}

// ParseImportSchema decodes an import document. Unknown fields are rejected
// so typos surface instead of silently dropping data.
func ParseImportSchema(r io.Reader) (*ImportSchema, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var schema ImportSchema
	if err := dec.Decode(&schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
