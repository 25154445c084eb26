// Package task defines the task record the scoring engine operates on and
// the per-record validation contract. Records arrive from arbitrary callers
// (HTTP bodies, fixtures, database projections) with optional and
// loosely-typed fields; decoding is deliberately lenient so that a bad field
// surfaces as a validation error, never as a decode failure.
package task

import (
	"encoding/json"
	"strconv"
	"time"
)

// DateLayout is the only accepted due-date format.
const DateLayout = "2006-01-02"

// Defaults applied during scoring when the field is absent.
const (
	DefaultEstimatedHours = 8.0
	DefaultImportance     = 5
)

// Task is a single to-do record. Pointer fields distinguish "absent" from
// a zero value. IDs and dependency references are normalized to strings on
// decode so that numeric and string identifiers compare consistently within
// one call.
type Task struct {
	ID             string
	Title          *string
	DueDate        string // raw YYYY-MM-DD string; empty means no deadline
	EstimatedHours *float64
	Importance     *int
	Dependencies   []string

	// Decode-time type problems, reported by Validate.
	badImportance bool
	badHours      bool
	badDeps       bool
}

// New returns a task with the given title set. Remaining fields start absent.
func New(title string) Task {
	return Task{Title: &title}
}

// UnmarshalJSON decodes a task from a loosely-typed JSON object. Numeric
// strings are accepted for importance and estimated_hours; fields present
// with an uncoercible type are recorded and surfaced by Validate.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Task{}

	if v, ok := raw["id"]; ok {
		if id, ok := scalarString(v); ok {
			t.ID = id
		}
	}

	if v, ok := raw["title"]; ok {
		title := ""
		if s, ok := scalarString(v); ok {
			title = s
		}
		t.Title = &title
	}

	if v, ok := raw["due_date"]; ok {
		var s string
		// Only strings carry a due date; null and other types mean none.
		if err := json.Unmarshal(v, &s); err == nil {
			t.DueDate = s
		}
	}

	if v, ok := raw["importance"]; ok && !isNull(v) {
		if imp, ok := coerceInt(v); ok {
			t.Importance = &imp
		} else {
			t.badImportance = true
		}
	}

	if v, ok := raw["estimated_hours"]; ok && !isNull(v) {
		if h, ok := coerceFloat(v); ok {
			t.EstimatedHours = &h
		} else {
			t.badHours = true
		}
	}

	if v, ok := raw["dependencies"]; ok && !isNull(v) {
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err != nil {
			t.badDeps = true
		} else {
			t.Dependencies = make([]string, 0, len(items))
			for _, item := range items {
				if dep, ok := scalarString(item); ok {
					t.Dependencies = append(t.Dependencies, dep)
				}
			}
		}
	}

	return nil
}

// MarshalJSON emits only the fields that are present on the record.
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.JSONMap())
}

// JSONMap returns the record's present fields as a generic map, the shape
// analyzed results are built from.
func (t Task) JSONMap() map[string]any {
	m := make(map[string]any, 6)
	if t.ID != "" {
		m["id"] = t.ID
	}
	if t.Title != nil {
		m["title"] = *t.Title
	}
	if t.DueDate != "" {
		m["due_date"] = t.DueDate
	}
	if t.EstimatedHours != nil {
		m["estimated_hours"] = *t.EstimatedHours
	}
	if t.Importance != nil {
		m["importance"] = *t.Importance
	}
	if t.Dependencies != nil {
		m["dependencies"] = t.Dependencies
	}
	return m
}

// ParseDue returns the due date as a time, or nil when the task has none or
// the raw string does not parse. Format problems are Validate's concern.
func (t Task) ParseDue() *time.Time {
	if t.DueDate == "" {
		return nil
	}
	d, err := time.Parse(DateLayout, t.DueDate)
	if err != nil {
		return nil
	}
	return &d
}

// EstimatedHoursOrDefault returns the estimate, defaulting to 8 hours.
func (t Task) EstimatedHoursOrDefault() float64 {
	if t.EstimatedHours != nil {
		return *t.EstimatedHours
	}
	return DefaultEstimatedHours
}

// ImportanceOrDefault returns the importance, defaulting to 5.
func (t Task) ImportanceOrDefault() int {
	if t.Importance != nil {
		return *t.Importance
	}
	return DefaultImportance
}

// TitleOr returns the title, or fallback when absent.
func (t Task) TitleOr(fallback string) string {
	if t.Title != nil {
		return *t.Title
	}
	return fallback
}

// scalarString renders a JSON string or number as its canonical string form.
// Other types (objects, arrays, booleans, null) report false.
func scalarString(v json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, true
	}
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

// coerceInt accepts a JSON number (truncated toward zero) or a string
// holding a base-10 integer.
func coerceInt(v json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return int(f), true
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
	}
	return 0, false
}

// coerceFloat accepts a JSON number or a string holding a number.
func coerceFloat(v json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func isNull(v json.RawMessage) bool {
	return string(v) == "null"
}
