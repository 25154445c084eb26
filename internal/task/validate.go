package task

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid is the base error wrapped by every validation failure.
var ErrInvalid = errors.New("invalid task")

// Validate checks the record's structural and range constraints in a fixed
// order, returning the first failure:
//
//  1. title must be present
//  2. importance, when present, must be an integer in [1, 10]
//  3. estimated_hours, when present, must be a non-negative number
//  4. due_date, when present as a string, must parse as YYYY-MM-DD
//  5. dependencies, when present, must be a list
//
// A failing task is not fatal to batch processing: scoring converts the
// error into a zero score with an explanatory message.
func (t Task) Validate() error {
	if t.Title == nil {
		return fmt.Errorf("%w: Missing required field: title", ErrInvalid)
	}

	if t.badImportance {
		return fmt.Errorf("%w: Importance must be an integer", ErrInvalid)
	}
	if t.Importance != nil {
		if imp := *t.Importance; imp < 1 || imp > 10 {
			return fmt.Errorf("%w: Importance must be between 1 and 10, got %d", ErrInvalid, imp)
		}
	}

	if t.badHours {
		return fmt.Errorf("%w: Estimated hours must be a number", ErrInvalid)
	}
	if t.EstimatedHours != nil && *t.EstimatedHours < 0 {
		return fmt.Errorf("%w: Estimated hours must be non-negative", ErrInvalid)
	}

	if t.DueDate != "" {
		if _, err := time.Parse(DateLayout, t.DueDate); err != nil {
			return fmt.Errorf("%w: Invalid date format: %s. Expected YYYY-MM-DD", ErrInvalid, t.DueDate)
		}
	}

	if t.badDeps {
		return fmt.Errorf("%w: Dependencies must be a list", ErrInvalid)
	}

	return nil
}

// ValidationMessage strips the "invalid task: " prefix from a Validate
// error, leaving the human-readable reason.
func ValidationMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	const prefix = "invalid task: "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
