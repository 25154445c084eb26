package task

import (
	"encoding/json"
	"strings"
	"testing"
)

// decode is a helper that unmarshals a JSON object into a Task.
func decode(t *testing.T, src string) Task {
	t.Helper()
	var tk Task
	if err := json.Unmarshal([]byte(src), &tk); err != nil {
		t.Fatalf("Unmarshal(%s): %v", src, err)
	}
	return tk
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	t.Run("full record", func(t *testing.T) {
		t.Parallel()
		tk := decode(t, `{"id": 3, "title": "Ship release", "due_date": "2025-12-01",
			"estimated_hours": 2.5, "importance": 7, "dependencies": [1, "2"]}`)
		if tk.ID != "3" {
			t.Errorf("ID = %q, want %q", tk.ID, "3")
		}
		if tk.TitleOr("") != "Ship release" {
			t.Errorf("Title = %q", tk.TitleOr(""))
		}
		if tk.DueDate != "2025-12-01" {
			t.Errorf("DueDate = %q", tk.DueDate)
		}
		if tk.EstimatedHoursOrDefault() != 2.5 {
			t.Errorf("EstimatedHours = %v", tk.EstimatedHoursOrDefault())
		}
		if tk.ImportanceOrDefault() != 7 {
			t.Errorf("Importance = %v", tk.ImportanceOrDefault())
		}
		if len(tk.Dependencies) != 2 || tk.Dependencies[0] != "1" || tk.Dependencies[1] != "2" {
			t.Errorf("Dependencies = %v", tk.Dependencies)
		}
	})

	t.Run("defaults when absent", func(t *testing.T) {
		t.Parallel()
		tk := decode(t, `{"title": "Bare"}`)
		if tk.EstimatedHoursOrDefault() != DefaultEstimatedHours {
			t.Errorf("hours default = %v, want %v", tk.EstimatedHoursOrDefault(), DefaultEstimatedHours)
		}
		if tk.ImportanceOrDefault() != DefaultImportance {
			t.Errorf("importance default = %v, want %v", tk.ImportanceOrDefault(), DefaultImportance)
		}
		if tk.ParseDue() != nil {
			t.Error("ParseDue should be nil without due_date")
		}
	})

	t.Run("numeric strings coerce", func(t *testing.T) {
		t.Parallel()
		tk := decode(t, `{"title": "T", "importance": "7", "estimated_hours": "1.5"}`)
		if tk.ImportanceOrDefault() != 7 {
			t.Errorf("Importance = %v, want 7", tk.ImportanceOrDefault())
		}
		if tk.EstimatedHoursOrDefault() != 1.5 {
			t.Errorf("EstimatedHours = %v, want 1.5", tk.EstimatedHoursOrDefault())
		}
	})

	t.Run("null due_date means none", func(t *testing.T) {
		t.Parallel()
		tk := decode(t, `{"title": "T", "due_date": null}`)
		if tk.DueDate != "" {
			t.Errorf("DueDate = %q, want empty", tk.DueDate)
		}
		if err := tk.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})

	t.Run("wrong types survive decode", func(t *testing.T) {
		t.Parallel()
		tk := decode(t, `{"title": "T", "importance": [1], "estimated_hours": {}, "dependencies": "nope"}`)
		if err := tk.Validate(); err == nil {
			t.Error("expected validation error")
		}
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		src     string
		wantErr string // substring of the validation message, empty = valid
	}{
		{"valid full", `{"title":"T","due_date":"2025-12-01","estimated_hours":5,"importance":7,"dependencies":[]}`, ""},
		{"missing title", `{"due_date":"2025-12-01","importance":7}`, "title"},
		{"importance too high", `{"title":"T","importance":11}`, "between 1 and 10"},
		{"importance too low", `{"title":"T","importance":0}`, "between 1 and 10"},
		{"importance not a number", `{"title":"T","importance":"high"}`, "integer"},
		{"negative hours", `{"title":"T","estimated_hours":-2}`, "non-negative"},
		{"hours not a number", `{"title":"T","estimated_hours":"lots"}`, "number"},
		{"bad date format", `{"title":"T","due_date":"01-12-2025"}`, "date"},
		{"deps not a list", `{"title":"T","dependencies":"a,b"}`, "list"},
		{"empty due_date ok", `{"title":"T","due_date":""}`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tk := decode(t, tc.src)
			err := tk.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("Validate = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate = nil, want error containing %q", tc.wantErr)
			}
			if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tc.wantErr)) {
				t.Errorf("Validate = %q, want substring %q", err, tc.wantErr)
			}
		})
	}

	t.Run("order: title reported before bad importance", func(t *testing.T) {
		t.Parallel()
		tk := decode(t, `{"importance":"high"}`)
		err := tk.Validate()
		if err == nil || !strings.Contains(err.Error(), "title") {
			t.Errorf("Validate = %v, want missing-title error first", err)
		}
	})
}

func TestMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	tk := decode(t, `{"id":"a","title":"T","importance":7}`)
	out, err := json.Marshal(tk)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m["id"] != "a" || m["title"] != "T" {
		t.Errorf("round trip = %v", m)
	}
	if _, present := m["due_date"]; present {
		t.Error("absent due_date should not be emitted")
	}
}

func TestValidationMessage(t *testing.T) {
	t.Parallel()

	tk := decode(t, `{}`)
	msg := ValidationMessage(tk.Validate())
	if msg != "Missing required field: title" {
		t.Errorf("ValidationMessage = %q", msg)
	}
	if ValidationMessage(nil) != "" {
		t.Error("nil error should yield empty message")
	}
}
