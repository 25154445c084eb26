package calendar

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// day is a shorthand for constructing a date at midnight UTC.
func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsWeekend(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		date time.Time
		want bool
	}{
		{"saturday", day(2025, time.November, 29), true},
		{"sunday", day(2025, time.November, 30), true},
		{"monday", day(2025, time.December, 1), false},
		{"friday", day(2025, time.November, 28), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsWeekend(tc.date); got != tc.want {
				t.Errorf("IsWeekend(%v) = %v, want %v", tc.date, got, tc.want)
			}
		})
	}
}

func TestIsHoliday(t *testing.T) {
	t.Parallel()
	c := Default()

	if !c.IsHoliday(day(2025, time.January, 1)) {
		t.Error("New Year's Day not detected as holiday")
	}
	if !c.IsHoliday(day(2025, time.December, 25)) {
		t.Error("Christmas not detected as holiday")
	}
	if c.IsHoliday(day(2025, time.November, 28)) {
		t.Error("regular day detected as holiday")
	}
	// Recurs every year.
	if !c.IsHoliday(day(1999, time.July, 4)) {
		t.Error("holiday match should ignore the year")
	}
}

func TestCountWorkingDays(t *testing.T) {
	t.Parallel()
	c := Default()

	t.Run("same day is zero", func(t *testing.T) {
		t.Parallel()
		d := day(2025, time.November, 28)
		if got := c.CountWorkingDays(d, d); got != 0 {
			t.Errorf("CountWorkingDays(d, d) = %d, want 0", got)
		}
	})

	t.Run("week span excludes weekend", func(t *testing.T) {
		t.Parallel()
		// Fri Nov 28 → Fri Dec 5: Mon-Fri of the next week.
		got := c.CountWorkingDays(day(2025, time.November, 28), day(2025, time.December, 5))
		if got != 5 {
			t.Errorf("CountWorkingDays = %d, want 5", got)
		}
	})

	t.Run("excludes holidays", func(t *testing.T) {
		t.Parallel()
		// Dec 24 → Dec 26: Dec 25 is a holiday, Dec 26 2025 is a Friday.
		got := c.CountWorkingDays(day(2025, time.December, 24), day(2025, time.December, 26))
		if got != 1 {
			t.Errorf("CountWorkingDays = %d, want 1", got)
		}
	})

	t.Run("monotonic in end date", func(t *testing.T) {
		t.Parallel()
		start := day(2025, time.November, 28)
		prev := 0
		for i := 1; i <= 40; i++ {
			got := c.CountWorkingDays(start, start.AddDate(0, 0, i))
			if got < prev {
				t.Fatalf("count decreased at day %d: %d < %d", i, got, prev)
			}
			prev = got
		}
	})

	t.Run("negative span is zero", func(t *testing.T) {
		t.Parallel()
		got := c.CountWorkingDays(day(2025, time.December, 5), day(2025, time.November, 28))
		if got != 0 {
			t.Errorf("CountWorkingDays = %d, want 0", got)
		}
	})
}

func TestDaysBetween(t *testing.T) {
	t.Parallel()

	a := day(2025, time.November, 28)
	if got := DaysBetween(a, a.AddDate(0, 0, 7)); got != 7 {
		t.Errorf("DaysBetween = %d, want 7", got)
	}
	if got := DaysBetween(a, a.AddDate(0, 0, -3)); got != -3 {
		t.Errorf("DaysBetween = %d, want -3", got)
	}
	// Time-of-day must not affect the result.
	late := time.Date(2025, time.November, 28, 23, 59, 0, 0, time.UTC)
	if got := DaysBetween(late, a.AddDate(0, 0, 1)); got != 1 {
		t.Errorf("DaysBetween with time-of-day = %d, want 1", got)
	}
}

func TestLoadTOML(t *testing.T) {
	t.Parallel()

	t.Run("missing file falls back to default", func(t *testing.T) {
		t.Parallel()
		c, err := LoadTOML(filepath.Join(t.TempDir(), "nope.toml"))
		if err != nil {
			t.Fatalf("LoadTOML: %v", err)
		}
		if !c.IsHoliday(day(2025, time.January, 1)) {
			t.Error("default holidays not applied")
		}
	})

	t.Run("custom holiday set", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "holidays.toml")
		content := "[[holidays]]\nmonth = 5\nday = 17\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		c, err := LoadTOML(path)
		if err != nil {
			t.Fatalf("LoadTOML: %v", err)
		}
		if !c.IsHoliday(day(2025, time.May, 17)) {
			t.Error("custom holiday not recognized")
		}
		if c.IsHoliday(day(2025, time.December, 25)) {
			t.Error("default holiday should be replaced by custom set")
		}
	})

	t.Run("malformed file errors", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(path, []byte("holidays = {"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadTOML(path); err == nil {
			t.Error("expected parse error, got nil")
		}
	})
}
