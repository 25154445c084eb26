// Package calendar provides working-day arithmetic for urgency scoring:
// weekend detection, a small fixed holiday set, and working-day counts
// between two dates.
package calendar

import (
	"fmt"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Holiday is a recurring month+day pair. Year is deliberately absent; the
// set is small and locale-free (no lunar or floating holidays).
type Holiday struct {
	Month time.Month `toml:"month"`
	Day   int        `toml:"day"`
}

// Calendar answers weekend/holiday questions and counts working days.
// The zero value is not usable; construct with Default or LoadTOML.
type Calendar struct {
	holidays map[Holiday]bool
}

// Default returns a calendar with the built-in holiday set: New Year's Day,
// Independence Day, Christmas, and New Year's Eve.
func Default() *Calendar {
	return New([]Holiday{
		{time.January, 1},
		{time.July, 4},
		{time.December, 25},
		{time.December, 31},
	})
}

// New returns a calendar recognizing exactly the given holidays.
func New(holidays []Holiday) *Calendar {
	c := &Calendar{holidays: make(map[Holiday]bool, len(holidays))}
	for _, h := range holidays {
		c.holidays[h] = true
	}
	return c
}

// holidayFile is the on-disk shape of a holiday calendar override.
type holidayFile struct {
	Holidays []Holiday `toml:"holidays"`
}

// LoadTOML reads a holiday calendar from a TOML file of the form:
//
//	[[holidays]]
//	month = 1
//	day = 1
//
// If the file does not exist, the default calendar is returned so callers
// can treat the override as optional.
func LoadTOML(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("calendar: read %s: %w", path, err)
	}

	var f holidayFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("calendar: parse %s: %w", path, err)
	}
	return New(f.Holidays), nil
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsHoliday reports whether t matches one of the calendar's month+day pairs.
func (c *Calendar) IsHoliday(t time.Time) bool {
	return c.holidays[Holiday{t.Month(), t.Day()}]
}

// CountWorkingDays counts days in (start, end] that are neither weekend nor
// holiday. CountWorkingDays(d, d) == 0, and the count is non-decreasing as
// end moves later. A negative span counts zero.
func (c *Calendar) CountWorkingDays(start, end time.Time) int {
	count := 0
	for d := Midnight(start).AddDate(0, 0, 1); !d.After(Midnight(end)); d = d.AddDate(0, 0, 1) {
		if !IsWeekend(d) && !c.IsHoliday(d) {
			count++
		}
	}
	return count
}

// Midnight truncates t to midnight UTC of its calendar date. All date
// arithmetic in this module operates on these normalized values.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from a to b
// (positive when b is later).
func DaysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)).Hours() / 24)
}
