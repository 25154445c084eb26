// Package scoring turns task records into ranked, explained priority
// scores. It hosts the urgency model, the four interchangeable strategies,
// and the orchestrator that validates, scores, and sorts a whole task list.
// Everything here is pure: no state survives a call, and independent calls
// may run concurrently without coordination.
package scoring

import (
	"math"
	"time"

	"github.com/triagekit/triage/internal/calendar"
	"github.com/triagekit/triage/internal/learning"
)

// Urgency bounds and fixed scores.
const (
	urgencyNone    = 30.0  // no due date
	urgencyDueNow  = 100.0 // due today
	urgencyCeiling = 200.0 // overdue cap
	overduePerDay  = 2.5
)

// Options configures urgency computation. The zero value means calendar-day
// buckets with the default holiday calendar.
type Options struct {
	// ConsiderWeekends switches bucket selection for future due dates from
	// calendar days to working days. Overdue arithmetic always operates on
	// the signed calendar-day difference.
	ConsiderWeekends bool

	// Calendar supplies the holiday set for working-day counts.
	// Nil falls back to calendar.Default().
	Calendar *calendar.Calendar

	// Weights tunes the smart-balance strategy. Nil uses the defaults.
	Weights *learning.Weights
}

func (o Options) calendar() *calendar.Calendar {
	if o.Calendar != nil {
		return o.Calendar
	}
	return calendar.Default()
}

func (o Options) weights() learning.Weights {
	if o.Weights != nil {
		return *o.Weights
	}
	return learning.DefaultWeights()
}

// Urgency maps a due date and "today" to a bounded score in [0, 200].
// Overdue tasks score min(200, 100 + 2.5 per day overdue); a missing due
// date scores a flat 30; future dates fall into fixed proximity buckets.
func Urgency(due *time.Time, today time.Time, opts Options) float64 {
	if due == nil {
		return urgencyNone
	}

	days := calendar.DaysBetween(today, *due)
	if days < 0 {
		return math.Min(urgencyCeiling, urgencyDueNow+float64(-days)*overduePerDay)
	}
	if days == 0 {
		return urgencyDueNow
	}

	if opts.ConsiderWeekends {
		days = opts.calendar().CountWorkingDays(today, *due)
		if days <= 0 {
			// Due date falls within a weekend/holiday stretch: treat as
			// due immediately.
			return urgencyDueNow
		}
	}

	switch {
	case days <= 1:
		return 90.0
	case days <= 3:
		return 75.0
	case days <= 7:
		return 60.0
	case days <= 14:
		return 45.0
	case days <= 30:
		return 30.0
	default:
		return 15.0
	}
}
