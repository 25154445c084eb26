package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/triagekit/triage/internal/calendar"
	"github.com/triagekit/triage/internal/depgraph"
	"github.com/triagekit/triage/internal/task"
)

// Strategy names accepted by ForName and the HTTP API.
const (
	StrategyFastestWins    = "fastest_wins"
	StrategyHighImpact     = "high_impact"
	StrategyDeadlineDriven = "deadline_driven"
	StrategySmartBalance   = "smart_balance"
)

// Strategy scores one task against the full list. pos is the task's
// position in the list, used as its fallback identifier when the record
// carries none. Implementations are stateless and safe for concurrent use.
type Strategy interface {
	Name() string
	Score(t task.Task, pos int, all []task.Task, today time.Time) (float64, string)
}

// ForName returns the named strategy. Unrecognized names fall back to
// smart balance; a bad name is never an error.
func ForName(name string, opts Options) Strategy {
	switch name {
	case StrategyFastestWins:
		return FastestWins{Opts: opts}
	case StrategyHighImpact:
		return HighImpact{Opts: opts}
	case StrategyDeadlineDriven:
		return DeadlineDriven{Opts: opts}
	default:
		return SmartBalance{Opts: opts}
	}
}

// Names lists the recognized strategy names.
func Names() []string {
	return []string{StrategyFastestWins, StrategyHighImpact, StrategyDeadlineDriven, StrategySmartBalance}
}

// FastestWins rewards low-effort tasks: quick wins first, urgency and
// importance as secondary factors.
type FastestWins struct {
	Opts Options
}

func (FastestWins) Name() string { return StrategyFastestWins }

func (s FastestWins) Score(t task.Task, pos int, all []task.Task, today time.Time) (float64, string) {
	hours := t.EstimatedHoursOrDefault()
	importance := t.ImportanceOrDefault()
	due := t.ParseDue()

	// 1h ≈ 50, 8h ≈ 11, floor at 10 so effort never vanishes entirely.
	effort := math.Max(10.0, 100.0/(hours+1))
	urgency := Urgency(due, today, s.Opts) * 0.3
	total := effort + urgency + float64(importance)*5.0

	explanation := fmt.Sprintf("Fastest Wins: Low effort (%gh) prioritized", hours)
	if due != nil {
		days := calendar.DaysBetween(today, *due)
		if days < 0 {
			explanation += fmt.Sprintf(", but overdue by %d days", -days)
		} else if days <= 3 {
			explanation += fmt.Sprintf(", due in %d days", days)
		}
	}
	return total, explanation
}

// HighImpact rewards importance above all, with a boost for tasks that
// block others.
type HighImpact struct {
	Opts Options
}

func (HighImpact) Name() string { return StrategyHighImpact }

func (s HighImpact) Score(t task.Task, pos int, all []task.Task, today time.Time) (float64, string) {
	importance := t.ImportanceOrDefault()
	due := t.ParseDue()
	blocked := depgraph.CountBlocked(depgraph.EffectiveID(t, pos), all)

	total := float64(importance)*20.0 + float64(blocked)*15.0 + Urgency(due, today, s.Opts)*0.4

	explanation := fmt.Sprintf("High Impact: Importance %d/10", importance)
	if blocked > 0 {
		explanation += fmt.Sprintf(", blocks %d other task(s)", blocked)
	}
	if due != nil {
		if days := calendar.DaysBetween(today, *due); days < 0 {
			explanation += fmt.Sprintf(", overdue by %d days", -days)
		}
	}
	return total, explanation
}

// DeadlineDriven ranks by due-date urgency: overdue tasks dominate, tasks
// without a deadline sink.
type DeadlineDriven struct {
	Opts Options
}

func (DeadlineDriven) Name() string { return StrategyDeadlineDriven }

func (s DeadlineDriven) Score(t task.Task, pos int, all []task.Task, today time.Time) (float64, string) {
	due := t.ParseDue()
	importance := t.ImportanceOrDefault()
	hours := t.EstimatedHoursOrDefault()

	total := Urgency(due, today, s.Opts)*2.0 +
		float64(importance)*3.0 +
		math.Max(0, 20.0-hours)

	var explanation string
	switch {
	case due == nil:
		explanation = "Deadline Driven: No due date (low priority)"
	default:
		days := calendar.DaysBetween(today, *due)
		switch {
		case days < 0:
			explanation = fmt.Sprintf("Deadline Driven: OVERDUE by %d days", -days)
		case days == 0:
			explanation = "Deadline Driven: Due TODAY"
		case days <= 3:
			explanation = fmt.Sprintf("Deadline Driven: Due in %d days (urgent)", days)
		default:
			explanation = fmt.Sprintf("Deadline Driven: Due in %d days", days)
		}
	}
	return total, explanation
}

// SmartBalance weighs urgency, importance, effort, and blocking value with
// context-dependent weights: urgency dominates once a task is overdue,
// urgency and importance share the lead when a deadline is near, and the
// configured base weights apply otherwise.
type SmartBalance struct {
	Opts Options
}

func (SmartBalance) Name() string { return StrategySmartBalance }

func (s SmartBalance) Score(t task.Task, pos int, all []task.Task, today time.Time) (float64, string) {
	due := t.ParseDue()
	importance := t.ImportanceOrDefault()
	hours := t.EstimatedHoursOrDefault()
	blocked := depgraph.CountBlocked(depgraph.EffectiveID(t, pos), all)
	base := s.Opts.weights()

	urgency := Urgency(due, today, s.Opts)
	importanceScore := float64(importance) * 10.0
	effort := math.Max(10.0, 50.0/(hours+1))
	boost := float64(blocked) * base.DependencyBoost

	days := 0
	if due != nil {
		days = calendar.DaysBetween(today, *due)
	}

	urgencyW, importanceW, effortW := base.Urgency, base.Importance, base.Effort
	switch {
	case due != nil && days < 0:
		urgencyW, importanceW, effortW = 2.5, 1.0, 0.3
	case due != nil && days <= 3:
		urgencyW, importanceW, effortW = 1.5, 1.2, 0.5
	}

	total := urgency*urgencyW + importanceScore*importanceW + effort*effortW + boost

	var factors []string
	if due != nil {
		if days < 0 {
			factors = append(factors, fmt.Sprintf("OVERDUE (%d days)", -days))
		} else if days <= 3 {
			factors = append(factors, fmt.Sprintf("due in %d days", days))
		}
	}
	if importance >= 8 {
		factors = append(factors, fmt.Sprintf("high importance (%d/10)", importance))
	}
	if hours <= 2 {
		factors = append(factors, "quick win")
	}
	if blocked > 0 {
		factors = append(factors, fmt.Sprintf("blocks %d task(s)", blocked))
	}

	explanation := "Smart Balance: Balanced priority"
	if len(factors) > 0 {
		explanation = "Smart Balance: " + strings.Join(factors, ", ")
	}
	return total, explanation
}
