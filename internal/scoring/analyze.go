package scoring

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/triagekit/triage/internal/depgraph"
	"github.com/triagekit/triage/internal/task"
)

// cycleWarning is appended to the explanation of every task that is part of
// a detected dependency cycle.
const cycleWarning = " [WARNING: Part of circular dependency]"

// Scored is a task annotated with its priority score (rounded to two
// decimals) and a human-readable explanation of the dominant factors.
type Scored struct {
	Task          task.Task
	PriorityScore float64
	Explanation   string
}

// MarshalJSON flattens the scored task into a single object: the record's
// own fields plus priority_score and explanation.
func (s Scored) MarshalJSON() ([]byte, error) {
	m := s.Task.JSONMap()
	m["priority_score"] = s.PriorityScore
	m["explanation"] = s.Explanation
	return json.Marshal(m)
}

// ScoreTask validates and scores a single task with the named strategy.
// Validation failures yield a zero score and an explanatory message instead
// of an error, so batch processing proceeds past bad records. pos is the
// task's position in all, used as its fallback identifier.
func ScoreTask(t task.Task, pos int, all []task.Task, strategy string, today time.Time, opts Options) (float64, string) {
	if err := t.Validate(); err != nil {
		return 0.0, "Invalid task: " + task.ValidationMessage(err)
	}
	return ForName(strategy, opts).Score(t, pos, all, today)
}

// Analyze scores every task with the named strategy and returns the
// results sorted by priority score descending. The sort is stable: equal
// scores keep their input order. Tasks belonging to a detected dependency
// cycle carry a warning suffix in their explanation. Empty input yields
// empty output.
func Analyze(tasks []task.Task, strategy string, opts Options) []Scored {
	return AnalyzeAt(tasks, strategy, time.Now(), opts)
}

// AnalyzeAt is Analyze with an explicit "today", for deterministic scoring.
func AnalyzeAt(tasks []task.Task, strategy string, today time.Time, opts Options) []Scored {
	if len(tasks) == 0 {
		return nil
	}

	inCycle := make(map[string]bool)
	if has, cycle := depgraph.DetectCycle(tasks); has {
		for _, id := range cycle {
			inCycle[id] = true
		}
	}

	scored := make([]Scored, 0, len(tasks))
	for i, t := range tasks {
		score, explanation := ScoreTask(t, i, tasks, strategy, today, opts)
		if inCycle[depgraph.EffectiveID(t, i)] {
			explanation += cycleWarning
		}
		scored = append(scored, Scored{
			Task:          t,
			PriorityScore: round2(score),
			Explanation:   explanation,
		})
	}

	stableSortByScore(scored)
	return scored
}

// Top returns the highest-priority prefix of the analyzed list, at most n
// entries.
func Top(tasks []task.Task, strategy string, n int, opts Options) []Scored {
	return TopAt(tasks, strategy, n, time.Now(), opts)
}

// TopAt is Top with an explicit "today".
func TopAt(tasks []task.Task, strategy string, n int, today time.Time, opts Options) []Scored {
	analyzed := AnalyzeAt(tasks, strategy, today, opts)
	if n < 0 {
		n = 0
	}
	if n > len(analyzed) {
		n = len(analyzed)
	}
	return analyzed[:n]
}

// stableSortByScore orders by priority score descending; ties preserve the
// input order.
func stableSortByScore(scored []Scored) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].PriorityScore > scored[j].PriorityScore
	})
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
