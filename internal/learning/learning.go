// Package learning adjusts smart-balance scoring weights from aggregate
// user feedback. The adjustment is advisory: scoring is correct without it,
// and callers opt in per request.
package learning

// Weights are the tunable factors of the smart-balance strategy.
type Weights struct {
	Urgency         float64 `json:"urgency_weight"`
	Importance      float64 `json:"importance_weight"`
	Effort          float64 `json:"effort_weight"`
	DependencyBoost float64 `json:"dependency_boost"`
}

// DefaultWeights returns the smart-balance base weights.
func DefaultWeights() Weights {
	return Weights{
		Urgency:         1.0,
		Importance:      1.0,
		Effort:          0.8,
		DependencyBoost: 20.0,
	}
}

// Stats summarizes recorded feedback for one strategy.
type Stats struct {
	Total              int     `json:"total"`
	HelpfulCount       int     `json:"helpful_count"`
	NotHelpfulCount    int     `json:"not_helpful_count"`
	HelpfulRate        float64 `json:"helpful_rate"`
	AvgScoreHelpful    float64 `json:"avg_priority_score_helpful"`
	AvgScoreNotHelpful float64 `json:"avg_priority_score_not_helpful"`
}

// minFeedback is the sample size below which no adjustment is attempted.
const minFeedback = 5

// Adjust nudges the base weights using observed feedback. With fewer than
// five recorded feedbacks the base weights come back unchanged. A low
// helpful rate adjusts more aggressively; the direction is driven by the
// score separation between helpful and not-helpful feedback: a large
// positive separation with a mediocre rate suggests urgency is
// under-weighted, a negative separation with a good rate suggests it is
// over-weighted relative to importance.
func Adjust(base Weights, s Stats) Weights {
	if s.Total < minFeedback {
		return base
	}

	factor := 1.05
	switch {
	case s.HelpfulRate < 0.4:
		factor = 1.2
	case s.HelpfulRate < 0.6:
		factor = 1.1
	}

	separation := s.AvgScoreHelpful - s.AvgScoreNotHelpful

	adjusted := base
	if separation > 20 && s.HelpfulRate < 0.6 {
		adjusted.Urgency *= factor
	}
	if separation < -10 && s.HelpfulRate > 0.6 {
		adjusted.Urgency *= 1.0 / factor
		adjusted.Importance *= factor
	}
	return adjusted
}
