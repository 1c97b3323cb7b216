// Package metrics turns a learner's attempt history into core, trend,
// difficulty and speed metrics. Everything here is pure: the same attempt
// set always yields the same bundle.
package metrics

import "github.com/abhisek/prepcoach/internal/attempt"

// Bundle is the full metric set for one attempt set.
type Bundle struct {
	Core       CoreMetrics       `json:"core"`
	Trend      TrendMetrics      `json:"trend"`
	Difficulty DifficultyMetrics `json:"difficulty"`
	Speed      SpeedMetrics      `json:"speed"`
}

// Practiced reports whether the bundle was computed from at least one attempt.
func (b Bundle) Practiced() bool {
	return b.Core.TotalAttempts > 0
}

// Calculate computes a Bundle. The input is not modified.
func Calculate(attempts []attempt.Attempt, cfg Config) Bundle {
	cfg = cfg.withDefaults()
	sorted := attempt.Sorted(attempts)

	return Bundle{
		Core:       Core(sorted, cfg.StreakCap),
		Trend:      Trend(sorted, cfg.TrendWindow),
		Difficulty: Difficulty(sorted, cfg),
		Speed:      Speed(sorted, cfg.GuessRatio),
	}
}

// BySubtopic groups attempts by question subtopic.
func BySubtopic(attempts []attempt.Attempt) map[string][]attempt.Attempt {
	out := make(map[string][]attempt.Attempt)
	for _, a := range attempts {
		id := a.Question.SubtopicID
		out[id] = append(out[id], a)
	}
	return out
}

// CalculateBySubtopic computes one bundle per subtopic present in attempts.
func CalculateBySubtopic(attempts []attempt.Attempt, cfg Config) map[string]Bundle {
	groups := BySubtopic(attempts)
	out := make(map[string]Bundle, len(groups))
	for id, group := range groups {
		out[id] = Calculate(group, cfg)
	}
	return out
}
