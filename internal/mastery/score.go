package mastery

import "github.com/abhisek/prepcoach/internal/metrics"

// Score computes a 0-100 mastery score for one subtopic's metric bundle.
// An unpracticed bundle scores 0.
//
// Each weighted term is non-decreasing when an incorrect answer becomes a
// correct one, so raising accuracy at a fixed attempt count never lowers the
// score. Trend is deliberately left to StrengthIndex for the same reason.
func Score(b metrics.Bundle, w Weights) float64 {
	if !b.Practiced() {
		return 0
	}
	s := w.Accuracy*clamp(b.Core.Accuracy, 0, 1) +
		w.Difficulty*clamp(b.Difficulty.DifficultyScore, 0, 1) +
		w.Speed*clamp(b.Speed.SpeedScore, 0, 1) +
		w.Streak*clamp(b.Core.StreakScore, 0, 1) -
		w.HintPenalty*clamp(b.Core.HintDependency, 0, 1)
	return 100 * clamp(s, 0, 1)
}

// StrengthIndex blends mastery with trend so that "high but declining" and
// "low but improving" rank differently. Returns 0-100.
func StrengthIndex(mastery, improvement, consistency float64, cfg Config) float64 {
	cfg = cfg.withDefaults()
	s := clamp(mastery, 0, 100)/100 + cfg.ImprovementWeight*clamp(improvement, -1, 1)
	s *= cfg.ConsistencyFloor + (1-cfg.ConsistencyFloor)*clamp(consistency, 0, 1)
	return 100 * clamp(s, 0, 1)
}
