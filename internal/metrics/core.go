package metrics

import "github.com/abhisek/prepcoach/internal/attempt"

// CoreMetrics summarises correctness over a whole attempt set.
type CoreMetrics struct {
	Accuracy        float64 `json:"accuracy"`
	HintDependency  float64 `json:"hint_dependency"`
	StreakScore     float64 `json:"streak_score"`
	TotalAttempts   int     `json:"total_attempts"`
	CorrectAttempts int     `json:"correct_attempts"`
	LongestStreak   int     `json:"longest_streak"`
	CurrentStreak   int     `json:"current_streak"`
}

// Core computes CoreMetrics over attempts already sorted by solve time.
// Skipped attempts count toward the total and break a streak.
func Core(sorted []attempt.Attempt, streakCap int) CoreMetrics {
	var m CoreMetrics
	hints := 0
	run := 0

	for _, a := range sorted {
		m.TotalAttempts++
		if a.HintsUsed {
			hints++
		}
		if a.Correct() {
			m.CorrectAttempts++
			run++
			if run > m.LongestStreak {
				m.LongestStreak = run
			}
		} else {
			run = 0
		}
	}

	m.CurrentStreak = run
	m.Accuracy = ratio(m.CorrectAttempts, m.TotalAttempts)
	m.HintDependency = ratio(hints, m.TotalAttempts)
	m.StreakScore = StreakScore(m.LongestStreak, streakCap)
	return m
}

// StreakScore normalises a streak length against cap into [0, 1].
func StreakScore(streak, cap int) float64 {
	if cap <= 0 {
		return 0
	}
	if streak >= cap {
		return 1
	}
	return float64(streak) / float64(cap)
}
