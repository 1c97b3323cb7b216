package metrics

import "github.com/abhisek/prepcoach/internal/attempt"

// SpeedMetrics relates actual solve time to the expected question time.
type SpeedMetrics struct {
	SpeedScore      float64 `json:"speed_score"`
	AvgTiming       float64 `json:"avg_timing"`
	AvgReactionTime float64 `json:"avg_reaction_time"`
	OptimalTiming   float64 `json:"optimal_timing"`
	HasData         bool    `json:"has_data"`
}

// Speed computes SpeedMetrics. Only attempts with a positive timing and a
// positive expected question time contribute.
func Speed(attempts []attempt.Attempt, guessRatio float64) SpeedMetrics {
	var timingSum, optimalSum, reactionSum float64
	var n, reactions int

	for _, a := range attempts {
		if a.ReactionTime != nil && *a.ReactionTime > 0 {
			reactionSum += *a.ReactionTime
			reactions++
		}
		if a.Timing <= 0 || a.Question.QuestionTime <= 0 {
			continue
		}
		timingSum += a.Timing
		optimalSum += a.Question.QuestionTime
		n++
	}

	m := SpeedMetrics{SpeedScore: neutralSpeed}
	if reactions > 0 {
		m.AvgReactionTime = reactionSum / float64(reactions)
	}
	if n == 0 {
		return m
	}

	m.AvgTiming = timingSum / float64(n)
	m.OptimalTiming = optimalSum / float64(n)
	m.SpeedScore = SpeedScore(m.OptimalTiming, m.AvgTiming, guessRatio)
	m.HasData = true
	return m
}

// SpeedScore maps optimal/actual timing into [0, 1]. Slower than optimal
// scales down linearly with the ratio; faster is full score until the answer
// time drops below guessRatio of the optimal, after which it decays.
func SpeedScore(optimal, actual, guessRatio float64) float64 {
	if optimal <= 0 || actual <= 0 {
		return neutralSpeed
	}
	if guessRatio <= 0 || guessRatio >= 1 {
		guessRatio = DefaultGuessRatio
	}

	r := optimal / actual
	limit := 1 / guessRatio
	switch {
	case r <= 1:
		return clamp(r, 0, 1)
	case r <= limit:
		return 1
	default:
		return clamp(limit/r, 0, 1)
	}
}
