package metrics

import "github.com/abhisek/prepcoach/internal/attempt"

// maxAccuracyVariance is the largest population variance values in [0, 1]
// can have; used to normalise consistency.
const maxAccuracyVariance = 0.25

// TrendMetrics compares the most recent window against the one before it.
type TrendMetrics struct {
	Consistency float64 `json:"consistency"`
	Improvement float64 `json:"improvement"`
	RecentCount int     `json:"recent_count"`
	PriorCount  int     `json:"prior_count"`
	HasData     bool    `json:"has_data"`
}

// Trend computes TrendMetrics over attempts sorted by solve time.
// The recent window is the last `window` attempts; the prior window is the
// `window` attempts immediately before it.
func Trend(sorted []attempt.Attempt, window int) TrendMetrics {
	if window <= 0 {
		window = DefaultTrendWindow
	}
	n := len(sorted)
	if n == 0 {
		return TrendMetrics{}
	}

	recentStart := max(0, n-window)
	priorStart := max(0, recentStart-window)
	recent := sorted[recentStart:]
	prior := sorted[priorStart:recentStart]

	tm := TrendMetrics{
		RecentCount: len(recent),
		PriorCount:  len(prior),
		HasData:     true,
	}
	recentAcc := accuracyOf(recent)
	if len(prior) == 0 {
		tm.Consistency = 1
		return tm
	}

	priorAcc := accuracyOf(prior)
	tm.Improvement = recentAcc - priorAcc
	tm.Consistency = clamp(1-variance([]float64{priorAcc, recentAcc})/maxAccuracyVariance, 0, 1)
	return tm
}

func accuracyOf(attempts []attempt.Attempt) float64 {
	correct := 0
	for _, a := range attempts {
		if a.Correct() {
			correct++
		}
	}
	return ratio(correct, len(attempts))
}

func variance(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	sum := 0.0
	for _, v := range vals {
		sum += (v - mean) * (v - mean)
	}
	return sum / float64(len(vals))
}
