package metrics

import "github.com/abhisek/prepcoach/internal/attempt"

// DifficultyMetrics buckets performance by question difficulty, overall and
// per subject. Buckets with no attempts are absent rather than zero.
type DifficultyMetrics struct {
	DifficultyScore              float64                    `json:"difficulty_score"`
	DifficultyPerformance        map[int]float64            `json:"difficulty_performance"`
	DifficultyCounts             map[int]int                `json:"difficulty_counts"`
	SubjectWeightedScores        map[string]float64         `json:"subject_weighted_scores"`
	SubjectDifficultyPerformance map[string]map[int]float64 `json:"subject_difficulty_performance"`
	SubjectDifficultyCounts      map[string]map[int]int     `json:"subject_difficulty_counts"`
}

type bucket struct {
	total   int
	correct int
}

// Difficulty computes DifficultyMetrics. The difficulty score weights each
// bucket by its configured difficulty weight so correct answers on harder
// questions count for more.
func Difficulty(attempts []attempt.Attempt, cfg Config) DifficultyMetrics {
	cfg = cfg.withDefaults()

	overall := make(map[int]*bucket)
	bySubject := make(map[string]map[int]*bucket)

	for _, a := range attempts {
		d := a.ClampedDifficulty()
		add(overall, d, a.Correct())

		sub := a.Question.SubjectID
		if bySubject[sub] == nil {
			bySubject[sub] = make(map[int]*bucket)
		}
		add(bySubject[sub], d, a.Correct())
	}

	m := DifficultyMetrics{
		DifficultyPerformance:        make(map[int]float64, len(overall)),
		DifficultyCounts:             make(map[int]int, len(overall)),
		SubjectWeightedScores:        make(map[string]float64, len(bySubject)),
		SubjectDifficultyPerformance: make(map[string]map[int]float64, len(bySubject)),
		SubjectDifficultyCounts:      make(map[string]map[int]int, len(bySubject)),
	}

	m.DifficultyScore = fillBuckets(overall, m.DifficultyPerformance, m.DifficultyCounts, cfg)
	for sub, buckets := range bySubject {
		perf := make(map[int]float64, len(buckets))
		counts := make(map[int]int, len(buckets))
		m.SubjectWeightedScores[sub] = fillBuckets(buckets, perf, counts, cfg)
		m.SubjectDifficultyPerformance[sub] = perf
		m.SubjectDifficultyCounts[sub] = counts
	}
	return m
}

func add(buckets map[int]*bucket, d int, correct bool) {
	b := buckets[d]
	if b == nil {
		b = &bucket{}
		buckets[d] = b
	}
	b.total++
	if correct {
		b.correct++
	}
}

// fillBuckets writes per-bucket accuracy and counts and returns the weighted score.
func fillBuckets(buckets map[int]*bucket, perf map[int]float64, counts map[int]int, cfg Config) float64 {
	var num, den float64
	for d, b := range buckets {
		if b.total == 0 {
			continue
		}
		perf[d] = ratio(b.correct, b.total)
		counts[d] = b.total
		w := cfg.difficultyWeight(d)
		num += float64(b.correct) * w
		den += float64(b.total) * w
	}
	if den == 0 {
		return 0
	}
	return num / den
}
