// Package attempt defines the practice-attempt records the engine reads.
// Attempts are immutable once recorded; nothing in this module mutates them.
package attempt

import (
	"sort"
	"time"
)

// Status is the outcome of a single attempt.
type Status string

const (
	StatusCorrect   Status = "CORRECT"
	StatusIncorrect Status = "INCORRECT"
	StatusSkipped   Status = "SKIPPED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusCorrect, StatusIncorrect, StatusSkipped:
		return true
	}
	return false
}

// MinDifficulty and MaxDifficulty bound Question.Difficulty.
const (
	MinDifficulty = 1
	MaxDifficulty = 4
)

// Question is the subset of question metadata carried with each attempt.
type Question struct {
	Difficulty   int     `json:"difficulty"`
	QuestionTime float64 `json:"question_time"` // expected solve time, seconds
	SubjectID    string  `json:"subject_id"`
	TopicID      string  `json:"topic_id"`
	SubtopicID   string  `json:"subtopic_id"`
}

// Attempt is one learner answer to one question.
type Attempt struct {
	UserID       string    `json:"user_id"`
	QuestionID   string    `json:"question_id"`
	Timing       float64   `json:"timing"` // seconds spent
	ReactionTime *float64  `json:"reaction_time,omitempty"`
	Status       Status    `json:"status"`
	HintsUsed    bool      `json:"hints_used"`
	SolvedAt     time.Time `json:"solved_at"`
	Question     Question  `json:"question"`
}

// Correct reports whether the attempt was answered correctly.
func (a Attempt) Correct() bool {
	return a.Status == StatusCorrect
}

// ClampedDifficulty returns the question difficulty forced into the valid range.
func (a Attempt) ClampedDifficulty() int {
	d := a.Question.Difficulty
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}

// Filter narrows an attempt set by curriculum node and time window.
// Zero-valued fields match everything.
type Filter struct {
	SubjectID  string
	TopicID    string
	SubtopicID string
	From       time.Time // solvedAt >= From
	To         time.Time // solvedAt < To
}

// Match reports whether a passes the filter.
func (f Filter) Match(a Attempt) bool {
	if f.SubjectID != "" && a.Question.SubjectID != f.SubjectID {
		return false
	}
	if f.TopicID != "" && a.Question.TopicID != f.TopicID {
		return false
	}
	if f.SubtopicID != "" && a.Question.SubtopicID != f.SubtopicID {
		return false
	}
	if !f.From.IsZero() && a.SolvedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !a.SolvedAt.Before(f.To) {
		return false
	}
	return true
}

// Apply returns the attempts matching the filter, preserving order.
func (f Filter) Apply(attempts []Attempt) []Attempt {
	out := make([]Attempt, 0, len(attempts))
	for _, a := range attempts {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

// Sorted returns a copy of attempts ordered by SolvedAt, ties broken by
// question id so the order is stable across runs.
func Sorted(attempts []Attempt) []Attempt {
	out := make([]Attempt, len(attempts))
	copy(out, attempts)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].SolvedAt.Equal(out[j].SolvedAt) {
			return out[i].SolvedAt.Before(out[j].SolvedAt)
		}
		return out[i].QuestionID < out[j].QuestionID
	})
	return out
}

// LastSolved returns the latest SolvedAt in the set, or nil for an empty set.
func LastSolved(attempts []Attempt) *time.Time {
	var last time.Time
	for _, a := range attempts {
		if a.SolvedAt.After(last) {
			last = a.SolvedAt
		}
	}
	if last.IsZero() {
		return nil
	}
	return &last
}
