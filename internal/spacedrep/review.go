package spacedrep

import "time"

// Entry is the review schedule for one subtopic.
type Entry struct {
	SubtopicID     string    `json:"subtopic_id"`
	LastReviewedAt time.Time `json:"last_reviewed_at"`
	IntervalDays   float64   `json:"interval_days"`
	NextReviewAt   time.Time `json:"next_review_at"`
	Mastery        float64   `json:"mastery"`
	OverdueDays    float64   `json:"overdue_days"`
}

// IsDue reports whether the entry is at or past its review time.
func (e Entry) IsDue(now time.Time) bool {
	return !now.Before(e.NextReviewAt)
}

// ReviewStatus describes an entry's review status for display.
type ReviewStatus string

const (
	ReviewNotDue  ReviewStatus = "not_due"
	ReviewDue     ReviewStatus = "due"
	ReviewOverdue ReviewStatus = "overdue"
)

// Status returns the review status. An entry is overdue once it has been due
// for at least half of its interval.
func (e Entry) Status(now time.Time) ReviewStatus {
	if !e.IsDue(now) {
		return ReviewNotDue
	}
	if e.IntervalDays > 0 && e.OverdueDays >= e.IntervalDays*0.5 {
		return ReviewOverdue
	}
	return ReviewDue
}

// DaysUntilReview returns whole days until the next review, 0 if due.
func (e Entry) DaysUntilReview(now time.Time) int {
	if e.IsDue(now) {
		return 0
	}
	return int(e.NextReviewAt.Sub(now).Hours()/24.0) + 1
}
