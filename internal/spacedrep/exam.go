package spacedrep

import (
	"context"
	"fmt"
	"math"
	"time"
)

const (
	// DefaultHorizonDays is how far out an exam starts compressing intervals.
	DefaultHorizonDays = 60.0

	// DefaultMinFactor is the strongest compression applied.
	DefaultMinFactor = 0.1
)

// ExamStore returns the most recently registered exam date for a user, or
// nil when the user has none.
type ExamStore interface {
	LatestExamDate(ctx context.Context, userID string) (*time.Time, error)
}

// ExamDateService answers how long a learner has until their exam.
type ExamDateService struct {
	exams ExamStore
	now   func() time.Time
}

// NewExamDateService creates an ExamDateService. A nil clock uses time.Now.
func NewExamDateService(exams ExamStore, now func() time.Time) *ExamDateService {
	if now == nil {
		now = time.Now
	}
	return &ExamDateService{exams: exams, now: now}
}

// DaysUntilExam returns fractional days until the user's exam. ok is false
// when there is no exam or it has already passed.
func (s *ExamDateService) DaysUntilExam(ctx context.Context, userID string) (days float64, ok bool, err error) {
	date, err := s.exams.LatestExamDate(ctx, userID)
	if err != nil {
		return 0, false, fmt.Errorf("latest exam date: %w", err)
	}
	days, ok = DaysUntil(date, s.now())
	return days, ok, nil
}

// DaysUntil returns the days from now until date; ok is false for nil or
// past dates.
func DaysUntil(date *time.Time, now time.Time) (float64, bool) {
	if date == nil || !date.After(now) {
		return 0, false
	}
	return date.Sub(now).Hours() / 24, true
}

// Urgency compresses intervals as an exam approaches.
type Urgency struct {
	HorizonDays float64
	MinFactor   float64
}

// DefaultUrgency returns the default compression settings.
func DefaultUrgency() Urgency {
	return Urgency{HorizonDays: DefaultHorizonDays, MinFactor: DefaultMinFactor}
}

// Compress scales intervalDays by clamp(daysUntil/Horizon, MinFactor, 1) and
// caps the result so the review lands no later than the exam. Without an
// exam the interval is returned unchanged.
func (u Urgency) Compress(intervalDays, daysUntil float64, hasExam bool) float64 {
	if !hasExam {
		return intervalDays
	}
	horizon := u.HorizonDays
	if horizon <= 0 {
		horizon = DefaultHorizonDays
	}
	minFactor := u.MinFactor
	if minFactor <= 0 || minFactor > 1 {
		minFactor = DefaultMinFactor
	}

	factor := math.Max(minFactor, math.Min(1, daysUntil/horizon))
	return math.Max(0, math.Min(intervalDays*factor, daysUntil))
}
