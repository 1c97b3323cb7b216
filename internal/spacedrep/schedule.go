// Package spacedrep schedules spaced-repetition reviews of practiced
// subtopics. Intervals grow with mastery and shrink as an exam approaches.
package spacedrep

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// ErrInvalidInterval reports a negative or non-finite interval. Callers
// receive it alongside the clamped value and may log it; it is never fatal.
var ErrInvalidInterval = errors.New("invalid review interval")

// SanitizeInterval clamps days to a finite value >= 0.
func SanitizeInterval(days float64) (float64, error) {
	switch {
	case math.IsNaN(days), math.IsInf(days, 0):
		return 0, fmt.Errorf("%w: %v", ErrInvalidInterval, days)
	case days < 0:
		return 0, fmt.Errorf("%w: %v", ErrInvalidInterval, days)
	}
	return days, nil
}

// ScheduleNext returns the next review time: whole days of intervalDays are
// added to the start of lastReviewedAt's day, then the fractional remainder
// as rounded hours. The result is never before now. A zero lastReviewedAt
// means never reviewed and is due now.
func ScheduleNext(lastReviewedAt time.Time, intervalDays float64, now time.Time) time.Time {
	next := rawNext(lastReviewedAt, intervalDays)
	if next.IsZero() || next.Before(now) {
		return now
	}
	return next
}

// rawNext is ScheduleNext without the clamp; zero for a zero lastReviewedAt.
func rawNext(lastReviewedAt time.Time, intervalDays float64) time.Time {
	if lastReviewedAt.IsZero() {
		return time.Time{}
	}
	days, _ := SanitizeInterval(intervalDays)
	whole := math.Floor(days)
	hours := math.Round((days - whole) * 24)

	y, m, d := lastReviewedAt.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, lastReviewedAt.Location())
	return startOfDay.AddDate(0, 0, int(whole)).Add(time.Duration(hours) * time.Hour)
}

// IntervalPolicy maps a 0-100 mastery score to a review interval in days.
// Implementations must be non-decreasing in mastery.
type IntervalPolicy interface {
	IntervalDays(mastery float64) float64
}

// Step is one rung of a TableLadder: mastery below Below gets Days.
type Step struct {
	Below float64 `yaml:"below"`
	Days  float64 `yaml:"days"`
}

// TableLadder is a table-driven expanding interval schedule.
type TableLadder struct {
	Steps   []Step
	MaxDays float64 // interval for mastery above every step
}

// DefaultLadder returns the default expanding ladder.
func DefaultLadder() TableLadder {
	return TableLadder{
		Steps: []Step{
			{Below: 40, Days: 0.5},
			{Below: 55, Days: 1},
			{Below: 65, Days: 2},
			{Below: 75, Days: 4},
			{Below: 85, Days: 7},
			{Below: 95, Days: 14},
		},
		MaxDays: 30,
	}
}

// IntervalDays implements IntervalPolicy.
func (l TableLadder) IntervalDays(mastery float64) float64 {
	steps := make([]Step, len(l.Steps))
	copy(steps, l.Steps)
	sort.Slice(steps, func(i, j int) bool { return steps[i].Below < steps[j].Below })

	for _, s := range steps {
		if mastery < s.Below {
			return s.Days
		}
	}
	return l.MaxDays
}

// ExponentialLadder grows the interval geometrically with mastery:
// Base * Growth^(mastery/10), capped at Max.
type ExponentialLadder struct {
	Base   float64
	Growth float64
	Max    float64
}

// DefaultExponentialLadder returns a curve matching the table ladder's range.
func DefaultExponentialLadder() ExponentialLadder {
	return ExponentialLadder{Base: 0.5, Growth: 1.5, Max: 30}
}

// IntervalDays implements IntervalPolicy.
func (e ExponentialLadder) IntervalDays(mastery float64) float64 {
	growth := e.Growth
	if growth < 1 {
		growth = 1
	}
	m := math.Max(0, math.Min(100, mastery))
	days := e.Base * math.Pow(growth, m/10)
	if e.Max > 0 && days > e.Max {
		return e.Max
	}
	return days
}

// PolicyByName resolves a policy name from configuration.
func PolicyByName(name string) (IntervalPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "table":
		return DefaultLadder(), nil
	case "exponential":
		return DefaultExponentialLadder(), nil
	default:
		return nil, fmt.Errorf("unknown interval policy %q", name)
	}
}
