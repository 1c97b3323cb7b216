// Package suggestion evaluates coaching rules against a learner snapshot and
// maintains the resulting suggestions through their lifecycle.
package suggestion

import (
	"errors"
	"strings"
	"time"
)

// Status is a suggestion's lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusDismissed Status = "DISMISSED"
	StatusExpired   Status = "EXPIRED"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusDismissed || s == StatusExpired
}

// CanTransition reports whether a suggestion may move from one status to
// another.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusActive || to == StatusDismissed || to == StatusExpired
	case StatusActive:
		return to == StatusDismissed || to == StatusExpired
	default:
		return false
	}
}

// TriggerType names the event a rule responds to. The set is open; rules
// files may introduce new triggers.
type TriggerType string

const (
	TriggerDailyAnalysis TriggerType = "DAILY_ANALYSIS"
	TriggerOnboarding    TriggerType = "ONBOARDING"
	TriggerExamProximity TriggerType = "EXAM_PROXIMITY"
	TriggerReviewDue     TriggerType = "REVIEW_DUE"
)

// ParseTriggers parses a comma-separated trigger list. Empty input yields
// DAILY_ANALYSIS.
func ParseTriggers(s string) []TriggerType {
	var out []TriggerType
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			out = append(out, TriggerType(part))
		}
	}
	if len(out) == 0 {
		return []TriggerType{TriggerDailyAnalysis}
	}
	return out
}

// Category groups suggestions for ranking and de-duplication.
type Category string

const (
	CategoryReview   Category = "REVIEW"
	CategoryWeakArea Category = "WEAK_AREA"
	CategoryMomentum Category = "MOMENTUM"
	CategoryExamPrep Category = "EXAM_PREP"
	CategoryDecline  Category = "DECLINE"
	CategoryPractice Category = "PRACTICE"
)

var (
	// ErrDataUnavailable is returned by a rule when the snapshot lacks
	// the data it needs. The rule is skipped.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrNotFound is returned when a suggestion does not exist.
	ErrNotFound = errors.New("suggestion not found")

	// ErrInvalidTransition is returned for a lifecycle move that
	// CanTransition rejects.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Suggestion is a persisted coaching suggestion.
type Suggestion struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Type         string      `json:"type"`
	TriggerType  TriggerType `json:"trigger_type"`
	Category     Category    `json:"category"`
	Priority     int         `json:"priority"`
	Message      string      `json:"message"`
	ActionName   string      `json:"action_name,omitempty"`
	ActionURL    string      `json:"action_url,omitempty"`
	DisplayUntil *time.Time  `json:"display_until,omitempty"`
	Status       Status      `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// OpenKey is the de-duplication key of an open suggestion.
func (s Suggestion) OpenKey() string {
	return OpenKey(s.UserID, s.Category, s.TriggerType)
}

// OpenKey builds the key that at most one PENDING or ACTIVE suggestion may
// hold at a time.
func OpenKey(userID string, category Category, trigger TriggerType) string {
	return userID + "|" + string(category) + "|" + string(trigger)
}

// Expired reports whether the suggestion's display window has passed.
func (s Suggestion) Expired(now time.Time) bool {
	return s.DisplayUntil != nil && now.After(*s.DisplayUntil)
}

// Candidate is a rule's proposal, before ranking and persistence.
type Candidate struct {
	Rule       string
	Trigger    TriggerType
	Category   Category
	Priority   int
	Message    string
	ActionName string
	ActionURL  string
	TTL        time.Duration
}
