package store

import (
	"context"
	"time"

	"github.com/abhisek/prepcoach/internal/attempt"
	"github.com/abhisek/prepcoach/internal/curriculum"
	"github.com/abhisek/prepcoach/internal/mastery"
	"github.com/abhisek/prepcoach/internal/spacedrep"
	"github.com/abhisek/prepcoach/internal/suggestion"
)

// User is a learner account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRepo lists and records learners.
type UserRepo interface {
	// Upsert creates the user or updates name and email.
	Upsert(ctx context.Context, u User) error

	// Get returns a user, or nil if none exists.
	Get(ctx context.Context, id string) (*User, error)

	CountUsers(ctx context.Context) (int, error)

	// ListUsers returns user ids ordered by id.
	ListUsers(ctx context.Context, skip, take int) ([]string, error)
}

// CurriculumRepo stores the subject/topic/subtopic tree.
type CurriculumRepo interface {
	// Tree returns the full curriculum sorted by order index.
	Tree(ctx context.Context) (curriculum.Tree, error)

	// Save upserts every node of tree.
	Save(ctx context.Context, tree curriculum.Tree) error
}

// QuestionRepo stores question metadata attempts are joined with.
type QuestionRepo interface {
	Upsert(ctx context.Context, id string, q attempt.Question) error
}

// AttemptRepo reads practice attempts.
type AttemptRepo interface {
	// ListByUser returns a user's attempts joined with their questions,
	// oldest first. Zero from/to leave that end of the window open.
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]attempt.Attempt, error)

	// Add records an attempt. The question must already exist.
	Add(ctx context.Context, a attempt.Attempt) error
}

// ExamRepo stores exam registrations.
type ExamRepo interface {
	// LatestExamDate returns the date of the most recent registration, or
	// nil when the user has none.
	LatestExamDate(ctx context.Context, userID string) (*time.Time, error)

	Register(ctx context.Context, userID string, examDate, registeredAt time.Time) error
}

// MasterySnapshot is a stored mastery tree.
type MasterySnapshot struct {
	ID      int
	UserID  string
	TakenAt time.Time
	Root    *mastery.Node
}

// SnapshotRepo manages per-user mastery history.
type SnapshotRepo interface {
	Save(ctx context.Context, userID string, takenAt time.Time, root *mastery.Node) error

	// Latest returns the newest snapshot, or nil if none exist.
	Latest(ctx context.Context, userID string) (*MasterySnapshot, error)

	// AtOrBefore returns the newest snapshot taken at or before t, or nil.
	AtOrBefore(ctx context.Context, userID string, t time.Time) (*MasterySnapshot, error)

	// Prune deletes all but the keep most recent snapshots of a user.
	Prune(ctx context.Context, userID string, keep int) error
}

// ScheduleRepo stores the review schedule.
type ScheduleRepo interface {
	// Replace upserts entries and removes rows for subtopics not in entries.
	Replace(ctx context.Context, userID string, entries []spacedrep.Entry, now time.Time) error

	// List returns entries ordered by next review time.
	List(ctx context.Context, userID string) ([]spacedrep.Entry, error)
}

// SuggestionRepo is the suggestion engine's store plus maintenance sweeps.
type SuggestionRepo interface {
	suggestion.Store

	// ExpireAll expires every user's stale open suggestions.
	ExpireAll(ctx context.Context, now time.Time) (int, error)

	// ListByUser returns all of a user's suggestions, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]suggestion.Suggestion, error)
}
