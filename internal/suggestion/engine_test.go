package suggestion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcRule struct {
	name     string
	triggers []TriggerType
	fn       func(*Snapshot) ([]Candidate, error)
}

func (r funcRule) Name() string                              { return r.name }
func (r funcRule) Triggers() []TriggerType                   { return r.triggers }
func (r funcRule) Evaluate(s *Snapshot) ([]Candidate, error) { return r.fn(s) }

func busySnapshot(at time.Time) *Snapshot {
	idle := at.Add(-5 * 24 * time.Hour)
	return &Snapshot{
		UserID:        "u1",
		Now:           at,
		Mastery:       testTree(),
		Previous:      previousTree(60),
		Due:           dueEntries("lin", "quad", "poly"),
		LastActivity:  &idle,
		TotalAttempts: 30,
	}
}

func quietSnapshot(at time.Time) *Snapshot {
	last := at.Add(-time.Hour)
	tree := testTree()
	for _, n := range tree.Subtopics() {
		n.Mastery = 90
	}
	tree.Find("math").Improvement = 0
	return &Snapshot{UserID: "u1", Now: at, Mastery: tree, LastActivity: &last, TotalAttempts: 30}
}

func categories(ss []Suggestion) []Category {
	out := make([]Category, len(ss))
	for i, s := range ss {
		out[i] = s.Category
	}
	return out
}

func TestEngineEvaluate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	e := NewEngine(nil, DefaultConfig(), nil)

	res, err := e.Evaluate(ctx, store, busySnapshot(now), []TriggerType{TriggerDailyAnalysis})
	require.NoError(t, err)

	assert.Equal(t, 5, res.Created)
	assert.Zero(t, res.RuleErrs)
	assert.Equal(t, []Category{CategoryDecline, CategoryReview, CategoryWeakArea, CategoryPractice, CategoryMomentum}, categories(res.Active))
	for _, s := range res.Active {
		assert.Equal(t, StatusActive, s.Status)
		assert.Equal(t, TriggerDailyAnalysis, s.TriggerType)
		require.NotNil(t, s.DisplayUntil)
		assert.True(t, s.DisplayUntil.After(now))
	}
}

func TestEngineEvaluate_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	e := NewEngine(nil, DefaultConfig(), nil)
	triggers := []TriggerType{TriggerDailyAnalysis}

	first, err := e.Evaluate(ctx, store, busySnapshot(now), triggers)
	require.NoError(t, err)

	later := now.Add(2 * time.Hour)
	second, err := e.Evaluate(ctx, store, busySnapshot(later), triggers)
	require.NoError(t, err)

	assert.Zero(t, second.Created)
	assert.Equal(t, 5, second.Refreshed)
	assert.False(t, second.Changed())
	assert.Len(t, store.All(), 5)

	require.Len(t, second.Active, len(first.Active))
	for i := range first.Active {
		assert.Equal(t, first.Active[i].ID, second.Active[i].ID)
		assert.True(t, second.Active[i].DisplayUntil.After(*first.Active[i].DisplayUntil), "display window refreshed")
	}
}

func TestEngineEvaluate_ExpiresStale(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	e := NewEngine(nil, DefaultConfig(), nil)
	triggers := []TriggerType{TriggerDailyAnalysis}

	_, err := e.Evaluate(ctx, store, busySnapshot(now), triggers)
	require.NoError(t, err)

	later := now.Add(72 * time.Hour)
	res, err := e.Evaluate(ctx, store, quietSnapshot(later), triggers)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Expired)
	assert.Empty(t, res.Active)
	assert.True(t, res.Changed())

	res, err = e.Evaluate(ctx, store, busySnapshot(later), triggers)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Created, "expired suggestions release their key")
	assert.Len(t, store.All(), 10)
}

func TestEngineEvaluate_TriggerFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	e := NewEngine(nil, DefaultConfig(), nil)

	res, err := e.Evaluate(ctx, store, busySnapshot(now), []TriggerType{TriggerReviewDue})
	require.NoError(t, err)
	require.Len(t, res.Active, 1)
	assert.Equal(t, CategoryReview, res.Active[0].Category)
	assert.Equal(t, TriggerReviewDue, res.Active[0].TriggerType)
}

func TestEngineEvaluate_IsolatesFailingRules(t *testing.T) {
	reg := DefaultRegistry()
	require.NoError(t, reg.Register(funcRule{
		name:     "explodes",
		triggers: []TriggerType{TriggerDailyAnalysis},
		fn:       func(*Snapshot) ([]Candidate, error) { panic("boom") },
	}))
	require.NoError(t, reg.Register(funcRule{
		name:     "errors",
		triggers: []TriggerType{TriggerDailyAnalysis},
		fn:       func(*Snapshot) ([]Candidate, error) { return nil, errors.New("bad data") },
	}))

	e := NewEngine(reg, DefaultConfig(), nil)
	res, err := e.Evaluate(context.Background(), NewMemoryStore(), busySnapshot(now), []TriggerType{TriggerDailyAnalysis})
	require.NoError(t, err)
	assert.Equal(t, 2, res.RuleErrs)
	assert.Len(t, res.Active, 5)
}

func TestEngineEvaluate_DataUnavailableIsNotAFailure(t *testing.T) {
	e := NewEngine(nil, DefaultConfig(), nil)
	snap := busySnapshot(now)
	snap.Previous = nil

	res, err := e.Evaluate(context.Background(), NewMemoryStore(), snap, []TriggerType{TriggerDailyAnalysis})
	require.NoError(t, err)
	assert.Zero(t, res.RuleErrs)
	assert.NotContains(t, categories(res.Active), CategoryDecline)
}

func TestRank(t *testing.T) {
	candidates := []Candidate{
		{Rule: "a", Category: CategoryPractice, Trigger: TriggerDailyAnalysis, Priority: 10},
		{Rule: "b", Category: CategoryPractice, Trigger: TriggerDailyAnalysis, Priority: 30},
		{Rule: "c", Category: CategoryPractice, Trigger: TriggerOnboarding, Priority: 20},
		{Rule: "d", Category: CategoryReview, Trigger: TriggerDailyAnalysis, Priority: 5},
	}

	kept := NewEngine(nil, Config{PerCategory: 1}, nil).Rank(candidates)
	require.Len(t, kept, 2)
	assert.Equal(t, "b", kept[0].Rule)
	assert.Equal(t, "d", kept[1].Rule)

	kept = NewEngine(nil, Config{PerCategory: 3}, nil).Rank(candidates)
	var rules []string
	for _, c := range kept {
		rules = append(rules, c.Rule)
	}
	assert.Equal(t, "b,c,d", strings.Join(rules, ","), "one per (category, trigger)")
}

func TestDismiss(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	e := NewEngine(nil, DefaultConfig(), nil)

	res, err := e.Evaluate(ctx, store, busySnapshot(now), []TriggerType{TriggerDailyAnalysis})
	require.NoError(t, err)
	target := res.Active[0]

	require.NoError(t, e.Dismiss(ctx, store, "u1", target.ID, now))
	got, err := store.Get(ctx, "u1", target.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDismissed, got.Status)

	err = e.Dismiss(ctx, store, "u1", target.ID, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = e.Dismiss(ctx, store, "u1", "missing", now)
	assert.ErrorIs(t, err, ErrNotFound)

	err = e.Dismiss(ctx, store, "someone-else", res.Active[1].ID, now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusActive, true},
		{StatusActive, StatusExpired, true},
		{StatusActive, StatusDismissed, true},
		{StatusActive, StatusPending, false},
		{StatusDismissed, StatusActive, false},
		{StatusExpired, StatusDismissed, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestParseTriggers(t *testing.T) {
	assert.Equal(t, []TriggerType{TriggerDailyAnalysis}, ParseTriggers(""))
	assert.Equal(t, []TriggerType{TriggerOnboarding, TriggerReviewDue}, ParseTriggers("onboarding, REVIEW_DUE"))
}
