package suggestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Store persists suggestions. Implementations must make Upsert atomic on the
// open key so concurrent evaluations never create duplicates.
type Store interface {
	// ExpireStale moves open suggestions whose display window ended
	// before now to EXPIRED.
	ExpireStale(ctx context.Context, userID string, now time.Time) (int, error)

	// Upsert inserts s or, if an open suggestion holds s.OpenKey(),
	// refreshes it in place. created reports an insert.
	Upsert(ctx context.Context, s Suggestion) (stored Suggestion, created bool, err error)

	// ActivatePending moves the user's PENDING suggestions to ACTIVE.
	ActivatePending(ctx context.Context, userID string, now time.Time) (int, error)

	// ListActive returns ACTIVE suggestions, highest priority first.
	ListActive(ctx context.Context, userID string) ([]Suggestion, error)

	// Get returns one suggestion or ErrNotFound.
	Get(ctx context.Context, userID, id string) (Suggestion, error)

	// SetStatus changes a suggestion's status.
	SetStatus(ctx context.Context, id string, status Status, now time.Time) error
}

// Config tunes the engine.
type Config struct {
	// PerCategory caps suggestions kept per category in one evaluation.
	PerCategory int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{PerCategory: 1}
}

// Engine runs rules and reconciles their output with the store.
type Engine struct {
	registry *Registry
	cfg      Config
	logger   *slog.Logger
}

// NewEngine creates an Engine. A nil logger uses slog.Default().
func NewEngine(registry *Registry, cfg Config, logger *slog.Logger) *Engine {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if cfg.PerCategory <= 0 {
		cfg.PerCategory = DefaultConfig().PerCategory
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: registry, cfg: cfg, logger: logger}
}

// Result summarises one evaluation.
type Result struct {
	Active    []Suggestion
	Created   int
	Refreshed int
	Expired   int
	RuleErrs  int
}

// Changed reports whether the evaluation wrote anything new.
func (r Result) Changed() bool {
	return r.Created > 0 || r.Expired > 0
}

// Evaluate runs the rules for triggers against snap and persists the
// surviving candidates.
func (e *Engine) Evaluate(ctx context.Context, store Store, snap *Snapshot, triggers []TriggerType) (Result, error) {
	var res Result

	expired, err := store.ExpireStale(ctx, snap.UserID, snap.Now)
	if err != nil {
		return res, fmt.Errorf("expire stale suggestions: %w", err)
	}
	res.Expired = expired

	candidates, ruleErrs := e.Candidates(snap, triggers)
	res.RuleErrs = ruleErrs

	for _, c := range e.Rank(candidates) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, created, err := store.Upsert(ctx, fromCandidate(snap.UserID, c, snap.Now))
		if err != nil {
			return res, fmt.Errorf("upsert suggestion %s: %w", c.Rule, err)
		}
		if created {
			res.Created++
		} else {
			res.Refreshed++
		}
	}

	if _, err := store.ActivatePending(ctx, snap.UserID, snap.Now); err != nil {
		return res, fmt.Errorf("activate suggestions: %w", err)
	}

	res.Active, err = store.ListActive(ctx, snap.UserID)
	if err != nil {
		return res, fmt.Errorf("list active suggestions: %w", err)
	}
	return res, nil
}

// Candidates evaluates every selected rule, isolating failures. It returns
// the candidates and the number of rules that failed.
func (e *Engine) Candidates(snap *Snapshot, triggers []TriggerType) ([]Candidate, int) {
	var out []Candidate
	failed := 0
	for _, sel := range e.registry.Select(triggers) {
		cs, err := evaluateSafely(sel.Rule, snap)
		switch {
		case errors.Is(err, ErrDataUnavailable):
			e.logger.Debug("rule skipped", "rule", sel.Rule.Name(), "user", snap.UserID, "reason", err)
			continue
		case err != nil:
			failed++
			e.logger.Warn("rule failed", "rule", sel.Rule.Name(), "user", snap.UserID, "error", err)
			continue
		}
		for _, c := range cs {
			c.Trigger = sel.Trigger
			if c.Rule == "" {
				c.Rule = sel.Rule.Name()
			}
			out = append(out, c)
		}
	}
	return out, failed
}

// Rank orders candidates by priority and keeps at most PerCategory per
// category and one per (category, trigger).
func (e *Engine) Rank(candidates []Candidate) []Candidate {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].Rule < sorted[j].Rule
	})

	perCategory := make(map[Category]int)
	seen := make(map[string]bool)
	var kept []Candidate
	for _, c := range sorted {
		key := string(c.Category) + "|" + string(c.Trigger)
		if seen[key] || perCategory[c.Category] >= e.cfg.PerCategory {
			continue
		}
		seen[key] = true
		perCategory[c.Category]++
		kept = append(kept, c)
	}
	return kept
}

// Dismiss closes a suggestion on the learner's request.
func (e *Engine) Dismiss(ctx context.Context, store Store, userID, id string, now time.Time) error {
	s, err := store.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if !CanTransition(s.Status, StatusDismissed) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.Status, StatusDismissed)
	}
	if err := store.SetStatus(ctx, id, StatusDismissed, now); err != nil {
		return fmt.Errorf("dismiss suggestion: %w", err)
	}
	return nil
}

func evaluateSafely(r Rule, snap *Snapshot) (cs []Candidate, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rule %s panicked: %v", r.Name(), p)
		}
	}()
	return r.Evaluate(snap)
}

func fromCandidate(userID string, c Candidate, now time.Time) Suggestion {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	until := now.Add(ttl)
	return Suggestion{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         c.Rule,
		TriggerType:  c.Trigger,
		Category:     c.Category,
		Priority:     c.Priority,
		Message:      c.Message,
		ActionName:   c.ActionName,
		ActionURL:    c.ActionURL,
		DisplayUntil: &until,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
