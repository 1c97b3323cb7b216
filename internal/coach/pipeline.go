package coach

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/abhisek/prepcoach/internal/mastery"
	"github.com/abhisek/prepcoach/internal/spacedrep"
	"github.com/abhisek/prepcoach/internal/store"
	"github.com/abhisek/prepcoach/internal/suggestion"
)

// masteryEpsilon is the smallest mastery change recorded as a new snapshot.
const masteryEpsilon = 1e-6

type outcome struct {
	root    *mastery.Node
	entries []spacedrep.Entry
	result  suggestion.Result
	updated bool
}

// evaluate runs the whole pipeline for one user inside one transaction.
func (s *Service) evaluate(ctx context.Context, userID string, triggers []suggestion.TriggerType) (outcome, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	now := s.now()
	var out outcome
	err := s.store.InTx(ctx, func(r store.Repos) error {
		if err := requireUser(ctx, r, userID); err != nil {
			return err
		}

		root, total, err := s.computeMastery(ctx, r, userID)
		if err != nil {
			return err
		}
		out.root = root

		latest, err := r.Snapshots.Latest(ctx, userID)
		if err != nil {
			return err
		}
		previous, err := r.Snapshots.AtOrBefore(ctx, userID, now.Add(-s.opts.TrendWindow))
		if err != nil {
			return err
		}

		days, hasExam, err := spacedrep.NewExamDateService(r.Exams, func() time.Time { return now }).DaysUntilExam(ctx, userID)
		if err != nil {
			return fmt.Errorf("exam date: %w", err)
		}
		out.entries = s.scheduler.Plan(root, days, hasExam, now)

		changed := latest == nil || !sameMastery(latest.Root, root)
		if changed {
			if err := r.Snapshots.Save(ctx, userID, now, root); err != nil {
				return err
			}
			if err := r.Snapshots.Prune(ctx, userID, s.opts.SnapshotKeep); err != nil {
				return err
			}
		}
		if err := r.Schedules.Replace(ctx, userID, out.entries, now); err != nil {
			return err
		}

		snap := &suggestion.Snapshot{
			UserID:        userID,
			Now:           now,
			Mastery:       root,
			Schedule:      out.entries,
			Due:           spacedrep.Due(out.entries, now),
			DaysUntilExam: days,
			HasExam:       hasExam,
			LastActivity:  root.LastPracticed,
			TotalAttempts: total,
		}
		if previous != nil {
			snap.Previous = previous.Root
		}

		out.result, err = s.engine.Evaluate(ctx, r.Suggestions, snap, triggers)
		if err != nil {
			return err
		}
		out.updated = changed || out.result.Changed()
		return nil
	})
	if err != nil {
		return outcome{}, fmt.Errorf("evaluate %s: %w", userID, err)
	}

	s.logger.Debug("user evaluated",
		"user", userID,
		"mastery", out.root.Mastery,
		"reviews", len(out.entries),
		"created", out.result.Created,
		"expired", out.result.Expired,
		"updated", out.updated)
	return out, nil
}

// computeMastery aggregates the user's full attempt history over the
// curriculum and returns the tree and the attempt count.
func (s *Service) computeMastery(ctx context.Context, r store.Repos, userID string) (*mastery.Node, int, error) {
	tree, err := r.Curriculum.Tree(ctx)
	if err != nil {
		return nil, 0, err
	}
	attempts, err := r.Attempts.ListByUser(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, 0, err
	}
	inputs := mastery.InputsFromAttempts(attempts, s.opts.Metrics)
	return mastery.Aggregate(tree, inputs, s.opts.Mastery), len(attempts), nil
}

func sameMastery(a, b *mastery.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	fa, fb := a.Flatten(), b.Flatten()
	if len(fa) != len(fb) {
		return false
	}
	for id, v := range fa {
		w, ok := fb[id]
		if !ok || math.Abs(v-w) > masteryEpsilon {
			return false
		}
	}
	return true
}
