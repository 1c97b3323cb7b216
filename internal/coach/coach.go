// Package coach runs the per-user mastery, scheduling and suggestion
// pipeline against the store and exposes the engine's operations.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/prepcoach/internal/batch"
	"github.com/abhisek/prepcoach/internal/format"
	"github.com/abhisek/prepcoach/internal/mastery"
	"github.com/abhisek/prepcoach/internal/metrics"
	"github.com/abhisek/prepcoach/internal/spacedrep"
	"github.com/abhisek/prepcoach/internal/store"
	"github.com/abhisek/prepcoach/internal/suggestion"
)

// Defaults for Options left zero.
const (
	DefaultSnapshotKeep = 30
	DefaultTrendWindow  = 7 * 24 * time.Hour
)

// ErrUnknownUser is returned for operations on a user that does not exist.
var ErrUnknownUser = errors.New("unknown user")

// Options configures a Service. Zero fields take package defaults; the
// metric and mastery configs fill their own defaults.
type Options struct {
	Registry *suggestion.Registry
	Engine   suggestion.Config
	Policy   spacedrep.IntervalPolicy
	Urgency  spacedrep.Urgency
	Metrics  metrics.Config
	Mastery  mastery.Config

	Workers int

	// SnapshotKeep is how many mastery snapshots are retained per user.
	SnapshotKeep int

	// TrendWindow is how old the comparison snapshot for decline rules is.
	TrendWindow time.Duration

	Narrator *format.Narrator
	Logger   *slog.Logger
	Now      func() time.Time
}

// Service is the engine facade.
type Service struct {
	store     *store.Store
	engine    *suggestion.Engine
	scheduler *spacedrep.Scheduler
	narrator  *format.Narrator
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
	locks     *userLocks
}

// New creates a Service over st.
func New(st *store.Store, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Registry == nil {
		opts.Registry = suggestion.DefaultRegistry()
	}
	if opts.Urgency == (spacedrep.Urgency{}) {
		opts.Urgency = spacedrep.DefaultUrgency()
	}
	if opts.SnapshotKeep <= 0 {
		opts.SnapshotKeep = DefaultSnapshotKeep
	}
	if opts.TrendWindow <= 0 {
		opts.TrendWindow = DefaultTrendWindow
	}
	if opts.Narrator == nil {
		opts.Narrator = format.NewNarrator(nil, opts.Logger)
	}

	return &Service{
		store:     st,
		engine:    suggestion.NewEngine(opts.Registry, opts.Engine, opts.Logger),
		scheduler: spacedrep.NewScheduler(opts.Policy, opts.Urgency),
		narrator:  opts.Narrator,
		opts:      opts,
		logger:    opts.Logger,
		now:       opts.Now,
		locks:     newUserLocks(),
	}
}

// RunBatch evaluates every user from offset in pages of batchSize with the
// daily-analysis trigger.
func (s *Service) RunBatch(ctx context.Context, batchSize, offset int) (batch.Report, error) {
	triggers := []suggestion.TriggerType{suggestion.TriggerDailyAnalysis}
	pipeline := func(ctx context.Context, userID string) (bool, error) {
		out, err := s.evaluate(ctx, userID, triggers)
		if err != nil {
			return false, err
		}
		return out.updated, nil
	}

	runner := batch.NewRunner(s.store.Repos().Users, pipeline, batch.Config{
		Workers: s.opts.Workers,
		IsFatal: store.IsUnavailable,
	}, s.logger)

	rep, err := runner.Run(ctx, batchSize, offset)
	s.logger.Info("batch finished",
		"processed", rep.UsersProcessed,
		"updated", rep.UsersUpdated,
		"failed", rep.UsersFailed,
		"pages", rep.Pages,
		"duration", rep.Duration)
	return rep, err
}

// EvaluateUser runs the pipeline for one user and returns the active
// suggestions. Repeating it with unchanged data changes nothing.
func (s *Service) EvaluateUser(ctx context.Context, userID string, triggers []suggestion.TriggerType) ([]suggestion.Suggestion, error) {
	if len(triggers) == 0 {
		triggers = []suggestion.TriggerType{suggestion.TriggerDailyAnalysis}
	}
	out, err := s.evaluate(ctx, userID, triggers)
	if err != nil {
		return nil, err
	}
	return out.result.Active, nil
}

// MasterySnapshot computes the user's current mastery tree without
// persisting anything.
func (s *Service) MasterySnapshot(ctx context.Context, userID string) (*mastery.Node, error) {
	var root *mastery.Node
	err := s.store.InTx(ctx, func(r store.Repos) error {
		if err := requireUser(ctx, r, userID); err != nil {
			return err
		}
		var err error
		root, _, err = s.computeMastery(ctx, r, userID)
		return err
	})
	return root, err
}

// Analysis builds the learner summary from live mastery, the review plan and
// active suggestions.
func (s *Service) Analysis(ctx context.Context, userID string) (format.Analysis, error) {
	now := s.now()
	var a format.Analysis
	err := s.store.InTx(ctx, func(r store.Repos) error {
		if err := requireUser(ctx, r, userID); err != nil {
			return err
		}
		root, _, err := s.computeMastery(ctx, r, userID)
		if err != nil {
			return err
		}
		days, hasExam, err := spacedrep.NewExamDateService(r.Exams, func() time.Time { return now }).DaysUntilExam(ctx, userID)
		if err != nil {
			return err
		}
		due := spacedrep.Due(s.scheduler.Plan(root, days, hasExam, now), now)
		active, err := activeAt(ctx, r, userID, now)
		if err != nil {
			return err
		}
		a = format.NewAnalysis(userID, root, due, days, hasExam, active)
		return nil
	})
	return a, err
}

// FormatSuggestion renders an analysis in the given tone.
func (s *Service) FormatSuggestion(a format.Analysis, tone format.Tone) string {
	return format.Format(a, tone)
}

// Narrate renders an analysis through the configured narrator.
func (s *Service) Narrate(ctx context.Context, a format.Analysis, tone format.Tone) format.Narration {
	return s.narrator.Narrate(ctx, a, tone)
}

// ActiveSuggestions lists a user's active suggestions that are still inside
// their display window.
func (s *Service) ActiveSuggestions(ctx context.Context, userID string) ([]suggestion.Suggestion, error) {
	return activeAt(ctx, s.store.Repos(), userID, s.now())
}

// DismissSuggestion closes one of a user's suggestions.
func (s *Service) DismissSuggestion(ctx context.Context, userID, id string) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	return s.store.InTx(ctx, func(r store.Repos) error {
		return s.engine.Dismiss(ctx, r.Suggestions, userID, id, s.now())
	})
}

// Reviews returns the user's persisted review schedule.
func (s *Service) Reviews(ctx context.Context, userID string) ([]spacedrep.Entry, error) {
	return s.store.Repos().Schedules.List(ctx, userID)
}

// ExpireAll expires stale open suggestions of every user.
func (s *Service) ExpireAll(ctx context.Context) (int, error) {
	n, err := s.store.Repos().Suggestions.ExpireAll(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.logger.Info("expired suggestions", "count", n)
	return n, nil
}

func requireUser(ctx context.Context, r store.Repos, userID string) error {
	u, err := r.Users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}
	return nil
}

func activeAt(ctx context.Context, r store.Repos, userID string, now time.Time) ([]suggestion.Suggestion, error) {
	all, err := r.Suggestions.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, sg := range all {
		if !sg.Expired(now) {
			out = append(out, sg)
		}
	}
	return out, nil
}
