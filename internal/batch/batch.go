// Package batch pages through the user population and runs a per-user
// pipeline with bounded parallelism.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the per-page parallelism when none is configured.
const DefaultWorkers = 4

// ErrInvalidArgs is returned for a non-positive batch size or negative offset.
var ErrInvalidArgs = errors.New("invalid batch arguments")

// Directory lists users to process.
type Directory interface {
	CountUsers(ctx context.Context) (int, error)
	ListUsers(ctx context.Context, skip, take int) ([]string, error)
}

// Pipeline processes one user and reports whether anything was written.
type Pipeline func(ctx context.Context, userID string) (updated bool, err error)

// Config tunes a Runner.
type Config struct {
	Workers int

	// IsFatal reports errors that must stop the whole run, such as lost
	// storage connectivity. Nil treats every error as per-user.
	IsFatal func(error) bool
}

// Failure records one user whose pipeline failed.
type Failure struct {
	UserID string `json:"user_id"`
	Err    error  `json:"-"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("user %s: %v", f.UserID, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report summarises a run. For a stable population UsersProcessed +
// UsersFailed equals the number of users at or after the start offset.
type Report struct {
	UsersProcessed int           `json:"users_processed"`
	UsersUpdated   int           `json:"users_updated"`
	UsersFailed    int           `json:"users_failed"`
	Pages          int           `json:"pages"`
	Total          int           `json:"total"`
	Failures       []Failure     `json:"failures,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// Runner executes a Pipeline over every user in a Directory.
type Runner struct {
	dir      Directory
	pipeline Pipeline
	cfg      Config
	logger   *slog.Logger
}

// NewRunner creates a Runner. A nil logger uses slog.Default().
func NewRunner(dir Directory, pipeline Pipeline, cfg Config, logger *slog.Logger) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{dir: dir, pipeline: pipeline, cfg: cfg, logger: logger}
}

// Run processes users from offset in pages of batchSize. The population size
// is captured once at the start. Pages run in order; users within a page run
// concurrently. Per-user errors are collected in the report; a fatal error,
// a listing error or cancellation stops the run and returns the partial
// report with the error.
func (r *Runner) Run(ctx context.Context, batchSize, offset int) (Report, error) {
	start := time.Now()
	var rep Report

	if batchSize <= 0 || offset < 0 {
		return rep, fmt.Errorf("%w: batch size %d, offset %d", ErrInvalidArgs, batchSize, offset)
	}

	total, err := r.dir.CountUsers(ctx)
	if err != nil {
		return rep, fmt.Errorf("count users: %w", err)
	}
	rep.Total = total
	r.logger.Info("batch started", "total", total, "batch_size", batchSize, "offset", offset, "workers", r.cfg.Workers)

	for skip := offset; skip < total; skip += batchSize {
		if err := ctx.Err(); err != nil {
			return r.finish(rep, start), err
		}

		ids, err := r.dir.ListUsers(ctx, skip, batchSize)
		if err != nil {
			return r.finish(rep, start), fmt.Errorf("list users at offset %d: %w", skip, err)
		}
		if len(ids) == 0 {
			break
		}
		rep.Pages++

		if err := r.runPage(ctx, ids, &rep); err != nil {
			return r.finish(rep, start), err
		}
		r.logger.Debug("batch page done", "page", rep.Pages, "offset", skip, "users", len(ids))
	}

	rep = r.finish(rep, start)
	r.logger.Info("batch finished",
		"processed", rep.UsersProcessed,
		"updated", rep.UsersUpdated,
		"failed", rep.UsersFailed,
		"pages", rep.Pages,
	)
	return rep, nil
}

func (r *Runner) runPage(ctx context.Context, ids []string, rep *Report) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	var mu sync.Mutex
	for _, id := range ids {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			updated, err := r.pipeline(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rep.UsersFailed++
				rep.Failures = append(rep.Failures, Failure{UserID: id, Err: err})
				r.logger.Warn("user pipeline failed", "user", id, "error", err)
				if r.cfg.IsFatal != nil && r.cfg.IsFatal(err) {
					return fmt.Errorf("user %s: %w", id, err)
				}
				return nil
			}
			rep.UsersProcessed++
			if updated {
				rep.UsersUpdated++
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *Runner) finish(rep Report, start time.Time) Report {
	rep.Duration = time.Since(start)
	sort.Slice(rep.Failures, func(i, j int) bool {
		return rep.Failures[i].UserID < rep.Failures[j].UserID
	})
	return rep
}
