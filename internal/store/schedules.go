package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/prepcoach/internal/spacedrep"
)

type scheduleRepo struct{ querier }

func (r *scheduleRepo) Replace(ctx context.Context, userID string, entries []spacedrep.Entry, now time.Time) error {
	keep := make([]any, 0, len(entries))
	for _, e := range entries {
		ins := r.b.Insert(tableSchedules).
			Columns("user_id", "subtopic_id", "last_reviewed_at", "interval_days", "next_review_at", "mastery", "overdue_days", "updated_at").
			Values(userID, e.SubtopicID, e.LastReviewedAt.UTC(), e.IntervalDays, e.NextReviewAt.UTC(), e.Mastery, e.OverdueDays, now.UTC()).
			OnConflict(
				entsql.ConflictColumns("user_id", "subtopic_id"),
				entsql.ResolveWith(func(s *entsql.UpdateSet) {
					s.SetExcluded("last_reviewed_at")
					s.SetExcluded("interval_days")
					s.SetExcluded("next_review_at")
					s.SetExcluded("mastery")
					s.SetExcluded("overdue_days")
					s.SetExcluded("updated_at")
				}),
			)
		if _, err := r.exec(ctx, ins); err != nil {
			return fmt.Errorf("upsert schedule %s/%s: %w", userID, e.SubtopicID, err)
		}
		keep = append(keep, e.SubtopicID)
	}

	where := entsql.EQ("user_id", userID)
	if len(keep) > 0 {
		where = entsql.And(where, entsql.NotIn("subtopic_id", keep...))
	}
	if _, err := r.exec(ctx, r.b.Delete(tableSchedules).Where(where)); err != nil {
		return fmt.Errorf("remove stale schedules for %s: %w", userID, err)
	}
	return nil
}

func (r *scheduleRepo) List(ctx context.Context, userID string) ([]spacedrep.Entry, error) {
	sel := r.b.Select("subtopic_id", "last_reviewed_at", "interval_days", "next_review_at", "mastery", "overdue_days").
		From(r.b.Table(tableSchedules)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("next_review_at", "subtopic_id")

	rows, err := r.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list schedules for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []spacedrep.Entry
	for rows.Next() {
		var e spacedrep.Entry
		if err := rows.Scan(&e.SubtopicID, &e.LastReviewedAt, &e.IntervalDays, &e.NextReviewAt, &e.Mastery, &e.OverdueDays); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
