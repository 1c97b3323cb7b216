package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type examRepo struct{ querier }

func (r *examRepo) LatestExamDate(ctx context.Context, userID string) (*time.Time, error) {
	sel := r.b.Select("exam_date").
		From(r.b.Table(tableExams)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("registered_at"), entsql.Desc("id")).
		Limit(1)

	var d time.Time
	err := r.queryRow(ctx, sel).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest exam for %s: %w", userID, err)
	}
	return &d, nil
}

func (r *examRepo) Register(ctx context.Context, userID string, examDate, registeredAt time.Time) error {
	ins := r.b.Insert(tableExams).
		Columns("user_id", "exam_date", "registered_at").
		Values(userID, examDate.UTC(), registeredAt.UTC())
	if _, err := r.exec(ctx, ins); err != nil {
		return fmt.Errorf("register exam for %s: %w", userID, err)
	}
	return nil
}
