package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/prepcoach/internal/mastery"
)

type snapshotRepo struct{ querier }

func (r *snapshotRepo) Save(ctx context.Context, userID string, takenAt time.Time, root *mastery.Node) error {
	if root == nil {
		return errors.New("save snapshot: nil tree")
	}
	data, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	ins := r.b.Insert(tableSnapshots).
		Columns("user_id", "taken_at", "overall", "data").
		Values(userID, takenAt.UTC(), root.Mastery, string(data))
	if _, err := r.exec(ctx, ins); err != nil {
		return fmt.Errorf("save snapshot for %s: %w", userID, err)
	}
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context, userID string) (*MasterySnapshot, error) {
	return r.one(ctx, entsql.EQ("user_id", userID))
}

func (r *snapshotRepo) AtOrBefore(ctx context.Context, userID string, t time.Time) (*MasterySnapshot, error) {
	return r.one(ctx, entsql.And(entsql.EQ("user_id", userID), entsql.LTE("taken_at", t.UTC())))
}

func (r *snapshotRepo) one(ctx context.Context, where *entsql.Predicate) (*MasterySnapshot, error) {
	sel := r.b.Select("id", "user_id", "taken_at", "data").
		From(r.b.Table(tableSnapshots)).
		Where(where).
		OrderBy(entsql.Desc("taken_at"), entsql.Desc("id")).
		Limit(1)

	var (
		s    MasterySnapshot
		data []byte
	)
	err := r.queryRow(ctx, sel).Scan(&s.ID, &s.UserID, &s.TakenAt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	s.Root = &mastery.Node{}
	if err := json.Unmarshal(data, s.Root); err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", s.ID, err)
	}
	return &s, nil
}

func (r *snapshotRepo) Prune(ctx context.Context, userID string, keep int) error {
	if keep <= 0 {
		return nil
	}
	sel := r.b.Select("id").
		From(r.b.Table(tableSnapshots)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("taken_at"), entsql.Desc("id"))

	rows, err := r.query(ctx, sel)
	if err != nil {
		return fmt.Errorf("list snapshots for %s: %w", userID, err)
	}
	var stale []any
	for i := 0; rows.Next(); i++ {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan snapshot: %w", err)
		}
		if i >= keep {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	del := r.b.Delete(tableSnapshots).Where(entsql.In("id", stale...))
	if _, err := r.exec(ctx, del); err != nil {
		return fmt.Errorf("prune snapshots for %s: %w", userID, err)
	}
	return nil
}
