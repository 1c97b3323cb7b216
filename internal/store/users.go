package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

type userRepo struct{ querier }

func (r *userRepo) Upsert(ctx context.Context, u User) error {
	ins := r.b.Insert(tableUsers).
		Columns("id", "name", "email", "created_at").
		Values(u.ID, u.Name, u.Email, u.CreatedAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(s *entsql.UpdateSet) {
				s.SetExcluded("name")
				s.SetExcluded("email")
			}),
		)
	if _, err := r.exec(ctx, ins); err != nil {
		return fmt.Errorf("upsert user %s: %w", u.ID, err)
	}
	return nil
}

func (r *userRepo) Get(ctx context.Context, id string) (*User, error) {
	sel := r.b.Select("id", "name", "email", "created_at").
		From(r.b.Table(tableUsers)).
		Where(entsql.EQ("id", id))

	var u User
	err := r.queryRow(ctx, sel).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

func (r *userRepo) CountUsers(ctx context.Context) (int, error) {
	sel := r.b.Select(entsql.Count("*")).From(r.b.Table(tableUsers))

	var n int
	if err := r.queryRow(ctx, sel).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *userRepo) ListUsers(ctx context.Context, skip, take int) ([]string, error) {
	sel := r.b.Select("id").
		From(r.b.Table(tableUsers)).
		OrderBy("id").
		Limit(take).
		Offset(skip)

	rows, err := r.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
