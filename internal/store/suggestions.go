package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/prepcoach/internal/suggestion"
)

type suggestionRepo struct{ querier }

var suggestionColumns = []string{
	"id", "user_id", "type", "trigger_type", "category", "priority", "message",
	"action_name", "action_url", "display_until", "status", "created_at", "updated_at",
}

func openStatuses() *entsql.Predicate {
	return entsql.In("status", string(suggestion.StatusPending), string(suggestion.StatusActive))
}

func (r *suggestionRepo) ExpireStale(ctx context.Context, userID string, now time.Time) (int, error) {
	return r.expire(ctx, entsql.EQ("user_id", userID), now)
}

func (r *suggestionRepo) ExpireAll(ctx context.Context, now time.Time) (int, error) {
	return r.expire(ctx, nil, now)
}

func (r *suggestionRepo) expire(ctx context.Context, scope *entsql.Predicate, now time.Time) (int, error) {
	preds := []*entsql.Predicate{
		openStatuses(),
		entsql.NotNull("display_until"),
		entsql.LT("display_until", now.UTC()),
	}
	if scope != nil {
		preds = append(preds, scope)
	}
	upd := r.b.Update(tableSuggestions).
		Set("status", string(suggestion.StatusExpired)).
		SetNull("open_key").
		Set("updated_at", now.UTC()).
		Where(entsql.And(preds...))

	res, err := r.exec(ctx, upd)
	if err != nil {
		return 0, fmt.Errorf("expire suggestions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *suggestionRepo) Upsert(ctx context.Context, s suggestion.Suggestion) (suggestion.Suggestion, bool, error) {
	key := s.OpenKey()
	ins := r.b.Insert(tableSuggestions).
		Columns(append(suggestionColumns, "open_key")...).
		Values(
			s.ID, s.UserID, s.Type, string(s.TriggerType), string(s.Category), s.Priority, s.Message,
			s.ActionName, s.ActionURL, utcPtr(s.DisplayUntil), string(s.Status), s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
			key,
		).
		OnConflict(
			entsql.ConflictColumns("open_key"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("type")
				u.SetExcluded("priority")
				u.SetExcluded("message")
				u.SetExcluded("action_name")
				u.SetExcluded("action_url")
				u.SetExcluded("display_until")
				u.SetExcluded("updated_at")
			}),
		)
	if _, err := r.exec(ctx, ins); err != nil {
		return suggestion.Suggestion{}, false, fmt.Errorf("upsert suggestion %s: %w", key, err)
	}

	stored, err := r.one(ctx, entsql.EQ("open_key", key))
	if err != nil {
		return suggestion.Suggestion{}, false, err
	}
	return stored, stored.ID == s.ID, nil
}

func (r *suggestionRepo) ActivatePending(ctx context.Context, userID string, now time.Time) (int, error) {
	upd := r.b.Update(tableSuggestions).
		Set("status", string(suggestion.StatusActive)).
		Set("updated_at", now.UTC()).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("status", string(suggestion.StatusPending)),
		))
	res, err := r.exec(ctx, upd)
	if err != nil {
		return 0, fmt.Errorf("activate suggestions for %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *suggestionRepo) ListActive(ctx context.Context, userID string) ([]suggestion.Suggestion, error) {
	return r.list(ctx, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("status", string(suggestion.StatusActive)),
	), 0, entsql.Desc("priority"), "created_at", "id")
}

func (r *suggestionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]suggestion.Suggestion, error) {
	return r.list(ctx, entsql.EQ("user_id", userID), limit, entsql.Desc("created_at"), entsql.Desc("id"))
}

func (r *suggestionRepo) Get(ctx context.Context, userID, id string) (suggestion.Suggestion, error) {
	return r.one(ctx, entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID)))
}

func (r *suggestionRepo) SetStatus(ctx context.Context, id string, status suggestion.Status, now time.Time) error {
	upd := r.b.Update(tableSuggestions).
		Set("status", string(status)).
		Set("updated_at", now.UTC()).
		Where(entsql.EQ("id", id))
	if status.Terminal() {
		upd.SetNull("open_key")
	}
	res, err := r.exec(ctx, upd)
	if err != nil {
		return fmt.Errorf("set suggestion %s status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return suggestion.ErrNotFound
	}
	return nil
}

func (r *suggestionRepo) one(ctx context.Context, where *entsql.Predicate) (suggestion.Suggestion, error) {
	out, err := r.list(ctx, where, 1)
	if err != nil {
		return suggestion.Suggestion{}, err
	}
	if len(out) == 0 {
		return suggestion.Suggestion{}, suggestion.ErrNotFound
	}
	return out[0], nil
}

func (r *suggestionRepo) list(ctx context.Context, where *entsql.Predicate, limit int, order ...string) ([]suggestion.Suggestion, error) {
	sel := r.b.Select(suggestionColumns...).
		From(r.b.Table(tableSuggestions)).
		Where(where)
	if len(order) > 0 {
		sel.OrderBy(order...)
	}
	if limit > 0 {
		sel.Limit(limit)
	}

	rows, err := r.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("query suggestions: %w", err)
	}
	defer rows.Close()

	var out []suggestion.Suggestion
	for rows.Next() {
		var (
			s     suggestion.Suggestion
			until sql.NullTime
		)
		err := rows.Scan(
			&s.ID, &s.UserID, &s.Type, &s.TriggerType, &s.Category, &s.Priority, &s.Message,
			&s.ActionName, &s.ActionURL, &until, &s.Status, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		if until.Valid {
			t := until.Time
			s.DisplayUntil = &t
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

