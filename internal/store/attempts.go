package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/prepcoach/internal/attempt"
)

type attemptRepo struct{ querier }

func (r *attemptRepo) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]attempt.Attempt, error) {
	a := r.b.Table(tableAttempts)
	q := r.b.Table(tableQuestions).As("q")

	preds := []*entsql.Predicate{entsql.EQ(a.C("user_id"), userID)}
	if !from.IsZero() {
		preds = append(preds, entsql.GTE(a.C("solved_at"), from.UTC()))
	}
	if !to.IsZero() {
		preds = append(preds, entsql.LT(a.C("solved_at"), to.UTC()))
	}

	sel := r.b.Select(
		a.C("user_id"), a.C("question_id"), a.C("timing"), a.C("reaction_time"),
		a.C("status"), a.C("hints_used"), a.C("solved_at"),
		q.C("difficulty"), q.C("question_time"), q.C("subject_id"), q.C("topic_id"), q.C("subtopic_id"),
	).
		From(a).
		Join(q).On(a.C("question_id"), q.C("id")).
		Where(entsql.And(preds...)).
		OrderBy(a.C("solved_at"), a.C("id"))

	rows, err := r.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list attempts for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []attempt.Attempt
	for rows.Next() {
		var (
			at       attempt.Attempt
			reaction sql.NullFloat64
			hints    int
		)
		err := rows.Scan(
			&at.UserID, &at.QuestionID, &at.Timing, &reaction,
			&at.Status, &hints, &at.SolvedAt,
			&at.Question.Difficulty, &at.Question.QuestionTime,
			&at.Question.SubjectID, &at.Question.TopicID, &at.Question.SubtopicID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if reaction.Valid {
			v := reaction.Float64
			at.ReactionTime = &v
		}
		at.HintsUsed = hints != 0
		out = append(out, at)
	}
	return out, rows.Err()
}

func (r *attemptRepo) Add(ctx context.Context, at attempt.Attempt) error {
	if !at.Status.Valid() {
		return fmt.Errorf("add attempt: unknown status %q", at.Status)
	}
	var reaction any
	if at.ReactionTime != nil {
		reaction = *at.ReactionTime
	}
	hints := 0
	if at.HintsUsed {
		hints = 1
	}

	ins := r.b.Insert(tableAttempts).
		Columns("id", "user_id", "question_id", "timing", "reaction_time", "status", "hints_used", "solved_at").
		Values(uuid.NewString(), at.UserID, at.QuestionID, at.Timing, reaction, string(at.Status), hints, at.SolvedAt.UTC())
	if _, err := r.exec(ctx, ins); err != nil {
		return fmt.Errorf("add attempt for %s: %w", at.UserID, err)
	}
	return nil
}
