package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/prepcoach/internal/attempt"
	"github.com/abhisek/prepcoach/internal/curriculum"
)

type curriculumRepo struct{ querier }

// node is a row of any of the three curriculum tables.
type node struct {
	id, parent, name string
	weightage        float64
	orderIndex       int
}

func (r *curriculumRepo) Tree(ctx context.Context) (curriculum.Tree, error) {
	subjects, err := r.nodes(ctx, tableSubjects, "")
	if err != nil {
		return curriculum.Tree{}, err
	}
	topics, err := r.nodes(ctx, tableTopics, "subject_id")
	if err != nil {
		return curriculum.Tree{}, err
	}
	subtopics, err := r.nodes(ctx, tableSubtopics, "topic_id")
	if err != nil {
		return curriculum.Tree{}, err
	}

	byTopic := make(map[string][]curriculum.Subtopic)
	for _, n := range subtopics {
		byTopic[n.parent] = append(byTopic[n.parent], curriculum.Subtopic{
			ID: n.id, Name: n.name, Weightage: n.weightage, OrderIndex: n.orderIndex,
		})
	}
	bySubject := make(map[string][]curriculum.Topic)
	for _, n := range topics {
		bySubject[n.parent] = append(bySubject[n.parent], curriculum.Topic{
			ID: n.id, Name: n.name, Weightage: n.weightage, OrderIndex: n.orderIndex,
			Subtopics: byTopic[n.id],
		})
	}

	var tree curriculum.Tree
	for _, n := range subjects {
		tree.Subjects = append(tree.Subjects, curriculum.Subject{
			ID: n.id, Name: n.name, Weightage: n.weightage, OrderIndex: n.orderIndex,
			Topics: bySubject[n.id],
		})
	}
	tree.Sort()
	return tree, nil
}

func (r *curriculumRepo) nodes(ctx context.Context, table, parentCol string) ([]node, error) {
	cols := []string{"id", "name", "weightage", "order_index"}
	if parentCol != "" {
		cols = append(cols, parentCol)
	}
	rows, err := r.query(ctx, r.b.Select(cols...).From(r.b.Table(table)))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []node
	for rows.Next() {
		var n node
		dest := []any{&n.id, &n.name, &n.weightage, &n.orderIndex}
		if parentCol != "" {
			dest = append(dest, &n.parent)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *curriculumRepo) Save(ctx context.Context, tree curriculum.Tree) error {
	if err := tree.Validate(); err != nil {
		return err
	}
	for _, s := range tree.Subjects {
		if err := r.upsert(ctx, tableSubjects, "", node{id: s.ID, name: s.Name, weightage: s.Weightage, orderIndex: s.OrderIndex}); err != nil {
			return err
		}
		for _, t := range s.Topics {
			if err := r.upsert(ctx, tableTopics, "subject_id", node{id: t.ID, parent: s.ID, name: t.Name, weightage: t.Weightage, orderIndex: t.OrderIndex}); err != nil {
				return err
			}
			for _, st := range t.Subtopics {
				if err := r.upsert(ctx, tableSubtopics, "topic_id", node{id: st.ID, parent: t.ID, name: st.Name, weightage: st.Weightage, orderIndex: st.OrderIndex}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *curriculumRepo) upsert(ctx context.Context, table, parentCol string, n node) error {
	cols := []string{"id", "name", "weightage", "order_index"}
	vals := []any{n.id, n.name, n.weightage, n.orderIndex}
	if parentCol != "" {
		cols = append(cols, parentCol)
		vals = append(vals, n.parent)
	}
	ins := r.b.Insert(table).
		Columns(cols...).
		Values(vals...).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(s *entsql.UpdateSet) {
				for _, c := range cols[1:] {
					s.SetExcluded(c)
				}
			}),
		)
	if _, err := r.exec(ctx, ins); err != nil {
		return fmt.Errorf("upsert %s %s: %w", table, n.id, err)
	}
	return nil
}

type questionRepo struct{ querier }

func (r *questionRepo) Upsert(ctx context.Context, id string, q attempt.Question) error {
	ins := r.b.Insert(tableQuestions).
		Columns("id", "subject_id", "topic_id", "subtopic_id", "difficulty", "question_time").
		Values(id, q.SubjectID, q.TopicID, q.SubtopicID, q.Difficulty, q.QuestionTime).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		)
	if _, err := r.exec(ctx, ins); err != nil {
		return fmt.Errorf("upsert question %s: %w", id, err)
	}
	return nil
}
