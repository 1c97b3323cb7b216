package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/abhisek/prepcoach/internal/attempt"
	"github.com/abhisek/prepcoach/internal/curriculum"
	"github.com/abhisek/prepcoach/internal/store"
)

// Dataset is the import file format.
type Dataset struct {
	Curriculum *curriculum.Tree   `json:"curriculum,omitempty"`
	Users      []store.User       `json:"users,omitempty"`
	Questions  []QuestionRecord   `json:"questions,omitempty"`
	Attempts   []attempt.Attempt  `json:"attempts,omitempty"`
	Exams      []ExamRegistration `json:"exams,omitempty"`
}

// QuestionRecord is a question row in a Dataset.
type QuestionRecord struct {
	ID string `json:"id"`
	attempt.Question
}

// ExamRegistration is an exam row in a Dataset.
type ExamRegistration struct {
	UserID       string    `json:"user_id"`
	ExamDate     time.Time `json:"exam_date"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ImportStats counts imported rows.
type ImportStats struct {
	Subjects  int `json:"subjects"`
	Users     int `json:"users"`
	Questions int `json:"questions"`
	Attempts  int `json:"attempts"`
	Exams     int `json:"exams"`
}

// DecodeDataset reads a JSON dataset.
func DecodeDataset(r io.Reader) (Dataset, error) {
	var d Dataset
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	return d, nil
}

// Import writes a dataset in one transaction. Attempt question metadata is
// taken from the questions table, so each attempt's question must be listed
// or already stored.
func (s *Service) Import(ctx context.Context, d Dataset) (ImportStats, error) {
	var st ImportStats
	now := s.now()
	err := s.store.InTx(ctx, func(r store.Repos) error {
		if d.Curriculum != nil {
			if err := r.Curriculum.Save(ctx, *d.Curriculum); err != nil {
				return err
			}
			st.Subjects = len(d.Curriculum.Subjects)
		}
		for _, u := range d.Users {
			if u.ID == "" {
				return errors.New("user without id")
			}
			if u.CreatedAt.IsZero() {
				u.CreatedAt = now
			}
			if err := r.Users.Upsert(ctx, u); err != nil {
				return err
			}
			st.Users++
		}
		for _, q := range d.Questions {
			if err := r.Questions.Upsert(ctx, q.ID, q.Question); err != nil {
				return err
			}
			st.Questions++
		}
		for _, a := range d.Attempts {
			if err := r.Attempts.Add(ctx, a); err != nil {
				return err
			}
			st.Attempts++
		}
		for _, e := range d.Exams {
			at := e.RegisteredAt
			if at.IsZero() {
				at = now
			}
			if err := r.Exams.Register(ctx, e.UserID, e.ExamDate, at); err != nil {
				return err
			}
			st.Exams++
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, fmt.Errorf("import: %w", err)
	}
	s.logger.Info("dataset imported",
		"subjects", st.Subjects, "users", st.Users, "questions", st.Questions,
		"attempts", st.Attempts, "exams", st.Exams)
	return st, nil
}
