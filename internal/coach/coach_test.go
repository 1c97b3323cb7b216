package coach

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepcoach/internal/attempt"
	"github.com/abhisek/prepcoach/internal/curriculum"
	"github.com/abhisek/prepcoach/internal/format"
	"github.com/abhisek/prepcoach/internal/store"
	"github.com/abhisek/prepcoach/internal/suggestion"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func dataset() Dataset {
	tree := curriculum.Tree{Subjects: []curriculum.Subject{{
		ID: "math", Name: "Mathematics", Weightage: 1,
		Topics: []curriculum.Topic{{
			ID: "alg", Name: "Algebra", Weightage: 1,
			Subtopics: []curriculum.Subtopic{
				{ID: "lin", Name: "Linear", Weightage: 1, OrderIndex: 1},
				{ID: "quad", Name: "Quadratic", Weightage: 1, OrderIndex: 2},
			},
		}},
	}}}

	d := Dataset{
		Curriculum: &tree,
		Users: []store.User{
			{ID: "u1", Name: "Ada"},
			{ID: "u2", Name: "Grace"},
			{ID: "u3", Name: "Linus"},
		},
		Questions: []QuestionRecord{{
			ID:       "q-lin",
			Question: attempt.Question{Difficulty: 2, QuestionTime: 60, SubjectID: "math", TopicID: "alg", SubtopicID: "lin"},
		}},
		Exams: []ExamRegistration{{UserID: "u3", ExamDate: t0.AddDate(0, 0, 20), RegisteredAt: t0.AddDate(0, 0, -30)}},
	}
	for i := 0; i < 10; i++ {
		for _, u := range []string{"u1", "u3"} {
			d.Attempts = append(d.Attempts, attempt.Attempt{
				UserID: u, QuestionID: "q-lin", Timing: 50, Status: attempt.StatusIncorrect,
				SolvedAt: t0.Add(-time.Duration(10-i) * time.Hour),
			})
		}
	}
	return d
}

func newTestService(t *testing.T) (*Service, *clock) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "coach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	c := &clock{now: t0}
	svc := New(st, Options{Now: c.Now, Workers: 2})
	_, err = svc.Import(context.Background(), dataset())
	require.NoError(t, err)
	return svc, c
}

func categories(ss []suggestion.Suggestion) []suggestion.Category {
	out := make([]suggestion.Category, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.Category)
	}
	return out
}

func ids(ss []suggestion.Suggestion) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.ID)
	}
	return out
}

func TestImport_Stats(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "coach.db"))
	require.NoError(t, err)
	defer st.Close()

	stats, err := New(st, Options{}).Import(context.Background(), dataset())
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Subjects: 1, Users: 3, Questions: 1, Attempts: 20, Exams: 1}, stats)
}

func TestDecodeDataset(t *testing.T) {
	d, err := DecodeDataset(strings.NewReader(`{"users":[{"id":"u9"}],"questions":[{"id":"q1","difficulty":3,"subtopic_id":"lin"}]}`))
	require.NoError(t, err)
	require.Len(t, d.Questions, 1)
	assert.Equal(t, 3, d.Questions[0].Difficulty)
	assert.Equal(t, "lin", d.Questions[0].SubtopicID)

	_, err = DecodeDataset(strings.NewReader(`{"learners":[]}`))
	assert.Error(t, err)
}

func TestEvaluateUser_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	first, err := svc.EvaluateUser(ctx, "u1", nil)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Contains(t, categories(first), suggestion.CategoryWeakArea)

	second, err := svc.EvaluateUser(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(second))

	out, err := svc.evaluate(ctx, "u1", []suggestion.TriggerType{suggestion.TriggerDailyAnalysis})
	require.NoError(t, err)
	assert.False(t, out.updated)
}

func TestEvaluateUser_NewLearnerGetsStarted(t *testing.T) {
	svc, _ := newTestService(t)

	active, err := svc.EvaluateUser(context.Background(), "u2", nil)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "getting-started", active[0].Type)
	assert.Contains(t, active[0].Message, "Linear")
}

func TestEvaluateUser_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.EvaluateUser(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestEvaluateUser_PersistsSchedule(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.EvaluateUser(ctx, "u1", nil)
	require.NoError(t, err)

	reviews, err := svc.Reviews(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, reviews, 1, "unpracticed subtopics are not scheduled")
	assert.Equal(t, "lin", reviews[0].SubtopicID)
	assert.False(t, reviews[0].NextReviewAt.Before(t0))
}

func TestEvaluateUser_ExamCompressesSchedule(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for _, u := range []string{"u1", "u3"} {
		_, err := svc.EvaluateUser(ctx, u, nil)
		require.NoError(t, err)
	}
	plain, err := svc.Reviews(ctx, "u1")
	require.NoError(t, err)
	exam, err := svc.Reviews(ctx, "u3")
	require.NoError(t, err)
	require.Len(t, plain, 1)
	require.Len(t, exam, 1)
	assert.LessOrEqual(t, exam[0].IntervalDays, plain[0].IntervalDays)
}

func TestEvaluateUser_ConcurrentCallsDoNotDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.EvaluateUser(ctx, "u1", nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	active, err := svc.ActiveSuggestions(ctx, "u1")
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, s := range active {
		key := s.OpenKey()
		assert.False(t, seen[key], "duplicate open suggestion %s", key)
		seen[key] = true
	}
}

func TestRunBatch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	rep, err := svc.RunBatch(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Pages)
	assert.Equal(t, 3, rep.UsersProcessed)
	assert.Equal(t, 3, rep.UsersUpdated)
	assert.Zero(t, rep.UsersFailed)

	rep, err = svc.RunBatch(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.UsersProcessed)
	assert.Zero(t, rep.UsersUpdated, "a rerun with unchanged data writes nothing")

	rep, err = svc.RunBatch(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.UsersProcessed)
	assert.Equal(t, 1, rep.Pages)
}

func TestRunBatch_InvalidArgs(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.RunBatch(context.Background(), 0, 0)
	assert.Error(t, err)
}

func TestMasterySnapshot(t *testing.T) {
	svc, _ := newTestService(t)

	root, err := svc.MasterySnapshot(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, root)
	assert.Equal(t, 10, root.TotalAttempts)
	assert.False(t, root.Find("lin").Unpracticed)
	assert.True(t, root.Find("quad").Unpracticed)
	assert.InDelta(t, root.Find("lin").Mastery, root.Mastery, 0.001)

	_, err = svc.MasterySnapshot(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestDismissSuggestion(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	active, err := svc.EvaluateUser(ctx, "u1", nil)
	require.NoError(t, err)
	require.NotEmpty(t, active)
	target := active[0].ID

	require.NoError(t, svc.DismissSuggestion(ctx, "u1", target))
	after, err := svc.ActiveSuggestions(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, ids(after), target)

	err = svc.DismissSuggestion(ctx, "u1", target)
	assert.ErrorIs(t, err, suggestion.ErrInvalidTransition)

	err = svc.DismissSuggestion(ctx, "u2", target)
	assert.ErrorIs(t, err, suggestion.ErrNotFound)
}

func TestExpireAll(t *testing.T) {
	ctx := context.Background()
	svc, c := newTestService(t)

	_, err := svc.RunBatch(ctx, 10, 0)
	require.NoError(t, err)

	n, err := svc.ExpireAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	c.Advance(4 * 24 * time.Hour)
	active, err := svc.ActiveSuggestions(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, active, "suggestions past their window are hidden before the sweep")

	n, err = svc.ExpireAll(ctx)
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestAnalysisAndFormat(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.EvaluateUser(ctx, "u3", nil)
	require.NoError(t, err)

	a, err := svc.Analysis(ctx, "u3")
	require.NoError(t, err)
	assert.True(t, a.Practiced)
	assert.True(t, a.HasExam)
	assert.Equal(t, 20, a.DaysUntilExam)
	assert.Equal(t, 2, a.Subtopics)
	require.NotNil(t, a.Weakest)
	assert.Equal(t, "lin", a.Weakest.ID)
	assert.NotEmpty(t, a.Suggestions)

	text := svc.FormatSuggestion(a, format.ToneUrgent)
	assert.NotEmpty(t, text)
	assert.NotEqual(t, text, svc.FormatSuggestion(a, format.ToneEncouraging))

	n := svc.Narrate(ctx, a, format.ToneNeutral)
	assert.False(t, n.Generated)
	assert.Equal(t, svc.FormatSuggestion(a, format.ToneNeutral), n.Body)
}

func TestUserLocks(t *testing.T) {
	l := newUserLocks()
	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.lock("u1")
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, l.m)
}
