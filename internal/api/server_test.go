package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepcoach/internal/attempt"
	"github.com/abhisek/prepcoach/internal/coach"
	"github.com/abhisek/prepcoach/internal/curriculum"
	"github.com/abhisek/prepcoach/internal/store"
)

const secret = "test-secret"

var now = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := coach.New(st, coach.Options{Now: func() time.Time { return now }})
	tree := curriculum.Tree{Subjects: []curriculum.Subject{{
		ID: "verbal", Name: "Verbal",
		Topics: []curriculum.Topic{{
			ID: "rc", Name: "Reading",
			Subtopics: []curriculum.Subtopic{{ID: "inference", Name: "Inference"}},
		}},
	}}}
	ds := coach.Dataset{
		Curriculum: &tree,
		Users:      []store.User{{ID: "u1"}, {ID: "u2"}},
		Questions: []coach.QuestionRecord{{
			ID:       "q1",
			Question: attempt.Question{Difficulty: 2, QuestionTime: 60, SubjectID: "verbal", TopicID: "rc", SubtopicID: "inference"},
		}},
		Attempts: []attempt.Attempt{
			{UserID: "u1", QuestionID: "q1", Timing: 40, Status: attempt.StatusIncorrect, SolvedAt: now.Add(-time.Hour)},
			{UserID: "u1", QuestionID: "q1", Timing: 40, Status: attempt.StatusIncorrect, SolvedAt: now.Add(-time.Minute)},
		},
	}
	_, err = svc.Import(context.Background(), ds)
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(svc, Options{Verifier: NewVerifier(secret)}))
	t.Cleanup(srv.Close)
	return srv
}

func token(t *testing.T, userID, role string, key string) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, method, url, tok, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL + "/api/v1/users/u1/mastery"

	tests := []struct {
		name   string
		tok    string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"wrong key", token(t, "u1", "", "other"), http.StatusUnauthorized},
		{"other user", token(t, "u2", "", secret), http.StatusForbidden},
		{"own user", token(t, "u1", "", secret), http.StatusOK},
		{"admin", token(t, "ops", RoleAdmin, secret), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := do(t, http.MethodGet, url, tt.tok, "")
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestBatch_RequiresAdmin(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := do(t, http.MethodPost, srv.URL+"/api/v1/jobs/batch", token(t, "u1", "", secret), "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/jobs/batch", token(t, "ops", RoleAdmin, secret), `{"batch_size":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2.0, body["users_processed"])
	assert.Equal(t, 2.0, body["pages"])

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/jobs/batch", token(t, "ops", RoleAdmin, secret), `{"batch_size":-1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, http.MethodPost, srv.URL+"/api/v1/jobs/expire", token(t, "ops", RoleAdmin, secret), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0.0, body["expired"])
}

func TestEvaluateAndDismiss(t *testing.T) {
	srv := newTestServer(t)
	tok := token(t, "u1", "", secret)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/v1/users/u1/evaluate", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list, ok := body["suggestions"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, list)
	id := list[0].(map[string]any)["id"].(string)

	resp, body = do(t, http.MethodGet, srv.URL+"/api/v1/users/u1/suggestions?tone=urgent", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "urgent", body["tone"])
	assert.NotEmpty(t, body["text"])
	assert.Nil(t, body["narration"])

	resp, body = do(t, http.MethodGet, srv.URL+"/api/v1/users/u1/suggestions?narrate=true", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	narration, ok := body["narration"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, narration["generated"])

	resp, body = do(t, http.MethodGet, srv.URL+"/api/v1/users/u1/reviews", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["reviews"], 1)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/users/u1/suggestions/"+id+"/dismiss", tok, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/users/u1/suggestions/"+id+"/dismiss", tok, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/v1/users/u1/suggestions/nope/dismiss", tok, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownUser(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := do(t, http.MethodPost, srv.URL+"/api/v1/users/ghost/evaluate", token(t, "ops", RoleAdmin, secret), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNoVerifierAllowsAll(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "open.db"))
	require.NoError(t, err)
	defer st.Close()

	h := NewServer(coach.New(st, coach.Options{}), Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/jobs/expire", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifier_RejectsOtherAlgorithms(t *testing.T) {
	v := NewVerifier(secret)
	claims := Claims{UserID: "u1", Role: RoleAdmin}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = v.Verify(tok)
	assert.Error(t, err)

	good, err := v.Verify(token(t, "u1", RoleAdmin, secret))
	require.NoError(t, err)
	assert.Equal(t, "u1", good.UserID)
}
