// Package api exposes the engine over HTTP: admin job triggers and per-user
// evaluation, mastery and suggestion endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/abhisek/prepcoach/internal/batch"
	"github.com/abhisek/prepcoach/internal/coach"
	"github.com/abhisek/prepcoach/internal/format"
	"github.com/abhisek/prepcoach/internal/mastery"
	"github.com/abhisek/prepcoach/internal/spacedrep"
	"github.com/abhisek/prepcoach/internal/suggestion"
)

// Coach is the engine surface the API drives.
type Coach interface {
	RunBatch(ctx context.Context, batchSize, offset int) (batch.Report, error)
	EvaluateUser(ctx context.Context, userID string, triggers []suggestion.TriggerType) ([]suggestion.Suggestion, error)
	MasterySnapshot(ctx context.Context, userID string) (*mastery.Node, error)
	Analysis(ctx context.Context, userID string) (format.Analysis, error)
	FormatSuggestion(a format.Analysis, tone format.Tone) string
	Narrate(ctx context.Context, a format.Analysis, tone format.Tone) format.Narration
	DismissSuggestion(ctx context.Context, userID, id string) error
	Reviews(ctx context.Context, userID string) ([]spacedrep.Entry, error)
	ExpireAll(ctx context.Context) (int, error)
}

// Options configures a Server.
type Options struct {
	// Verifier checks bearer tokens. Nil disables authentication.
	Verifier         *Verifier
	CORSOrigins      []string
	DefaultBatchSize int
	Logger           *slog.Logger
}

// Server routes HTTP requests to a Coach.
type Server struct {
	coach     Coach
	verifier  *Verifier
	batchSize int
	logger    *slog.Logger
	handler   http.Handler
}

// NewServer builds the router.
func NewServer(c Coach, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DefaultBatchSize <= 0 {
		opts.DefaultBatchSize = 100
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	s := &Server{coach: c, verifier: opts.Verifier, batchSize: opts.DefaultBatchSize, logger: opts.Logger}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.authenticate)

	admin := api.PathPrefix("/jobs").Subrouter()
	admin.Use(requireAdmin)
	admin.HandleFunc("/batch", s.runBatch).Methods(http.MethodPost)
	admin.HandleFunc("/expire", s.expire).Methods(http.MethodPost)

	users := api.PathPrefix("/users/{id}").Subrouter()
	users.HandleFunc("/evaluate", s.evaluate).Methods(http.MethodPost)
	users.HandleFunc("/mastery", s.mastery).Methods(http.MethodGet)
	users.HandleFunc("/reviews", s.reviews).Methods(http.MethodGet)
	users.HandleFunc("/suggestions", s.suggestions).Methods(http.MethodGet)
	users.HandleFunc("/suggestions/{sid}/dismiss", s.dismiss).Methods(http.MethodPost)

	corsMW := cors.New(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	s.handler = s.logRequests(corsMW.Handler(r))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type batchRequest struct {
	BatchSize int `json:"batch_size"`
	Offset    int `json:"offset"`
}

type batchResponse struct {
	batch.Report
	Error string `json:"error,omitempty"`
}

func (s *Server) runBatch(w http.ResponseWriter, r *http.Request) {
	req := batchRequest{BatchSize: s.batchSize}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	rep, err := s.coach.RunBatch(r.Context(), req.BatchSize, req.Offset)
	if errors.Is(err, batch.ErrInvalidArgs) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp := batchResponse{Report: rep}
	status := http.StatusOK
	if err != nil {
		s.logger.Error("batch stopped early", "error", err)
		resp.Error = err.Error()
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

func (s *Server) expire(w http.ResponseWriter, r *http.Request) {
	n, err := s.coach.ExpireAll(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"expired": n})
}

// userID returns the path user after checking the caller may act on it.
func (s *Server) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if err := authorizeUser(r, id); err != nil {
		s.logger.Debug("forbidden", "error", err)
		writeError(w, http.StatusForbidden, "not allowed for this user")
		return "", false
	}
	return id, true
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	triggers := suggestion.ParseTriggers(r.URL.Query().Get("triggers"))
	active, err := s.coach.EvaluateUser(r.Context(), id, triggers)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": active})
}

func (s *Server) mastery(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	root, err := s.coach.MasterySnapshot(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, root)
}

func (s *Server) reviews(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	entries, err := s.coach.Reviews(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if entries == nil {
		entries = []spacedrep.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": entries})
}

type suggestionsResponse struct {
	Analysis  format.Analysis   `json:"analysis"`
	Tone      format.Tone       `json:"tone"`
	Text      string            `json:"text"`
	Narration *format.Narration `json:"narration,omitempty"`
}

func (s *Server) suggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	a, err := s.coach.Analysis(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}

	q := r.URL.Query()
	tone := format.ParseTone(q.Get("tone"))
	resp := suggestionsResponse{Analysis: a, Tone: tone, Text: s.coach.FormatSuggestion(a, tone)}
	if narrate, _ := strconv.ParseBool(q.Get("narrate")); narrate {
		n := s.coach.Narrate(r.Context(), a, tone)
		resp.Narration = &n
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) dismiss(w http.ResponseWriter, r *http.Request) {
	id, ok := s.userID(w, r)
	if !ok {
		return
	}
	if err := s.coach.DismissSuggestion(r.Context(), id, mux.Vars(r)["sid"]); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail maps engine errors to HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coach.ErrUnknownUser), errors.Is(err, suggestion.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, suggestion.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
