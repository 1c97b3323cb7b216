package suggestion

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]*Suggestion
	open map[string]string // open key -> id
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]*Suggestion), open: make(map[string]string)}
}

func (m *MemoryStore) ExpireStale(_ context.Context, userID string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, s := range m.rows {
		if s.UserID == userID && !s.Status.Terminal() && s.Expired(now) {
			m.close(s, StatusExpired, now)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Upsert(_ context.Context, s Suggestion) (Suggestion, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := s.OpenKey()
	if id, ok := m.open[key]; ok {
		cur := m.rows[id]
		cur.Type = s.Type
		cur.Priority = s.Priority
		cur.Message = s.Message
		cur.ActionName = s.ActionName
		cur.ActionURL = s.ActionURL
		cur.DisplayUntil = s.DisplayUntil
		cur.UpdatedAt = s.UpdatedAt
		return *cur, false, nil
	}

	row := s
	m.rows[row.ID] = &row
	m.open[key] = row.ID
	return row, true, nil
}

func (m *MemoryStore) ActivatePending(_ context.Context, userID string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, s := range m.rows {
		if s.UserID == userID && s.Status == StatusPending {
			s.Status = StatusActive
			s.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) ListActive(_ context.Context, userID string) ([]Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Suggestion
	for _, s := range m.rows {
		if s.UserID == userID && s.Status == StatusActive {
			out = append(out, *s)
		}
	}
	SortByPriority(out)
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, userID, id string) (Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.rows[id]
	if !ok || s.UserID != userID {
		return Suggestion{}, ErrNotFound
	}
	return *s, nil
}

func (m *MemoryStore) SetStatus(_ context.Context, id string, status Status, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.rows[id]
	if !ok {
		return ErrNotFound
	}
	if status.Terminal() {
		m.close(s, status, now)
		return nil
	}
	s.Status = status
	s.UpdatedAt = now
	return nil
}

// All returns every stored suggestion regardless of status.
func (m *MemoryStore) All() []Suggestion {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Suggestion, 0, len(m.rows))
	for _, s := range m.rows {
		out = append(out, *s)
	}
	SortByPriority(out)
	return out
}

func (m *MemoryStore) close(s *Suggestion, status Status, now time.Time) {
	if m.open[s.OpenKey()] == s.ID {
		delete(m.open, s.OpenKey())
	}
	s.Status = status
	s.UpdatedAt = now
}

// SortByPriority orders suggestions by priority descending, then creation
// time, then id.
func SortByPriority(s []Suggestion) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Priority != s[j].Priority {
			return s[i].Priority > s[j].Priority
		}
		if !s[i].CreatedAt.Equal(s[j].CreatedAt) {
			return s[i].CreatedAt.Before(s[j].CreatedAt)
		}
		return s[i].ID < s[j].ID
	})
}
