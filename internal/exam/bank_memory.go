package exam

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-portal/internal/progress"
)

type memoryBank struct {
	mu        sync.RWMutex
	questions map[string]Question
}

func NewMemoryBank() Bank {
	return &memoryBank{questions: map[string]Question{}}
}

func (m *memoryBank) Fetch(_ context.Context, scope progress.Scope, tier progress.Tier, limit int) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Question{}
	for _, q := range m.questions {
		if q.Scope == scope && q.Difficulty == tier {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *memoryBank) GetMany(_ context.Context, ids []string) (map[string]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Question, len(ids))
	for _, id := range ids {
		if q, ok := m.questions[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (m *memoryBank) Put(_ context.Context, q Question) (Question, error) {
	if err := prepare(&q); err != nil {
		return Question{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[q.ID]; ok {
		return Question{}, ErrConflict
	}
	m.questions[q.ID] = q
	return q, nil
}

func (m *memoryBank) Import(_ context.Context, qs []Question) (int, error) {
	prepared := make([]Question, len(qs))
	seen := map[string]bool{}
	for i, q := range qs {
		if err := prepare(&q); err != nil {
			return 0, err
		}
		if seen[q.ID] {
			return 0, fmt.Errorf("%w: question %s", ErrConflict, q.ID)
		}
		seen[q.ID] = true
		prepared[i] = q
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range prepared {
		if _, ok := m.questions[q.ID]; ok {
			return 0, fmt.Errorf("%w: question %s", ErrConflict, q.ID)
		}
	}
	for _, q := range prepared {
		m.questions[q.ID] = q
	}
	return len(prepared), nil
}

// prepare validates q and assigns an id and creation time when missing.
func prepare(q *Question) error {
	if err := q.normalize(); err != nil {
		return err
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().UnixNano()
	}
	return nil
}
