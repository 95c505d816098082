package progress

import (
	"context"
	"sort"
	"sync"
)

// Store persists progress records. Writes are last-write-wins per (student, scope).
type Store interface {
	// Get returns the stored record or a zeroed default with easy unlocked.
	Get(ctx context.Context, studentID string, scope Scope) (Record, error)
	Save(ctx context.Context, rec Record) error
	List(ctx context.Context, studentID string) ([]Record, error)
}

type memKey struct {
	student string
	scope   Scope
}

// MemoryStore keeps records in a map; used for tests and offline dev.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[memKey]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[memKey]Record{}}
}

func (m *MemoryStore) Get(_ context.Context, studentID string, scope Scope) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.records[memKey{studentID, scope}]; ok {
		return r, nil
	}
	return NewRecord(studentID, scope), nil
}

func (m *MemoryStore) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Easy.Unlocked = true
	k := memKey{rec.StudentID, rec.Scope}
	if prev, ok := m.records[k]; ok {
		rec.Medium.Unlocked = rec.Medium.Unlocked || prev.Medium.Unlocked
		rec.Hard.Unlocked = rec.Hard.Unlocked || prev.Hard.Unlocked
	}
	m.records[k] = rec
	return nil
}

func (m *MemoryStore) List(_ context.Context, studentID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Record{}
	for k, r := range m.records {
		if k.student == studentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Scope.String() < out[j].Scope.String() })
	return out, nil
}
