package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// PatchStore persists catalog patches in insertion order.
type PatchStore interface {
	Append(ctx context.Context, p Patch) (Patch, error)
	List(ctx context.Context) ([]Patch, error)
}

// Service serves the merged catalog.
type Service struct {
	base    []Entry
	patches PatchStore
}

func NewService(base []Entry, patches PatchStore) *Service {
	return &Service{base: base, patches: patches}
}

func (s *Service) Entries(ctx context.Context) ([]Entry, error) {
	ps, err := s.patches.List(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(s.base, ps), nil
}

// Entry returns the merged entry for key.
func (s *Service) Entry(ctx context.Context, key string) (Entry, bool, error) {
	all, err := s.Entries(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range all {
		if e.Key == key {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

func (s *Service) Patch(ctx context.Context, p Patch) (Patch, error) {
	if err := p.Validate(); err != nil {
		return Patch{}, err
	}
	return s.patches.Append(ctx, p)
}

type MemoryPatches struct {
	mu      sync.Mutex
	patches []Patch
}

func (m *MemoryPatches) Append(_ context.Context, p Patch) (Patch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Seq = int64(len(m.patches) + 1)
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	m.patches = append(m.patches, p)
	return p, nil
}

func (m *MemoryPatches) List(_ context.Context) ([]Patch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Patch(nil), m.patches...), nil
}

type SQLPatches struct{ db *sql.DB }

func NewSQLPatches(db *sql.DB) *SQLPatches { return &SQLPatches{db: db} }

type patchBody struct {
	Entry    *Entry    `json:"entry,omitempty"`
	Material *Material `json:"material,omitempty"`
}

func (s *SQLPatches) Append(ctx context.Context, p Patch) (Patch, error) {
	body, err := json.Marshal(patchBody{Entry: p.Entry, Material: p.Material})
	if err != nil {
		return Patch{}, err
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	err = s.db.QueryRowContext(ctx, `INSERT INTO catalog_patches (op, entry_key, entry_json, author, created_at)
		VALUES ($1,$2,$3,$4,$5) RETURNING seq`,
		string(p.Op), p.Key, string(body), p.Author, p.CreatedAt).Scan(&p.Seq)
	if err != nil {
		return Patch{}, fmt.Errorf("catalog: append patch: %w", err)
	}
	return p, nil
}

func (s *SQLPatches) List(ctx context.Context) ([]Patch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, op, entry_key, entry_json, author, created_at FROM catalog_patches ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list patches: %w", err)
	}
	defer rows.Close()
	var out []Patch
	for rows.Next() {
		var (
			p    Patch
			op   string
			body string
		)
		if err := rows.Scan(&p.Seq, &op, &p.Key, &body, &p.Author, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("catalog: list patches: %w", err)
		}
		p.Op = Op(op)
		if body != "" {
			var pb patchBody
			if err := json.Unmarshal([]byte(body), &pb); err != nil {
				return nil, fmt.Errorf("catalog: patch %d: %w", p.Seq, err)
			}
			p.Entry, p.Material = pb.Entry, pb.Material
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
