package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mind-engage/mindengage-portal/internal/db"
	"github.com/mind-engage/mindengage-portal/internal/progress"
)

type SQLBank struct {
	db *sql.DB
}

func NewSQLBank(dbh *sql.DB) *SQLBank { return &SQLBank{db: dbh} }

const selectQuestion = `SELECT id, scope_kind, scope_key, difficulty, qtype, prompt, options_json, correct_index, weight, created_by, created_at FROM questions`

func (s *SQLBank) Fetch(ctx context.Context, scope progress.Scope, tier progress.Tier, limit int) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, selectQuestion+`
		WHERE scope_kind=$1 AND scope_key=$2 AND difficulty=$3
		ORDER BY created_at, id LIMIT $4`,
		string(scope.Kind), scope.Key, string(tier), clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("questions: fetch: %w", err)
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("questions: fetch: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLBank) GetMany(ctx context.Context, ids []string) (map[string]Question, error) {
	out := make(map[string]Question, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ph := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, selectQuestion+` WHERE id IN (`+strings.Join(ph, ",")+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("questions: get: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("questions: get: %w", err)
		}
		out[q.ID] = q
	}
	return out, rows.Err()
}

func (s *SQLBank) Put(ctx context.Context, q Question) (Question, error) {
	if err := prepare(&q); err != nil {
		return Question{}, err
	}
	if err := insertQuestion(ctx, s.db, q); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *SQLBank) Import(ctx context.Context, qs []Question) (int, error) {
	prepared := make([]Question, len(qs))
	for i, q := range qs {
		if err := prepare(&q); err != nil {
			return 0, err
		}
		prepared[i] = q
	}
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, q := range prepared {
			if err := insertQuestion(ctx, tx, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(prepared), nil
}

func insertQuestion(ctx context.Context, ex progress.Execer, q Question) error {
	opts, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}
	res, err := ex.ExecContext(ctx, `INSERT INTO questions
		(id, scope_kind, scope_key, difficulty, qtype, prompt, options_json, correct_index, weight, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO NOTHING`,
		q.ID, string(q.Scope.Kind), q.Scope.Key, string(q.Difficulty), q.Type, q.Prompt,
		string(opts), *q.Answer, q.Weight, q.CreatedBy, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("questions: insert: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: question %s", ErrConflict, q.ID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(sc scanner) (Question, error) {
	var (
		q          Question
		kind, tier string
		opts       string
		answer     int
	)
	if err := sc.Scan(&q.ID, &kind, &q.Scope.Key, &tier, &q.Type, &q.Prompt, &opts, &answer, &q.Weight, &q.CreatedBy, &q.CreatedAt); err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
		return Question{}, err
	}
	q.Scope.Kind = progress.ScopeKind(kind)
	q.Difficulty = progress.Tier(tier)
	q.Answer = &answer
	return q, nil
}
