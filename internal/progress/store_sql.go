package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const selectProgress = `SELECT student_id, scope_kind, scope_key,
	easy_total, easy_correct,
	medium_total, medium_correct, medium_unlocked,
	hard_total, hard_correct, hard_unlocked, updated_at
	FROM progress`

func (s *SQLStore) Get(ctx context.Context, studentID string, scope Scope) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectProgress+` WHERE student_id=$1 AND scope_kind=$2 AND scope_key=$3`,
		studentID, string(scope.Kind), scope.Key)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return NewRecord(studentID, scope), nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("progress: get: %w", err)
	}
	return r, nil
}

func (s *SQLStore) Save(ctx context.Context, rec Record) error {
	return SaveWith(ctx, s.db, rec)
}

func (s *SQLStore) List(ctx context.Context, studentID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectProgress+` WHERE student_id=$1 ORDER BY scope_kind, scope_key`, studentID)
	if err != nil {
		return nil, fmt.Errorf("progress: list: %w", err)
	}
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("progress: list: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveWith upserts rec through ex, so callers can include it in a transaction.
// Unlock flags never go back to 0 once stored.
func SaveWith(ctx context.Context, ex Execer, rec Record) error {
	_, err := ex.ExecContext(ctx, `INSERT INTO progress
		(student_id, scope_kind, scope_key,
		 easy_total, easy_correct,
		 medium_total, medium_correct, medium_unlocked,
		 hard_total, hard_correct, hard_unlocked, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (student_id, scope_kind, scope_key) DO UPDATE SET
		 easy_total=EXCLUDED.easy_total, easy_correct=EXCLUDED.easy_correct,
		 medium_total=EXCLUDED.medium_total, medium_correct=EXCLUDED.medium_correct, medium_unlocked=CASE WHEN progress.medium_unlocked=1 THEN 1 ELSE EXCLUDED.medium_unlocked END,
		 hard_total=EXCLUDED.hard_total, hard_correct=EXCLUDED.hard_correct, hard_unlocked=CASE WHEN progress.hard_unlocked=1 THEN 1 ELSE EXCLUDED.hard_unlocked END,
		 updated_at=EXCLUDED.updated_at`,
		rec.StudentID, string(rec.Scope.Kind), rec.Scope.Key,
		rec.Easy.TotalQuestions, rec.Easy.CorrectAnswers,
		rec.Medium.TotalQuestions, rec.Medium.CorrectAnswers, boolInt(rec.Medium.Unlocked),
		rec.Hard.TotalQuestions, rec.Hard.CorrectAnswers, boolInt(rec.Hard.Unlocked),
		rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("progress: save: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		r          Record
		kind       string
		medU, hrdU int
	)
	if err := sc.Scan(&r.StudentID, &kind, &r.Scope.Key,
		&r.Easy.TotalQuestions, &r.Easy.CorrectAnswers,
		&r.Medium.TotalQuestions, &r.Medium.CorrectAnswers, &medU,
		&r.Hard.TotalQuestions, &r.Hard.CorrectAnswers, &hrdU, &r.UpdatedAt); err != nil {
		return Record{}, err
	}
	r.Scope.Kind = ScopeKind(kind)
	r.Easy.Unlocked = true
	r.Medium.Unlocked = medU != 0
	r.Hard.Unlocked = hrdU != 0
	return r, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
