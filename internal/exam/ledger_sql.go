package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-portal/internal/db"
	"github.com/mind-engage/mindengage-portal/internal/progress"
	syncx "github.com/mind-engage/mindengage-portal/internal/sync"
)

// SQLLedger writes the progress row, the submission row and the audit events
// in one transaction.
type SQLLedger struct {
	db     *sql.DB
	events *syncx.EventRepo
}

func NewSQLLedger(dbh *sql.DB, events *syncx.EventRepo) *SQLLedger {
	return &SQLLedger{db: dbh, events: events}
}

const submissionCols = `submission_id, student_id, scope_kind, scope_key, difficulty,
	status, score, total, percentage, answered, correct, unlocked, created_at`

func scanSubmission(sc scanner) (Submission, error) {
	var (
		s                        Submission
		kind, tier, status, unlk string
	)
	err := sc.Scan(&s.ID, &s.StudentID, &kind, &s.Scope.Key, &tier,
		&status, &s.Result.Score, &s.Result.Total, &s.Result.Percentage,
		&s.Result.Answered, &s.Result.Correct, &unlk, &s.CreatedAt)
	if err != nil {
		return Submission{}, err
	}
	s.Scope.Kind = progress.ScopeKind(kind)
	s.Difficulty = progress.Tier(tier)
	s.Result.Status = Status(status)
	s.Unlocked = progress.Tier(unlk)
	return s, nil
}

func (l *SQLLedger) Lookup(ctx context.Context, studentID, submissionID string) (Submission, bool, error) {
	s, err := scanSubmission(l.db.QueryRowContext(ctx, `SELECT `+submissionCols+`
		FROM submissions WHERE student_id=$1 AND submission_id=$2`, studentID, submissionID))
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, false, nil
	}
	if err != nil {
		return Submission{}, false, fmt.Errorf("ledger: lookup: %w", err)
	}
	return s, true, nil
}

// History lists a student's submissions, newest first.
func (l *SQLLedger) History(ctx context.Context, studentID string) ([]Submission, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT `+submissionCols+`
		FROM submissions WHERE student_id=$1 ORDER BY created_at DESC, submission_id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("ledger: history: %w", err)
	}
	defer rows.Close()
	out := []Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("ledger: history: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (l *SQLLedger) Commit(ctx context.Context, rec progress.Record, sub Submission) error {
	return db.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO submissions
			(student_id, submission_id, scope_kind, scope_key, difficulty, status,
			 score, total, percentage, answered, correct, unlocked, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			ON CONFLICT (student_id, submission_id) DO NOTHING`,
			sub.StudentID, sub.ID, string(sub.Scope.Kind), sub.Scope.Key, string(sub.Difficulty),
			string(sub.Result.Status), sub.Result.Score, sub.Result.Total, sub.Result.Percentage,
			sub.Result.Answered, sub.Result.Correct, string(sub.Unlocked), sub.CreatedAt)
		if err != nil {
			return fmt.Errorf("ledger: insert submission: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrDuplicateSubmission
		}
		if err := progress.SaveWith(ctx, tx, rec); err != nil {
			return err
		}
		if l.events == nil {
			return nil
		}
		ev, err := syncx.NewEvent(syncx.TypeTestSubmitted, sub.StudentID+"/"+sub.ID, sub)
		if err != nil {
			return err
		}
		if err := l.events.AppendWith(ctx, tx, ev); err != nil {
			return err
		}
		if sub.Unlocked == "" {
			return nil
		}
		ev, err = syncx.NewEvent(syncx.TypeTierUnlocked, sub.StudentID+"/"+sub.Scope.String(), map[string]any{
			"studentId": sub.StudentID,
			"scope":     sub.Scope,
			"tier":      sub.Unlocked,
		})
		if err != nil {
			return err
		}
		return l.events.AppendWith(ctx, tx, ev)
	})
}

func (l *SQLLedger) Summaries(ctx context.Context) ([]Summary, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT scope_kind, scope_key, difficulty,
		COUNT(*),
		SUM(CASE WHEN percentage >= $1 THEN 1 ELSE 0 END),
		AVG(percentage)
		FROM submissions
		GROUP BY scope_kind, scope_key, difficulty`, SummaryPassBar)
	if err != nil {
		return nil, fmt.Errorf("ledger: summaries: %w", err)
	}
	defer rows.Close()
	out := []Summary{}
	for rows.Next() {
		var (
			s          Summary
			kind, tier string
			mean       float64
		)
		if err := rows.Scan(&kind, &s.Scope.Key, &tier, &s.Attempts, &s.Passes, &mean); err != nil {
			return nil, fmt.Errorf("ledger: summaries: %w", err)
		}
		s.Scope.Kind = progress.ScopeKind(kind)
		s.Difficulty = progress.Tier(tier)
		s.Fails = s.Attempts - s.Passes
		s.MeanPercentage = progress.Percentage(mean, 100)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortSummaries(out)
	return out, nil
}
