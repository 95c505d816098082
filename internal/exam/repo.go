package exam

import (
	"context"

	"github.com/mind-engage/mindengage-portal/internal/progress"
)

const (
	DefaultFetchLimit = 10
	MaxFetchLimit     = 100
)

// Bank stores authored questions.
type Bank interface {
	// Fetch returns up to limit questions for scope and tier, oldest first.
	Fetch(ctx context.Context, scope progress.Scope, tier progress.Tier, limit int) ([]Question, error)
	// GetMany returns the questions that exist among ids, keyed by id.
	GetMany(ctx context.Context, ids []string) (map[string]Question, error)
	// Put stores a new question; an existing id yields ErrConflict.
	Put(ctx context.Context, q Question) (Question, error)
	// Import stores all questions or none.
	Import(ctx context.Context, qs []Question) (int, error)
}

// Ledger records graded submissions together with the progress they produced.
type Ledger interface {
	Lookup(ctx context.Context, studentID, submissionID string) (Submission, bool, error)
	// Commit atomically saves rec and records sub. A submission id already
	// recorded for the student yields ErrDuplicateSubmission and writes nothing.
	Commit(ctx context.Context, rec progress.Record, sub Submission) error
	// History lists a student's submissions, newest first.
	History(ctx context.Context, studentID string) ([]Submission, error)
	Summaries(ctx context.Context) ([]Summary, error)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultFetchLimit
	}
	if limit > MaxFetchLimit {
		return MaxFetchLimit
	}
	return limit
}
