package exam

import (
	"context"
	"sort"
	"sync"

	"github.com/mind-engage/mindengage-portal/internal/progress"
)

type memLedgerKey struct{ student, submission string }

type memoryLedger struct {
	mu          sync.Mutex
	progress    *progress.MemoryStore
	submissions map[memLedgerKey]Submission
	order       []memLedgerKey
}

// NewMemoryLedger records submissions in memory and writes progress to ps.
func NewMemoryLedger(ps *progress.MemoryStore) Ledger {
	return &memoryLedger{progress: ps, submissions: map[memLedgerKey]Submission{}}
}

func (m *memoryLedger) Lookup(_ context.Context, studentID, submissionID string) (Submission, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[memLedgerKey{studentID, submissionID}]
	return s, ok, nil
}

func (m *memoryLedger) Commit(ctx context.Context, rec progress.Record, sub Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memLedgerKey{sub.StudentID, sub.ID}
	if _, ok := m.submissions[k]; ok {
		return ErrDuplicateSubmission
	}
	if err := m.progress.Save(ctx, rec); err != nil {
		return err
	}
	m.submissions[k] = sub
	m.order = append(m.order, k)
	return nil
}

func (m *memoryLedger) History(_ context.Context, studentID string) ([]Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Submission{}
	for i := len(m.order) - 1; i >= 0; i-- {
		if k := m.order[i]; k.student == studentID {
			out = append(out, m.submissions[k])
		}
	}
	return out, nil
}

func (m *memoryLedger) Summaries(_ context.Context) ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type groupKey struct {
		scope progress.Scope
		tier  progress.Tier
	}
	sums := map[groupKey]*Summary{}
	totals := map[groupKey]float64{}
	for _, k := range m.order {
		s := m.submissions[k]
		g := groupKey{s.Scope, s.Difficulty}
		sum, ok := sums[g]
		if !ok {
			sum = &Summary{Scope: s.Scope, Difficulty: s.Difficulty}
			sums[g] = sum
		}
		sum.Attempts++
		if s.Result.Percentage >= SummaryPassBar {
			sum.Passes++
		} else {
			sum.Fails++
		}
		totals[g] += s.Result.Percentage
	}
	out := make([]Summary, 0, len(sums))
	for g, s := range sums {
		s.MeanPercentage = progress.Percentage(totals[g], float64(s.Attempts)*100)
		out = append(out, *s)
	}
	sortSummaries(out)
	return out, nil
}

func sortSummaries(out []Summary) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope.String() < out[j].Scope.String()
		}
		return tierRank(out[i].Difficulty) < tierRank(out[j].Difficulty)
	})
}

func tierRank(t progress.Tier) int {
	for i, x := range progress.Tiers {
		if x == t {
			return i
		}
	}
	return len(progress.Tiers)
}
