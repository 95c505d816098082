package exam

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-portal/internal/grading"
	"github.com/mind-engage/mindengage-portal/internal/progress"
)

// MaxAnswers bounds a single submission.
const MaxAnswers = 200

// SubmitRequest is one graded session.
type SubmitRequest struct {
	StudentID string
	// SubmissionID makes retries safe; a random id is assigned when empty.
	SubmissionID string
	Scope        progress.Scope
	Difficulty   progress.Tier
	Answers      []Answer
}

// Outcome is the result of Submit.
type Outcome struct {
	TestResult
	SubmissionID string          `json:"submissionId"`
	Unlocked     progress.Tier   `json:"unlocked,omitempty"`
	Replayed     bool            `json:"replayed,omitempty"`
	Progress     progress.Record `json:"progress"`
}

// Evaluator scores sessions and advances progress records.
type Evaluator struct {
	bank     Bank
	progress progress.Store
	ledger   Ledger
	grader   grading.Grader
	policy   progress.Policy
	now      func() time.Time
}

type EvaluatorOption func(*Evaluator)

func WithPolicy(p progress.Policy) EvaluatorOption { return func(e *Evaluator) { e.policy = p } }
func WithGrader(g grading.Grader) EvaluatorOption  { return func(e *Evaluator) { e.grader = g } }
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) { e.now = now }
}

// NewEvaluator wires the stores. The ledger must write into the same storage
// the progress store reads from.
func NewEvaluator(bank Bank, ps progress.Store, ledger Ledger, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		bank:     bank,
		progress: ps,
		ledger:   ledger,
		grader:   grading.NewDefaultGrader(),
		policy:   progress.DefaultPolicy(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Evaluator) Policy() progress.Policy { return e.policy }

// Submit grades req, updates the student's progress for the scope and returns both.
// Unknown question ids are graded incorrect. Nothing is written when the request is
// invalid, the tier is locked, the session is empty or a store fails.
func (e *Evaluator) Submit(ctx context.Context, req SubmitRequest) (Outcome, error) {
	if err := validate(&req); err != nil {
		return Outcome{}, err
	}

	if req.SubmissionID != "" {
		if out, ok, err := e.replay(ctx, req); err != nil || ok {
			return out, err
		}
	} else {
		req.SubmissionID = uuid.NewString()
	}

	rec, err := e.progress.Get(ctx, req.StudentID, req.Scope)
	if err != nil {
		return Outcome{}, persistence("load progress", err)
	}
	if !rec.Unlocked(req.Difficulty) {
		return Outcome{}, ErrTierLocked
	}
	if len(req.Answers) == 0 {
		return Outcome{
			TestResult:   TestResult{Status: StatusFail},
			SubmissionID: req.SubmissionID,
			Progress:     rec,
		}, nil
	}

	result, err := e.score(ctx, req)
	if err != nil {
		return Outcome{}, err
	}

	unlocked, _ := e.policy.Apply(&rec, req.Difficulty, result.Answered, result.Correct)
	sub := Submission{
		ID:         req.SubmissionID,
		StudentID:  req.StudentID,
		Scope:      req.Scope,
		Difficulty: req.Difficulty,
		Result:     result,
		Unlocked:   unlocked,
		CreatedAt:  e.now().Unix(),
	}
	rec.UpdatedAt = sub.CreatedAt
	if err := e.ledger.Commit(ctx, rec, sub); err != nil {
		if errors.Is(err, ErrDuplicateSubmission) {
			out, ok, rerr := e.replay(ctx, req)
			if rerr != nil {
				return Outcome{}, rerr
			}
			if ok {
				return out, nil
			}
		}
		return Outcome{}, persistence("commit submission", err)
	}
	return Outcome{
		TestResult:   result,
		SubmissionID: sub.ID,
		Unlocked:     unlocked,
		Progress:     rec,
	}, nil
}

// score grades every answer against the bank. Questions that are missing or
// belong to another scope or tier count as incorrect with weight 1.
func (e *Evaluator) score(ctx context.Context, req SubmitRequest) (TestResult, error) {
	ids := make([]string, len(req.Answers))
	for i, a := range req.Answers {
		ids[i] = a.QuestionID
	}
	found, err := e.bank.GetMany(ctx, ids)
	if err != nil {
		return TestResult{}, persistence("load questions", err)
	}

	res := TestResult{Answered: len(req.Answers)}
	for i, a := range req.Answers {
		q, ok := found[a.QuestionID]
		if !ok || q.Scope != req.Scope || q.Difficulty != req.Difficulty {
			res.Total += 1
			continue
		}
		g, err := e.grader.Grade(ctx, q.gradingQ(), a.selected())
		if err != nil {
			return TestResult{}, &ValidationError{Field: answerField(i), Msg: err.Error()}
		}
		res.Total += g.MaxPoints
		if g.Correct {
			res.Score += g.AutoPoints
			res.Correct++
		}
	}
	res.Percentage = progress.Percentage(res.Score, res.Total)
	res.Status = StatusFail
	if res.Total > 0 && e.policy.Passed(res.Percentage) {
		res.Status = StatusPass
	}
	return res, nil
}

func (e *Evaluator) replay(ctx context.Context, req SubmitRequest) (Outcome, bool, error) {
	sub, ok, err := e.ledger.Lookup(ctx, req.StudentID, req.SubmissionID)
	if err != nil {
		return Outcome{}, false, persistence("lookup submission", err)
	}
	if !ok {
		return Outcome{}, false, nil
	}
	rec, err := e.progress.Get(ctx, sub.StudentID, sub.Scope)
	if err != nil {
		return Outcome{}, false, persistence("load progress", err)
	}
	return Outcome{
		TestResult:   sub.Result,
		SubmissionID: sub.ID,
		Unlocked:     sub.Unlocked,
		Replayed:     true,
		Progress:     rec,
	}, true, nil
}

func validate(req *SubmitRequest) error {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.SubmissionID = strings.TrimSpace(req.SubmissionID)
	if req.StudentID == "" {
		return invalid("studentId", "required")
	}
	if req.Scope.Key == "" {
		return invalid("subject", "subject or course required")
	}
	if _, err := progress.ParseTier(string(req.Difficulty)); err != nil {
		return invalid("difficulty", err.Error())
	}
	if len(req.Answers) > MaxAnswers {
		return invalid("answers", "too many answers")
	}
	seen := make(map[string]bool, len(req.Answers))
	for i, a := range req.Answers {
		id := strings.TrimSpace(a.QuestionID)
		if id == "" {
			return invalid(answerField(i)+".questionId", "required")
		}
		if seen[id] {
			return invalid(answerField(i)+".questionId", "duplicate question "+id)
		}
		seen[id] = true
		if a.Selected != nil && *a.Selected < grading.Unanswered {
			return invalid(answerField(i)+".selectedAnswer", "must be an option index or -1")
		}
		req.Answers[i].QuestionID = id
	}
	return nil
}

func answerField(i int) string {
	return "answers[" + strconv.Itoa(i) + "]"
}
