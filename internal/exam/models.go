package exam

import (
	"math"
	"strings"

	"github.com/mind-engage/mindengage-portal/internal/grading"
	"github.com/mind-engage/mindengage-portal/internal/progress"
)

// Question is an authored multiple-choice item. It is immutable once stored.
type Question struct {
	ID         string         `json:"id"`
	Scope      progress.Scope `json:"scope"`
	Difficulty progress.Tier  `json:"difficulty"`
	Type       string         `json:"type,omitempty"` // mcq_single | true_false
	Prompt     string         `json:"prompt"`
	Options    []string       `json:"options"`
	// Answer is the index of the correct option; nil in student views.
	Answer    *int    `json:"correctAnswer,omitempty"`
	Weight    float64 `json:"weight"`
	CreatedBy string  `json:"createdBy,omitempty"`
	CreatedAt int64   `json:"createdAt,omitempty"`
}

// StudentView strips the answer key.
func (q Question) StudentView() Question {
	q.Answer = nil
	return q
}

func (q Question) gradingQ() grading.Q {
	correct := -1
	if q.Answer != nil {
		correct = *q.Answer
	}
	return grading.Q{Type: q.Type, Points: q.Weight, OptionCount: len(q.Options), CorrectIndex: correct}
}

// normalize fills defaults and checks the authoring rules.
func (q *Question) normalize() error {
	q.ID = strings.TrimSpace(q.ID)
	q.Prompt = strings.TrimSpace(q.Prompt)
	if q.Type == "" {
		q.Type = grading.TypeSingleChoice
	}
	if q.Weight == 0 {
		q.Weight = 1
	}
	switch {
	case q.Scope.Key == "":
		return invalid("scope", "subject or course required")
	case q.Scope.Kind != progress.KindSubject && q.Scope.Kind != progress.KindCourse:
		return invalid("scope", "unknown scope type")
	case q.Prompt == "":
		return invalid("prompt", "required")
	case len(q.Options) < 2:
		return invalid("options", "at least two options required")
	case q.Answer == nil || *q.Answer < 0 || *q.Answer >= len(q.Options):
		return invalid("correctAnswer", "must index an option")
	case math.IsNaN(q.Weight) || math.IsInf(q.Weight, 0):
		return invalid("weight", "must be a finite number")
	case q.Weight < 0:
		return invalid("weight", "must not be negative")
	case q.Type != grading.TypeSingleChoice && q.Type != grading.TypeTrueFalse:
		return invalid("type", "unsupported question type "+q.Type)
	case q.Type == grading.TypeTrueFalse && len(q.Options) != 2:
		return invalid("options", "true_false needs exactly two options")
	}
	if _, err := progress.ParseTier(string(q.Difficulty)); err != nil {
		return invalid("difficulty", err.Error())
	}
	return nil
}

// Answer is one submitted response. A nil Selected (or -1) means unanswered.
type Answer struct {
	QuestionID string `json:"questionId"`
	Selected   *int   `json:"selectedAnswer"`
}

func (a Answer) selected() int {
	if a.Selected == nil {
		return grading.Unanswered
	}
	return *a.Selected
}

type Status string

const (
	StatusPass Status = "Pass"
	StatusFail Status = "Fail"
)

// TestResult is the graded view of one session.
type TestResult struct {
	Status     Status  `json:"status"`
	Score      float64 `json:"score"`
	Total      float64 `json:"total"`
	Percentage float64 `json:"percentage"`
	Answered   int     `json:"answered"`
	Correct    int     `json:"correct"`
}

// Submission is a recorded, graded session in the ledger.
type Submission struct {
	ID         string         `json:"submissionId"`
	StudentID  string         `json:"studentId"`
	Scope      progress.Scope `json:"scope"`
	Difficulty progress.Tier  `json:"difficulty"`
	Result     TestResult     `json:"result"`
	// Unlocked is the tier this submission opened, if any.
	Unlocked  progress.Tier `json:"unlocked,omitempty"`
	CreatedAt int64         `json:"createdAt"`
}

// SummaryPassBar is the fixed percentage at which Summaries count a
// submission as a pass, whatever pass threshold graded it.
const SummaryPassBar = 60.0

// Summary aggregates ledger rows for one scope and tier.
type Summary struct {
	Scope          progress.Scope `json:"scope"`
	Difficulty     progress.Tier  `json:"difficulty"`
	Attempts       int            `json:"attempts"`
	Passes         int            `json:"passes"`
	Fails          int            `json:"fails"`
	MeanPercentage float64        `json:"meanPercentage"`
}
