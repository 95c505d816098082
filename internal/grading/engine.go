package grading

import (
	"context"
	"fmt"
	"math"
)

// Unanswered is the selected index recorded for a skipped question.
const Unanswered = -1

// Question types with built-in strategies.
const (
	TypeSingleChoice = "mcq_single"
	TypeTrueFalse    = "true_false"
)

// Q is the view of a question needed for grading.
type Q struct {
	Type         string
	Points       float64
	OptionCount  int
	CorrectIndex int
}

// Weight is the question's point value; unset, negative or non-finite weights count as 1.
func (q Q) Weight() float64 {
	if !(q.Points > 0) || math.IsInf(q.Points, 0) {
		return 1
	}
	return q.Points
}

// Result is the outcome of grading a single answer.
type Result struct {
	AutoPoints  float64
	MaxPoints   float64
	Correct     bool
	NeedsManual bool
	Feedback    []string
}

// Strategy grades a single question type.
type Strategy interface {
	Grade(ctx context.Context, q Q, selected int) (Result, error)
}

// Grader routes by question type to the matching Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, selected int) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, selected int) (Result, error) {
	typ := q.Type
	if typ == "" {
		typ = TypeSingleChoice
	}
	s, ok := g.strategies[typ]
	if !ok {
		return Result{MaxPoints: q.Weight(), NeedsManual: true, Feedback: []string{"no strategy available"}}, nil
	}
	return s.Grade(ctx, q, selected)
}

type Option func(map[string]Strategy)

// WithStrategy installs or replaces the strategy for a question type.
func WithStrategy(typ string, s Strategy) Option {
	return func(m map[string]Strategy) { m[typ] = s }
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	m := map[string]Strategy{
		TypeSingleChoice: singleChoiceStrategy{},
		TypeTrueFalse:    trueFalseStrategy{},
	}
	for _, o := range opts {
		o(m)
	}
	return &defaultGrader{strategies: m}
}

// --- Strategies ---

type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(_ context.Context, q Q, selected int) (Result, error) {
	res := Result{MaxPoints: q.Weight()}
	if selected == Unanswered {
		res.Feedback = append(res.Feedback, "unanswered")
		return res, nil
	}
	if selected < 0 || (q.OptionCount > 0 && selected >= q.OptionCount) {
		return res, fmt.Errorf("selected option %d out of range", selected)
	}
	if selected == q.CorrectIndex {
		res.AutoPoints = res.MaxPoints
		res.Correct = true
	}
	return res, nil
}

type trueFalseStrategy struct{}

func (trueFalseStrategy) Grade(ctx context.Context, q Q, selected int) (Result, error) {
	if q.OptionCount != 0 && q.OptionCount != 2 {
		return Result{MaxPoints: q.Weight()}, fmt.Errorf("true_false question has %d options", q.OptionCount)
	}
	q.OptionCount = 2
	return singleChoiceStrategy{}.Grade(ctx, q, selected)
}
