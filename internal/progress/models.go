package progress

import (
	"fmt"
	"strings"
	"time"
)

// Tier is a difficulty level in the adaptive test flow.
type Tier string

const (
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
)

// Tiers lists every tier in unlock order.
var Tiers = []Tier{TierEasy, TierMedium, TierHard}

func ParseTier(s string) (Tier, error) {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case TierEasy, TierMedium, TierHard:
		return t, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// Next returns the tier unlocked by this one; ok is false for hard.
func (t Tier) Next() (Tier, bool) {
	switch t {
	case TierEasy:
		return TierMedium, true
	case TierMedium:
		return TierHard, true
	default:
		return "", false
	}
}

// ScopeKind says whether a scope key names a subject or a course.
type ScopeKind string

const (
	KindSubject ScopeKind = "subject"
	KindCourse  ScopeKind = "course"
)

func ParseKind(s string) (ScopeKind, error) {
	switch k := ScopeKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", KindSubject:
		return KindSubject, nil
	case KindCourse:
		return KindCourse, nil
	default:
		return "", fmt.Errorf("unknown scope type %q", s)
	}
}

// Scope identifies the subject or course a question or record belongs to.
type Scope struct {
	Kind ScopeKind `json:"type"`
	Key  string    `json:"key"`
}

func (s Scope) String() string { return string(s.Kind) + ":" + s.Key }

// ScopeFrom builds a scope from the subject/course pair used on the wire.
// Exactly one of them must be set.
func ScopeFrom(subject, course string) (Scope, error) {
	subject, course = strings.TrimSpace(subject), strings.TrimSpace(course)
	switch {
	case subject != "" && course != "":
		return Scope{}, fmt.Errorf("subject and course are mutually exclusive")
	case subject != "":
		return Scope{Kind: KindSubject, Key: subject}, nil
	case course != "":
		return Scope{Kind: KindCourse, Key: course}, nil
	default:
		return Scope{}, fmt.Errorf("subject or course required")
	}
}

// TierStats accumulates answers for one tier.
type TierStats struct {
	TotalQuestions int  `json:"totalQuestions"`
	CorrectAnswers int  `json:"correctAnswers"`
	Unlocked       bool `json:"unlocked"`
}

// Accuracy is the cumulative percentage of correct answers (0 when nothing was answered).
func (s TierStats) Accuracy() float64 {
	if s.TotalQuestions == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.TotalQuestions) * 100
}

// Record is the durable per-student, per-scope accumulation of tier statistics.
type Record struct {
	StudentID string    `json:"studentId"`
	Scope     Scope     `json:"scope"`
	Easy      TierStats `json:"easy"`
	Medium    TierStats `json:"medium"`
	Hard      TierStats `json:"hard"`
	UpdatedAt int64     `json:"updatedAt,omitempty"`
}

// NewRecord returns the zeroed record a student starts with: only easy is unlocked.
func NewRecord(studentID string, scope Scope) Record {
	return Record{
		StudentID: studentID,
		Scope:     scope,
		Easy:      TierStats{Unlocked: true},
	}
}

// Tier returns a pointer to the stats of t, or nil for an unknown tier.
func (r *Record) Tier(t Tier) *TierStats {
	switch t {
	case TierEasy:
		return &r.Easy
	case TierMedium:
		return &r.Medium
	case TierHard:
		return &r.Hard
	default:
		return nil
	}
}

// Unlocked reports whether the student may attempt t.
func (r Record) Unlocked(t Tier) bool {
	if t == TierEasy {
		return true
	}
	if s := r.Tier(t); s != nil {
		return s.Unlocked
	}
	return false
}

func (r *Record) touch() { r.UpdatedAt = time.Now().Unix() }
