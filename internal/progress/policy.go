package progress

import "math"

const (
	DefaultPassThreshold   = 60.0
	DefaultUnlockThreshold = 60.0
	DefaultUnlockMin       = 1
)

// Policy holds the thresholds used to grade sessions and unlock tiers.
type Policy struct {
	// PassThreshold is the session percentage at or above which a session passes.
	PassThreshold float64
	// UnlockThreshold is the cumulative accuracy a tier needs before the next one opens.
	UnlockThreshold float64
	// UnlockMinQuestions is the minimum cumulative answers before a tier can unlock the next.
	UnlockMinQuestions int
}

func DefaultPolicy() Policy {
	return Policy{
		PassThreshold:      DefaultPassThreshold,
		UnlockThreshold:    DefaultUnlockThreshold,
		UnlockMinQuestions: DefaultUnlockMin,
	}
}

// Passed reports whether a session percentage meets the pass bar.
func (p Policy) Passed(percentage float64) bool {
	return percentage >= p.PassThreshold
}

// Apply adds one session's counts to tier t and opens the next tier when the
// cumulative accuracy crosses the unlock threshold. It returns the tier that was
// newly unlocked, if any. Tiers are never re-locked and an empty session is a no-op.
func (p Policy) Apply(rec *Record, t Tier, answered, correct int) (Tier, bool) {
	stats := rec.Tier(t)
	if stats == nil || answered <= 0 {
		return "", false
	}
	if correct > answered {
		correct = answered
	}
	stats.TotalQuestions += answered
	stats.CorrectAnswers += correct
	rec.Easy.Unlocked = true
	rec.touch()

	next, ok := t.Next()
	if !ok {
		return "", false
	}
	ns := rec.Tier(next)
	if ns.Unlocked {
		return "", false
	}
	if stats.TotalQuestions < p.UnlockMinQuestions || !p.meetsUnlock(*stats) {
		return "", false
	}
	ns.Unlocked = true
	return next, true
}

// Percentage is score/total*100 rounded to two decimals; 0 when total is 0.
func Percentage(score, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(score/total*100*100) / 100
}

// meetsUnlock compares in integer-scaled form so 3/5 at a 60% bar is exact.
func (p Policy) meetsUnlock(s TierStats) bool {
	return float64(s.CorrectAnswers)*100 >= p.UnlockThreshold*float64(s.TotalQuestions)
}
