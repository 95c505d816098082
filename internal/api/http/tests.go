package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/mindengage-portal/internal/exam"
	"github.com/mind-engage/mindengage-portal/internal/progress"
	"github.com/mind-engage/mindengage-portal/internal/rbac"
)

type submitTestReq struct {
	StudentID    string        `json:"studentId"`
	Subject      string        `json:"subject"`
	Course       string        `json:"course"`
	Difficulty   string        `json:"difficulty"`
	SubmissionID string        `json:"submissionId"`
	Answers      []exam.Answer `json:"answers"`
}

// POST /api/tests/submit
// Students submit for themselves; test:submit-all lets staff submit for anyone.
func SubmitTestHandler(ev *exam.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitTestReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sub := rbac.SubjectFromContext(r.Context())
		if req.StudentID == "" {
			req.StudentID = sub
		}
		if req.StudentID != sub && !rbac.Allowed(r, "test:submit-all") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		scope, err := progress.ScopeFrom(req.Subject, req.Course)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		tier, err := progress.ParseTier(req.Difficulty)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out, err := ev.Submit(r.Context(), exam.SubmitRequest{
			StudentID:    req.StudentID,
			SubmissionID: req.SubmissionID,
			Scope:        scope,
			Difficulty:   tier,
			Answers:      req.Answers,
		})
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /api/analytics/tests
func AnalyticsHandler(ledger exam.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sums, err := ledger.Summaries(r.Context())
		if err != nil {
			writeErr(w, r, &exam.PersistenceError{Op: "analytics", Err: err})
			return
		}
		if sums == nil {
			sums = []exam.Summary{}
		}
		writeJSON(w, http.StatusOK, sums)
	}
}

// GET /api/tests/history/{studentID}
func HistoryHandler(ledger exam.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hist, err := ledger.History(r.Context(), studentParam(r))
		if err != nil {
			writeErr(w, r, &exam.PersistenceError{Op: "history", Err: err})
			return
		}
		writeJSON(w, http.StatusOK, hist)
	}
}
