package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-portal/internal/exam"
	"github.com/mind-engage/mindengage-portal/internal/progress"
	"github.com/mind-engage/mindengage-portal/internal/rbac"
)

// maxUpload caps multipart bodies for question and user imports.
const maxUpload = 10 << 20

// GET /api/questions?subject=|course=&difficulty=&limit=
func ListQuestionsHandler(bank exam.Bank) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		scope, err := progress.ScopeFrom(q.Get("subject"), q.Get("course"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		tier, err := progress.ParseTier(q.Get("difficulty"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		limit := 0
		if s := q.Get("limit"); s != "" {
			if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
				http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
				return
			}
		}
		qs, err := bank.Fetch(r.Context(), scope, tier, limit)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if !rbac.Allowed(r, "question:view-key") {
			for i := range qs {
				qs[i] = qs[i].StudentView()
			}
		}
		writeJSON(w, http.StatusOK, qs)
	}
}

// POST /api/questions
func CreateQuestionHandler(bank exam.Bank) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in exam.QuestionInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		q, err := in.Question(rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		q, err = bank.Put(r.Context(), q)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// POST /api/questions/bulk  (JSON array body, or multipart file= with CSV/JSON)
func BulkImportQuestionsHandler(bank exam.Bank) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		author := rbac.SubjectFromContext(r.Context())
		body := r.Body
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			body = f
		}
		qs, err := exam.ParseQuestions(body, author)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		n, err := bank.Import(r.Context(), qs)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"imported": n})
	}
}
