package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mind-engage/mindengage-portal/internal/exam"
	"github.com/mind-engage/mindengage-portal/internal/progress"
	syncx "github.com/mind-engage/mindengage-portal/internal/sync"
	"github.com/mind-engage/mindengage-portal/internal/users"
)

// -----------------------------
// Admin: roles, compliance & audit
// -----------------------------

func writeUserErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, users.ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, users.ErrLastAdmin), errors.Is(err, users.ErrInvalidRole):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		writeErr(w, r, err)
	}
}

// PATCH /api/users/{userID}/role  {"role":"faculty"}
func AdminUpdateUserRoleHandler(us *users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := us.SetRole(r.Context(), pathParam(r, "userID"), req.Role); err != nil {
			writeUserErr(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type piiReq struct {
	UserID string `json:"user_id"`
}

// POST /api/admin/pii/export  everything stored about one user, as a download.
func AdminPIIExportHandler(us *users.Store, ps progress.Store, ledger exam.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req piiReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		u, err := us.Get(r.Context(), req.UserID)
		if err != nil {
			writeUserErr(w, r, err)
			return
		}
		recs, err := ps.List(r.Context(), u.ID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		hist, err := ledger.History(r.Context(), u.ID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if recs == nil {
			recs = []progress.Record{}
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "pii_"+u.ID+".json"))
		writeJSON(w, http.StatusOK, map[string]any{
			"user":        u,
			"progress":    recs,
			"submissions": hist,
		})
	}
}

// POST /api/admin/pii/delete
func AdminPIIDeleteHandler(us *users.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req piiReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		if err := us.Purge(r.Context(), req.UserID); err != nil {
			writeUserErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// GET /api/admin/audit?q=
func AdminAuditSearchHandler(repo *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		evs, err := repo.Search(r.Context(), r.URL.Query().Get("q"), 100)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, evs)
	}
}
