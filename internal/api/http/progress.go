package http

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-portal/internal/exam"
	"github.com/mind-engage/mindengage-portal/internal/progress"
)

// pathParam returns the decoded URL parameter. chi hands back the escaped
// form when the request carries a RawPath, e.g. for keys holding %2F.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

// studentParam names the progress owner for rbac.OwnerOr.
func studentParam(r *http.Request) string { return pathParam(r, "studentID") }

// GET /api/progress/{studentID}/{key}?type=subject|course
func GetProgressHandler(ps progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := progress.ParseKind(r.URL.Query().Get("type"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		scope := progress.Scope{Kind: kind, Key: pathParam(r, "key")}
		rec, err := ps.Get(r.Context(), studentParam(r), scope)
		if err != nil {
			writeErr(w, r, &exam.PersistenceError{Op: "progress get", Err: err})
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// GET /api/progress/{studentID}
func ListProgressHandler(ps progress.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := ps.List(r.Context(), studentParam(r))
		if err != nil {
			writeErr(w, r, &exam.PersistenceError{Op: "progress list", Err: err})
			return
		}
		if recs == nil {
			recs = []progress.Record{}
		}
		writeJSON(w, http.StatusOK, recs)
	}
}
