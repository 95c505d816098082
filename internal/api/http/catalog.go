package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mind-engage/mindengage-portal/internal/catalog"
	"github.com/mind-engage/mindengage-portal/internal/rbac"
)

// GET /api/catalog
func CatalogHandler(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		es, err := svc.Entries(r.Context())
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, es)
	}
}

// GET /api/catalog/{key}
func CatalogEntryHandler(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok, err := svc.Entry(r.Context(), pathParam(r, "key"))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// POST /api/catalog/patches
func CatalogPatchHandler(svc *catalog.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p catalog.Patch
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		p.Seq = 0
		p.Author = rbac.SubjectFromContext(r.Context())
		p.CreatedAt = time.Now().Unix()
		if err := p.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		saved, err := svc.Patch(r.Context(), p)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, saved)
	}
}
