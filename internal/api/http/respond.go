package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mind-engage/mindengage-portal/internal/exam"
	"github.com/mind-engage/mindengage-portal/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps domain errors onto status codes. Store failures are logged and
// reported without detail.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var ve *exam.ValidationError
	var pe *exam.PersistenceError
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusBadRequest)
	case errors.Is(err, exam.ErrTierLocked), errors.Is(err, exam.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, exam.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, storage.ErrBadKey):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &pe):
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
