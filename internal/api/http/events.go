package http

import (
	"net/http"
	"strconv"

	syncx "github.com/mind-engage/mindengage-portal/internal/sync"
)

// GET /api/events?after=&limit=  audit feed of submissions and unlocks
func EventsHandler(repo *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		evs, err := repo.Since(r.Context(), after, limit)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if evs == nil {
			evs = []syncx.Event{}
		}
		writeJSON(w, http.StatusOK, evs)
	}
}
