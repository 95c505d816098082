package auth

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-portal/internal/rbac"
)

// AttachRoleFromDB replaces the token's role with the one stored for the user,
// so role changes apply before tokens expire. Unknown users keep the token role
// when allowClaimFallback is set (dev/offline) or the subject is one of
// bootstrap, the config-defined accounts that have no row.
func AttachRoleFromDB(db *sql.DB, allowClaimFallback bool, bootstrap ...string) func(http.Handler) http.Handler {
	trusted := map[string]bool{}
	for _, s := range bootstrap {
		if s != "" {
			trusted[s] = true
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := rbac.SubjectFromContext(ctx)

			var role string
			err := db.QueryRowContext(ctx, `SELECT role FROM users WHERE id=$1`, sub).Scan(&role)
			switch {
			case err == nil && role != "":
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
			case errors.Is(err, sql.ErrNoRows) && (allowClaimFallback || trusted[sub]):
				next.ServeHTTP(w, r)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
