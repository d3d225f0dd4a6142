package auth

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-interview/internal/rbac"
)

// AttachRoleFromDB replaces the token role with the users table role, so a
// demoted user loses access before the token expires. Subjects without a row
// keep the claim role only when allowClaimFallback is set.
func AttachRoleFromDB(db *sql.DB, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			s := rbac.SubjectFrom(ctx)

			var role string
			err := db.QueryRowContext(ctx, `SELECT role FROM users WHERE id=$1`, s.ID).Scan(&role)
			switch {
			case err == nil && role != "":
				s.Role = role
				next.ServeHTTP(w, r.WithContext(rbac.WithSubject(ctx, s)))
			case errors.Is(err, sql.ErrNoRows) && allowClaimFallback && s.Role != "":
				next.ServeHTTP(w, r)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
