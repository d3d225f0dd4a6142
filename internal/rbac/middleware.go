package rbac

import (
	"net/http"
)

var defaultChecker = NewChecker(nil)

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := SubjectFrom(r.Context()).Role
			if role == "" || !defaultChecker.Has(role, perm) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Allows reports whether the request subject may use perm on a record owned
// by owner.
func Allows(r *http.Request, perm, owner string) bool {
	return defaultChecker.Allows(SubjectFrom(r.Context()), perm, owner)
}

// OwnerFilter is Checker.OwnerFilter for the request subject.
func OwnerFilter(r *http.Request, perm string) (string, bool) {
	return defaultChecker.OwnerFilter(SubjectFrom(r.Context()), perm)
}
