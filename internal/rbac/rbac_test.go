package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mind-engage/mindengage-interview/internal/rbac"
)

func TestChecker(t *testing.T) {
	c := rbac.NewChecker(nil)
	cases := []struct {
		role, perm string
		want       rbac.Scope
	}{
		{rbac.RoleCandidate, "session:enter", rbac.ScopeOwn},
		{rbac.RoleCandidate, "results:view", rbac.ScopeOwn},
		{rbac.RoleReviewer, "results:view", rbac.ScopeAll},
		{rbac.RoleReviewer, "session:view", rbac.ScopeAll},
		{rbac.RoleReviewer, "session:answer", rbac.ScopeNone},
		{rbac.RoleAdmin, "anything:at-all", rbac.ScopeAll},
		{"ghost", "session:enter", rbac.ScopeNone},
	}
	for _, tc := range cases {
		if got := c.Scope(tc.role, tc.perm); got != tc.want {
			t.Errorf("Scope(%q,%q)=%v want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestChecker_Ownership(t *testing.T) {
	c := rbac.NewChecker(nil)
	cand := rbac.Subject{ID: "u1", Role: rbac.RoleCandidate}
	rev := rbac.Subject{ID: "r1", Role: rbac.RoleReviewer}

	if !c.Allows(cand, "results:view", "u1") || c.Allows(cand, "results:view", "u2") {
		t.Fatalf("candidate must see only own results")
	}
	if !c.Allows(rev, "results:view", "u2") {
		t.Fatalf("reviewer sees every result")
	}
	if c.Allows(rbac.Subject{Role: rbac.RoleCandidate}, "results:view", "") {
		t.Fatalf("empty subject must not match an empty owner")
	}

	if owner, ok := c.OwnerFilter(cand, "session:view"); !ok || owner != "u1" {
		t.Fatalf("candidate filter: owner=%q ok=%v", owner, ok)
	}
	if owner, ok := c.OwnerFilter(rev, "session:view"); !ok || owner != "" {
		t.Fatalf("reviewer filter: owner=%q ok=%v", owner, ok)
	}
	if _, ok := c.OwnerFilter(rev, "session:answer"); ok {
		t.Fatalf("reviewer must not answer sessions")
	}
	if _, ok := c.OwnerFilter(rbac.Subject{Role: rbac.RoleCandidate}, "session:view"); ok {
		t.Fatalf("own scope without a subject id must be refused")
	}
}

func TestRequire(t *testing.T) {
	h := rbac.Require("session:view")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for role, want := range map[string]int{
		"":                 http.StatusForbidden,
		"ghost":            http.StatusForbidden,
		rbac.RoleCandidate: http.StatusNoContent,
		rbac.RoleReviewer:  http.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(rbac.WithSubject(req.Context(), rbac.Subject{ID: "x", Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("role %q: got %d want %d", role, rec.Code, want)
		}
	}
}
