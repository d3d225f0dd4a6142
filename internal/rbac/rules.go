package rbac

const (
	RoleCandidate = "candidate"
	RoleReviewer  = "reviewer"
	RoleAdmin     = "admin"
)

// Scope says whose records a grant covers.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeOwn
	ScopeAll
)

type Grant struct {
	Perm  string
	Scope Scope
}

// Default policy. Session mutations are always checked against the owner by
// the engine; "session:view" lets reviewers watch a live page.
var RolePermissions = map[string][]Grant{
	RoleCandidate: {
		{"profile:edit", ScopeOwn},
		{"session:enter", ScopeOwn},
		{"session:view", ScopeOwn},
		{"session:answer", ScopeOwn},
		{"session:finish", ScopeOwn},
		{"results:view", ScopeOwn},
	},
	RoleReviewer: {
		{"session:view", ScopeAll},
		{"results:view", ScopeAll},
	},
	RoleAdmin: {
		{"*", ScopeAll},
	},
}
