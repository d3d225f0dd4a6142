package rbac

type Checker struct {
	RolePermissions map[string][]Grant
}

func NewChecker(rp map[string][]Grant) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

// Scope returns the widest scope role holds for perm.
func (c *Checker) Scope(role, perm string) Scope {
	best := ScopeNone
	for _, g := range c.RolePermissions[role] {
		if (g.Perm == "*" || g.Perm == perm) && g.Scope > best {
			best = g.Scope
		}
	}
	return best
}

func (c *Checker) Has(role, perm string) bool {
	return c.Scope(role, perm) != ScopeNone
}

// Allows reports whether s may use perm on a record owned by owner.
func (c *Checker) Allows(s Subject, perm, owner string) bool {
	switch c.Scope(s.Role, perm) {
	case ScopeAll:
		return true
	case ScopeOwn:
		return s.ID != "" && s.ID == owner
	}
	return false
}

// OwnerFilter returns the owner id s is limited to for perm, or "" when s
// may see every record. ok is false when s holds no grant at all.
func (c *Checker) OwnerFilter(s Subject, perm string) (owner string, ok bool) {
	switch c.Scope(s.Role, perm) {
	case ScopeAll:
		return "", true
	case ScopeOwn:
		return s.ID, s.ID != ""
	}
	return "", false
}
