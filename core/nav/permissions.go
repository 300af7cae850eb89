package nav

import (
	"fmt"
	"sort"

	"ArtistStudio/model"
)

// grantNode is one segment of the permission trie. A granted node allows its
// own scope and everything below it.
type grantNode struct {
	children map[string]*grantNode
	granted  bool
}

func (n *grantNode) insert(s Scope) {
	cur := n
	for _, seg := range s {
		if cur.children == nil {
			cur.children = make(map[string]*grantNode)
		}
		next, ok := cur.children[seg]
		if !ok {
			next = &grantNode{}
			cur.children[seg] = next
		}
		cur = next
	}
	cur.granted = true
}

// covers reports whether any prefix of s was granted. Walking the trie from
// the root visits the same prefixes as checking s.Ancestors() one by one.
func (n *grantNode) covers(s Scope) bool {
	cur := n
	for _, seg := range s {
		next, ok := cur.children[seg]
		if !ok {
			return false
		}
		if next.granted {
			return true
		}
		cur = next
	}
	return false
}

// PermissionTable maps each role to the route-identifier prefixes it may see.
type PermissionTable struct {
	grants   map[model.Role]*grantNode
	prefixes map[model.Role][]string
}

// NewPermissionTable validates raw and builds the per-role tries.
func NewPermissionTable(raw map[model.Role][]string) (*PermissionTable, error) {
	t := &PermissionTable{
		grants:   make(map[model.Role]*grantNode, len(model.AllRoles)),
		prefixes: make(map[model.Role][]string, len(model.AllRoles)),
	}
	for _, role := range model.AllRoles {
		t.grants[role] = &grantNode{}
	}
	for role, prefixes := range raw {
		if !role.Valid() {
			return nil, fmt.Errorf("nav: permission table references unknown role %q", role)
		}
		for _, p := range prefixes {
			s, err := ParseScope(p)
			if err != nil {
				return nil, fmt.Errorf("nav: permissions for %s: %w", role, err)
			}
			t.grants[role].insert(s)
			t.prefixes[role] = append(t.prefixes[role], s.String())
		}
		sort.Strings(t.prefixes[role])
	}
	return t, nil
}

// Allows reports whether role inherits visibility of s through any prefix.
// Unknown roles get the user role's grants.
func (t *PermissionTable) Allows(role model.Role, s Scope) bool {
	return t.grants[normalizeRole(role)].covers(s)
}

// Prefixes returns a copy of the prefixes granted to role.
func (t *PermissionTable) Prefixes(role model.Role) []string {
	src := t.prefixes[normalizeRole(role)]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func normalizeRole(role model.Role) model.Role {
	if role.Valid() {
		return role
	}
	return model.RoleUser
}
