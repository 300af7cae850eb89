package nav

import (
	"ArtistStudio/model"
)

// Resolver produces the navigation visible to a role. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	tree  *Tree
	perms *PermissionTable
}

// NewResolver validates cfg and builds a Resolver.
func NewResolver(cfg Config) (*Resolver, error) {
	tree, err := NewTree(cfg.Routes)
	if err != nil {
		return nil, err
	}
	perms, err := NewPermissionTable(cfg.Permissions)
	if err != nil {
		return nil, err
	}
	return &Resolver{tree: tree, perms: perms}, nil
}

// Resolve returns the filtered route tree for role. Unknown roles resolve as
// model.RoleUser. A visible parent is returned even when all of its children
// are filtered out.
func (r *Resolver) Resolve(role model.Role) []model.RouteDescriptor {
	role = normalizeRole(role)
	out := make([]model.RouteDescriptor, 0, len(r.tree.roots))
	for _, root := range r.tree.roots {
		if !r.visible(role, root) {
			continue
		}
		out = append(out, r.render(role, root))
	}
	return out
}

// Visible reports whether the route id appears in Resolve(role): the route
// and every ancestor in the tree must pass the visibility rule.
func (r *Resolver) Visible(role model.Role, id string) bool {
	role = normalizeRole(role)
	n, ok := r.tree.byID[id]
	if !ok {
		return false
	}
	for cur := n; cur != nil; cur = cur.parent {
		if !r.visible(role, cur) {
			return false
		}
	}
	return true
}

// Prefixes exposes the granted prefixes of role, for diagnostics.
func (r *Resolver) Prefixes(role model.Role) []string {
	return r.perms.Prefixes(role)
}

// visible applies the rule to a single node: an explicit role list decides
// alone, otherwise the identifier's prefixes are checked against the table.
func (r *Resolver) visible(role model.Role, n *node) bool {
	if n.explicit() {
		return n.explicitlyAllows(role)
	}
	return r.perms.Allows(role, n.scope)
}

func (r *Resolver) render(role model.Role, n *node) model.RouteDescriptor {
	d := n.desc
	if len(n.desc.Roles) > 0 {
		d.Roles = append([]model.Role(nil), n.desc.Roles...)
	}
	for _, c := range n.children {
		if !r.visible(role, c) {
			continue
		}
		d.Children = append(d.Children, r.render(role, c))
	}
	return d
}
