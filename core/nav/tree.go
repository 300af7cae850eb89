package nav

import (
	"fmt"

	"ArtistStudio/model"
)

// node is an immutable entry of the route tree with a reference to its parent.
type node struct {
	desc     model.RouteDescriptor // Children is always nil here
	scope    Scope
	parent   *node
	children []*node
	roles    map[model.Role]struct{} // nil means "inherit by prefix"
}

func (n *node) explicit() bool {
	return n.roles != nil
}

func (n *node) explicitlyAllows(role model.Role) bool {
	_, ok := n.roles[role]
	return ok
}

// Tree is the validated, immutable navigation tree.
type Tree struct {
	roots []*node
	byID  map[string]*node
}

// NewTree validates routes and builds the tree. Identifiers must be unique
// across the whole tree. An explicit role list on any node overrides the
// visibility it would inherit from the permission table.
func NewTree(routes []model.RouteDescriptor) (*Tree, error) {
	t := &Tree{byID: make(map[string]*node)}
	for _, r := range routes {
		n, err := t.build(r, nil)
		if err != nil {
			return nil, err
		}
		t.roots = append(t.roots, n)
	}
	return t, nil
}

func (t *Tree) build(r model.RouteDescriptor, parent *node) (*node, error) {
	s, err := ParseScope(r.ID)
	if err != nil {
		return nil, err
	}
	id := s.String()
	if _, dup := t.byID[id]; dup {
		return nil, fmt.Errorf("nav: duplicate route identifier %q", id)
	}
	if r.Title == "" {
		return nil, fmt.Errorf("nav: route %q has no title", id)
	}

	n := &node{
		desc: model.RouteDescriptor{
			ID:    id,
			Title: r.Title,
			Icon:  r.Icon,
			URL:   r.URL,
		},
		scope:  s,
		parent: parent,
	}
	if len(r.Roles) > 0 {
		n.roles = make(map[model.Role]struct{}, len(r.Roles))
		for _, role := range r.Roles {
			if !role.Valid() {
				return nil, fmt.Errorf("nav: route %q lists unknown role %q", id, role)
			}
			n.roles[role] = struct{}{}
			n.desc.Roles = append(n.desc.Roles, role)
		}
	}
	t.byID[id] = n

	for _, c := range r.Children {
		child, err := t.build(c, n)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, child)
	}
	return n, nil
}

// Len returns the number of routes in the tree.
func (t *Tree) Len() int {
	return len(t.byID)
}
