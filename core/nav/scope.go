package nav

import (
	"fmt"
	"strings"
)

// Scope is a parsed dot-scoped route identifier, e.g. "home.dashboard" is
// Scope{"home", "dashboard"}. Identifiers are parsed once at load time.
type Scope []string

// ParseScope splits id into its segments and rejects empty segments.
func ParseScope(id string) (Scope, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("nav: empty route identifier")
	}
	parts := strings.Split(id, ".")
	for _, p := range parts {
		if strings.TrimSpace(p) == "" || p != strings.TrimSpace(p) {
			return nil, fmt.Errorf("nav: invalid route identifier %q", id)
		}
	}
	return Scope(parts), nil
}

func (s Scope) String() string {
	return strings.Join(s, ".")
}

// Ancestors returns s and each of its prefixes, most specific first.
func (s Scope) Ancestors() []Scope {
	out := make([]Scope, 0, len(s))
	for i := len(s); i > 0; i-- {
		out = append(out, s[:i])
	}
	return out
}
