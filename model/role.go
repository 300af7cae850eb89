package model

import "strings"

// Role is the coarse permission class attached to a session.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleArtist Role = "artist"
	RoleLabel  Role = "label"
	RoleUser   Role = "user"
)

// AllRoles lists every known role in display order.
var AllRoles = []Role{RoleAdmin, RoleArtist, RoleLabel, RoleUser}

// ParseRole maps a raw role string onto a known Role. Unknown values fall back
// to RoleUser and report ok=false.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleArtist:
		return RoleArtist, true
	case RoleLabel:
		return RoleLabel, true
	case RoleUser:
		return RoleUser, true
	default:
		return RoleUser, false
	}
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleArtist, RoleLabel, RoleUser:
		return true
	}
	return false
}

// SelfAssignable reports whether a user may pick this role at registration.
func (r Role) SelfAssignable() bool {
	return r == RoleArtist || r == RoleLabel || r == RoleUser
}

func (r Role) String() string {
	return string(r)
}
