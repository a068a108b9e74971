package domain

import "strings"

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleAdherant Role = "Adherant"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleAdherant:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole maps a role string onto the closed set, ignoring case and
// surrounding whitespace ("ADHERANT" and "adherant" both yield RoleAdherant).
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, true
	case "adherant":
		return RoleAdherant, true
	default:
		return "", false
	}
}

// AllRoles returns every known role.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleAdherant}
}
