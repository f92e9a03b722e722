package model

import (
	"fmt"
	"strings"
)

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole converts a raw value into a Role. Matching is case-insensitive.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// RegistrationRole resolves the role requested at sign-up. Anything other
// than an explicit admin request yields RoleUser.
func RegistrationRole(requested string) Role {
	if r, err := ParseRole(requested); err == nil && r == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether r grants access to admin endpoints.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
