package auth

import "messaging_backend/internal/models"

// RoleSet is the set of roles allowed through a protected prefix.
type RoleSet map[models.UserRole]struct{}

func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[models.UserRole(r)] = struct{}{}
	}
	return set
}

func (s RoleSet) Contains(role models.UserRole) bool {
	_, ok := s[role]
	return ok
}

// IsElevated reports whether id may use administrative routes: staff always,
// otherwise only with a role in allowed.
func IsElevated(id models.Identity, allowed RoleSet) bool {
	if !id.Authenticated() {
		return false
	}
	return id.Staff || allowed.Contains(id.Role)
}
