package caseauth

// IsValid checks if the role is one of the predefined valid roles
func IsValidRole(r Role) bool {
	switch r {
	case RoleLawyer, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a Role
func ParseRole(roleStr string) (Role, bool) {
	role := Role(roleStr)
	return role, IsValidRole(role)
}

// NormalizeRequestedRole maps a client-supplied role to the role a new
// account is allowed to take. Admin cannot be self-assigned at
// registration; anything unknown or privileged falls back to the
// default role.
func NormalizeRequestedRole(requested string) Role {
	role, ok := ParseRole(requested)
	if !ok || role == RoleAdmin {
		return RoleLawyer
	}
	return role
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []Role {
	return []Role{RoleLawyer, RoleAdmin}
}
