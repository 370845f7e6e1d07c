package crm

// RoleValidator defines role-based access checks performed against claims.
type RoleValidator interface {
	// HasRole checks if the subject has a specific role
	HasRole(role string) bool

	// IsAtLeast checks if the subject's role is at least the minimum required role
	IsAtLeast(minRole UserRole) bool
}

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// RoleAtLeast checks if a role meets the minimum required level
func RoleAtLeast(r, minRole UserRole) bool {
	roleHierarchy := map[UserRole]int{
		RoleUser:  0,
		RoleAdmin: 1,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// CanManageClients reports whether the role may create, update, or
// deactivate clients.
func CanManageClients(r UserRole) bool {
	return r == RoleAdmin
}

// CanDeleteProject reports whether the actor may delete the given project:
// its creator, or an admin.
func CanDeleteProject(actor ActorContext, p *Project) bool {
	if p == nil {
		return false
	}
	if actor.Role == RoleAdmin {
		return true
	}
	return actor.ActorID != "" && actor.ActorID == p.CreatedBy.String()
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleUser,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}
