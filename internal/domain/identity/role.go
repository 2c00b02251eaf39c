package identity

import "github.com/helpdesk/backend/internal/domain/shared"

// Role is the closed set of user roles
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleContractor  Role = "CONTRACTOR"
	RoleSiteManager Role = "SITE_MANAGER"
)

// AllRoles lists every role
var AllRoles = []Role{RoleAdmin, RoleContractor, RoleSiteManager}

// ParseRole validates a role string
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", shared.NewDomainError("INVALID_ROLE", "Role must be one of ADMIN, CONTRACTOR, SITE_MANAGER")
	}
	return r, nil
}

// IsValid reports whether the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleContractor, RoleSiteManager:
		return true
	}
	return false
}

// String returns the role value
func (r Role) String() string {
	return string(r)
}
