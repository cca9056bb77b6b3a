package rbac

import "fmt"

// Role is one of the fixed organization roles. The set is closed: custom
// roles are an enterprise-tier extension and are not part of this engine.
type Role string

const (
	RoleOwner       Role = "owner"
	RoleAdmin       Role = "admin"
	RoleFarmManager Role = "farm_manager"
	RoleSupervisor  Role = "supervisor"
	RoleFieldWorker Role = "field_worker"
	RoleConsultant  Role = "consultant"
	RoleAccountant  Role = "accountant"
	RoleViewer      Role = "viewer"
)

// AllRoles lists every role in the enumeration.
var AllRoles = []Role{
	RoleOwner,
	RoleAdmin,
	RoleFarmManager,
	RoleSupervisor,
	RoleFieldWorker,
	RoleConsultant,
	RoleAccountant,
	RoleViewer,
}

// ParseRole converts a stored role string into a Role. Unknown values are
// a configuration error, not a silent fallback.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether the role is one of the fixed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleFarmManager, RoleSupervisor,
		RoleFieldWorker, RoleConsultant, RoleAccountant, RoleViewer:
		return true
	}
	return false
}

// HasOrgWideAccess reports whether the role sees every farm in its
// organization regardless of assignment or visibility.
func (r Role) HasOrgWideAccess() bool {
	return r == RoleOwner || r == RoleAdmin
}
