package rbac

import "fmt"

// grant holds the four permission bits for one (role, resource) cell.
// Every cell is explicit: the zero value denies everything.
type grant struct {
	Create bool
	Read   bool
	Update bool
	Delete bool
}

var (
	full         = grant{Create: true, Read: true, Update: true, Delete: true}
	editNoDelete = grant{Create: true, Read: true, Update: true}
	createRead   = grant{Create: true, Read: true}
	readUpdate   = grant{Read: true, Update: true}
	readOnly     = grant{Read: true}
	none         = grant{}
)

// matrix is the compiled-in role permission table. It is complete: every
// role maps every resource, and ValidateMatrix refuses an engine whose
// table has holes. Owner grants are a superset of every other role; only
// owner may delete users; only owner and admin create/update users or
// update settings.
var matrix = map[Role]map[Resource]grant{
	RoleOwner: {
		ResourceFarms:              full,
		ResourceRecords:            full,
		ResourceUsers:              full,
		ResourceSettings:           full,
		ResourceReports:            full,
		ResourceIrrigationRecords:  full,
		ResourceSprayRecords:       full,
		ResourceFertigationRecords: full,
		ResourceHarvestRecords:     full,
		ResourceExpenseRecords:     full,
		ResourceTaskRecords:        full,
		ResourceTestRecords:        full,
		ResourceAIFeatures:         full,
	},
	RoleAdmin: {
		ResourceFarms:              full,
		ResourceRecords:            full,
		ResourceUsers:              editNoDelete,
		ResourceSettings:           readUpdate,
		ResourceReports:            full,
		ResourceIrrigationRecords:  full,
		ResourceSprayRecords:       full,
		ResourceFertigationRecords: full,
		ResourceHarvestRecords:     full,
		ResourceExpenseRecords:     full,
		ResourceTaskRecords:        full,
		ResourceTestRecords:        full,
		ResourceAIFeatures:         full,
	},
	RoleFarmManager: {
		ResourceFarms:              readUpdate,
		ResourceRecords:            full,
		ResourceUsers:              readOnly,
		ResourceSettings:           readOnly,
		ResourceReports:            editNoDelete,
		ResourceIrrigationRecords:  full,
		ResourceSprayRecords:       full,
		ResourceFertigationRecords: full,
		ResourceHarvestRecords:     full,
		ResourceExpenseRecords:     full,
		ResourceTaskRecords:        full,
		ResourceTestRecords:        full,
		ResourceAIFeatures:         createRead,
	},
	RoleSupervisor: {
		ResourceFarms:              readOnly,
		ResourceRecords:            editNoDelete,
		ResourceUsers:              none,
		ResourceSettings:           none,
		ResourceReports:            createRead,
		ResourceIrrigationRecords:  editNoDelete,
		ResourceSprayRecords:       editNoDelete,
		ResourceFertigationRecords: editNoDelete,
		ResourceHarvestRecords:     editNoDelete,
		ResourceExpenseRecords:     readOnly,
		ResourceTaskRecords:        editNoDelete,
		ResourceTestRecords:        editNoDelete,
		ResourceAIFeatures:         createRead,
	},
	RoleFieldWorker: {
		ResourceFarms:              readOnly,
		ResourceRecords:            editNoDelete,
		ResourceUsers:              none,
		ResourceSettings:           none,
		ResourceReports:            readOnly,
		ResourceIrrigationRecords:  editNoDelete,
		ResourceSprayRecords:       editNoDelete,
		ResourceFertigationRecords: editNoDelete,
		ResourceHarvestRecords:     editNoDelete,
		ResourceExpenseRecords:     readOnly,
		ResourceTaskRecords:        readUpdate,
		ResourceTestRecords:        readOnly,
		ResourceAIFeatures:         none,
	},
	RoleConsultant: {
		ResourceFarms:              readOnly,
		ResourceRecords:            readOnly,
		ResourceUsers:              none,
		ResourceSettings:           none,
		ResourceReports:            createRead,
		ResourceIrrigationRecords:  readOnly,
		ResourceSprayRecords:       readOnly,
		ResourceFertigationRecords: readOnly,
		ResourceHarvestRecords:     readOnly,
		ResourceExpenseRecords:     none,
		ResourceTaskRecords:        editNoDelete,
		ResourceTestRecords:        editNoDelete,
		ResourceAIFeatures:         createRead,
	},
	RoleAccountant: {
		ResourceFarms:              readOnly,
		ResourceRecords:            readOnly,
		ResourceUsers:              none,
		ResourceSettings:           none,
		ResourceReports:            createRead,
		ResourceIrrigationRecords:  readOnly,
		ResourceSprayRecords:       readOnly,
		ResourceFertigationRecords: readOnly,
		ResourceHarvestRecords:     readOnly,
		ResourceExpenseRecords:     editNoDelete,
		ResourceTaskRecords:        readOnly,
		ResourceTestRecords:        none,
		ResourceAIFeatures:         none,
	},
	RoleViewer: {
		ResourceFarms:              readOnly,
		ResourceRecords:            readOnly,
		ResourceUsers:              none,
		ResourceSettings:           none,
		ResourceReports:            readOnly,
		ResourceIrrigationRecords:  readOnly,
		ResourceSprayRecords:       readOnly,
		ResourceFertigationRecords: readOnly,
		ResourceHarvestRecords:     readOnly,
		ResourceExpenseRecords:     readOnly,
		ResourceTaskRecords:        readOnly,
		ResourceTestRecords:        readOnly,
		ResourceAIFeatures:         none,
	},
}

// Lookup answers whether the role holds the permission on the resource.
// Absence anywhere is denial; nothing here has side effects.
func Lookup(role Role, resource Resource, permission Permission) bool {
	grants, ok := matrix[role]
	if !ok {
		return false
	}
	g, ok := grants[resource]
	if !ok {
		return false
	}
	switch permission {
	case PermissionCreate:
		return g.Create
	case PermissionRead:
		return g.Read
	case PermissionUpdate:
		return g.Update
	case PermissionDelete:
		return g.Delete
	}
	return false
}

// ValidateMatrix checks the table is exhaustive: an entry for every role,
// a cell for every resource, and no keys outside the enumerations. Run
// once at engine construction so a misconfigured table fails at startup,
// not at decision time.
func ValidateMatrix() error {
	for _, role := range AllRoles {
		grants, ok := matrix[role]
		if !ok {
			return fmt.Errorf("permission matrix: role %q has no entry", role)
		}
		for _, resource := range AllResources {
			if _, ok := grants[resource]; !ok {
				return fmt.Errorf("permission matrix: role %q has no cell for resource %q", role, resource)
			}
		}
		for resource := range grants {
			if !resource.Valid() {
				return fmt.Errorf("permission matrix: role %q grants unknown resource %q", role, resource)
			}
		}
	}
	for role := range matrix {
		if !role.Valid() {
			return fmt.Errorf("permission matrix: unknown role %q", role)
		}
	}
	return nil
}

// RolePermissions returns a copy of one role's grants keyed by resource
// and permission, for read-only exposure over the API.
func RolePermissions(role Role) map[Resource]map[Permission]bool {
	grants, ok := matrix[role]
	if !ok {
		return nil
	}
	out := make(map[Resource]map[Permission]bool, len(grants))
	for resource, g := range grants {
		out[resource] = map[Permission]bool{
			PermissionCreate: g.Create,
			PermissionRead:   g.Read,
			PermissionUpdate: g.Update,
			PermissionDelete: g.Delete,
		}
	}
	return out
}
