package rbac

import "fmt"

// Resource is a protectable noun. The base set covers the default tier;
// the per-record-type resources and AI features belong to the extended
// organization model. Closed set.
type Resource string

const (
	ResourceFarms    Resource = "farms"
	ResourceRecords  Resource = "records"
	ResourceUsers    Resource = "users"
	ResourceSettings Resource = "settings"
	ResourceReports  Resource = "reports"

	ResourceIrrigationRecords  Resource = "irrigation_records"
	ResourceSprayRecords       Resource = "spray_records"
	ResourceFertigationRecords Resource = "fertigation_records"
	ResourceHarvestRecords     Resource = "harvest_records"
	ResourceExpenseRecords     Resource = "expense_records"
	ResourceTaskRecords        Resource = "task_records"
	ResourceTestRecords        Resource = "test_records"
	ResourceAIFeatures         Resource = "ai_features"
)

// AllResources lists every resource the permission matrix must cover.
var AllResources = []Resource{
	ResourceFarms,
	ResourceRecords,
	ResourceUsers,
	ResourceSettings,
	ResourceReports,
	ResourceIrrigationRecords,
	ResourceSprayRecords,
	ResourceFertigationRecords,
	ResourceHarvestRecords,
	ResourceExpenseRecords,
	ResourceTaskRecords,
	ResourceTestRecords,
	ResourceAIFeatures,
}

// ParseResource converts a string into a Resource or fails.
func ParseResource(s string) (Resource, error) {
	r := Resource(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown resource %q", s)
	}
	return r, nil
}

// Valid reports whether the resource is part of the closed set.
func (r Resource) Valid() bool {
	for _, known := range AllResources {
		if r == known {
			return true
		}
	}
	return false
}

// recordTypeResources maps farm record types to their per-type resource.
var recordTypeResources = map[string]Resource{
	"irrigation":  ResourceIrrigationRecords,
	"spray":       ResourceSprayRecords,
	"fertigation": ResourceFertigationRecords,
	"harvest":     ResourceHarvestRecords,
	"expense":     ResourceExpenseRecords,
	"test":        ResourceTestRecords,
}

// ResourceForRecordType returns the per-type resource guarding a farm
// record type, or false for an unknown type.
func ResourceForRecordType(recordType string) (Resource, bool) {
	r, ok := recordTypeResources[recordType]
	return r, ok
}

// Permission is one of the four gating permissions. Export, invite, remove
// and view exist only as audit action labels, not as matrix columns.
type Permission string

const (
	PermissionCreate Permission = "create"
	PermissionRead   Permission = "read"
	PermissionUpdate Permission = "update"
	PermissionDelete Permission = "delete"
)

// AllPermissions lists the gating permissions.
var AllPermissions = []Permission{
	PermissionCreate,
	PermissionRead,
	PermissionUpdate,
	PermissionDelete,
}

// ParsePermission converts a string into a Permission or fails.
func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown permission %q", s)
	}
	return p, nil
}

// Valid reports whether the permission is one of create/read/update/delete.
func (p Permission) Valid() bool {
	switch p {
	case PermissionCreate, PermissionRead, PermissionUpdate, PermissionDelete:
		return true
	}
	return false
}
