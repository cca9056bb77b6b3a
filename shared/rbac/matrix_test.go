package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMatrix(t *testing.T) {
	require.NoError(t, ValidateMatrix())
}

func TestMatrixIsComplete(t *testing.T) {
	for _, role := range AllRoles {
		grants, ok := matrix[role]
		require.True(t, ok, "role %s has no matrix entry", role)
		for _, resource := range AllResources {
			_, ok := grants[resource]
			assert.True(t, ok, "role %s has no cell for %s", role, resource)
		}
	}
}

func TestOwnerIsSupersetOfEveryRole(t *testing.T) {
	for _, role := range AllRoles {
		for _, resource := range AllResources {
			for _, permission := range AllPermissions {
				if Lookup(role, resource, permission) {
					assert.True(t, Lookup(RoleOwner, resource, permission),
						"owner lacks %s/%s granted to %s", resource, permission, role)
				}
			}
		}
	}
}

func TestAdminIsSupersetOfFarmManager(t *testing.T) {
	for _, resource := range AllResources {
		for _, permission := range AllPermissions {
			if Lookup(RoleFarmManager, resource, permission) {
				assert.True(t, Lookup(RoleAdmin, resource, permission),
					"admin lacks %s/%s granted to farm_manager", resource, permission)
			}
		}
	}
}

func TestOnlyOwnerDeletesUsers(t *testing.T) {
	for _, role := range AllRoles {
		got := Lookup(role, ResourceUsers, PermissionDelete)
		assert.Equal(t, role == RoleOwner, got, "role %s users/delete", role)
	}
}

func TestUserAndSettingsWritesRestrictedToOwnerAndAdmin(t *testing.T) {
	privileged := map[Role]bool{RoleOwner: true, RoleAdmin: true}
	for _, role := range AllRoles {
		assert.Equal(t, privileged[role], Lookup(role, ResourceUsers, PermissionCreate),
			"role %s users/create", role)
		assert.Equal(t, privileged[role], Lookup(role, ResourceUsers, PermissionUpdate),
			"role %s users/update", role)
		assert.Equal(t, privileged[role], Lookup(role, ResourceSettings, PermissionUpdate),
			"role %s settings/update", role)
	}
}

func TestViewerIsReadOnly(t *testing.T) {
	assert.True(t, Lookup(RoleViewer, ResourceReports, PermissionRead))
	assert.True(t, Lookup(RoleViewer, ResourceRecords, PermissionRead))
	for _, resource := range AllResources {
		assert.False(t, Lookup(RoleViewer, resource, PermissionCreate), "viewer %s/create", resource)
		assert.False(t, Lookup(RoleViewer, resource, PermissionUpdate), "viewer %s/update", resource)
		assert.False(t, Lookup(RoleViewer, resource, PermissionDelete), "viewer %s/delete", resource)
	}
}

func TestAccountantExpensesButNoTests(t *testing.T) {
	assert.True(t, Lookup(RoleAccountant, ResourceExpenseRecords, PermissionCreate))
	assert.True(t, Lookup(RoleAccountant, ResourceExpenseRecords, PermissionUpdate))
	assert.False(t, Lookup(RoleAccountant, ResourceExpenseRecords, PermissionDelete))
	assert.False(t, Lookup(RoleAccountant, ResourceTestRecords, PermissionRead))
	assert.False(t, Lookup(RoleAccountant, ResourceAIFeatures, PermissionRead))
}

func TestFieldWorkerCannotDeleteRecordsOrUseAI(t *testing.T) {
	assert.True(t, Lookup(RoleFieldWorker, ResourceIrrigationRecords, PermissionCreate))
	assert.False(t, Lookup(RoleFieldWorker, ResourceIrrigationRecords, PermissionDelete))
	assert.False(t, Lookup(RoleFieldWorker, ResourceTaskRecords, PermissionCreate))
	assert.True(t, Lookup(RoleFieldWorker, ResourceTaskRecords, PermissionUpdate))
	assert.False(t, Lookup(RoleFieldWorker, ResourceAIFeatures, PermissionRead))
}

func TestLookupUnknownInputsDeny(t *testing.T) {
	assert.False(t, Lookup(Role("superuser"), ResourceFarms, PermissionRead))
	assert.False(t, Lookup(RoleOwner, Resource("databases"), PermissionRead))
	assert.False(t, Lookup(RoleOwner, ResourceFarms, Permission("manage")))
}

func TestRolePermissionsCopy(t *testing.T) {
	perms := RolePermissions(RoleViewer)
	require.Len(t, perms, len(AllResources))
	assert.True(t, perms[ResourceFarms][PermissionRead])
	assert.False(t, perms[ResourceFarms][PermissionUpdate])

	// Mutating the copy must not leak into the live table.
	perms[ResourceFarms][PermissionUpdate] = true
	assert.False(t, Lookup(RoleViewer, ResourceFarms, PermissionUpdate))

	assert.Nil(t, RolePermissions(Role("superuser")))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("farm_manager")
	require.NoError(t, err)
	assert.Equal(t, RoleFarmManager, role)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
}

func TestParseResourceAndPermission(t *testing.T) {
	resource, err := ParseResource("spray_records")
	require.NoError(t, err)
	assert.Equal(t, ResourceSprayRecords, resource)

	_, err = ParseResource("documents")
	assert.Error(t, err)

	permission, err := ParsePermission("delete")
	require.NoError(t, err)
	assert.Equal(t, PermissionDelete, permission)

	_, err = ParsePermission("export")
	assert.Error(t, err, "export is an audit action, not a gating permission")
}

func TestResourceForRecordType(t *testing.T) {
	cases := map[string]Resource{
		"irrigation":  ResourceIrrigationRecords,
		"spray":       ResourceSprayRecords,
		"fertigation": ResourceFertigationRecords,
		"harvest":     ResourceHarvestRecords,
		"expense":     ResourceExpenseRecords,
		"test":        ResourceTestRecords,
	}
	for recordType, want := range cases {
		got, ok := ResourceForRecordType(recordType)
		require.True(t, ok, recordType)
		assert.Equal(t, want, got)
	}

	_, ok := ResourceForRecordType("pruning")
	assert.False(t, ok)
}
