package rbac

import (
	"testing"

	"vinesight-backend/shared/database/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func orgFarm(orgID uuid.UUID, visibility string) *models.Farm {
	return &models.Farm{
		ID:             uuid.New(),
		Name:           "Block A",
		OwnerID:        uuid.New(),
		OrganizationID: &orgID,
		Visibility:     visibility,
	}
}

func member(orgID uuid.UUID, role Role, farms ...uuid.UUID) *Membership {
	return &Membership{
		UserID:          uuid.New(),
		OrganizationID:  orgID,
		Role:            role,
		AssignedFarmIDs: farms,
	}
}

func TestCanAccessFarmNilInputs(t *testing.T) {
	orgID := uuid.New()
	assert.False(t, CanAccessFarm(nil, orgFarm(orgID, models.FarmVisibilityOrgWide)))
	assert.False(t, CanAccessFarm(member(orgID, RoleOwner), nil))
}

func TestCanAccessFarmRejectsIndividualFarms(t *testing.T) {
	// Farms without an organization are decided by the owner bypass,
	// never by membership evaluation.
	farm := &models.Farm{ID: uuid.New(), OwnerID: uuid.New(), Visibility: models.FarmVisibilityPrivate}
	assert.False(t, CanAccessFarm(member(uuid.New(), RoleOwner), farm))
}

func TestCanAccessFarmTenantIsolation(t *testing.T) {
	farm := orgFarm(uuid.New(), models.FarmVisibilityOrgWide)
	otherOrgOwner := member(uuid.New(), RoleOwner)
	assert.False(t, CanAccessFarm(otherOrgOwner, farm))
}

func TestCanAccessFarmOrgWideRoles(t *testing.T) {
	orgID := uuid.New()
	farm := orgFarm(orgID, models.FarmVisibilityPrivate)

	assert.True(t, CanAccessFarm(member(orgID, RoleOwner), farm))
	assert.True(t, CanAccessFarm(member(orgID, RoleAdmin), farm))
	assert.False(t, CanAccessFarm(member(orgID, RoleFarmManager), farm))
	assert.False(t, CanAccessFarm(member(orgID, RoleViewer), farm))
}

func TestCanAccessFarmOrgWideVisibility(t *testing.T) {
	orgID := uuid.New()
	farm := orgFarm(orgID, models.FarmVisibilityOrgWide)

	assert.True(t, CanAccessFarm(member(orgID, RoleViewer), farm))
	assert.True(t, CanAccessFarm(member(orgID, RoleFieldWorker), farm))
}

func TestCanAccessFarmAssignmentList(t *testing.T) {
	orgID := uuid.New()
	farm := orgFarm(orgID, models.FarmVisibilityPrivate)

	assigned := member(orgID, RoleFieldWorker, farm.ID)
	assert.True(t, CanAccessFarm(assigned, farm))

	otherFarm := member(orgID, RoleFieldWorker, uuid.New())
	assert.False(t, CanAccessFarm(otherFarm, farm))

	// Empty and nil assignment lists deny; emptiness never grants.
	assert.False(t, CanAccessFarm(member(orgID, RoleFieldWorker), farm))
	empty := member(orgID, RoleFieldWorker)
	empty.AssignedFarmIDs = []uuid.UUID{}
	assert.False(t, CanAccessFarm(empty, farm))
}

func TestCanAccessFarmManagerList(t *testing.T) {
	orgID := uuid.New()
	farm := orgFarm(orgID, models.FarmVisibilityPrivate)

	manager := member(orgID, RoleFarmManager)
	farm.FarmManagerIDs = []uuid.UUID{uuid.New(), manager.UserID}
	assert.True(t, CanAccessFarm(manager, farm))

	stranger := member(orgID, RoleFarmManager)
	assert.False(t, CanAccessFarm(stranger, farm))
}

func TestHasOrgWideAccess(t *testing.T) {
	assert.True(t, RoleOwner.HasOrgWideAccess())
	assert.True(t, RoleAdmin.HasOrgWideAccess())
	for _, role := range []Role{RoleFarmManager, RoleSupervisor, RoleFieldWorker, RoleConsultant, RoleAccountant, RoleViewer} {
		assert.False(t, role.HasOrgWideAccess(), "role %s", role)
	}
}
