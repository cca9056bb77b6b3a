package rbac

import (
	"vinesight-backend/shared/database/models"

	"github.com/google/uuid"
)

// Membership is the resolved, access-relevant view of an organization
// membership row. A *Membership is only ever handed out for active rows;
// soft-deleted or missing rows resolve to nil.
type Membership struct {
	UserID          uuid.UUID
	OrganizationID  uuid.UUID
	Role            Role
	AssignedFarmIDs []uuid.UUID
}

// CanAccessFarm decides whether the membership may touch the farm. The
// rules run in order and the first match decides:
//
//  1. individually-owned farms never reach this evaluator (the owner
//     bypass happens before any organization logic),
//  2. tenant isolation: a farm of another organization is always denied,
//  3. owner and admin see every farm of their organization,
//  4. org-wide farms are visible to every member of that organization,
//  5. everyone else needs the farm on their assignment list or on the
//     farm's manager list.
//
// A nil or empty assignment list denies; emptiness never grants.
func CanAccessFarm(m *Membership, farm *models.Farm) bool {
	if m == nil || farm == nil {
		return false
	}
	if farm.OrganizationID == nil {
		return false
	}
	if *farm.OrganizationID != m.OrganizationID {
		return false
	}
	if m.Role.HasOrgWideAccess() {
		return true
	}
	if farm.Visibility == models.FarmVisibilityOrgWide {
		return true
	}
	for _, id := range m.AssignedFarmIDs {
		if id == farm.ID {
			return true
		}
	}
	for _, id := range farm.FarmManagerIDs {
		if id == m.UserID {
			return true
		}
	}
	return false
}
