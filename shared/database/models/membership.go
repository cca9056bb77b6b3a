package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OrganizationMembership relates a user to an organization with a role and,
// for roles without organization-wide access, the farms they may touch.
// A row with Deleted=true must behave as "no access" everywhere; the row is
// kept so audit history stays attributable.
type OrganizationMembership struct {
	ID              uuid.UUID                      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID  uuid.UUID                      `json:"organization_id" gorm:"type:uuid;not null;index:idx_memberships_org_user,unique,where:deleted = false"`
	UserID          uuid.UUID                      `json:"user_id" gorm:"type:uuid;not null;index:idx_memberships_org_user,unique,where:deleted = false"`
	Role            string                         `json:"role" gorm:"size:50;not null"`
	AssignedFarmIDs datatypes.JSONSlice[uuid.UUID] `json:"assigned_farm_ids" gorm:"type:jsonb"`
	InvitedBy       *uuid.UUID                     `json:"invited_by,omitempty" gorm:"type:uuid"`
	Deleted         bool                           `json:"deleted" gorm:"not null;default:false"`
	CreatedAt       time.Time                      `json:"created_at"`
	UpdatedAt       time.Time                      `json:"updated_at"`

	// Relations
	Organization Organization `json:"organization" gorm:"foreignKey:OrganizationID"`
	User         User         `json:"user" gorm:"foreignKey:UserID"`
}

func (OrganizationMembership) TableName() string {
	return "organization_memberships"
}
