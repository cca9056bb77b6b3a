package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Farm visibility modes
const (
	FarmVisibilityPrivate = "private"
	FarmVisibilityOrgWide = "org_wide"
)

// Farm is owned either by an individual user directly (OrganizationID nil)
// or by an organization. An individually-owned farm grants its owner full
// rights without any organization logic.
type Farm struct {
	ID             uuid.UUID                      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name           string                         `json:"name" gorm:"size:200;not null"`
	OwnerID        uuid.UUID                      `json:"owner_id" gorm:"type:uuid;not null;index"`
	OrganizationID *uuid.UUID                     `json:"organization_id,omitempty" gorm:"type:uuid;index"`
	Visibility     string                         `json:"visibility" gorm:"size:20;not null;default:'private'"` // private, org_wide
	FarmManagerIDs datatypes.JSONSlice[uuid.UUID] `json:"farm_manager_ids" gorm:"type:jsonb"`
	Region         string                         `json:"region" gorm:"size:200"`
	AreaHectares   float64                        `json:"area_hectares"`
	GrapeVariety   string                         `json:"grape_variety" gorm:"size:100"`
	CreatedAt      time.Time                      `json:"created_at"`
	UpdatedAt      time.Time                      `json:"updated_at"`
}
