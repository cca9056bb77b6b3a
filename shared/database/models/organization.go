package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization types
const (
	OrgTypeIndividual = "individual"
	OrgTypeBusiness   = "business"
	OrgTypeEnterprise = "enterprise"
)

type Organization struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name             string    `json:"name" gorm:"size:200;not null"`
	Type             string    `json:"type" gorm:"size:20;not null;default:'individual'"` // individual, business, enterprise
	SubscriptionTier string    `json:"subscription_tier" gorm:"size:50;default:'free'"`
	Status           string    `json:"status" gorm:"default:'ACTIVE'"`
	CreatedBy        uuid.UUID `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
