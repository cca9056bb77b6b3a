package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog is an immutable record of an authorization-relevant mutation.
// Rows are append-only: no code path updates or deletes them, and storage
// is expected to mirror that with its own immutability policy.
type AuditLog struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID      `json:"organization_id" gorm:"type:uuid;not null;index"`
	ActorID        uuid.UUID      `json:"actor_id" gorm:"type:uuid;not null;index"`
	Action         string         `json:"action" gorm:"size:30;not null;index"`
	ResourceType   string         `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID     string         `json:"resource_id" gorm:"size:100;not null"`
	OldValues      datatypes.JSON `json:"old_values,omitempty" gorm:"type:jsonb"`
	NewValues      datatypes.JSON `json:"new_values,omitempty" gorm:"type:jsonb"`
	Metadata       datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
