package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Farm record types
const (
	RecordTypeIrrigation  = "irrigation"
	RecordTypeSpray       = "spray"
	RecordTypeFertigation = "fertigation"
	RecordTypeHarvest     = "harvest"
	RecordTypeExpense     = "expense"
	RecordTypeTest        = "test"
)

// FarmRecord is a single field event: an irrigation run, a spray pass, a
// fertigation dose, a harvest load, an expense, or a soil/petiole test.
// Type-specific measurements live in the jsonb payload.
type FarmRecord struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FarmID     uuid.UUID      `json:"farm_id" gorm:"type:uuid;not null;index"`
	RecordType string         `json:"record_type" gorm:"size:30;not null;index"`
	RecordDate time.Time      `json:"record_date" gorm:"not null;index"`
	Payload    datatypes.JSON `json:"payload" gorm:"type:jsonb"`
	Notes      string         `json:"notes" gorm:"type:text"`
	CreatedBy  uuid.UUID      `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`

	// Relations
	Farm Farm `json:"farm" gorm:"foreignKey:FarmID"`
}

func (FarmRecord) TableName() string {
	return "farm_records"
}
