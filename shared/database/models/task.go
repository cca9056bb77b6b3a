package models

import (
	"time"

	"github.com/google/uuid"
)

// Task statuses and sources
const (
	TaskStatusOpen      = "open"
	TaskStatusDone      = "done"
	TaskStatusDismissed = "dismissed"

	TaskSourceManual  = "manual"
	TaskSourceAdvisor = "advisor"
)

// Task is a unit of farm work, either entered by hand or generated by the
// recommendation advisor from recent record history.
type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FarmID      uuid.UUID  `json:"farm_id" gorm:"type:uuid;not null;index"`
	Title       string     `json:"title" gorm:"size:200;not null"`
	Description string     `json:"description" gorm:"type:text"`
	Status      string     `json:"status" gorm:"size:20;not null;default:'open';index"`
	Priority    string     `json:"priority" gorm:"size:20;default:'normal'"`
	Source      string     `json:"source" gorm:"size:20;not null;default:'manual'"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Farm Farm `json:"farm" gorm:"foreignKey:FarmID"`
}
