package types

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ChangeActionCreate     = "create"
	ChangeActionUpdate     = "update"
	ChangeActionSoftDelete = "soft_delete"
)

// InspectionChange is the append-only audit trail. Rows are never updated or
// deleted, soft deletes of the owning record included.
type InspectionChange struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	InspectionID uint           `gorm:"not null;index" json:"inspection_id"`
	Action       string         `gorm:"not null" json:"action"` // create|update|soft_delete
	PriorValues  datatypes.JSON `json:"prior_values,omitempty"`
	NewValues    datatypes.JSON `json:"new_values,omitempty"`
	ChangedAt    time.Time      `gorm:"not null;index" json:"changed_at"`
}

func (InspectionChange) TableName() string { return "inspection_change" }
