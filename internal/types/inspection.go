package types

import (
	"time"

	"gorm.io/gorm"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusDueSoon Status = "due_soon"
	StatusOverdue Status = "overdue"
)

type InspectionRecord struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Platform      string `gorm:"not null;index" json:"platform"`
	Module        string `gorm:"not null" json:"module"`
	Sector        string `gorm:"not null" json:"sector"`
	EquipmentType string `gorm:"not null;index" json:"equipment_type"`
	EquipmentSeq  int    `gorm:"not null" json:"equipment_seq"`
	// Derived from platform/module/sector/type/seq on every write; never set by callers.
	Tag string `gorm:"not null;index" json:"tag"`

	Defect         string `gorm:"not null" json:"defect"`
	Cause          string `gorm:"not null" json:"cause"`
	RTICategory    string `gorm:"column:rti_category;not null" json:"rti_category"` // I|II|III|IV
	Recommendation string `gorm:"not null" json:"recommendation"`
	DamageType     string `gorm:"not null" json:"damage_type"`

	InspectionDate time.Time `gorm:"not null;index" json:"inspection_date"`
	// Derived: inspection_date + validity period of the equipment type. Stored
	// and indexed because list filters and default ordering run on it.
	NextInspectionDate time.Time `gorm:"not null;index" json:"next_inspection_date"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	PhotoPath          string `json:"photo_path,omitempty"`
	PhotoOptimizedPath string `json:"photo_optimized_path,omitempty"`
	PhotoThumbPath     string `json:"photo_thumb_path,omitempty"`

	// Projection against "today"; computed on read, never persisted.
	Status Status `gorm:"-" json:"status,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (InspectionRecord) TableName() string { return "inspection_record" }

func (r *InspectionRecord) HasPhoto() bool {
	return r != nil && r.PhotoOptimizedPath != ""
}
