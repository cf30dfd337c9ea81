package models

import (
	"time"

	"gorm.io/gorm"
)

// Inspection outcomes
const (
	InspectionPassed         = "passed"
	InspectionFailed         = "failed"
	InspectionNeedsAttention = "needs_attention"
)

// Complaint types (set only when the inspection did not pass)
const (
	ComplaintDamaged       = "damaged"
	ComplaintMissingParts  = "missing_parts"
	ComplaintDefective     = "defective"
	ComplaintIncorrectItem = "incorrect_item"
	ComplaintOther         = "other"
)

// Complaint priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ResolutionOpen is the initial resolution state of a non-passed inspection.
// Resolution itself is tracked outside this system.
const ResolutionOpen = "open"

// Inspection is one post-installation quality check against an item.
// Records are immutable after creation.
type Inspection struct {
	ID                   string         `gorm:"primaryKey;type:uuid" json:"id"`
	ItemID               string         `gorm:"type:uuid;not null;index" json:"item_id"`
	GeneratedID          string         `gorm:"not null;index" json:"generated_id"`
	InspectorEmail       string         `gorm:"not null" json:"inspector_email"`
	InspectionDate       time.Time      `gorm:"not null" json:"inspection_date"`
	InspectionStatus     string         `gorm:"type:varchar(20);not null;index" json:"inspection_status"`
	ComplaintType        *string        `gorm:"type:varchar(20)" json:"complaint_type,omitempty"`
	ComplaintDescription string         `json:"complaint_description,omitempty"`
	VoiceComplaintURL    string         `json:"voice_complaint_url,omitempty"`
	Latitude             *float64       `json:"location_latitude,omitempty"`
	Longitude            *float64       `json:"location_longitude,omitempty"`
	Priority             string         `gorm:"type:varchar(10)" json:"priority"`
	ResolutionStatus     *string        `gorm:"type:varchar(20)" json:"resolution_status,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Item *InventoryItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
}

// TableName specifies the table name for Inspection model
func (Inspection) TableName() string {
	return "inspections"
}

// ValidInspectionStatus checks an inspection outcome enum value
func ValidInspectionStatus(v string) bool {
	switch v {
	case InspectionPassed, InspectionFailed, InspectionNeedsAttention:
		return true
	}
	return false
}

// ValidComplaintType checks a complaint type enum value
func ValidComplaintType(v string) bool {
	switch v {
	case ComplaintDamaged, ComplaintMissingParts, ComplaintDefective,
		ComplaintIncorrectItem, ComplaintOther:
		return true
	}
	return false
}

// ValidPriority checks a priority enum value
func ValidPriority(v string) bool {
	switch v {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
