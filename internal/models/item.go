package models

import (
	"time"

	"gorm.io/gorm"
)

// Item statuses
const (
	ItemStatusScanned        = "scanned"
	ItemStatusVerified       = "verified"
	ItemStatusDamaged        = "damaged"
	ItemStatusMissing        = "missing"
	ItemStatusInstalled      = "installed"
	ItemStatusNeedsAttention = "needs_attention"
)

// ItemStatuses lists every valid item status (report filters iterate this)
var ItemStatuses = []string{
	ItemStatusScanned, ItemStatusVerified, ItemStatusDamaged,
	ItemStatusMissing, ItemStatusInstalled, ItemStatusNeedsAttention,
}

// InstallationData is the immutable field snapshot taken when an item is
// installed in the field. Present only once installed; never overwritten.
type InstallationData struct {
	InstalledAt  *time.Time `json:"installed_at,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	Address      string     `json:"address,omitempty"`
	VoiceNoteURL string     `json:"voice_note_url,omitempty"`
	Remarks      string     `json:"remarks,omitempty"`
	InstalledBy  string     `json:"installed_by,omitempty"`
}

// Recorded reports whether an installation has been captured
func (d *InstallationData) Recorded() bool {
	return d.InstalledAt != nil
}

// InventoryItem represents one physical unit registered by a scan.
// scan_number is contiguous per batch starting at 1; the composite unique
// indexes back the ingestion/undo discipline at the DB level.
type InventoryItem struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	BatchID       string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_batch_scan,priority:1;uniqueIndex:idx_batch_payload,priority:1" json:"batch_id"`
	GeneratedID   string    `gorm:"uniqueIndex;not null" json:"generated_id"`
	QRCodeData    string    `gorm:"not null;uniqueIndex:idx_batch_payload,priority:2" json:"qr_code_data"`
	ScanNumber    int       `gorm:"not null;uniqueIndex:idx_batch_scan,priority:2" json:"scan_number"`
	ScanTimestamp time.Time `gorm:"index;not null" json:"scan_timestamp"`
	Status        string    `gorm:"type:varchar(20);default:'scanned';index" json:"status"`

	Installation InstallationData `gorm:"embedded;embeddedPrefix:installation_" json:"installation_data"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Batch *Batch `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

// TableName specifies the table name for InventoryItem model
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// ValidItemStatus checks an item status enum value
func ValidItemStatus(v string) bool {
	for _, s := range ItemStatuses {
		if s == v {
			return true
		}
	}
	return false
}
