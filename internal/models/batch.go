package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Batch lifecycle: active -> scanning -> completed. Never moves backward.
const (
	BatchStatusActive    = "active"
	BatchStatusScanning  = "scanning"
	BatchStatusCompleted = "completed"
)

// Warranty period options offered at intake
const (
	Warranty6Months = "6_months"
	Warranty1Year   = "1_year"
	Warranty2Years  = "2_years"
	Warranty3Years  = "3_years"
)

// RailwayZones is the fixed set of 15 zones used for batch entry and reporting
var RailwayZones = []string{
	"Central", "Western", "Eastern", "Northern", "Southern",
	"North_Eastern", "Northeast_Frontier", "East_Central",
	"East_Coast", "North_Central", "North_Western",
	"South_Central", "South_Eastern", "South_Western", "West_Central",
}

// Batch represents one vendor shipment intake event
type Batch struct {
	ID                string         `gorm:"primaryKey;type:uuid" json:"id"`
	VendorName        string         `gorm:"not null" json:"vendor_name"`
	ManufacturerCode  string         `gorm:"type:varchar(3);not null" json:"manufacturer_code"`
	DateReceived      datatypes.Date `gorm:"not null" json:"date_received"`
	WarrantyPeriod    string         `gorm:"type:varchar(20);default:'1_year'" json:"warranty_period"`
	RailwayZone       string         `gorm:"type:varchar(50);index;not null" json:"railway_zone"`
	Division          string         `gorm:"not null" json:"division"`
	DepotName         string         `gorm:"index;not null" json:"depot_name"`
	ProductID         string         `gorm:"not null" json:"product_id"`
	BatchStatus       string         `gorm:"type:varchar(20);default:'active';index" json:"batch_status"`
	TotalItemsScanned int            `gorm:"default:0" json:"total_items_scanned"`
	CreatedAt         time.Time      `json:"created_date"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Items []InventoryItem `gorm:"foreignKey:BatchID" json:"items,omitempty"`
}

// TableName specifies the table name for Batch model
func (Batch) TableName() string {
	return "batches"
}

// IsOpen reports whether the batch still accepts scans
func (b *Batch) IsOpen() bool {
	return b.BatchStatus == BatchStatusActive || b.BatchStatus == BatchStatusScanning
}

// ValidWarrantyPeriod checks a warranty period enum value
func ValidWarrantyPeriod(v string) bool {
	switch v {
	case Warranty6Months, Warranty1Year, Warranty2Years, Warranty3Years:
		return true
	}
	return false
}

// ValidRailwayZone checks a zone against the fixed zone list
func ValidRailwayZone(v string) bool {
	for _, z := range RailwayZones {
		if z == v {
			return true
		}
	}
	return false
}
