package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/qrail-tms/qrailgo/internal/models"
)

// BatchInput is the intake form for one vendor shipment
type BatchInput struct {
	VendorName       string `json:"vendor_name"`
	ManufacturerCode string `json:"manufacturer_code"`
	DateReceived     string `json:"date_received"` // calendar date, 2006-01-02
	WarrantyPeriod   string `json:"warranty_period"`
	RailwayZone      string `json:"railway_zone"`
	Division         string `json:"division"`
	DepotName        string `json:"depot_name"`
	ProductID        string `json:"product_id"`
}

// CreateBatch validates the intake form and opens a new batch in state
// active with a zero counter. At most one batch per depot may be open
// (active or scanning); a second one is a conflict.
func (s *Service) CreateBatch(ctx context.Context, input BatchInput) (*models.Batch, error) {
	input.VendorName = strings.TrimSpace(input.VendorName)
	input.ManufacturerCode = strings.ToUpper(strings.TrimSpace(input.ManufacturerCode))
	input.Division = strings.TrimSpace(input.Division)
	input.DepotName = strings.TrimSpace(input.DepotName)
	input.ProductID = strings.TrimSpace(input.ProductID)
	if input.WarrantyPeriod == "" {
		input.WarrantyPeriod = models.Warranty1Year
	}

	var fields []string
	if input.VendorName == "" {
		fields = append(fields, "vendor_name is required")
	}
	if len(input.ManufacturerCode) != 3 {
		fields = append(fields, "manufacturer_code must be exactly 3 characters")
	}
	if input.ProductID == "" {
		fields = append(fields, "product_id is required")
	}
	if !models.ValidRailwayZone(input.RailwayZone) {
		fields = append(fields, "railway_zone is not a recognized zone")
	}
	if input.Division == "" {
		fields = append(fields, "division is required")
	}
	if input.DepotName == "" {
		fields = append(fields, "depot_name is required")
	}
	if !models.ValidWarrantyPeriod(input.WarrantyPeriod) {
		fields = append(fields, "warranty_period is not a recognized option")
	}
	dateReceived, err := time.Parse("2006-01-02", input.DateReceived)
	if err != nil {
		fields = append(fields, "date_received must be a calendar date (YYYY-MM-DD)")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	batch := &models.Batch{
		ID:               uuid.NewString(),
		VendorName:       input.VendorName,
		ManufacturerCode: input.ManufacturerCode,
		DateReceived:     datatypes.Date(dateReceived),
		WarrantyPeriod:   input.WarrantyPeriod,
		RailwayZone:      input.RailwayZone,
		Division:         input.Division,
		DepotName:        input.DepotName,
		ProductID:        input.ProductID,
		BatchStatus:      models.BatchStatusActive,
		CreatedAt:        s.clock(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.Batch{}).
			Where("depot_name = ? AND batch_status IN ?", input.DepotName,
				[]string{models.BatchStatusActive, models.BatchStatusScanning}).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return conflictf("depot %q already has an open batch", input.DepotName)
		}
		return tx.Create(batch).Error
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// GetBatch loads one batch by ID
func (s *Service) GetBatch(ctx context.Context, batchID string) (*models.Batch, error) {
	var batch models.Batch
	if err := s.db.WithContext(ctx).First(&batch, "id = ?", batchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("batch %s", batchID)
		}
		return nil, err
	}
	return &batch, nil
}

// ListBatches returns batches newest first, optionally filtered by status
func (s *Service) ListBatches(ctx context.Context, status string) ([]models.Batch, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		q = q.Where("batch_status = ?", status)
	}
	var batches []models.Batch
	if err := q.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FinishBatch moves an open batch to completed. Completed is terminal: the
// batch rejects every further scan, and finishing twice is a violation.
func (s *Service) FinishBatch(ctx context.Context, batchID string) (*models.Batch, error) {
	var batch models.Batch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&batch, "id = ?", batchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("batch %s", batchID)
			}
			return err
		}
		if batch.BatchStatus == models.BatchStatusCompleted {
			return stateViolationf("batch %s is already completed", batchID)
		}
		batch.BatchStatus = models.BatchStatusCompleted
		return tx.Model(&batch).Update("batch_status", models.BatchStatusCompleted).Error
	})
	if err != nil {
		return nil, err
	}
	return &batch, nil
}
