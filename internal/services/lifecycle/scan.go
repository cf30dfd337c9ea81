package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qrail-tms/qrailgo/internal/models"
	"github.com/qrail-tms/qrailgo/internal/utils"
)

// IngestScan registers one decoded QR payload against an open batch. The
// scan number, the generated ID, the new item row and the batch counter
// are one atomic unit: either all of it lands or none of it does.
func (s *Service) IngestScan(ctx context.Context, batchID, rawPayload string) (*models.InventoryItem, error) {
	rawPayload = strings.TrimSpace(rawPayload)
	if rawPayload == "" {
		return nil, validationf("qr payload is empty")
	}

	// Serialize per batch: two concurrent scans must never read the same
	// counter value
	unlock := s.lockBatch(batchID)
	defer unlock()

	var item *models.InventoryItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batch models.Batch
		if err := tx.First(&batch, "id = ?", batchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("batch %s", batchID)
			}
			return err
		}
		if batch.BatchStatus == models.BatchStatusCompleted {
			return stateViolationf("batch %s is completed and no longer accepts scans", batchID)
		}

		// Re-scanning the same physical code within one batch is rejected,
		// not re-numbered
		var dup int64
		if err := tx.Model(&models.InventoryItem{}).
			Where("batch_id = ? AND qr_code_data = ?", batchID, rawPayload).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return conflictf("payload already scanned in batch %s", batchID)
		}

		nextScanNumber := batch.TotalItemsScanned + 1
		generatedID, err := utils.GenerateInventoryID(
			batch.ManufacturerCode,
			time.Time(batch.DateReceived),
			batch.ProductID,
			nextScanNumber,
		)
		if err != nil {
			return validationf("cannot derive inventory id: %v", err)
		}

		item = &models.InventoryItem{
			ID:            uuid.NewString(),
			BatchID:       batch.ID,
			GeneratedID:   generatedID,
			QRCodeData:    rawPayload,
			ScanNumber:    nextScanNumber,
			ScanTimestamp: s.clock(),
			Status:        models.ItemStatusScanned,
		}
		if err := tx.Create(item).Error; err != nil {
			return err
		}

		// First successful scan flips active -> scanning
		return tx.Model(&models.Batch{}).Where("id = ?", batch.ID).
			Updates(map[string]interface{}{
				"total_items_scanned": nextScanNumber,
				"batch_status":        models.BatchStatusScanning,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UndoLastScan removes the most recent scan only (strict LIFO) and rolls
// the counter back by one. Undo on an empty batch is a conflict. Arbitrary
// item deletion is deliberately not offered.
func (s *Service) UndoLastScan(ctx context.Context, batchID string) error {
	unlock := s.lockBatch(batchID)
	defer unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var batch models.Batch
		if err := tx.First(&batch, "id = ?", batchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("batch %s", batchID)
			}
			return err
		}
		if batch.TotalItemsScanned == 0 {
			return conflictf("batch %s has no scans to undo", batchID)
		}

		var last models.InventoryItem
		if err := tx.Where("batch_id = ?", batchID).
			Order("scan_number DESC").First(&last).Error; err != nil {
			return err
		}

		// Hard delete so the scan number and payload slot are reusable
		if err := tx.Unscoped().Delete(&last).Error; err != nil {
			return err
		}

		return tx.Model(&models.Batch{}).Where("id = ?", batchID).
			Update("total_items_scanned", batch.TotalItemsScanned-1).Error
	})
}

// ListBatchItems returns a batch's scan log, newest scan first
func (s *Service) ListBatchItems(ctx context.Context, batchID string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := s.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("scan_number DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ResolveItem finds an item by either its generated ID or the raw payload
// printed on the part, for the install/inspect workflows
func (s *Service) ResolveItem(ctx context.Context, code string) (*models.InventoryItem, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, validationf("scan code is empty")
	}
	var item models.InventoryItem
	err := s.db.WithContext(ctx).
		Where("generated_id = ? OR qr_code_data = ?", code, code).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("no inventory item matches %q", code)
		}
		return nil, err
	}
	return &item, nil
}
