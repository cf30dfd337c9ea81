package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/qrail-tms/qrailgo/internal/models"
)

// InstallationInput carries one field installation event. Latitude and
// Longitude come from the caller's location fix; a missing fix is a
// validation error the caller resolves by retrying GPS, not something the
// engine can recover.
type InstallationInput struct {
	Latitude    *float64
	Longitude   *float64
	Address     string
	Remarks     string
	VoiceNote   *VoiceNote
	InstalledBy string
}

// RecordInstallation marks a scanned item as installed and freezes the
// installation snapshot. Re-installing an installed item is a conflict and
// leaves the original snapshot untouched.
func (s *Service) RecordInstallation(ctx context.Context, itemID string, input InstallationInput) (*models.InventoryItem, error) {
	if input.Latitude == nil || input.Longitude == nil {
		return nil, validationf("location fix is required; retry GPS and submit again")
	}
	if strings.TrimSpace(input.InstalledBy) == "" {
		return nil, validationf("installer identity is required")
	}

	var item models.InventoryItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("item %s", itemID)
		}
		return nil, err
	}
	if item.Status == models.ItemStatusInstalled || item.Installation.Recorded() {
		return nil, conflictf("item %s is already installed", item.GeneratedID)
	}

	// Upload must finish before the record referencing it exists
	voiceURL, err := s.uploadVoiceNote(ctx, input.VoiceNote)
	if err != nil {
		return nil, err
	}

	address := strings.TrimSpace(input.Address)
	if address == "" {
		address = fmt.Sprintf("Lat: %.6f, Lng: %.6f", *input.Latitude, *input.Longitude)
	}

	now := s.clock()
	item.Status = models.ItemStatusInstalled
	item.Installation = models.InstallationData{
		InstalledAt:  &now,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Address:      address,
		VoiceNoteURL: voiceURL,
		Remarks:      input.Remarks,
		InstalledBy:  input.InstalledBy,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Guard against a racing install between the read and this write
		res := tx.Model(&models.InventoryItem{}).
			Where("id = ? AND status <> ?", item.ID, models.ItemStatusInstalled).
			Updates(map[string]interface{}{
				"status":                      item.Status,
				"installation_installed_at":   item.Installation.InstalledAt,
				"installation_latitude":       item.Installation.Latitude,
				"installation_longitude":      item.Installation.Longitude,
				"installation_address":        item.Installation.Address,
				"installation_voice_note_url": item.Installation.VoiceNoteURL,
				"installation_remarks":        item.Installation.Remarks,
				"installation_installed_by":   item.Installation.InstalledBy,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return conflictf("item %s is already installed", item.GeneratedID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}
