package lifecycle

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qrail-tms/qrailgo/internal/models"
)

// InspectionInput carries one inspection event against an item
type InspectionInput struct {
	Status         string
	ComplaintType  string
	Description    string
	Priority       string
	Latitude       *float64
	Longitude      *float64
	VoiceComplaint *VoiceNote
	InspectorEmail string
}

// RecordInspection creates an immutable inspection record. A non-passed
// outcome requires a complaint description, defaults priority to medium,
// opens resolution tracking, and flips the item to needs_attention, even
// over installed, since a failed inspection outranks prior lifecycle state.
// A passed outcome forces priority low and carries no resolution state.
func (s *Service) RecordInspection(ctx context.Context, itemID string, input InspectionInput) (*models.Inspection, error) {
	input.Description = strings.TrimSpace(input.Description)
	input.InspectorEmail = strings.TrimSpace(input.InspectorEmail)

	var fields []string
	if !models.ValidInspectionStatus(input.Status) {
		fields = append(fields, "inspection_status is not a recognized outcome")
	}
	if input.InspectorEmail == "" {
		fields = append(fields, "inspector identity is required")
	}
	passed := input.Status == models.InspectionPassed
	if !passed {
		if input.Description == "" {
			fields = append(fields, "complaint_description is required when the inspection did not pass")
		}
		if input.ComplaintType != "" && !models.ValidComplaintType(input.ComplaintType) {
			fields = append(fields, "complaint_type is not a recognized type")
		}
		if input.Priority != "" && !models.ValidPriority(input.Priority) {
			fields = append(fields, "priority is not a recognized level")
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	var item models.InventoryItem
	if err := s.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("item %s", itemID)
		}
		return nil, err
	}

	voiceURL, err := s.uploadVoiceNote(ctx, input.VoiceComplaint)
	if err != nil {
		return nil, err
	}

	inspection := &models.Inspection{
		ID:                uuid.NewString(),
		ItemID:            item.ID,
		GeneratedID:       item.GeneratedID,
		InspectorEmail:    input.InspectorEmail,
		InspectionDate:    s.clock(),
		InspectionStatus:  input.Status,
		VoiceComplaintURL: voiceURL,
		Latitude:          input.Latitude,
		Longitude:         input.Longitude,
	}

	if passed {
		inspection.Priority = models.PriorityLow
	} else {
		inspection.ComplaintDescription = input.Description
		if input.ComplaintType != "" {
			ct := input.ComplaintType
			inspection.ComplaintType = &ct
		}
		inspection.Priority = input.Priority
		if inspection.Priority == "" {
			inspection.Priority = models.PriorityMedium
		}
		open := models.ResolutionOpen
		inspection.ResolutionStatus = &open
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inspection).Error; err != nil {
			return err
		}
		if passed {
			return nil
		}
		return tx.Model(&models.InventoryItem{}).Where("id = ?", item.ID).
			Update("status", models.ItemStatusNeedsAttention).Error
	})
	if err != nil {
		return nil, err
	}
	return inspection, nil
}

// ListItemInspections returns the inspection history of one item, newest
// first
func (s *Service) ListItemInspections(ctx context.Context, itemID string) ([]models.Inspection, error) {
	var inspections []models.Inspection
	err := s.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("inspection_date DESC").
		Find(&inspections).Error
	if err != nil {
		return nil, err
	}
	return inspections, nil
}
