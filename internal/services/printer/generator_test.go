package printer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/qrail-tms/qrailgo/internal/models"
)

func TestGenerateLabelsPDF(t *testing.T) {
	batch := &models.Batch{ID: "b1", ManufacturerCode: "BRS"}
	var items []models.InventoryItem
	// Two pages worth on the default 3x8 sheet
	for i := 1; i <= 30; i++ {
		items = append(items, models.InventoryItem{
			GeneratedID: fmt.Sprintf("BRS0503202412%04d", i),
		})
	}

	pdf, err := GenerateLabelsPDF(batch, items, DefaultLabelConfig())
	if err != nil {
		t.Fatalf("Failed to generate labels: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF") {
		t.Error("Output is not a PDF document")
	}
	if len(pdf) < 10000 {
		t.Errorf("PDF suspiciously small: %d bytes", len(pdf))
	}
}

func TestGenerateLabelsPDFEmptyBatch(t *testing.T) {
	batch := &models.Batch{ID: "b1", ManufacturerCode: "BRS"}

	pdf, err := GenerateLabelsPDF(batch, nil, DefaultLabelConfig())
	if err != nil {
		t.Fatalf("Failed on empty batch: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF") {
		t.Error("Output is not a PDF document")
	}
}
