package reporting

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/qrail-tms/qrailgo/internal/models"
)

// ReportRow is one line of the inventory export, flattened across the
// item and its batch
type ReportRow struct {
	GeneratedID string
	VendorName  string
	ScanNumber  int
	Status      string
	ScanDate    time.Time
}

// reportHeaders keeps the column layout the field teams already import
// into their registers. The vendor appears twice, once as the batch label
// and once as the vendor column; downstream sheets depend on both.
var reportHeaders = []string{"Generated ID", "Batch", "Vendor", "Scan Number", "Status", "Scan Date"}

func (r ReportRow) cells() []string {
	return []string{
		r.GeneratedID,
		r.VendorName,
		r.VendorName,
		fmt.Sprintf("%d", r.ScanNumber),
		r.Status,
		r.ScanDate.Format("2006-01-02 15:04:05"),
	}
}

// ExportFilter narrows the register export. Empty fields mean no filter;
// Query matches a substring of the generated ID, case-insensitive.
type ExportFilter struct {
	BatchID string
	Status  string
	Query   string
}

// ExportRows loads the flattened report data, newest scans first
func (s *Service) ExportRows(ctx context.Context, f ExportFilter) ([]ReportRow, error) {
	var batches []models.Batch
	if err := s.db.WithContext(ctx).Find(&batches).Error; err != nil {
		return nil, err
	}
	vendorByBatch := make(map[string]string, len(batches))
	for _, b := range batches {
		vendorByBatch[b.ID] = b.VendorName
	}

	q := s.db.WithContext(ctx).Order("scan_timestamp DESC")
	if f.BatchID != "" {
		q = q.Where("batch_id = ?", f.BatchID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var items []models.InventoryItem
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(f.Query))
	rows := make([]ReportRow, 0, len(items))
	for _, it := range items {
		if needle != "" && !strings.Contains(strings.ToLower(it.GeneratedID), needle) {
			continue
		}
		vendor := vendorByBatch[it.BatchID]
		if vendor == "" {
			vendor = "Unknown"
		}
		rows = append(rows, ReportRow{
			GeneratedID: it.GeneratedID,
			VendorName:  vendor,
			ScanNumber:  it.ScanNumber,
			Status:      it.Status,
			ScanDate:    it.ScanTimestamp,
		})
	}
	return rows, nil
}

// WriteCSV streams the report as CSV
func WriteCSV(w io.Writer, rows []ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeaders); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.cells()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX streams the report as an Excel workbook with a single
// Inventory sheet
func WriteXLSX(w io.Writer, rows []ReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Inventory"
	f.SetSheetName("Sheet1", sheet)

	for col, h := range reportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for i, r := range rows {
		for col, v := range r.cells() {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	_, err := f.WriteTo(w)
	return err
}
