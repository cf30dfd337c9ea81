package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qrail-tms/qrailgo/internal/database"
	"github.com/qrail-tms/qrailgo/internal/models"
)

type fakeUploader struct {
	fail    bool
	uploads []string
}

func (f *fakeUploader) Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	if f.fail {
		return "", errors.New("storage unreachable")
	}
	f.uploads = append(f.uploads, name)
	return "https://files.test/" + name, nil
}

func newTestService(t *testing.T) (*Service, *fakeUploader) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Batch{}, &models.InventoryItem{}, &models.Inspection{}); err != nil {
		t.Fatalf("Failed to migrate test schema: %v", err)
	}

	uploader := &fakeUploader{}
	svc := NewService(database.Wrap(gdb), uploader)
	svc.SetClock(func() time.Time {
		return time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	})
	return svc, uploader
}

func validBatchInput() BatchInput {
	return BatchInput{
		VendorName:       "Balaji Railroad Systems",
		ManufacturerCode: "BRS",
		DateReceived:     "2024-03-05",
		WarrantyPeriod:   models.Warranty1Year,
		RailwayZone:      "Central",
		Division:         "Bhusawal",
		DepotName:        "Bhusawal Yard",
		ProductID:        "12",
	}
}

func mustCreateBatch(t *testing.T, svc *Service) *models.Batch {
	t.Helper()
	batch, err := svc.CreateBatch(context.Background(), validBatchInput())
	if err != nil {
		t.Fatalf("Failed to create batch: %v", err)
	}
	return batch
}

func TestCreateBatch(t *testing.T) {
	svc, _ := newTestService(t)

	batch := mustCreateBatch(t, svc)
	if batch.BatchStatus != models.BatchStatusActive {
		t.Errorf("New batch status: got %s, want active", batch.BatchStatus)
	}
	if batch.TotalItemsScanned != 0 {
		t.Errorf("New batch counter: got %d, want 0", batch.TotalItemsScanned)
	}
}

func TestCreateBatchValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateBatch(context.Background(), BatchInput{
		ManufacturerCode: "TOOLONG",
		RailwayZone:      "Atlantis",
		DateReceived:     "05/03/2024",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	// Every missing/invalid field should be reported at once
	if len(verr.Fields) < 6 {
		t.Errorf("Expected all offending fields listed, got %d: %v", len(verr.Fields), verr.Fields)
	}
}

func TestCreateBatchDepotConflict(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreateBatch(t, svc)

	_, err := svc.CreateBatch(context.Background(), validBatchInput())
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected conflict for second open batch in depot, got %v", err)
	}

	// A different depot is independent
	other := validBatchInput()
	other.DepotName = "Itarsi Yard"
	if _, err := svc.CreateBatch(context.Background(), other); err != nil {
		t.Fatalf("Second depot should open its own batch: %v", err)
	}
}

func TestIngestScanSequence(t *testing.T) {
	svc, _ := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	first, err := svc.IngestScan(ctx, batch.ID, "QR-PAYLOAD-A")
	if err != nil {
		t.Fatalf("First scan failed: %v", err)
	}
	if first.GeneratedID != "BRS05032024120001" {
		t.Errorf("First generated ID: got %s, want BRS05032024120001", first.GeneratedID)
	}
	if first.ScanNumber != 1 {
		t.Errorf("First scan number: got %d, want 1", first.ScanNumber)
	}

	second, err := svc.IngestScan(ctx, batch.ID, "QR-PAYLOAD-B")
	if err != nil {
		t.Fatalf("Second scan failed: %v", err)
	}
	if second.GeneratedID != "BRS05032024120002" {
		t.Errorf("Second generated ID: got %s, want BRS05032024120002", second.GeneratedID)
	}

	got, err := svc.GetBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Failed to reload batch: %v", err)
	}
	if got.TotalItemsScanned != 2 {
		t.Errorf("Counter: got %d, want 2", got.TotalItemsScanned)
	}
	if got.BatchStatus != models.BatchStatusScanning {
		t.Errorf("Batch status after first scan: got %s, want scanning", got.BatchStatus)
	}
}

func TestIngestScanDuplicatePayload(t *testing.T) {
	svc, _ := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	if _, err := svc.IngestScan(ctx, batch.ID, "QR-SAME"); err != nil {
		t.Fatalf("First scan failed: %v", err)
	}
	_, err := svc.IngestScan(ctx, batch.ID, "QR-SAME")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected conflict on duplicate payload, got %v", err)
	}

	got, _ := svc.GetBatch(ctx, batch.ID)
	if got.TotalItemsScanned != 1 {
		t.Errorf("Counter moved on rejected scan: got %d, want 1", got.TotalItemsScanned)
	}
}

func TestIngestScanCompletedBatch(t *testing.T) {
	svc, _ := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	if _, err := svc.IngestScan(ctx, batch.ID, "QR-1"); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if _, err := svc.FinishBatch(ctx, batch.ID); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	_, err := svc.IngestScan(ctx, batch.ID, "QR-2")
	if !errors.Is(err, ErrStateViolation) {
		t.Fatalf("Expected state violation scanning a completed batch, got %v", err)
	}

	got, _ := svc.GetBatch(ctx, batch.ID)
	if got.TotalItemsScanned != 1 {
		t.Errorf("Counter changed by rejected scan: got %d, want 1", got.TotalItemsScanned)
	}
}

func TestFinishBatchTwice(t *testing.T) {
	svc, _ := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	if _, err := svc.FinishBatch(ctx, batch.ID); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	_, err := svc.FinishBatch(ctx, batch.ID)
	if !errors.Is(err, ErrStateViolation) {
		t.Fatalf("Expected state violation on double finish, got %v", err)
	}
}

func TestUndoLastScan(t *testing.T) {
	svc, _ := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	svcScan := func(payload string) *models.InventoryItem {
		item, err := svc.IngestScan(ctx, batch.ID, payload)
		if err != nil {
			t.Fatalf("Scan %s failed: %v", payload, err)
		}
		return item
	}

	svcScan("QR-1")
	second := svcScan("QR-2")

	if err := svc.UndoLastScan(ctx, batch.ID); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}

	got, _ := svc.GetBatch(ctx, batch.ID)
	if got.TotalItemsScanned != 1 {
		t.Errorf("Counter after undo: got %d, want 1", got.TotalItemsScanned)
	}

	items, _ := svc.ListBatchItems(ctx, batch.ID)
	for _, it := range items {
		if it.ID == second.ID {
			t.Errorf("Undone item %s still present", second.GeneratedID)
		}
	}

	// The freed slot is reissued: the next scan gets number 2 again
	reissued := svcScan("QR-3")
	if reissued.ScanNumber != 2 {
		t.Errorf("Reissued scan number: got %d, want 2", reissued.ScanNumber)
	}
	if reissued.GeneratedID != "BRS05032024120002" {
		t.Errorf("Reissued generated ID: got %s, want BRS05032024120002", reissued.GeneratedID)
	}
}

func TestUndoRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	before, _ := svc.GetBatch(ctx, batch.ID)

	if _, err := svc.IngestScan(ctx, batch.ID, "QR-ROUNDTRIP"); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if err := svc.UndoLastScan(ctx, batch.ID); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}

	after, _ := svc.GetBatch(ctx, batch.ID)
	if after.TotalItemsScanned != before.TotalItemsScanned {
		t.Errorf("Counter not restored: got %d, want %d", after.TotalItemsScanned, before.TotalItemsScanned)
	}
	items, _ := svc.ListBatchItems(ctx, batch.ID)
	if len(items) != 0 {
		t.Errorf("Expected empty batch after round-trip, got %d items", len(items))
	}

	// The same payload scans cleanly again after the undo
	if _, err := svc.IngestScan(ctx, batch.ID, "QR-ROUNDTRIP"); err != nil {
		t.Fatalf("Re-scan after undo failed: %v", err)
	}
}

func TestUndoEmptyBatch(t *testing.T) {
	svc, _ := newTestService(t)
	batch := mustCreateBatch(t, svc)

	err := svc.UndoLastScan(context.Background(), batch.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected conflict undoing an empty batch, got %v", err)
	}
}

func TestConcurrentScansStayContiguous(t *testing.T) {
	svc, _ := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	const n = 12
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.IngestScan(ctx, batch.ID, fmt.Sprintf("QR-CONC-%d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Concurrent scan failed: %v", err)
	}

	items, err := svc.ListBatchItems(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Failed to list items: %v", err)
	}
	if len(items) != n {
		t.Fatalf("Expected %d items, got %d", n, len(items))
	}

	numbers := make([]int, 0, n)
	for _, it := range items {
		numbers = append(numbers, it.ScanNumber)
	}
	sort.Ints(numbers)
	for i, num := range numbers {
		if num != i+1 {
			t.Fatalf("Scan numbers not contiguous: %v", numbers)
		}
	}

	got, _ := svc.GetBatch(ctx, batch.ID)
	if got.TotalItemsScanned != n {
		t.Errorf("Counter: got %d, want %d", got.TotalItemsScanned, n)
	}
}

func TestRecordInstallation(t *testing.T) {
	svc, uploader := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	item, err := svc.IngestScan(ctx, batch.ID, "QR-INSTALL")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	lat, lng := 21.045, 75.801
	installed, err := svc.RecordInstallation(ctx, item.ID, InstallationInput{
		Latitude:    &lat,
		Longitude:   &lng,
		Remarks:     "Fastened on sleeper 114B",
		InstalledBy: "fitter@qrail.in",
		VoiceNote: &VoiceNote{
			FileName:    "note.webm",
			ContentType: "audio/webm",
			Reader:      strings.NewReader("audio-bytes"),
			Size:        11,
		},
	})
	if err != nil {
		t.Fatalf("Installation failed: %v", err)
	}
	if installed.Status != models.ItemStatusInstalled {
		t.Errorf("Status: got %s, want installed", installed.Status)
	}
	if !installed.Installation.Recorded() {
		t.Error("Installation snapshot missing")
	}
	if installed.Installation.VoiceNoteURL != "https://files.test/note.webm" {
		t.Errorf("Voice note URL: got %s", installed.Installation.VoiceNoteURL)
	}
	if installed.Installation.Address == "" {
		t.Error("Address should default to a coordinate string")
	}
	if len(uploader.uploads) != 1 {
		t.Errorf("Expected exactly one upload, got %d", len(uploader.uploads))
	}
}

func TestRecordInstallationRequiresLocation(t *testing.T) {
	svc, _ := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	item, _ := svc.IngestScan(ctx, batch.ID, "QR-NOGPS")

	lat := 21.045
	_, err := svc.RecordInstallation(ctx, item.ID, InstallationInput{
		Latitude:    &lat, // longitude missing
		InstalledBy: "fitter@qrail.in",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected validation error without a full fix, got %v", err)
	}
}

func TestRecordInstallationTwice(t *testing.T) {
	svc, _ := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	item, _ := svc.IngestScan(ctx, batch.ID, "QR-TWICE")
	lat, lng := 21.0, 75.8
	input := InstallationInput{Latitude: &lat, Longitude: &lng, Remarks: "first", InstalledBy: "a@qrail.in"}
	if _, err := svc.RecordInstallation(ctx, item.ID, input); err != nil {
		t.Fatalf("First installation failed: %v", err)
	}

	input.Remarks = "second attempt"
	_, err := svc.RecordInstallation(ctx, item.ID, input)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected conflict re-installing, got %v", err)
	}

	// Original snapshot must be untouched
	got, err := svc.ResolveItem(ctx, item.GeneratedID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Installation.Remarks != "first" {
		t.Errorf("Snapshot overwritten: got remarks %q", got.Installation.Remarks)
	}
}

func TestRecordInstallationUploadFailure(t *testing.T) {
	svc, uploader := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	item, _ := svc.IngestScan(ctx, batch.ID, "QR-UPFAIL")
	uploader.fail = true

	lat, lng := 21.0, 75.8
	_, err := svc.RecordInstallation(ctx, item.ID, InstallationInput{
		Latitude: &lat, Longitude: &lng, InstalledBy: "a@qrail.in",
		VoiceNote: &VoiceNote{FileName: "x.webm", Reader: strings.NewReader("x"), Size: 1},
	})
	if !errors.Is(err, ErrExternal) {
		t.Fatalf("Expected external-service error, got %v", err)
	}

	// Nothing committed: the item is still just scanned
	got, _ := svc.ResolveItem(ctx, item.GeneratedID)
	if got.Status != models.ItemStatusScanned {
		t.Errorf("Status after failed upload: got %s, want scanned", got.Status)
	}
}

func TestRecordInspectionPassed(t *testing.T) {
	svc, _ := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	item, _ := svc.IngestScan(ctx, batch.ID, "QR-INSPECT-OK")

	insp, err := svc.RecordInspection(ctx, item.ID, InspectionInput{
		Status:         models.InspectionPassed,
		Priority:       models.PriorityUrgent, // ignored when passed
		InspectorEmail: "inspector@qrail.in",
	})
	if err != nil {
		t.Fatalf("Inspection failed: %v", err)
	}
	if insp.Priority != models.PriorityLow {
		t.Errorf("Passed inspection priority: got %s, want low", insp.Priority)
	}
	if insp.ResolutionStatus != nil {
		t.Errorf("Passed inspection resolution: got %v, want nil", *insp.ResolutionStatus)
	}

	got, _ := svc.ResolveItem(ctx, item.GeneratedID)
	if got.Status != models.ItemStatusScanned {
		t.Errorf("Passed inspection changed item status to %s", got.Status)
	}
}

func TestRecordInspectionFailed(t *testing.T) {
	svc, _ := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	item, _ := svc.IngestScan(ctx, batch.ID, "QR-INSPECT-BAD")

	// Install first: a failed inspection outranks installed
	lat, lng := 21.0, 75.8
	if _, err := svc.RecordInstallation(ctx, item.ID, InstallationInput{
		Latitude: &lat, Longitude: &lng, InstalledBy: "a@qrail.in",
	}); err != nil {
		t.Fatalf("Installation failed: %v", err)
	}

	insp, err := svc.RecordInspection(ctx, item.ID, InspectionInput{
		Status:         models.InspectionFailed,
		ComplaintType:  models.ComplaintDamaged,
		Description:    "Crack across the clamp face",
		InspectorEmail: "inspector@qrail.in",
	})
	if err != nil {
		t.Fatalf("Inspection failed: %v", err)
	}
	if insp.Priority != models.PriorityMedium {
		t.Errorf("Defaulted priority: got %s, want medium", insp.Priority)
	}
	if insp.ResolutionStatus == nil || *insp.ResolutionStatus != models.ResolutionOpen {
		t.Errorf("Resolution: got %v, want open", insp.ResolutionStatus)
	}

	got, _ := svc.ResolveItem(ctx, item.GeneratedID)
	if got.Status != models.ItemStatusNeedsAttention {
		t.Errorf("Item status after failed inspection: got %s, want needs_attention", got.Status)
	}
}

func TestRecordInspectionRequiresDescription(t *testing.T) {
	svc, _ := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	item, _ := svc.IngestScan(ctx, batch.ID, "QR-NODESC")

	_, err := svc.RecordInspection(ctx, item.ID, InspectionInput{
		Status:         models.InspectionNeedsAttention,
		Description:    "   ",
		InspectorEmail: "inspector@qrail.in",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected validation error without description, got %v", err)
	}

	// Nothing persisted
	inspections, _ := svc.ListItemInspections(ctx, item.ID)
	if len(inspections) != 0 {
		t.Errorf("Rejected inspection was persisted: %d records", len(inspections))
	}
}

func TestResolveItem(t *testing.T) {
	svc, _ := newTestService(t)
	batch := mustCreateBatch(t, svc)
	ctx := context.Background()

	item, _ := svc.IngestScan(ctx, batch.ID, "QR-RESOLVE")

	byGenerated, err := svc.ResolveItem(ctx, item.GeneratedID)
	if err != nil {
		t.Fatalf("Resolve by generated ID failed: %v", err)
	}
	if byGenerated.ID != item.ID {
		t.Error("Resolved wrong item by generated ID")
	}

	byPayload, err := svc.ResolveItem(ctx, "QR-RESOLVE")
	if err != nil {
		t.Fatalf("Resolve by payload failed: %v", err)
	}
	if byPayload.ID != item.ID {
		t.Error("Resolved wrong item by payload")
	}

	if _, err := svc.ResolveItem(ctx, "NOT-A-CODE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected not-found, got %v", err)
	}
}
