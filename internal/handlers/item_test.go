package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qrail-tms/qrailgo/internal/config"
	"github.com/qrail-tms/qrailgo/internal/database"
	"github.com/qrail-tms/qrailgo/internal/models"
	"github.com/qrail-tms/qrailgo/internal/services/lifecycle"
	"github.com/qrail-tms/qrailgo/internal/services/reporting"
	"github.com/qrail-tms/qrailgo/internal/utils"
	ws "github.com/qrail-tms/qrailgo/internal/websocket"
)

const testSecret = "handler-test-secret"

func newTestRouter(t *testing.T) (*Router, *lifecycle.Service) {
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

	db := database.Wrap(gdb)
	cfg := &config.Config{JWTSecret: testSecret, Port: "0"}
	lc := lifecycle.NewService(db, nil)
	return NewRouter(db, cfg, lc, reporting.NewService(db), ws.NewHub()), lc
}

func bearerToken(t *testing.T, email string) string {
	t.Helper()
	user := &models.UserAuth{
		ID:        "user-1",
		Email:     email,
		Role:      "inspector",
		DepotName: "Bhusawal Yard",
	}
	access, _, err := utils.GenerateTokens(user, testSecret)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return "Bearer " + access
}

func seedScannedItem(t *testing.T, lc *lifecycle.Service) *models.InventoryItem {
	t.Helper()
	ctx := context.Background()
	batch, err := lc.CreateBatch(ctx, lifecycle.BatchInput{
		VendorName:       "Balaji Railroad Systems",
		ManufacturerCode: "BRS",
		DateReceived:     time.Now().Format("2006-01-02"),
		WarrantyPeriod:   models.Warranty1Year,
		RailwayZone:      "Central",
		Division:         "Bhusawal",
		DepotName:        "Bhusawal Yard",
		ProductID:        "12",
	})
	if err != nil {
		t.Fatalf("Failed to create batch: %v", err)
	}
	item, err := lc.IngestScan(ctx, batch.ID, "QR-HANDLER-TEST")
	if err != nil {
		t.Fatalf("Failed to ingest scan: %v", err)
	}
	return item
}

func TestRecordInstallationUsesTokenIdentity(t *testing.T) {
	router, lc := newTestRouter(t)
	item := seedScannedItem(t, lc)

	// The body tries to claim someone else's identity
	body, _ := json.Marshal(map[string]interface{}{
		"latitude":     21.045,
		"longitude":    75.801,
		"remarks":      "Fastened on sleeper 114B",
		"installed_by": "intruder@qrail.in",
	})
	req := httptest.NewRequest("POST", "/api/items/"+item.ID+"/installation", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, "fitter@qrail.in"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Installation request failed: %d %s", rr.Code, rr.Body.String())
	}

	got, err := lc.ResolveItem(context.Background(), item.GeneratedID)
	if err != nil {
		t.Fatalf("Failed to reload item: %v", err)
	}
	if got.Installation.InstalledBy != "fitter@qrail.in" {
		t.Errorf("Installer identity: got %q, want the token's fitter@qrail.in", got.Installation.InstalledBy)
	}
}

func TestRecordInspectionUsesTokenIdentity(t *testing.T) {
	router, lc := newTestRouter(t)
	item := seedScannedItem(t, lc)

	body, _ := json.Marshal(map[string]interface{}{
		"inspection_status":     models.InspectionFailed,
		"complaint_type":        models.ComplaintDamaged,
		"complaint_description": "Crack across the clamp face",
		"inspector_email":       "intruder@qrail.in",
	})
	req := httptest.NewRequest("POST", "/api/items/"+item.ID+"/inspections", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t, "inspector@qrail.in"))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Inspection request failed: %d %s", rr.Code, rr.Body.String())
	}

	inspections, err := lc.ListItemInspections(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("Failed to list inspections: %v", err)
	}
	if len(inspections) != 1 {
		t.Fatalf("Expected one inspection, got %d", len(inspections))
	}
	if inspections[0].InspectorEmail != "inspector@qrail.in" {
		t.Errorf("Inspector identity: got %q, want the token's inspector@qrail.in", inspections[0].InspectorEmail)
	}
}

func TestRecordInstallationRejectsMissingToken(t *testing.T) {
	router, lc := newTestRouter(t)
	item := seedScannedItem(t, lc)

	body, _ := json.Marshal(map[string]interface{}{
		"latitude": 21.045, "longitude": 75.801,
	})
	req := httptest.NewRequest("POST", "/api/items/"+item.ID+"/installation", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without a token, got %d", rr.Code)
	}
}
