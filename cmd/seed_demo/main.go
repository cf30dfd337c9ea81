package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/qrail-tms/qrailgo/internal/config"
	"github.com/qrail-tms/qrailgo/internal/database"
	"github.com/qrail-tms/qrailgo/internal/models"
	"github.com/qrail-tms/qrailgo/internal/services/lifecycle"
	"github.com/qrail-tms/qrailgo/internal/utils"
)

type demoBatch struct {
	input lifecycle.BatchInput
	scans int
}

func main() {
	fmt.Println("🌱 QRail Demo Data Seeder")
	fmt.Println("=" + string(make([]rune, 60)))

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("✅ Connected to database")
	fmt.Println()

	// Run migrations first
	fmt.Println("🔨 Running database migrations...")
	err = db.AutoMigrate(
		&models.UserAuth{},
		&models.Batch{},
		&models.InventoryItem{},
		&models.Inspection{},
	)
	if err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Migrations complete")
	fmt.Println()

	// Check if data already exists
	var batchCount int64
	db.Model(&models.Batch{}).Count(&batchCount)
	if batchCount > 0 {
		fmt.Printf("⚠️  Database already has %d batches. Clear it first? (y/N): ", batchCount)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Database not modified.")
			return
		}

		// Clear existing data
		fmt.Println("🗑️  Clearing existing data...")
		db.Exec("TRUNCATE TABLE inspections CASCADE")
		db.Exec("TRUNCATE TABLE inventory_items CASCADE")
		db.Exec("TRUNCATE TABLE batches CASCADE")
		fmt.Println("✅ Data cleared")
	}

	ctx := context.Background()
	svc := lifecycle.NewService(db, nil)

	fmt.Println()
	fmt.Println("👤 Creating demo users...")
	users := []struct {
		email, password, name, role, depot string
	}{
		{"admin@qrail.in", "admin123", "Depot Admin", "admin", "Bhusawal Yard"},
		{"inspector@qrail.in", "inspect123", "Line Inspector", "inspector", "Bhusawal Yard"},
		{"fitter@qrail.in", "fitter123", "Track Fitter", "fitter", "Itarsi Yard"},
	}
	for _, u := range users {
		hash, err := utils.HashPassword(u.password)
		if err != nil {
			log.Fatalf("❌ Failed to hash password: %v", err)
		}
		user := models.UserAuth{
			Email:     u.email,
			Password:  hash,
			Name:      u.name,
			Role:      u.role,
			DepotName: u.depot,
			IsActive:  true,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Printf("⚠️  Failed to create user %s: %v", u.email, err)
		} else {
			fmt.Printf("   ✓ Created user: %s (%s)\n", u.email, u.role)
		}
	}
	fmt.Println()

	fmt.Println("📦 Creating demo batches with scans...")
	demo := []demoBatch{
		{
			input: lifecycle.BatchInput{
				VendorName:       "Balaji Railroad Systems",
				ManufacturerCode: "BRS",
				DateReceived:     time.Now().AddDate(0, 0, -10).Format("2006-01-02"),
				WarrantyPeriod:   models.Warranty1Year,
				RailwayZone:      "Central",
				Division:         "Bhusawal",
				DepotName:        "Bhusawal Yard",
				ProductID:        "12",
			},
			scans: 25,
		},
		{
			input: lifecycle.BatchInput{
				VendorName:       "Indian Railway Manufacturing",
				ManufacturerCode: "IRM",
				DateReceived:     time.Now().AddDate(0, 0, -7).Format("2006-01-02"),
				WarrantyPeriod:   models.Warranty2Years,
				RailwayZone:      "South_Central",
				Division:         "Secunderabad",
				DepotName:        "Moula Ali Depot",
				ProductID:        "34",
			},
			scans: 40,
		},
		{
			input: lifecycle.BatchInput{
				VendorName:       "Railtech Equipment Co",
				ManufacturerCode: "REC",
				DateReceived:     time.Now().AddDate(0, 0, -3).Format("2006-01-02"),
				WarrantyPeriod:   models.Warranty6Months,
				RailwayZone:      "Western",
				Division:         "Mumbai",
				DepotName:        "Lower Parel Workshop",
				ProductID:        "7",
			},
			scans: 12,
		},
	}

	var firstItemID string
	for i, d := range demo {
		batch, err := svc.CreateBatch(ctx, d.input)
		if err != nil {
			log.Printf("⚠️  Failed to create batch for %s: %v", d.input.VendorName, err)
			continue
		}
		fmt.Printf("   ✓ Created batch: %s (%s, %s)\n", batch.VendorName, batch.ManufacturerCode, batch.RailwayZone)

		for n := 1; n <= d.scans; n++ {
			payload := fmt.Sprintf("QR-%s-%04d", batch.ManufacturerCode, n)
			item, err := svc.IngestScan(ctx, batch.ID, payload)
			if err != nil {
				log.Printf("⚠️  Scan %d failed: %v", n, err)
				break
			}
			if firstItemID == "" {
				firstItemID = item.ID
			}
		}
		fmt.Printf("   ✓ Scanned %d items into %s\n", d.scans, batch.VendorName)

		// Close out all but the freshest batch
		if i < len(demo)-1 {
			if _, err := svc.FinishBatch(ctx, batch.ID); err != nil {
				log.Printf("⚠️  Failed to finish batch: %v", err)
			}
		}
	}
	fmt.Println()

	// Walk one item through the full lifecycle
	if firstItemID != "" {
		fmt.Println("🔧 Recording a demo installation and inspection...")
		lat, lng := 21.0455, 75.8011
		if _, err := svc.RecordInstallation(ctx, firstItemID, lifecycle.InstallationInput{
			Latitude:    &lat,
			Longitude:   &lng,
			Remarks:     "Fitted on the up main line, km 412/3",
			InstalledBy: "fitter@qrail.in",
		}); err != nil {
			log.Printf("⚠️  Installation failed: %v", err)
		} else {
			fmt.Println("   ✓ Installed first scanned item")
		}

		if _, err := svc.RecordInspection(ctx, firstItemID, lifecycle.InspectionInput{
			Status:         models.InspectionNeedsAttention,
			ComplaintType:  models.ComplaintDamaged,
			Description:    "Hairline crack along the clamp toe, monitor next visit",
			Priority:       models.PriorityHigh,
			InspectorEmail: "inspector@qrail.in",
		}); err != nil {
			log.Printf("⚠️  Inspection failed: %v", err)
		} else {
			fmt.Println("   ✓ Filed an inspection report against it")
		}
	}

	// Summary
	fmt.Println()
	fmt.Println("=" + string(make([]rune, 60)))
	fmt.Println("🎉 Demo data created successfully!")
	fmt.Println()
	fmt.Println("📊 Summary:")
	fmt.Printf("   • %d depot users\n", len(users))
	fmt.Printf("   • %d batches across three zones\n", len(demo))
	fmt.Println("   • 77 scanned items, one installed and inspected")
	fmt.Println()
	fmt.Println("🌐 Start the server:")
	fmt.Println("   go run ./cmd/api/main.go")
	fmt.Println("   Then log in as admin@qrail.in / admin123")
	fmt.Println("=" + string(make([]rune, 60)))
}
