package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qrail-tms/qrailgo/internal/config"
	"github.com/qrail-tms/qrailgo/internal/database"
	"github.com/qrail-tms/qrailgo/internal/handlers"
	"github.com/qrail-tms/qrailgo/internal/models"
	"github.com/qrail-tms/qrailgo/internal/services/lifecycle"
	"github.com/qrail-tms/qrailgo/internal/services/reporting"
	"github.com/qrail-tms/qrailgo/internal/services/storage"
	ws "github.com/qrail-tms/qrailgo/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in shutdown handler below

	// 3. Auto-Migrate Schema (Critical for Zero-Config)
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.UserAuth{},
		&models.Batch{},
		&models.InventoryItem{},
		&models.Inspection{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Voice note storage (optional; disabled without an endpoint)
	store, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if store == nil {
		log.Println("⚠️ Object storage not configured, voice notes disabled")
	}

	// 5. Services and live feed
	hub := ws.NewHub()
	go hub.Run()

	var uploader lifecycle.Uploader
	if store != nil {
		uploader = store
	}
	lifecycleSvc := lifecycle.NewService(db, uploader)
	reportingSvc := reporting.NewService(db)

	// 6. Set up HTTP router
	router := handlers.NewRouter(db, cfg, lifecycleSvc, reportingSvc, hub)

	// 7. Start server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 QRail server starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	// Create context with timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
