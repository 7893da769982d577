package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/xelth-com/campusgate/internal/config"
	"github.com/xelth-com/campusgate/internal/database"
	"github.com/xelth-com/campusgate/internal/flows"
	"github.com/xelth-com/campusgate/internal/handlers"
	"github.com/xelth-com/campusgate/internal/models"
	"github.com/xelth-com/campusgate/internal/store"
	"github.com/xelth-com/campusgate/internal/uploads"
	"github.com/xelth-com/campusgate/internal/utils"
	ws "github.com/xelth-com/campusgate/internal/websocket"
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

	// 3. Auto-Migrate Schema (Critical for Zero-Config kiosks)
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.UserAuth{},
		&models.Visitor{},
		&models.VisitorLog{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// First boot on a fresh kiosk needs an account to log in with
	if err := ensureOperatorExists(db); err != nil {
		log.Printf("⚠️ Operator bootstrap failed: %v", err)
	}

	// 4. Wire up the service layers
	uploadStore, err := uploads.New(cfg.Storage.Dir, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	visitorStore := store.New(db.DB)
	visitorFlows := flows.New(visitorStore)

	hub := ws.NewHub()
	go hub.Run()

	// Bridge store snapshots to the live log screens
	subCtx, stopSub := context.WithCancel(context.Background())
	snapshots, cancelSub := visitorStore.Subscribe(subCtx)
	go func() {
		for visitors := range snapshots {
			hub.Broadcast(visitors)
		}
	}()

	// 5. Set up HTTP router
	router := handlers.NewRouter(db.DB, cfg, visitorStore, visitorFlows, uploadStore, hub)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server (%s) starting on port %s\n", cfg.NodeEnv, cfg.Port)
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

	// Stop the snapshot bridge
	cancelSub()
	stopSub()

	// Close database (this also stops embedded PostgreSQL)
	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}

// ensureOperatorExists creates the default operator account on an empty
// install so the gate desk can log in immediately after first boot.
func ensureOperatorExists(db *database.DB) error {
	var count int64
	if err := db.Model(&models.UserAuth{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("OPERATOR_PASSWORD")
	if password == "" {
		password = "changeme"
		log.Println("⚠️ OPERATOR_PASSWORD not set, using default. Change it!")
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	operator := models.UserAuth{
		ID:       uuid.NewString(),
		Username: "operator",
		Password: hashed,
		Email:    "operator@campusgate.local",
		Name:     "Gate Operator",
		Role:     "operator",
		IsActive: true,
	}
	if err := db.Create(&operator).Error; err != nil {
		return err
	}
	log.Println("✅ Created default operator account 'operator'")
	return nil
}
