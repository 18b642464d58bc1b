package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blufield/blufmsgo/internal/config"
	"github.com/blufield/blufmsgo/internal/database"
	"github.com/blufield/blufmsgo/internal/handlers"
	"github.com/blufield/blufmsgo/internal/models"
	"github.com/blufield/blufmsgo/internal/notify"
	"github.com/blufield/blufmsgo/internal/services/rental"
	"github.com/blufield/blufmsgo/internal/setup"
	"github.com/blufield/blufmsgo/internal/storage"
	"github.com/blufield/blufmsgo/internal/websocket"
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

	// 3. Auto-Migrate Schema
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.UserAuth{},
		&models.Client{},
		&models.Order{},
		&models.Asset{},
		&models.Setup{},
		&models.SetupPhoto{},
		&models.SpeedTest{},
		&models.SetupSignature{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Evidence blob store
	blobs, err := storage.NewStore(cfg.BlobDir)
	if err != nil {
		log.Fatalf("Failed to init blob store: %v", err)
	}

	// 5. Supervision websocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// 6. Webhook notifier
	notifier := notify.New(cfg.Webhook)
	if notifier.Enabled() {
		log.Println("✅ Webhook: status event notifier enabled")
	}

	// 7. Setup orchestrator and HTTP router
	setupSvc := setup.NewService(db.DB, blobs)
	router := handlers.NewRouter(db, cfg, setupSvc, blobs, hub, notifier)

	// 8. Rental recompute worker (derived rented_days on assets)
	rentalSvc := rental.NewService(db.DB, cfg.Rental.Interval)
	rentalSvc.Start()

	// 9. Start server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 Server starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	rentalSvc.Stop()

	log.Println("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
