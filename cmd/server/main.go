package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intelboard/api/internal/assistant"
	"github.com/intelboard/api/internal/config"
	"github.com/intelboard/api/internal/db"
	"github.com/intelboard/api/internal/domain"
	"github.com/intelboard/api/internal/ingestion"
	"github.com/intelboard/api/internal/middleware"
	"github.com/intelboard/api/internal/repository"
	"github.com/intelboard/api/internal/server"

	"github.com/rs/cors"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := db.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	schemas := domain.BuiltinSchemas()
	stores := make(map[string]repository.RowStore, len(schemas))
	var uploadLog repository.UploadLogRepository

	switch cfg.Database.Driver {
	case db.DriverPostgres:
		pool, err := db.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()
		for _, schema := range schemas {
			stores[schema.Name] = repository.NewPostgresRowStore(pool, schema)
		}
		uploadLog = repository.NewPostgresUploadLogRepository(pool)
	default:
		conn, err := db.OpenSQLite(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer conn.Close()
		for _, schema := range schemas {
			stores[schema.Name] = repository.NewSQLiteRowStore(conn, schema)
		}
		uploadLog = repository.NewSQLiteUploadLogRepository(conn)
	}

	manager := ingestion.NewManager(
		schemas,
		func(sessionID string, schema domain.DatasetSchema) *ingestion.StagingStore {
			return ingestion.NewStagingStore(
				schema,
				ingestion.WithRowStore(stores[schema.Name]),
				ingestion.WithUploadLog(uploadLog),
				ingestion.WithSessionID(sessionID),
			)
		},
		ingestion.WithProcessedRetention(cfg.Session.ProcessedRetention),
	)

	srv := server.New(manager, stores, uploadLog, assistant.Disabled(), cfg.Server.MaxUploadBytes)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	handler := corsHandler.Handler(
		middleware.LoggingMiddleware(
			middleware.UserMiddleware(
				middleware.SessionMiddleware(srv.Router()),
			),
		),
	)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting dashboard API on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
