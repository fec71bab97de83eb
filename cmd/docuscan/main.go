package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"docuscan/internal/api"
	"docuscan/internal/api/handlers"
	"docuscan/internal/repository"
	"docuscan/internal/service"
	"docuscan/pkg/auth"
	"docuscan/pkg/config"
	"docuscan/pkg/logger"
	"docuscan/pkg/postgres"

	"go.uber.org/zap"
)

// @title DocuScan API
// @version 1.0
// @description Credit-metered document OCR pipeline

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting DocuScan service")

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	docRepo := repository.NewDocumentRepository(db, appLogger)
	jobRepo := repository.NewJobRepository(db, appLogger)
	userRepo := repository.NewUserRepository(db, appLogger)

	// Collaborators
	storage, err := service.NewLocalStorage(cfg.Storage.UploadDir, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	geminiClient := service.NewGeminiClient(&cfg.Gemini, appLogger)
	ocrService := service.NewOCRService(geminiClient, appLogger)

	// Queue processor: one job per invocation, claimed atomically.
	processor := service.NewQueueProcessor(
		jobRepo,
		docRepo,
		storage,
		ocrService,
		userRepo,
		service.QueueProcessorConfig{
			DownloadTimeout:   cfg.Queue.DownloadTimeout,
			ExtractionTimeout: cfg.Queue.ExtractionTimeout,
			RetryBlocked:      cfg.Queue.RetryBlocked,
		},
		appLogger,
	)

	docService := service.NewDocumentService(docRepo, jobRepo, userRepo, storage, processor, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey)

	docHandler := handlers.NewDocumentHandler(docService, appLogger)
	queueHandler := handlers.NewQueueHandler(processor, appLogger)

	app := api.SetupRouter(docHandler, queueHandler, jwtManager, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
