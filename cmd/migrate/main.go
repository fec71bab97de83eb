package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"docuscan/pkg/config"
	"docuscan/pkg/logger"
	"docuscan/pkg/postgres"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Applies migrations/schema.sql to the configured database. The schema is
// idempotent, so rerunning is safe.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	schemaPath := filepath.Join("migrations", "schema.sql")
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		appLogger.Fatal("Failed to read schema", zap.Error(err), zap.String("path", schemaPath))
	}

	// The schema holds multiple statements; the simple protocol runs them
	// in one Exec, where the default prepared-statement mode would reject
	// them.
	if _, err := db.Exec(ctx, string(schema), pgx.QueryExecModeSimpleProtocol); err != nil {
		appLogger.Fatal("Failed to apply schema", zap.Error(err))
	}

	appLogger.Info("Schema applied", zap.String("path", schemaPath))
}
