package main

import (
	"context"
	"ev-route-planner/internal/adapters/repositories"
	"ev-route-planner/internal/config"
	"ev-route-planner/internal/platform/db"
	"ev-route-planner/internal/platform/logging"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// dbtool creates the Postgres tables for stored trips and the response cache.
func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		logger.Info("no .env file found (using environment variables)")
	}
	if strings.TrimSpace(cfg.Database.URL) == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("connect", zap.Error(err))
	}
	defer conn.Close()

	logger.Info("initializing database schema")
	if err := repositories.InitPostgresSchema(ctx, conn); err != nil {
		logger.Fatal("schema initialization failed", zap.Error(err))
	}
	logger.Info("schema ready")
}
