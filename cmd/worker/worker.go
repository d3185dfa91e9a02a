package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lutefd/currency-data/internal/logger"
	"github.com/Lutefd/currency-data/internal/repository"
	"github.com/Lutefd/currency-data/internal/server"
	"github.com/joho/godotenv"
)

type dependencies struct {
	logRepo      repository.LogRepository
	retentionMgr RetentionManager
}

type RetentionManager interface {
	Start(ctx context.Context) error
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Warnf("Error loading .env file: %v", err)
	}

	config, err := server.LoadStorageConfig()
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.SetLevel(config.LogLevel); err != nil {
		logger.Log.Fatalf("Invalid LOG_LEVEL %q: %v", config.LogLevel, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deps, err := initDependencies(ctx, config)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize dependencies: %v", err)
	}

	if err := runWorker(ctx, deps); err != nil && ctx.Err() == nil {
		logger.Log.Fatalf("Worker failed: %v", err)
	}
	logger.Log.Info("Worker shut down gracefully")
}

func initDependencies(ctx context.Context, config server.Config) (*dependencies, error) {
	logRepo, err := repository.NewMongoLogRepository(ctx, config.MongoURI, config.MongoDatabase, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize log repository: %w", err)
	}

	return &dependencies{
		logRepo:      logRepo,
		retentionMgr: logger.NewRetentionManager(logRepo, config.LogRetentionDays),
	}, nil
}

// runWorker blocks until ctx is done. The log repository is closed on the
// way out whatever the outcome.
func runWorker(ctx context.Context, deps *dependencies) error {
	defer func() {
		if err := deps.logRepo.Close(); err != nil {
			logger.Log.Errorf("Error closing log repository: %v", err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := deps.retentionMgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start retention manager: %w", err)
	}

	<-ctx.Done()
	logger.Log.Info("Worker shutting down...")
	return ctx.Err()
}
