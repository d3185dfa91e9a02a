package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lutefd/currency-data/internal/cache"
	"github.com/Lutefd/currency-data/internal/commons"
	"github.com/Lutefd/currency-data/internal/logger"
	"github.com/Lutefd/currency-data/internal/repository"
	"github.com/Lutefd/currency-data/internal/server"
	"github.com/Lutefd/currency-data/internal/service"
	"github.com/joho/godotenv"
)

const connectTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Warnf("Error loading .env file: %v", err)
	}

	config, err := server.LoadConfig()
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.SetLevel(config.LogLevel); err != nil {
		logger.Log.Fatalf("Invalid LOG_LEVEL %q: %v", config.LogLevel, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, config); err != nil {
		logger.Log.Fatal(err)
	}
}

func run(ctx context.Context, config server.Config) error {
	schema, err := repository.LoadSchema(config.SchemaPath)
	if err != nil {
		return err
	}

	connectCtx, cancelConnect := context.WithTimeout(ctx, connectTimeout)
	defer cancelConnect()

	currencyRepo, err := repository.NewMongoCurrencyRepository(connectCtx, repository.MongoConfig{
		URI:         config.MongoURI,
		Database:    config.MongoDatabase,
		Collection:  config.MongoCollection,
		Schema:      schema,
		DropOnClose: config.DropOnShutdown,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	logger.Info("Connected to MongoDB")

	// the log sink shares the currency repository's client, which closes it
	logRepo, err := repository.NewMongoLogRepository(connectCtx, config.MongoURI, config.MongoDatabase, currencyRepo.Client())
	if err != nil {
		logger.Errorf("failed to initialize log repository, logging to stdout only: %v", err)
	} else {
		logger.InitLogger(logRepo)
	}

	responseCache := newCache(config)
	defer func() {
		if err := responseCache.Close(); err != nil {
			logger.Log.Errorf("Error closing cache: %v", err)
		}
	}()

	currencyService := service.NewCurrencyService(currencyRepo, responseCache, service.Options{
		CheckDuplicates: config.CheckDuplicates,
		CacheTTL:        config.CacheTTL,
	})
	srv := server.NewServer(config, server.Dependencies{
		CurrencyService: currencyService,
		HealthService:   currencyService,
	})

	serveErr := srv.Start(ctx)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), commons.ServerShutdownTimeout)
	defer cancelShutdown()
	if err := logger.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Error shutting down logger: %v", err)
	}
	if err := currencyRepo.Close(shutdownCtx); err != nil {
		logger.Log.Errorf("Error closing currency repository: %v", err)
	}
	logger.Log.Info("MongoDB connection closed")

	return serveErr
}

func newCache(config server.Config) cache.Cache {
	if config.RedisAddr == "" {
		return cache.NoopCache{}
	}
	redisCache, err := cache.NewRedisCache(config.RedisAddr, config.RedisPass)
	if err != nil {
		logger.Errorf("failed to initialize cache, serving uncached: %v", err)
		return cache.NoopCache{}
	}
	return redisCache
}
