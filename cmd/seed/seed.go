package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Lutefd/currency-data/internal/logger"
	"github.com/Lutefd/currency-data/internal/repository"
	"github.com/Lutefd/currency-data/internal/server"
	"github.com/Lutefd/currency-data/internal/service"
	"github.com/Lutefd/currency-data/internal/validator"
	"github.com/joho/godotenv"
)

type dependencies struct {
	loadConfig    func() (server.Config, error)
	loadEnv       func(...string) error
	openFile      func(name string) (io.ReadCloser, error)
	newRepository func(ctx context.Context, config server.Config) (repository.CurrencyRepository, error)
}

var defaultDeps = dependencies{
	loadConfig: server.LoadStorageConfig,
	loadEnv:    godotenv.Load,
	openFile: func(name string) (io.ReadCloser, error) {
		return os.Open(name)
	},
	newRepository: newMongoRepository,
}

func main() {
	path := flag.String("file", "seed.json", "JSON payload to import, same shape as the add endpoint")
	flag.Parse()

	if err := run(context.Background(), defaultDeps, *path); err != nil {
		logger.Log.Fatal(err)
	}
}

func newMongoRepository(ctx context.Context, config server.Config) (repository.CurrencyRepository, error) {
	schema, err := repository.LoadSchema(config.SchemaPath)
	if err != nil {
		return nil, err
	}
	return repository.NewMongoCurrencyRepository(ctx, repository.MongoConfig{
		URI:        config.MongoURI,
		Database:   config.MongoDatabase,
		Collection: config.MongoCollection,
		Schema:     schema,
	}, nil)
}

func run(ctx context.Context, deps dependencies, path string) error {
	if err := deps.loadEnv(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}

	config, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	file, err := deps.openFile(path)
	if err != nil {
		return fmt.Errorf("error opening seed file: %w", err)
	}
	defer file.Close()

	entries, err := validator.DecodePayload(file)
	if err != nil {
		return fmt.Errorf("error reading seed file %s: %w", path, err)
	}

	repo, err := deps.newRepository(ctx, config)
	if err != nil {
		return fmt.Errorf("error connecting to the database: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repo.Close(closeCtx); err != nil {
			logger.Log.Errorf("Error closing currency repository: %v", err)
		}
	}()

	svc := service.NewCurrencyService(repo, nil, service.Options{CheckDuplicates: config.CheckDuplicates})
	result, err := svc.AddCurrencyData(ctx, entries)
	if err != nil {
		return fmt.Errorf("error importing currency data: %w", err)
	}

	logger.Log.Infof("Imported %d of %d records, %d rejected", result.Inserted, len(entries), result.Rejected)
	return nil
}
