package server

import (
	"fmt"
	"strconv"
	"time"

	"github.com/Lutefd/currency-data/internal/commons"
	"github.com/Lutefd/currency-data/internal/logger"
	"github.com/Lutefd/currency-data/internal/repository"
	"github.com/spf13/viper"
)

type Config struct {
	MongoURI         string
	MongoDatabase    string
	MongoCollection  string
	SchemaPath       string
	DropOnShutdown   bool
	CheckDuplicates  bool
	RedisAddr        string
	RedisPass        string
	CacheTTL         time.Duration
	RateLimitRPS     int
	LogRetentionDays int
	LogLevel         string
	ServerPort       uint16
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("MONGO_APP_NAME", "Cluster0")
	v.SetDefault("MONGO_DATABASE", "currency_data")
	v.SetDefault("MONGO_COLLECTION", "currency_data")
	v.SetDefault("SCHEMA_PATH", "./schema.json")
	v.SetDefault("DROP_ON_SHUTDOWN", false)
	v.SetDefault("CHECK_DUPLICATES", true)
	v.SetDefault("CACHE_TTL", commons.CacheExpiration.String())
	v.SetDefault("RATE_LIMIT_RPS", commons.AllowedRPS)
	v.SetDefault("LOG_RETENTION_DAYS", commons.LogRetentionDays)
	v.SetDefault("LOG_LEVEL", "info")
	v.AutomaticEnv()
	return v
}

// LoadConfig reads the environment and reports every problem at once.
func LoadConfig() (Config, error) {
	v := newViper()
	var errors []string

	config := loadStorage(v, &errors)

	config.RedisAddr = v.GetString("REDIS_ADDR")
	config.RedisPass = v.GetString("REDIS_PASSWORD")

	cacheTTL, err := time.ParseDuration(v.GetString("CACHE_TTL"))
	if err != nil {
		errors = append(errors, fmt.Sprintf("invalid CACHE_TTL: %s", err))
	} else {
		config.CacheTTL = cacheTTL
	}

	config.RateLimitRPS = v.GetInt("RATE_LIMIT_RPS")
	if config.RateLimitRPS <= 0 {
		errors = append(errors, "RATE_LIMIT_RPS must be a positive integer")
	}

	serverPort := v.GetString("SERVER_PORT")
	if serverPort == "" {
		errors = append(errors, "SERVER_PORT is not set")
	} else {
		parsedServerPort, err := strconv.ParseUint(serverPort, 10, 16)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid SERVER_PORT: %s", err))
		} else {
			config.ServerPort = uint16(parsedServerPort)
		}
	}

	return validated(config, errors)
}

// LoadStorageConfig reads only the database and logging settings, for
// processes that do not serve HTTP.
func LoadStorageConfig() (Config, error) {
	v := newViper()
	var errors []string
	config := loadStorage(v, &errors)
	return validated(config, errors)
}

func loadStorage(v *viper.Viper, errors *[]string) Config {
	var config Config

	config.MongoURI = v.GetString("MONGO_URI")
	if config.MongoURI == "" {
		login := v.GetString("LOGIN")
		if login == "" {
			*errors = append(*errors, "LOGIN is not set")
		}
		password := v.GetString("PASSWORD")
		if password == "" {
			*errors = append(*errors, "PASSWORD is not set")
		}
		cluster := v.GetString("CLUSTER")
		if cluster == "" {
			*errors = append(*errors, "CLUSTER is not set")
		}
		config.MongoURI = repository.BuildURI(login, password, cluster, v.GetString("MONGO_APP_NAME"))
	}

	config.MongoDatabase = v.GetString("MONGO_DATABASE")
	config.MongoCollection = v.GetString("MONGO_COLLECTION")
	config.SchemaPath = v.GetString("SCHEMA_PATH")
	if config.SchemaPath == "" {
		*errors = append(*errors, "SCHEMA_PATH is not set")
	}
	config.DropOnShutdown = v.GetBool("DROP_ON_SHUTDOWN")
	config.CheckDuplicates = v.GetBool("CHECK_DUPLICATES")
	config.LogLevel = v.GetString("LOG_LEVEL")

	config.LogRetentionDays = v.GetInt("LOG_RETENTION_DAYS")
	if config.LogRetentionDays <= 0 {
		*errors = append(*errors, "LOG_RETENTION_DAYS must be a positive integer")
	}

	return config
}

func validated(config Config, errors []string) (Config, error) {
	if len(errors) > 0 {
		for _, err := range errors {
			logger.Log.Errorf("Configuration Error: %s", err)
		}
		return Config{}, fmt.Errorf("configuration errors occurred")
	}
	return config, nil
}
