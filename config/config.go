package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported tournament stores.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

// Config holds the application settings.
type Config struct {
	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	JWTSecretKey       string
	ServerPort         int
	CORSAllowedOrigins []string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	PublishSchedulerInterval time.Duration
}

// R2Enabled reports whether scoreboard snapshots should be archived.
func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load reads the configuration from the environment, loading a .env file first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		StoreDriver:       getEnvOrDefault("STORE_DRIVER", StoreDriverPostgres),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDatabase:     getEnvOrDefault("MONGO_DATABASE", "royale"),
		JWTSecretKey:      os.Getenv("JWT_SECRET_KEY"),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case StoreDriverMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI environment variable is not set")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := strconv.Atoi(getEnvOrDefault("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	for _, origin := range strings.Split(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	interval, err := time.ParseDuration(getEnvOrDefault("PUBLISH_SCHEDULER_INTERVAL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUBLISH_SCHEDULER_INTERVAL: %w", err)
	}
	if interval < time.Second {
		return nil, fmt.Errorf("PUBLISH_SCHEDULER_INTERVAL must be at least 1s, got %v", interval)
	}
	cfg.PublishSchedulerInterval = interval

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
