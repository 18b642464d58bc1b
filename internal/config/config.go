package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	JWTSecret string
	BlobDir   string
	Database  DatabaseConfig
	Webhook   WebhookConfig
	Rental    RentalConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// WebhookConfig holds the outbound status-event webhook configuration.
// An empty URL disables the notifier.
type WebhookConfig struct {
	URL      string
	Secret   string
	Attempts int
}

// RentalConfig holds the rented-days recompute worker configuration
type RentalConfig struct {
	Interval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "3100"),
		JWTSecret: jwtSecret,
		BlobDir:   getEnv("BLOB_DIR", "./blob_data"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "blufms"),
		},
		Webhook: WebhookConfig{
			URL:      os.Getenv("WEBHOOK_URL"),
			Secret:   os.Getenv("WEBHOOK_SECRET"),
			Attempts: getEnvInt("WEBHOOK_ATTEMPTS", 3),
		},
		Rental: RentalConfig{
			Interval: time.Duration(getEnvInt("RENTAL_RECOMPUTE_MINUTES", 60)) * time.Minute,
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
