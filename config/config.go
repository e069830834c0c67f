// Package config reads process settings from the environment, after loading
// an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port string

	// DatabaseURL is empty when no Postgres settings are present; the
	// in-memory store is used then.
	DatabaseURL    string
	SeedSampleData bool

	JWTSecret   string
	AdminAPIKey string

	RedisAddr       string
	KafkaBrokers    []string
	KafkaOrderTopic string

	ShippingCost decimal.Decimal
	TaxRate      decimal.Decimal

	CORSOrigins []string
	LogLevel    string
}

// Load reads the environment. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     databaseURL(),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AdminAPIKey:     os.Getenv("ADMIN_API_KEY"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic: getEnv("KAFKA_ORDER_TOPIC", "orders.events"),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.SeedSampleData, err = strconv.ParseBool(getEnv("SEED_SAMPLE_DATA", strconv.FormatBool(cfg.DatabaseURL == ""))); err != nil {
		return nil, fmt.Errorf("SEED_SAMPLE_DATA: %w", err)
	}
	if cfg.ShippingCost, err = decimal.NewFromString(getEnv("SHIPPING_COST", "10.00")); err != nil {
		return nil, fmt.Errorf("SHIPPING_COST: %w", err)
	}
	if cfg.TaxRate, err = decimal.NewFromString(getEnv("TAX_RATE", "0.05")); err != nil {
		return nil, fmt.Errorf("TAX_RATE: %w", err)
	}
	if cfg.ShippingCost.IsNegative() || cfg.TaxRate.IsNegative() {
		return nil, fmt.Errorf("SHIPPING_COST and TAX_RATE must not be negative")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	return cfg, nil
}

// databaseURL prefers DATABASE_URL and falls back to the DB_* variables.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		host, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"), getEnv("DB_PORT", "5432"),
	)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
