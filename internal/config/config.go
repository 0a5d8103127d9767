// Package config loads the environment-variable configuration shared by
// every cmd/ entrypoint (attestord, decisiond, anchord, replay).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the settings every binary may need; each main.go reads only
// the fields relevant to it.
type Config struct {
	HTTPAddr string

	AttestorSeeds     string
	AttestorActiveKid string
	AttestorBaseURL   string

	OracleBaseURL           string
	OracleInsecureSkipVerify bool

	DatabaseURL string

	AdminToken     string
	DefaultCountry string

	AnchorInterval  time.Duration
	AnchorBatchSize int
}

// FromEnv reads the process environment into a Config, applying the same
// defaults documented for each variable.
func FromEnv() (*Config, error) {
	cfg := &Config{
		HTTPAddr: normalizePort(getEnvDefault("HTTP_ADDR", ":8080")),

		AttestorSeeds:     os.Getenv("ATTESTOR_SEEDS"),
		AttestorActiveKid: os.Getenv("ATTESTOR_ACTIVE_KID"),
		AttestorBaseURL:   getEnvDefault("ATTESTOR_BASE_URL", "http://localhost:8081"),

		OracleBaseURL:            getEnvDefault("ORACLE_BASE_URL", "http://localhost:8082"),
		OracleInsecureSkipVerify: parseBoolEnv("ORACLE_INSECURE_SKIP_VERIFY", false),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		DefaultCountry: getEnvDefault("DEFAULT_COUNTRY", "US"),

		AnchorInterval:  parseDurationEnv("ANCHOR_INTERVAL", 10*time.Second),
		AnchorBatchSize: parseIntEnv("ANCHOR_BATCH_SIZE", 1000),
	}

	if cfg.AttestorSeeds == "" {
		return nil, fmt.Errorf("config: ATTESTOR_SEEDS is required")
	}
	if cfg.AttestorActiveKid == "" {
		return nil, fmt.Errorf("config: ATTESTOR_ACTIVE_KID is required")
	}
	return cfg, nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func normalizePort(port string) string {
	if port == "" {
		return ":8080"
	}
	if _, err := strconv.Atoi(port); err == nil {
		return ":" + port
	}
	return port
}

func parseIntEnv(key string, def int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return def
}

func parseBoolEnv(key string, def bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return def
}
