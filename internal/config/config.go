package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string // Identity provider's /.well-known/jwks.json
	CORSOrigins string
	TablePrefix string
	// Authorization
	IdentityCacheTTL     time.Duration // 0 disables the identity cache
	RoleSource           string        // "claim" or "store"
	RequireVerifiedEmail bool
	// Logging
	LogDir      string // empty = stdout only
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() (*Config, error) {
	env := getEnv("ENVIRONMENT", "dev")

	ttl, err := time.ParseDuration(getEnv("IDENTITY_CACHE_TTL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("IDENTITY_CACHE_TTL: %w", err)
	}
	maxFiles, err := strconv.Atoi(getEnv("LOG_MAX_FILES", "10"))
	if err != nil {
		return nil, fmt.Errorf("LOG_MAX_FILES: %w", err)
	}

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          env,
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWKSURL:              getEnv("JWKS_URL", ""),
		CORSOrigins:          getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:          getTablePrefix(env),
		IdentityCacheTTL:     ttl,
		RoleSource:           getEnv("AUTHZ_ROLE_SOURCE", "claim"),
		RequireVerifiedEmail: getEnv("AUTHZ_REQUIRE_VERIFIED_EMAIL", "false") == "true",
		LogDir:               getEnv("LOG_DIR", ""),
		LogMaxFiles:          maxFiles,
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.Environment, validation.In("dev", "test", "prod")),
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.JWKSURL, validation.Required, is.URL),
		validation.Field(&c.IdentityCacheTTL, validation.Min(time.Duration(0))),
		validation.Field(&c.RoleSource, validation.In("claim", "store")),
		validation.Field(&c.LogMaxFiles, validation.Min(1)),
	)
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	case "dev":
		return "dev_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
