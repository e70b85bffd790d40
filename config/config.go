package config

import (
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// DevSigningSecret is the placeholder key used when SIGNING_SECRET is not
// set. It exists so the service boots in development; production
// deployments must provide their own key material.
const DevSigningSecret = "abcd"

// Config carries everything main needs to wire the service
type Config struct {
	ListenAddr    string
	SigningSecret string
	DatabasePath  string
	RedisURL      string // empty means single-instance, in-memory revocation
}

// Load reads configuration from the environment, honoring a .env file if
// one is present.
func Load(logger *log.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env file", "error", err)
	}

	cfg := &Config{
		ListenAddr:    envOr("LISTEN_ADDR", ":9000"),
		SigningSecret: os.Getenv("SIGNING_SECRET"),
		DatabasePath:  envOr("DATABASE_PATH", "rolodex.db"),
		RedisURL:      os.Getenv("REDIS_URL"),
	}

	if cfg.SigningSecret == "" {
		logger.Warn("SIGNING_SECRET not set, using the development placeholder key")
		cfg.SigningSecret = DevSigningSecret
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
