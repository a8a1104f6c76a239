package session

import (
	"os"
	"strconv"
	"time"
)

// Config defines runtime configuration for the session lifecycle.
//
// It is intentionally explicit and environment-driven so production
// deployments can tune security parameters without code changes.
type Config struct {
	// Lifetime is the validity window of an issued secret; a record's
	// expires_at is fixed at creation to created_at + Lifetime.
	Lifetime time.Duration

	// SecretBytes is the number of random bytes behind each opaque secret.
	// 32 bytes (256 bits) is the floor.
	SecretBytes int
}

// DefaultConfig returns a secure default configuration suitable for development.
func DefaultConfig() Config {
	return Config{
		Lifetime:    7 * 24 * time.Hour,
		SecretBytes: 32,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional:
//   - PASSAGE_SESSION_LIFETIME (Go duration string)
//   - PASSAGE_SESSION_SECRET_BYTES (32..64)
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("PASSAGE_SESSION_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.Lifetime = d
	}

	if v := os.Getenv("PASSAGE_SESSION_SECRET_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 32 || n > 64 {
			return Config{}, ErrConfig
		}
		cfg.SecretBytes = n
	}

	return cfg, nil
}
