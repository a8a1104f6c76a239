package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogPretty bool

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	SweepInterval time.Duration
	SweepDisabled bool

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Security policy:
	// If true, PASSAGE_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and secret hashing must be HMAC-based.
	RequireTokenHMAC bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("PASSAGE_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("PASSAGE_LOG_LEVEL", "info"),
		LogPretty: EnvBool("PASSAGE_LOG_PRETTY", false),

		DatabaseURL: EnvString("PASSAGE_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("PASSAGE_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("PASSAGE_DB_MIN_CONNS", 0),

		SweepInterval: EnvDuration("PASSAGE_SWEEP_INTERVAL", 15*time.Minute),
		SweepDisabled: EnvBool("PASSAGE_SWEEP_DISABLED", false),

		ReadinessRequireDB: EnvBool("PASSAGE_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("PASSAGE_REQUIRE_TOKEN_HMAC", false),
	}
}
