package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	DatabaseURL       string
	StoreDriver       string
	HTTPListenAddr    string
	MetricsListenAddr string
	LogLevel          string
	LogFormat         string
	ServiceName       string
	// TrustedIssuers lists the OIDC issuers whose tokens grant write access.
	TrustedIssuers []string
	OIDCAudience   string
	// WriteSubjects restricts writes to these token subjects. Empty allows
	// any subject of a trusted issuer.
	WriteSubjects      []string
	CORSOrigins        []string
	RateLimitPerMinute int
}

// Load reads the configuration from the environment. A .env file in the
// working directory, when present, fills variables not already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	rate, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "0"))
	if err != nil {
		return nil, fmt.Errorf("parse RATE_LIMIT_PER_MINUTE: %w", err)
	}

	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		StoreDriver:        getEnv("STORE_DRIVER", StoreDriverPostgres),
		HTTPListenAddr:     getEnv("HTTP_LISTEN_ADDR", ":8000"),
		MetricsListenAddr:  getEnv("METRICS_LISTEN_ADDR", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		ServiceName:        getEnv("SERVICE_NAME", "fedreg-api"),
		TrustedIssuers:     getList("OIDC_TRUSTED_ISSUERS", ""),
		OIDCAudience:       getEnv("OIDC_AUDIENCE", ""),
		WriteSubjects:      getList("WRITE_SUBJECTS", ""),
		CORSOrigins:        getList("CORS_ORIGINS", "*"),
		RateLimitPerMinute: rate,
	}

	return cfg, nil
}

// Validate checks that every variable required by component is set and
// reports all missing ones at once.
func (c *Config) Validate(component string) error {
	var missing []string

	switch component {
	case "fedreg-api":
		if c.HTTPListenAddr == "" {
			missing = append(missing, "HTTP_LISTEN_ADDR")
		}
		switch c.StoreDriver {
		case StoreDriverPostgres:
			if c.DatabaseURL == "" {
				missing = append(missing, "DATABASE_URL")
			}
		case StoreDriverMemory:
		default:
			return fmt.Errorf("invalid STORE_DRIVER %q: expected %s or %s", c.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
		}
		if c.RateLimitPerMinute < 0 {
			return fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE %d: must not be negative", c.RateLimitPerMinute)
		}
	case "fedreg-migrate":
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables for %s: %s", component, strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getList splits a comma separated variable, dropping empty entries.
func getList(key, fallback string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, fallback), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
