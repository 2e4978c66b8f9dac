package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the environment-driven service configuration. Every knob has
// a PRETOR_* variable; cmd binaries load a .env file first when present.
type Config struct {
	Addr  string
	PGDSN string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	BcryptCost   int
	AuthCacheTTL time.Duration
}

const (
	defaultAddr         = ":8080"
	defaultAccessTTL    = 86400 * time.Second
	defaultRefreshTTL   = 604800 * time.Second
	defaultBcryptCost   = 12
	defaultAuthCacheTTL = 10 * time.Second
)

// Load reads configuration from the environment. The JWT secret is the only
// required value.
func Load() (Config, error) {
	cfg := Config{
		Addr:         envOr("PRETOR_ADDR", defaultAddr),
		PGDSN:        strings.TrimSpace(os.Getenv("PRETOR_PG_DSN")),
		JWTSecret:    strings.TrimSpace(os.Getenv("PRETOR_JWT_SECRET")),
		AccessTTL:    defaultAccessTTL,
		RefreshTTL:   defaultRefreshTTL,
		BcryptCost:   defaultBcryptCost,
		AuthCacheTTL: defaultAuthCacheTTL,
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("config: PRETOR_JWT_SECRET is required")
	}

	var err error
	if cfg.AccessTTL, err = envSeconds("PRETOR_JWT_ACCESS_TTL", cfg.AccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = envSeconds("PRETOR_JWT_REFRESH_TTL", cfg.RefreshTTL); err != nil {
		return Config{}, err
	}
	if cfg.AuthCacheTTL, err = envSeconds("PRETOR_AUTHN_CACHE_TTL", cfg.AuthCacheTTL); err != nil {
		return Config{}, err
	}
	if raw := strings.TrimSpace(os.Getenv("PRETOR_BCRYPT_COST")); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 4 || n > 31 {
			return Config{}, fmt.Errorf("config: PRETOR_BCRYPT_COST must be an integer between 4 and 31, got %q", raw)
		}
		cfg.BcryptCost = n
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envSeconds(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive number of seconds, got %q", key, raw)
	}
	return time.Duration(n) * time.Second, nil
}
