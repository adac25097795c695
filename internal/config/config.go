package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "BarterHubWallet"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultAccessTTL      = 15 * time.Minute
	defaultRefreshTTL     = 30 * 24 * time.Hour
)

// Policy holds the money-movement rules applied by the wallet services.
// Amounts are integer cents; the fee rate is in basis points.
type Policy struct {
	TransferFeeBps      int
	TransferMinCents    int64
	TransferMaxCents    int64
	TopUpMinCents       int64
	TopUpMaxCents       int64
	TransferRatePerHour int
	RedeemRatePerHour   int
}

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName         string
	AppEnv          string
	Port            string
	LogLevel        string
	DatabaseURL     string
	RedisURL        string
	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ShutdownPeriod  time.Duration
	IdempotencyTTL  time.Duration
	Policy          Policy
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		AppEnv:          getEnv("APP_ENV", defaultAppEnv),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-access-secret"),
		RefreshSecret:   getEnv("REFRESH_SECRET", "dev-refresh-secret"),
		AccessTokenTTL:  defaultAccessTTL,
		RefreshTokenTTL: defaultRefreshTTL,
		ShutdownPeriod:  defaultShutdownDelay,
		IdempotencyTTL:  defaultIdempotencyTTL,
		Policy:          defaultPolicy(),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = durationEnv("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationEnv("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL); err != nil {
		return Config{}, err
	}
	if err := loadPolicy(&cfg.Policy); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" && !cfg.IsDev() {
		return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
	}
	if cfg.RedisURL == "" && !cfg.IsDev() {
		return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
	}

	return cfg, nil
}

func defaultPolicy() Policy {
	return Policy{
		TransferFeeBps:      500,       // 5%
		TransferMinCents:    500,       // N$5
		TransferMaxCents:    1_000_000, // N$10,000
		TopUpMinCents:       500,
		TopUpMaxCents:       5_000_000,
		TransferRatePerHour: 20,
		RedeemRatePerHour:   10,
	}
}

func loadPolicy(p *Policy) error {
	var err error
	if p.TransferFeeBps, err = intEnv("TRANSFER_FEE_BPS", p.TransferFeeBps); err != nil {
		return err
	}
	if p.TransferMinCents, err = int64Env("TRANSFER_MIN_CENTS", p.TransferMinCents); err != nil {
		return err
	}
	if p.TransferMaxCents, err = int64Env("TRANSFER_MAX_CENTS", p.TransferMaxCents); err != nil {
		return err
	}
	if p.TopUpMinCents, err = int64Env("TOPUP_MIN_CENTS", p.TopUpMinCents); err != nil {
		return err
	}
	if p.TopUpMaxCents, err = int64Env("TOPUP_MAX_CENTS", p.TopUpMaxCents); err != nil {
		return err
	}
	if p.TransferRatePerHour, err = intEnv("TRANSFER_RATE_PER_HOUR", p.TransferRatePerHour); err != nil {
		return err
	}
	if p.RedeemRatePerHour, err = intEnv("REDEEM_RATE_PER_HOUR", p.RedeemRatePerHour); err != nil {
		return err
	}
	return nil
}

// IsDev reports whether the app runs in a development-like environment where
// the Postgres and Redis backends may be substituted with in-memory fallbacks.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func int64Env(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
