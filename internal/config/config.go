// Package config reads Polya configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// StoreKind selects the session store backend.
type StoreKind string

const (
	StoreMemory StoreKind = "memory"
	StoreFile   StoreKind = "file"
	StoreRedis  StoreKind = "redis"
	StoreSQLite StoreKind = "sqlite"
)

// Environment keys.
const (
	EnvCatalog       = "POLYA_CATALOG"
	EnvStore         = "POLYA_STORE"
	EnvSessionDir    = "POLYA_SESSION_DIR"
	EnvRedisAddr     = "POLYA_REDIS_ADDR"
	EnvRedisPassword = "POLYA_REDIS_PASSWORD"
	EnvRedisDB       = "POLYA_REDIS_DB"
	EnvRedisTTL      = "POLYA_REDIS_TTL"
	EnvSQLitePath    = "POLYA_SQLITE_PATH"
	EnvHTTPAddr      = "POLYA_HTTP_ADDR"
	EnvMetricsAddr   = "POLYA_METRICS_ADDR"
	EnvCORSOrigins   = "POLYA_CORS_ORIGINS"
	EnvTutorURL      = "POLYA_TUTOR_URL"
	EnvTutorTimeout  = "POLYA_TUTOR_TIMEOUT"
	EnvUserID        = "POLYA_USER_ID"
	EnvLogLevel      = "POLYA_LOG_LEVEL"

	EnvEncryptionKey          = "POLYA_ENCRYPTION_KEY"
	EnvEncryptionFallbackKeys = "POLYA_ENCRYPTION_FALLBACK_KEYS"
)

// Config holds all application configuration.
type Config struct {
	CatalogPath string // empty selects the embedded catalog
	Store       StoreKind
	SessionDir  string
	SQLitePath  string
	Redis       RedisConfig
	HTTPAddr    string
	MetricsAddr string // empty disables the metrics listener
	CORSOrigins []string
	Tutor       TutorConfig
	LogLevel    string

	// EncryptionKey enables answer encryption at rest when set (base64 or hex, 32 bytes).
	EncryptionKey          string
	EncryptionFallbackKeys []string
}

// RedisConfig configures the Redis store and lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // 0 keeps sessions forever
}

// TutorConfig configures the external tutor client.
type TutorConfig struct {
	URL     string
	Timeout time.Duration
	UserID  string
}

// LoadDotEnv loads variables from the given .env files (default ".env").
// Missing files are ignored and variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		CatalogPath: getEnv(EnvCatalog, ""),
		Store:       StoreKind(strings.ToLower(getEnv(EnvStore, string(StoreFile)))),
		SessionDir:  getEnv(EnvSessionDir, ".polya/sessions"),
		SQLitePath:  getEnv(EnvSQLitePath, ".polya/polya.db"),
		Redis: RedisConfig{
			Addr:     getEnv(EnvRedisAddr, "localhost:6379"),
			Password: getEnv(EnvRedisPassword, ""),
			DB:       getEnvInt(EnvRedisDB, 0),
			TTL:      getEnvDuration(EnvRedisTTL, 24*time.Hour),
		},
		HTTPAddr:    getEnv(EnvHTTPAddr, ":8080"),
		MetricsAddr: getEnv(EnvMetricsAddr, ""),
		CORSOrigins: getEnvList(EnvCORSOrigins, []string{"*"}),
		Tutor: TutorConfig{
			URL:     getEnv(EnvTutorURL, "http://localhost:5000"),
			Timeout: getEnvDuration(EnvTutorTimeout, 15*time.Second),
			UserID:  getEnv(EnvUserID, "default_user"),
		},
		LogLevel:               getEnv(EnvLogLevel, "info"),
		EncryptionKey:          getEnv(EnvEncryptionKey, ""),
		EncryptionFallbackKeys: getEnvList(EnvEncryptionFallbackKeys, nil),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreMemory:
	case StoreFile:
		if c.SessionDir == "" {
			errs = append(errs, fmt.Errorf("%s cannot be empty for the file store", EnvSessionDir))
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("%s cannot be empty for the redis store", EnvRedisAddr))
		}
		if c.Redis.TTL < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0", EnvRedisTTL))
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("%s cannot be empty for the sqlite store", EnvSQLitePath))
		}
	default:
		errs = append(errs, fmt.Errorf("%s: unknown store %q (want memory, file, redis or sqlite)", EnvStore, c.Store))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, fmt.Errorf("%s cannot be empty", EnvHTTPAddr))
	}
	if c.EncryptionKey == "" && len(c.EncryptionFallbackKeys) > 0 {
		errs = append(errs, fmt.Errorf("%s requires %s", EnvEncryptionFallbackKeys, EnvEncryptionKey))
	}
	if c.Tutor.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be > 0", EnvTutorTimeout))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
