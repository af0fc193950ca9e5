package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{EnvStore, EnvSessionDir, EnvRedisTTL, EnvCORSOrigins, EnvTutorTimeout, EnvHTTPAddr} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, ".polya/sessions", cfg.SessionDir)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 15*time.Second, cfg.Tutor.Timeout)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv(EnvStore, "Redis")
	t.Setenv(EnvRedisAddr, "cache:6380")
	t.Setenv(EnvRedisDB, "3")
	t.Setenv(EnvRedisTTL, "90m")
	t.Setenv(EnvCORSOrigins, "http://a.test, http://b.test ,")
	t.Setenv(EnvTutorTimeout, "not-a-duration")
	t.Setenv(EnvUserID, "learner-7")
	t.Setenv(EnvEncryptionKey, "active")
	t.Setenv(EnvEncryptionFallbackKeys, "old1,old2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 90*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 15*time.Second, cfg.Tutor.Timeout, "invalid durations fall back")
	assert.Equal(t, "learner-7", cfg.Tutor.UserID)
	assert.Equal(t, "active", cfg.EncryptionKey)
	assert.Equal(t, []string{"old1", "old2"}, cfg.EncryptionFallbackKeys)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:      StoreFile,
			SessionDir: "sessions",
			HTTPAddr:   ":8080",
			Tutor:      TutorConfig{Timeout: time.Second},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"file", func(c *Config) {}, true},
		{"memory", func(c *Config) { c.Store = StoreMemory; c.SessionDir = "" }, true},
		{"unknown store", func(c *Config) { c.Store = "etcd" }, false},
		{"file without dir", func(c *Config) { c.SessionDir = "" }, false},
		{"redis without addr", func(c *Config) { c.Store = StoreRedis }, false},
		{"redis negative ttl", func(c *Config) { c.Store = StoreRedis; c.Redis = RedisConfig{Addr: "x", TTL: -time.Second} }, false},
		{"sqlite without path", func(c *Config) { c.Store = StoreSQLite }, false},
		{"empty http addr", func(c *Config) { c.HTTPAddr = "" }, false},
		{"zero tutor timeout", func(c *Config) { c.Tutor.Timeout = 0 }, false},
		{"fallback keys without key", func(c *Config) { c.EncryptionFallbackKeys = []string{"k"} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoad_InvalidStore(t *testing.T) {
	t.Setenv(EnvStore, "etcd")
	_, err := Load()
	assert.ErrorContains(t, err, "unknown store")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("POLYA_SQLITE_PATH=from-dotenv.db\nPOLYA_LOG_LEVEL=debug\n"), 0644))

	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvSQLitePath, "")
	os.Unsetenv(EnvSQLitePath)

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	t.Cleanup(func() { os.Unsetenv(EnvSQLitePath) })

	assert.Equal(t, "from-dotenv.db", os.Getenv(EnvSQLitePath))
	assert.Equal(t, "warn", os.Getenv(EnvLogLevel), "existing variables win")
}
