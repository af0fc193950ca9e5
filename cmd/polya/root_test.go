package main

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/polya/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv(config.EnvStore, "redis")
	t.Setenv(config.EnvSessionDir, "from-env")
	t.Setenv(config.EnvUserID, "")
	dir := t.TempDir()

	rootCmd.SetArgs([]string{
		"--env-file", filepath.Join(dir, "missing.env"),
		"--store", "memory",
		"--user", "learner-9",
		"validate",
	})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, "from-env", cfg.SessionDir)
	assert.Equal(t, "learner-9", cfg.Tutor.UserID)
}

func TestRoot_InvalidStore(t *testing.T) {
	t.Setenv(config.EnvStore, "")
	t.Setenv(config.EnvUserID, "")
	rootCmd.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "--store", "etcd", "validate"})
	assert.Error(t, rootCmd.Execute())
}
