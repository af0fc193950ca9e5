package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/polya/internal/cli"
	"github.com/aretw0/polya/internal/config"
	"github.com/aretw0/polya/pkg/adapters/sqlite"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate restores the variables the root command exports from its flags.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{config.EnvStore, config.EnvSQLitePath, config.EnvUserID} {
		t.Setenv(key, "")
	}
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestSessionProgress(t *testing.T) {
	envFile := isolate(t)
	path := filepath.Join(t.TempDir(), "polya.db")

	store, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, store.RecordCompletion(context.Background(), domain.Completion{
		UserID: "ana", SessionID: "s1", ExerciseID: "shopping-optimization", Category: "math",
		Score: 75, Substantive: 3, StepCount: 4, CompletedAt: time.Now(),
	}))
	require.NoError(t, store.Close())

	base := []string{"--env-file", envFile, "--store", "sqlite", "--sqlite-path", path, "--user", "ana"}

	rootCmd.SetArgs(append(base, "session", "progress"))
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "ana", cfg.Tutor.UserID)

	rootCmd.SetArgs(append(base, "session", "progress", "nobody"))
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs(append(base, "session", "leaderboard"))
	require.NoError(t, rootCmd.Execute())
}

func TestSessionProgress_RequiresSQLite(t *testing.T) {
	envFile := isolate(t)

	rootCmd.SetArgs([]string{"--env-file", envFile, "--store", "memory", "--user", "ana", "session", "progress"})
	assert.ErrorIs(t, rootCmd.Execute(), cli.ErrProgressUnsupported)
}

func TestCasesCommand(t *testing.T) {
	envFile := isolate(t)
	base := []string{"--env-file", envFile, "--store", "memory", "--user", "ana"}

	rootCmd.SetArgs(append(base, "cases"))
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs(append(base, "cases", "2", "--plain"))
	require.NoError(t, rootCmd.Execute())

	rootCmd.SetArgs(append(base, "cases", "3"))
	assert.ErrorIs(t, rootCmd.Execute(), domain.ErrOutOfRange)
}
