package main

import (
	"fmt"
	"os"

	"github.com/aretw0/polya/internal/config"
	"github.com/spf13/cobra"
)

// cfg is resolved once per invocation in PersistentPreRunE.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "polya",
	Short: "Polya is a four-step problem-solving tutor",
	Long: `Polya guides learners through Understand, Plan, Execute and Look Back
on practice exercises, from the terminal, over HTTP or as an MCP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		// Flags take precedence over the environment.
		for flag, key := range flagEnv {
			if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
				if err := os.Setenv(key, f.Value.String()); err != nil {
					return fmt.Errorf("failed to apply --%s: %w", flag, err)
				}
			}
		}
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

var flagEnv = map[string]string{
	"catalog":     config.EnvCatalog,
	"store":       config.EnvStore,
	"session-dir": config.EnvSessionDir,
	"sqlite-path": config.EnvSQLitePath,
	"redis-addr":  config.EnvRedisAddr,
	"log-level":   config.EnvLogLevel,
	"tutor-url":   config.EnvTutorURL,
	"user":        config.EnvUserID,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("env-file", ".env", "Optional .env file with POLYA_* variables")
	flags.String("catalog", "", "Exercise catalog file (YAML or JSON); empty uses the built-in catalog")
	flags.String("store", "", "Session store: memory, file, redis or sqlite")
	flags.String("session-dir", "", "Directory of the file store")
	flags.String("sqlite-path", "", "Database file of the sqlite store")
	flags.String("redis-addr", "", "Address of the redis store")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("tutor-url", "", "Base URL of the tutor service")
	flags.String("user", "", "Learner identity for the tutor service and recorded progress")
	flags.Bool("debug", false, "Enable debug logging")
}

func debugEnabled(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool("debug")
	return debug
}
