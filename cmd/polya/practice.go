package main

import (
	"context"
	"fmt"

	"github.com/aretw0/polya/internal/cli"
	"github.com/spf13/cobra"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Work through an exercise in the terminal",
	Long: `Starts or resumes a practice session. Answers, hints and the active step are
saved after every command, so the session can be picked up later with the same --session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		exercise, _ := cmd.Flags().GetInt("exercise")
		fresh, _ := cmd.Flags().GetBool("fresh")
		plain, _ := cmd.Flags().GetBool("plain")
		quiet, _ := cmd.Flags().GetBool("quiet")
		if exercise < 1 {
			return fmt.Errorf("--exercise must be >= 1, got %d", exercise)
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		return cli.RunPractice(ctx, cfg, cli.PracticeOptions{
			SessionID: sessionID,
			Exercise:  exercise - 1,
			Fresh:     fresh,
			Debug:     debugEnabled(cmd),
			Plain:     plain,
			Quiet:     quiet,
		})
	},
}

func init() {
	rootCmd.AddCommand(practiceCmd)
	practiceCmd.Flags().StringP("session", "s", cli.DefaultSessionID, "Session ID to start or resume")
	practiceCmd.Flags().IntP("exercise", "e", 1, "Exercise number for a new session (1-based)")
	practiceCmd.Flags().Bool("fresh", false, "Discard any saved progress for the session")
	practiceCmd.Flags().Bool("plain", false, "Disable markdown rendering")
	practiceCmd.Flags().BoolP("quiet", "q", false, "Suppress banner and status lines")
}
