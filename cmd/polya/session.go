package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/aretw0/polya/internal/cli"
	"github.com/aretw0/polya/internal/logging"
	"github.com/aretw0/polya/pkg/session"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent sessions",
	Long:  `List, inspect, summarize and remove sessions in the configured store, and
report learner progress recorded on completion.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(ctx context.Context, m *session.Manager) error {
			ids, err := m.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list sessions: %w", err)
			}
			if len(ids) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}
			fmt.Println("Sessions:")
			for _, id := range ids {
				fmt.Println("- " + id)
			}
			return nil
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(func(ctx context.Context, m *session.Manager) error {
			sess, err := m.Load(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load session '%s': %w", args[0], err)
			}
			data, err := json.MarshalIndent(sess, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal session: %w", err)
			}
			fmt.Println(string(data))
			return nil
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return errors.New("requires at least one session ID or --all")
		}
		return withManager(func(ctx context.Context, m *session.Manager) error {
			ids := args
			if all {
				var err error
				if ids, err = m.List(ctx); err != nil {
					return fmt.Errorf("failed to list sessions: %w", err)
				}
			}
			var errs []error
			for _, id := range ids {
				if err := m.Delete(ctx, id); err != nil {
					errs = append(errs, fmt.Errorf("failed to remove '%s': %w", id, err))
					continue
				}
				fmt.Printf("Removed session '%s'\n", id)
			}
			return errors.Join(errs...)
		})
	},
}

var sessionStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize attempts and scores per exercise (sqlite store)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		persistence, err := cli.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer persistence.Close()

		summary, err := persistence.Summary(ctx)
		if err != nil {
			return err
		}
		if len(summary) == 0 {
			fmt.Println("No sessions recorded.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "EXERCISE\tSESSIONS\tCOMPLETED\tAVG SCORE")
		for _, row := range summary {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f\n", row.ExerciseID, row.Sessions, row.Completed, row.AverageScore)
		}
		return tw.Flush()
	},
}

var sessionProgressCmd = &cobra.Command{
	Use:   "progress [user]",
	Short: "Show a learner's completions and scores (sqlite store)",
	Long: `Summarizes the completion history of a learner: completions, average and best
score, per-category figures and the latest attempts. The learner defaults to
--user (POLYA_USER_ID).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := cfg.Tutor.UserID
		if len(args) == 1 {
			userID = args[0]
		}
		recent, _ := cmd.Flags().GetInt("recent")

		ctx := context.Background()
		persistence, err := cli.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer persistence.Close()

		p, err := persistence.LearnerProgress(ctx, userID, recent)
		if err != nil {
			return err
		}
		if p.Completions == 0 {
			fmt.Printf("No completions recorded for '%s'.\n", userID)
			return nil
		}

		fmt.Printf("Learner:       %s\n", p.UserID)
		fmt.Printf("Completions:   %d (%d distinct exercises)\n", p.Completions, p.Exercises)
		fmt.Printf("Average score: %.1f\n", p.AverageScore)
		fmt.Printf("Best score:    %d\n", p.BestScore)
		if p.LastActivity != nil {
			fmt.Printf("Last activity: %s\n", p.LastActivity.Local().Format(time.DateTime))
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "\nCATEGORY\tCOMPLETIONS\tAVG SCORE")
		for _, c := range p.ByCategory {
			fmt.Fprintf(tw, "%s\t%d\t%.1f\n", c.Category, c.Completions, c.AverageScore)
		}
		if len(p.Recent) > 0 {
			fmt.Fprintln(tw, "\nCOMPLETED\tEXERCISE\tSESSION\tSCORE\tSUBSTANTIVE")
			for _, c := range p.Recent {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d/%d\n",
					c.CompletedAt.Local().Format(time.DateTime), c.ExerciseID, c.SessionID, c.Score, c.Substantive, c.StepCount)
			}
		}
		return tw.Flush()
	},
}

var sessionLeaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank learners by completions (sqlite store)",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := context.Background()
		persistence, err := cli.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer persistence.Close()

		board, err := persistence.Leaderboard(ctx, limit)
		if err != nil {
			return err
		}
		if len(board) == 0 {
			fmt.Println("No completions recorded.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RANK\tLEARNER\tCOMPLETIONS\tAVG SCORE")
		for _, e := range board {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%.1f\n", e.Rank, e.UserID, e.Completions, e.AverageScore)
		}
		return tw.Flush()
	},
}

func withManager(fn func(context.Context, *session.Manager) error) error {
	ctx := context.Background()
	persistence, err := cli.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer persistence.Close()
	return fn(ctx, persistence.Manager(logging.NewNop()))
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionStatsCmd)
	sessionCmd.AddCommand(sessionProgressCmd)
	sessionCmd.AddCommand(sessionLeaderboardCmd)
	sessionRmCmd.Flags().Bool("all", false, "Remove every session in the store")
	sessionProgressCmd.Flags().Int("recent", 5, "Number of latest completions to list")
	sessionLeaderboardCmd.Flags().Int("limit", 10, "Number of learners to show (0 for all)")
}
