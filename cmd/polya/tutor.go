package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/polya/internal/cli"
	"github.com/aretw0/polya/internal/logging"
	"github.com/aretw0/polya/pkg/adapters/tutor"
	"github.com/aretw0/polya/pkg/session"
	"github.com/spf13/cobra"
)

var tutorCmd = &cobra.Command{
	Use:   "tutor",
	Short: "Talk to the tutor service",
	Long: `Sends questions to the external tutor service and fetches recommendations.
The service is optional; practice sessions never depend on it.`,
}

var tutorChatCmd = &cobra.Command{
	Use:   "chat <message>...",
	Short: "Ask the tutor a question",
	Long: `Asks the tutor a question. With --session the active exercise and step of that
session are sent as context; otherwise --step and --context are used.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, _ := cmd.Flags().GetInt("step")
		problem, _ := cmd.Flags().GetString("context")
		sessionID, _ := cmd.Flags().GetString("session")
		ctx := context.Background()

		if sessionID != "" {
			engine, err := cli.NewEngine(cfg, logging.NewNop())
			if err != nil {
				return err
			}
			var stepIndex int
			if err := withManager(func(ctx context.Context, m *session.Manager) error {
				sess, err := m.Load(ctx, sessionID)
				if err != nil {
					return fmt.Errorf("failed to load session '%s': %w", sessionID, err)
				}
				if err := engine.Validate(sess); err != nil {
					return err
				}
				problem = engine.Exercises()[sess.ExerciseIndex].Problem
				stepIndex = sess.StepIndex
				return nil
			}); err != nil {
				return err
			}
			step = stepIndex + 1
		}

		client, err := newTutorClient(cmd)
		if err != nil {
			return err
		}
		fmt.Println(client.Reply(ctx, strings.Join(args, " "), problem, step))
		return nil
	},
}

var tutorHintCmd = &cobra.Command{
	Use:   "hint",
	Short: "Fetch generic guidance for a step of the method",
	RunE: func(cmd *cobra.Command, args []string) error {
		step, _ := cmd.Flags().GetInt("step")
		problemType, _ := cmd.Flags().GetString("type")

		client, err := newTutorClient(cmd)
		if err != nil {
			return err
		}
		resp, err := client.Hint(context.Background(), step, problemType)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var tutorRecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Show personalized content recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newTutorClient(cmd)
		if err != nil {
			return err
		}
		resp, err := client.Personalized(context.Background())
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

var tutorPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the recommended learning path",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newTutorClient(cmd)
		if err != nil {
			return err
		}
		resp, err := client.LearningPath(context.Background())
		if err != nil {
			return err
		}
		for _, phase := range resp.Phases {
			fmt.Println(phase.Phase)
			for _, item := range phase.Items {
				fmt.Printf("  - %s (%s)\n", item.Title, item.Type)
			}
		}
		if resp.EstimatedTotalTime > 0 {
			fmt.Printf("Estimated time: %d min\n", resp.EstimatedTotalTime)
		}
		return nil
	},
}

func newTutorClient(cmd *cobra.Command) (*tutor.Client, error) {
	return tutor.New(cfg.Tutor.URL,
		tutor.WithTimeout(cfg.Tutor.Timeout),
		tutor.WithUserID(cfg.Tutor.UserID),
		tutor.WithLogger(cli.CreateLogger(debugEnabled(cmd), cfg.LogLevel)),
	)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(tutorCmd)
	tutorCmd.AddCommand(tutorChatCmd)
	tutorCmd.AddCommand(tutorHintCmd)
	tutorCmd.AddCommand(tutorRecommendCmd)
	tutorCmd.AddCommand(tutorPathCmd)

	tutorChatCmd.Flags().Int("step", 1, "Method step the question is about (1-4)")
	tutorChatCmd.Flags().String("context", "", "Problem statement sent as context")
	tutorChatCmd.Flags().StringP("session", "s", "", "Take context from this session")
	tutorHintCmd.Flags().Int("step", 1, "Method step (1-4)")
	tutorHintCmd.Flags().String("type", "general", "Problem type")
}
