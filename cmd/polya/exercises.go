package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/aretw0/polya/internal/cli"
	"github.com/aretw0/polya/internal/logging"
	"github.com/aretw0/polya/internal/presentation/graph"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/spf13/cobra"
)

var exercisesCmd = &cobra.Command{
	Use:     "exercises",
	Aliases: []string{"ls"},
	Short:   "List the exercises of the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := cli.NewEngine(cfg, logging.NewNop())
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tID\tTITLE\tDIFFICULTY\tCATEGORY\tSTEPS")
		for i, ex := range engine.Exercises() {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n", i+1, ex.ID, ex.Title, ex.Difficulty, ex.Category, ex.StepCount())
		}
		return tw.Flush()
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph [exercise]",
	Short: "Export the step flow of an exercise as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of an exercise's steps. With --session the
diagram highlights the active step and marks answered steps.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")

		engine, err := cli.NewEngine(cfg, logging.NewNop())
		if err != nil {
			return err
		}
		exercises := engine.Exercises()

		index := 0
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid exercise number %q", args[0])
			}
			index = n - 1
		}

		var overlay *graph.Overlay
		if sessionID != "" {
			ctx := context.Background()
			persistence, err := cli.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer persistence.Close()

			sess, err := persistence.Manager(logging.NewNop()).Load(ctx, sessionID)
			if err != nil {
				return fmt.Errorf("failed to load session '%s': %w", sessionID, err)
			}
			if err := engine.Validate(sess); err != nil {
				return err
			}
			if len(args) == 0 {
				index = sess.ExerciseIndex
			}
			if index == sess.ExerciseIndex {
				overlay = graph.OverlayFor(sess)
			}
		}

		if err := domain.CheckIndex("graph", index, len(exercises)); err != nil {
			return err
		}
		fmt.Print(graph.GenerateMermaid(exercises[index], overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exercisesCmd)
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Overlay the progress of this session")
}
